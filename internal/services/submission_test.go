package services

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"urja/internal/config"
	"urja/internal/database"
	"urja/internal/domain"
	"urja/internal/notify"
	"urja/internal/store"
	apperrors "urja/pkg/errors"
)

// fakeStore is an in-memory InquiryStore.
type fakeStore struct {
	err error

	mu    sync.Mutex
	items map[string]*domain.Inquiry
	seq   int
}

func (f *fakeStore) Insert(_ context.Context, draft domain.Draft) (*domain.Inquiry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.items == nil {
		f.items = map[string]*domain.Inquiry{}
	}
	f.seq++
	inq := &domain.Inquiry{
		ID:          "inq-" + strconv.Itoa(f.seq),
		Name:        draft.Name,
		Company:     draft.Company,
		Email:       draft.Email,
		Phone:       draft.Phone,
		Requirement: draft.Requirement,
		CreatedAt:   time.Now().UTC(),
	}
	f.items[inq.ID] = inq
	return inq, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*domain.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inq, ok := f.items[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "inquiry not found")
	}
	return inq, nil
}

// countingNotifier records every Send.
type countingNotifier struct {
	calls atomic.Int32
	err   error
}

func (n *countingNotifier) Send(_ context.Context, inquiry *domain.Inquiry) (*notify.DispatchResult, error) {
	n.calls.Add(1)
	if n.err != nil {
		return nil, n.err
	}
	return &notify.DispatchResult{Accepted: []string{"admin@urja.example"}, MessageID: "<" + inquiry.ID + "@urja.example>"}, nil
}

func sampleDraft() domain.Draft {
	return domain.Draft{
		Name:        "Asha Rao",
		Company:     "Rao Solar",
		Email:       "asha@raosolar.example",
		Phone:       "+919876543210",
		Requirement: "Rooftop install\nfor 3 buildings",
	}
}

func TestSubmitNotified(t *testing.T) {
	st := &fakeStore{}
	n := &countingNotifier{}

	res, err := NewSubmissionService(st, n).Submit(context.Background(), sampleDraft())
	require.NoError(t, err)

	assert.Equal(t, StatusNotified, res.Status)
	assert.False(t, res.PartialSuccess())
	assert.NoError(t, res.NotifyErr)
	require.NotNil(t, res.Dispatch)
	assert.Equal(t, []string{"admin@urja.example"}, res.Dispatch.Accepted)
	assert.EqualValues(t, 1, n.calls.Load())
}

func TestSubmitStorageFailureNeverNotifies(t *testing.T) {
	st := &fakeStore{err: apperrors.Wrap(apperrors.ErrCodeStorageUnavailable, "failed to save inquiry", errors.New("connection refused"))}
	n := &countingNotifier{}

	res, err := NewSubmissionService(st, n).Submit(context.Background(), sampleDraft())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, apperrors.IsStorageUnavailable(err))
	assert.Zero(t, n.calls.Load())
}

func TestSubmitNotificationFailureIsPartialSuccess(t *testing.T) {
	for name, notifyErr := range map[string]error{
		"not configured":     apperrors.New(apperrors.ErrCodeNotConfigured, "email transport not configured"),
		"transport rejected": apperrors.Wrap(apperrors.ErrCodeTransportRejected, "mail server rejected the notification", errors.New("554")),
	} {
		t.Run(name, func(t *testing.T) {
			st := &fakeStore{}
			n := &countingNotifier{err: notifyErr}

			res, err := NewSubmissionService(st, n).Submit(context.Background(), sampleDraft())
			require.NoError(t, err)
			assert.True(t, res.PartialSuccess())
			assert.Equal(t, StatusNotificationFailed, res.Status)
			assert.Nil(t, res.Dispatch)
			assert.ErrorIs(t, res.NotifyErr, notifyErr)

			stored, err := st.Get(context.Background(), res.Inquiry.ID)
			require.NoError(t, err)
			assert.Equal(t, res.Inquiry, stored)
		})
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urja.db")
	db, err := database.Open(config.DatabaseConfig{URL: "sqlite:///" + path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func unreachableMailConfig(t *testing.T) config.MailConfig {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().(*net.TCPAddr)
	require.NoError(t, l.Close())
	return config.MailConfig{
		Host:       "127.0.0.1",
		Port:       addr.Port,
		Username:   "forms@urja.example",
		Password:   "secret",
		AdminEmail: "admin@urja.example",
	}
}

func TestSubmitEndToEndBrokenTransport(t *testing.T) {
	st := store.New(openTestDB(t))
	svc := NewSubmissionService(st, notify.New(unreachableMailConfig(t)))

	res, err := svc.Submit(context.Background(), sampleDraft())
	require.NoError(t, err)
	require.True(t, res.PartialSuccess())
	assert.True(t, apperrors.IsTransportRejected(res.NotifyErr))
	assert.False(t, apperrors.IsStorageUnavailable(res.NotifyErr))

	stored, err := svc.Get(context.Background(), res.Inquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rao Solar", stored.Company)
	assert.Equal(t, "Rooftop install\nfor 3 buildings", stored.Requirement)
}

func TestSubmitEndToEndDegradedDispatcher(t *testing.T) {
	st := store.New(openTestDB(t))
	svc := NewSubmissionService(st, notify.New(config.MailConfig{}))

	res, err := svc.Submit(context.Background(), sampleDraft())
	require.NoError(t, err)
	require.True(t, res.PartialSuccess())
	assert.True(t, apperrors.IsNotConfigured(res.NotifyErr))

	_, err = svc.Get(context.Background(), res.Inquiry.ID)
	assert.NoError(t, err)
}

func TestSubmitEndToEndBrokenStore(t *testing.T) {
	db := openTestDB(t)
	st := store.New(db)
	require.NoError(t, database.Close(db))
	n := &countingNotifier{}

	res, err := NewSubmissionService(st, n).Submit(context.Background(), sampleDraft())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, apperrors.IsStorageUnavailable(err))
	assert.Zero(t, n.calls.Load())
}

func TestSubmitConcurrentSubmissionsAreIndependent(t *testing.T) {
	st := store.New(openTestDB(t))
	n := &countingNotifier{}
	svc := NewSubmissionService(st, n)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Submit(context.Background(), sampleDraft())
			if assert.NoError(t, err) {
				assert.Equal(t, StatusNotified, res.Status)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, workers, n.calls.Load())
}

func TestSubmitUncodedNotifyErrorIsTransportRejected(t *testing.T) {
	cause := errors.New("template: exec failed")
	n := &countingNotifier{err: cause}

	res, err := NewSubmissionService(&fakeStore{}, n).Submit(context.Background(), sampleDraft())
	require.NoError(t, err)
	require.True(t, res.PartialSuccess())
	assert.True(t, apperrors.IsTransportRejected(res.NotifyErr))
	assert.ErrorIs(t, res.NotifyErr, cause)
}
