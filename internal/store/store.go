// Package store persists contact inquiries. It is the only place where
// inquiry ids and creation timestamps are assigned.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"urja/internal/domain"
	"urja/internal/metrics"
	apperrors "urja/pkg/errors"
)

// InquiryStore writes and reads inquiries through a shared gorm pool.
type InquiryStore struct {
	db    *gorm.DB
	now   func() time.Time
	newID func() string
}

// Option customises an InquiryStore.
type Option func(*InquiryStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *InquiryStore) { s.now = now }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *InquiryStore) { s.newID = newID }
}

// New creates an InquiryStore on top of db.
func New(db *gorm.DB, opts ...Option) *InquiryStore {
	s := &InquiryStore{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert persists draft and returns the stored record with its id and
// creation time. Empty fields yield a ValidationError; any engine failure
// yields StorageUnavailable and leaves nothing behind.
func (s *InquiryStore) Insert(ctx context.Context, draft domain.Draft) (*domain.Inquiry, error) {
	if missing := draft.MissingFields(); len(missing) > 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "missing required fields: "+strings.Join(missing, ", "))
	}

	inquiry := &domain.Inquiry{
		ID:          s.newID(),
		Name:        draft.Name,
		Company:     draft.Company,
		Email:       draft.Email,
		Phone:       draft.Phone,
		Requirement: draft.Requirement,
		CreatedAt:   s.now(),
	}

	start := time.Now()
	err := s.db.WithContext(ctx).Create(inquiry).Error
	metrics.RecordDBQuery("inquiry_insert", time.Since(start), err)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorageUnavailable, "failed to save inquiry", err)
	}
	return inquiry, nil
}

// Get loads a stored inquiry by id.
func (s *InquiryStore) Get(ctx context.Context, id string) (*domain.Inquiry, error) {
	var inquiry domain.Inquiry

	start := time.Now()
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&inquiry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RecordDBQuery("inquiry_get", time.Since(start), nil)
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "inquiry not found")
	}
	metrics.RecordDBQuery("inquiry_get", time.Since(start), err)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorageUnavailable, "failed to load inquiry", err)
	}
	return &inquiry, nil
}
