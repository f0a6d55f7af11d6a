package services

import (
	"context"

	"go.uber.org/zap"

	"urja/internal/domain"
	applog "urja/internal/logger"
	"urja/internal/metrics"
	"urja/internal/notify"
	apperrors "urja/pkg/errors"
)

// InquiryStore persists inquiries.
type InquiryStore interface {
	Insert(ctx context.Context, draft domain.Draft) (*domain.Inquiry, error)
	Get(ctx context.Context, id string) (*domain.Inquiry, error)
}

// Notifier tells the operator about a stored inquiry.
type Notifier interface {
	Send(ctx context.Context, inquiry *domain.Inquiry) (*notify.DispatchResult, error)
}

// SubmissionStatus is the terminal state of a stored submission.
type SubmissionStatus string

const (
	// StatusNotified: stored and the operator email was accepted.
	StatusNotified SubmissionStatus = "notified"
	// StatusNotificationFailed: stored, but no email went out.
	StatusNotificationFailed SubmissionStatus = "notification_failed"
)

// SubmissionResult describes a submission whose inquiry was persisted.
type SubmissionResult struct {
	Inquiry  *domain.Inquiry
	Status   SubmissionStatus
	Dispatch *notify.DispatchResult
	// NotifyErr is set when Status is StatusNotificationFailed. Its code is
	// NOT_CONFIGURED or TRANSPORT_REJECTED.
	NotifyErr error
}

// PartialSuccess reports whether the inquiry was saved but the operator was not notified.
func (r *SubmissionResult) PartialSuccess() bool {
	return r.Status == StatusNotificationFailed
}

// SubmissionService stores a draft and then notifies the operator. The two
// steps are independent: a stored inquiry is never rolled back.
type SubmissionService struct {
	store    InquiryStore
	notifier Notifier
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(store InquiryStore, notifier Notifier) *SubmissionService {
	return &SubmissionService{
		store:    store,
		notifier: notifier,
	}
}

// Submit persists draft and sends the notification. A storage failure is
// returned as an error and the notifier is not called. A notification
// failure is reported in the result, not as an error.
func (s *SubmissionService) Submit(ctx context.Context, draft domain.Draft) (*SubmissionResult, error) {
	log := applog.From(ctx).Named("submission")

	inquiry, err := s.store.Insert(ctx, draft)
	if err != nil {
		metrics.RecordSubmission("failed")
		log.Error("submission abandoned: inquiry not stored",
			zap.String("code", string(apperrors.CodeOf(err))), zap.Error(err))
		return nil, err
	}
	log = log.With(zap.String("inquiry_id", inquiry.ID))
	log.Info("inquiry stored")

	dispatch, err := s.notifier.Send(ctx, inquiry)
	if err != nil {
		if apperrors.CodeOf(err) == "" {
			err = apperrors.Wrap(apperrors.ErrCodeTransportRejected, "notification failed", err)
		}
		metrics.RecordSubmission(string(StatusNotificationFailed))
		log.Warn("inquiry stored but operator was not notified",
			zap.String("code", string(apperrors.CodeOf(err))), zap.Error(err))
		return &SubmissionResult{
			Inquiry:   inquiry,
			Status:    StatusNotificationFailed,
			NotifyErr: err,
		}, nil
	}

	metrics.RecordSubmission(string(StatusNotified))
	return &SubmissionResult{
		Inquiry:  inquiry,
		Status:   StatusNotified,
		Dispatch: dispatch,
	}, nil
}

// Get returns a stored inquiry.
func (s *SubmissionService) Get(ctx context.Context, id string) (*domain.Inquiry, error) {
	return s.store.Get(ctx, id)
}
