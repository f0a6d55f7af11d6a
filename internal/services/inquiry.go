package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"
	goa "goa.design/goa/v3/pkg"

	"urja/internal/domain"
	applog "urja/internal/logger"
	"urja/internal/notify"
	apperrors "urja/pkg/errors"
)

const (
	submitPath = "/api/v1/inquiries"
	showPath   = "/api/v1/inquiries/{id}"

	maxNameLength        = 100
	maxPhoneLength       = 20
	maxRequirementLength = 5000
)

// InquiryService exposes the submission pipeline over HTTP.
type InquiryService struct {
	submissions *SubmissionService
	secretKey   string
}

// NewInquiryService creates the HTTP-facing inquiry service. An empty
// secretKey leaves the staff read endpoint unmounted.
func NewInquiryService(submissions *SubmissionService, secretKey string) *InquiryService {
	return &InquiryService{submissions: submissions, secretKey: secretKey}
}

// submitRequestBody is the JSON body of a submission.
type submitRequestBody struct {
	Name        *string `json:"name"`
	Company     *string `json:"company"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Requirement *string `json:"requirement"`
}

// submitResponseBody is returned for stored submissions.
type submitResponseBody struct {
	ID                string  `json:"id"`
	Status            string  `json:"status"`
	Notified          bool    `json:"notified"`
	NotificationError *string `json:"notification_error,omitempty"`
	Message           string  `json:"message"`
}

// inquiryResponseBody is a stored inquiry as returned to staff.
type inquiryResponseBody struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Requirement string `json:"requirement"`
	CreatedAt   string `json:"created_at"`
	SubmittedAt string `json:"submitted_at"`
}

// Mount registers the inquiry handlers on mux.
func (s *InquiryService) Mount(mux goahttp.Muxer) {
	mux.Handle(http.MethodPost, submitPath, s.handleSubmit)
	if s.secretKey == "" {
		applog.L().Warn("SECRET_KEY not set: staff inquiry reads are disabled")
		return
	}
	mux.Handle(http.MethodGet, showPath, RequireStaff(s.secretKey, func(w http.ResponseWriter, r *http.Request) {
		s.handleShow(w, r, mux.Vars(r)["id"])
	}))
}

func (s *InquiryService) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	draft, err := decodeSubmitRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	res, err := s.submissions.Submit(ctx, draft)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	body := submitResponseBody{
		ID:       res.Inquiry.ID,
		Status:   string(res.Status),
		Notified: !res.PartialSuccess(),
		Message:  "Thank you for contacting us! We'll get back to you soon.",
	}
	status := http.StatusCreated
	if res.PartialSuccess() {
		code := string(apperrors.CodeOf(res.NotifyErr))
		body.NotificationError = &code
		body.Message = "Your request has been received. We'll get back to you soon."
		status = http.StatusAccepted
	}
	writeJSON(ctx, w, status, body)
}

func (s *InquiryService) handleShow(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	inquiry, err := s.submissions.Get(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, inquiryResponseBody{
		ID:          inquiry.ID,
		Name:        inquiry.Name,
		Company:     inquiry.Company,
		Email:       inquiry.Email,
		Phone:       inquiry.Phone,
		Requirement: inquiry.Requirement,
		CreatedAt:   inquiry.CreatedAt.UTC().Format(time.RFC3339),
		SubmittedAt: notify.FormatSubmittedAt(inquiry.CreatedAt),
	})
}

func decodeSubmitRequest(r *http.Request) (domain.Draft, error) {
	var body submitRequestBody
	if err := goahttp.RequestDecoder(r).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Draft{}, goa.MissingPayloadError()
		}
		return domain.Draft{}, goa.DecodePayloadError(err.Error())
	}
	if err := validateSubmitRequestBody(&body); err != nil {
		return domain.Draft{}, err
	}
	return domain.Draft{
		Name:        *body.Name,
		Company:     *body.Company,
		Email:       *body.Email,
		Phone:       *body.Phone,
		Requirement: *body.Requirement,
	}.Normalize(), nil
}

// validateSubmitRequestBody runs the upstream draft checks: presence,
// non-blank values, length caps and email format.
func validateSubmitRequestBody(body *submitRequestBody) (err error) {
	fields := []struct {
		name  string
		value *string
		max   int
	}{
		{"name", body.Name, maxNameLength},
		{"company", body.Company, maxNameLength},
		{"email", body.Email, 254},
		{"phone", body.Phone, maxPhoneLength},
		{"requirement", body.Requirement, maxRequirementLength},
	}
	for _, f := range fields {
		if f.value == nil {
			err = goa.MergeErrors(err, goa.MissingFieldError(f.name, "body"))
			continue
		}
		v := strings.TrimSpace(*f.value)
		n := utf8.RuneCountInString(v)
		if n < 1 {
			err = goa.MergeErrors(err, goa.InvalidLengthError("body."+f.name, v, n, 1, true))
		} else if n > f.max {
			err = goa.MergeErrors(err, goa.InvalidLengthError("body."+f.name, v, n, f.max, false))
		}
	}
	if body.Email != nil && strings.TrimSpace(*body.Email) != "" {
		err = goa.MergeErrors(err, goa.ValidateFormat("body.email", strings.TrimSpace(*body.Email), goa.FormatEmail))
	}
	return err
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	enc := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(status)
	if err := enc.Encode(v); err != nil {
		applog.From(ctx).Error("failed to encode response", zap.Error(err))
	}
}
