package services

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	goamiddleware "goa.design/goa/v3/middleware"
	goa "goa.design/goa/v3/pkg"

	applog "urja/internal/logger"
	apperrors "urja/pkg/errors"
)

// errorResponseBody mirrors the shape goa uses for service errors.
type errorResponseBody struct {
	Name      string `json:"name"`
	ID        string `json:"id,omitempty"`
	Message   string `json:"message"`
	Temporary bool   `json:"temporary"`
	Fault     bool   `json:"fault"`
}

// writeError maps err to a status code and writes a JSON error body.
// Internal details of storage and transport failures are logged, not returned.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, body := errorResponse(ctx, err)
	log := applog.From(ctx)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Info("request rejected", zap.Int("status", status), zap.String("reason", body.Message))
	}
	writeJSON(ctx, w, status, body)
}

func errorResponse(ctx context.Context, err error) (int, errorResponseBody) {
	requestID, _ := ctx.Value(goamiddleware.RequestIDKey).(string)

	var svcErr *goa.ServiceError
	if errors.As(err, &svcErr) {
		return http.StatusBadRequest, errorResponseBody{
			Name:    svcErr.Name,
			ID:      requestID,
			Message: svcErr.Message,
		}
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, errorResponseBody{
			Name: "internal_error", ID: requestID, Message: "internal server error", Fault: true,
		}
	}

	body := errorResponseBody{ID: requestID, Message: appErr.Message}
	switch appErr.Code {
	case apperrors.ErrCodeValidation:
		body.Name = "bad_request"
		return http.StatusBadRequest, body
	case apperrors.ErrCodeNotFound:
		body.Name = "not_found"
		return http.StatusNotFound, body
	case apperrors.ErrCodeUnauthorized:
		body.Name = "unauthorized"
		return http.StatusUnauthorized, body
	case apperrors.ErrCodeStorageUnavailable:
		body.Name = "storage_unavailable"
		body.Message = "We could not save your request. Please try again later."
		body.Temporary = true
		return http.StatusServiceUnavailable, body
	default:
		body.Name = "internal_error"
		body.Message = "internal server error"
		body.Fault = true
		return http.StatusInternalServerError, body
	}
}
