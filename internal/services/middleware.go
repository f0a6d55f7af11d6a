package services

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	applog "urja/internal/logger"
	"urja/internal/util"
	apperrors "urja/pkg/errors"
)

// RequireStaff wraps next with bearer token authentication. The token must
// be signed with secret and carry the staff scope.
func RequireStaff(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(ctx, w, apperrors.New(apperrors.ErrCodeUnauthorized, "authorization header required"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(ctx, w, apperrors.New(apperrors.ErrCodeUnauthorized, "invalid authorization header format"))
			return
		}

		claims, err := util.ValidateToken(secret, strings.TrimSpace(parts[1]))
		if err != nil {
			writeError(ctx, w, apperrors.Wrap(apperrors.ErrCodeUnauthorized, "invalid or expired token", err))
			return
		}
		if !claims.HasScope(util.ScopeStaff) {
			writeError(ctx, w, apperrors.New(apperrors.ErrCodeUnauthorized, "insufficient permissions"))
			return
		}

		l := applog.From(ctx).With(zap.String("staff", claims.Subject))
		next(w, r.WithContext(applog.ToContext(ctx, l)))
	}
}
