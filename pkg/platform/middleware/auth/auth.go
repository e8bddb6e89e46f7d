package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/requestcontext"
)

// TokenValidator validates a service bearer token and returns its subject.
type TokenValidator interface {
	ValidateServiceToken(tokenString string) (*ServiceClaims, error)
}

// ServiceClaims are the claims the middleware needs from a validated token.
type ServiceClaims struct {
	Subject string
	JTI     string
	Scope   string
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireServiceToken rejects requests without a valid bearer token and
// records the token subject as the request caller.
func RequireServiceToken(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateServiceToken(token)
			if dErrors.HasCode(err, dErrors.CodeForbidden) {
				logger.WarnContext(ctx, "forbidden - token scope",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Token is not allowed to call this API")
				return
			}
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithCaller(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
