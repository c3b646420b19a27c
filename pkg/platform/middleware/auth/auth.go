package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
	"yksilo/pkg/platform/audit"
	"yksilo/pkg/platform/httputil"
	request "yksilo/pkg/platform/middleware/request"
	"yksilo/pkg/requestcontext"
)

// SessionCookie is the cookie the login front end sets.
const SessionCookie = "JSESSIONID"

// SessionValidator validates a session token and returns its subject.
type SessionValidator interface {
	ValidateToken(tokenString string) (id.YksiloID, error)
}

// tokenFromRequest prefers the Authorization header over the cookie.
func tokenFromRequest(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireSession authenticates the individual and stores the profile id in
// the context. Missing or invalid tokens yield 401 AUTHENTICATION_FAILURE.
func RequireSession(validator SessionValidator, publisher audit.Publisher, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token := tokenFromRequest(r)
			if token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session required"))
				return
			}

			yksiloID, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				if publisher != nil {
					event := audit.NewEvent(audit.EventSessionRejected, requestcontext.Now(ctx))
					event.Subject = r.URL.Path
					event.IP = requestcontext.ClientIP(ctx)
					event.RequestID = requestID
					_ = publisher.Emit(ctx, event)
				}
				httputil.WriteError(w, err)
				return
			}

			ctx = requestcontext.WithYksiloID(ctx, yksiloID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
