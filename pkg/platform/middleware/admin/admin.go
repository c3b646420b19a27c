package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"yksilo/pkg/platform/audit"
	"yksilo/pkg/platform/httputil"
	request "yksilo/pkg/platform/middleware/request"
	"yksilo/pkg/requestcontext"
)

// HeaderAdminToken carries the operator token on /admin routes.
const HeaderAdminToken = "X-Admin-Token"

// ActorAdmin is recorded as the actor on events raised by admin routes.
const ActorAdmin = "admin"

// RequireAdminToken rejects requests whose X-Admin-Token does not match. An
// empty expected token disables the admin API entirely.
func RequireAdminToken(expectedToken string, publisher audit.Publisher, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderAdminToken)
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				requestID := request.GetRequestID(ctx)
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestID,
					"path", r.URL.Path,
				)
				if publisher != nil {
					event := audit.NewEvent(audit.EventAdminTokenRejected, requestcontext.Now(ctx))
					event.Subject = r.URL.Path
					event.IP = requestcontext.ClientIP(ctx)
					event.RequestID = requestID
					_ = publisher.Emit(ctx, event)
				}
				httputil.WriteErrorStatus(w, http.StatusForbidden, httputil.ErrorCodeAuthenticationFailure)
				return
			}

			ctx := requestcontext.WithAuthority(r.Context(), "ROLE_ADMIN")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
