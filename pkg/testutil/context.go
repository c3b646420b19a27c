package testutil

import (
	"net/http"
	"time"

	id "yksilo/pkg/domain"
	"yksilo/pkg/requestcontext"
)

// WithYksiloID marks the request as session-authenticated for the given
// individual, which is what the session middleware does for valid tokens.
// Invalid UUIDs leave the request anonymous.
func WithYksiloID(req *http.Request, yksiloID string) *http.Request {
	parsed, err := id.ParseYksiloID(yksiloID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithYksiloID(req.Context(), parsed))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
