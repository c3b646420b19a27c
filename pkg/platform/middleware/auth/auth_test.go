package auth

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
	"yksilo/pkg/platform/httputil"
	"yksilo/pkg/requestcontext"
	"yksilo/pkg/testutil"
)

type stubValidator struct {
	tokens map[string]id.YksiloID
}

func (s stubValidator) ValidateToken(token string) (id.YksiloID, error) {
	if v, ok := s.tokens[token]; ok {
		return v, nil
	}
	return id.YksiloID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
}

func TestRequireSession(t *testing.T) {
	yksiloID := id.YksiloID(uuid.New())
	validator := stubValidator{tokens: map[string]id.YksiloID{"good": yksiloID}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seen id.YksiloID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.YksiloID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireSession(validator, nil, logger)(next)

	t.Run("bearer token", func(t *testing.T) {
		seen = id.YksiloID{}
		req := testutil.WithHeader(testutil.NewRequest(t, http.MethodGet, "/api/profiili"), "Authorization", "Bearer good")
		rr := testutil.DoRequest(handler, req)
		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, yksiloID, seen)
	})

	t.Run("session cookie", func(t *testing.T) {
		seen = id.YksiloID{}
		req := testutil.NewRequest(t, http.MethodGet, "/api/profiili")
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
		rr := testutil.DoRequest(handler, req)
		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, yksiloID, seen)
	})

	t.Run("missing token", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/api/profiili"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, httputil.ErrorCodeAuthenticationFailure)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := testutil.WithHeader(testutil.NewRequest(t, http.MethodGet, "/api/profiili"), "Authorization", "Bearer bad")
		rr := testutil.DoRequest(handler, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, httputil.ErrorCodeAuthenticationFailure)
	})
}
