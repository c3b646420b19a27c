package request

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"yksilo/pkg/platform/httputil"
	"yksilo/pkg/testutil"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("mints an id", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get(HeaderRequestID))
	})

	t.Run("reuses inbound id", func(t *testing.T) {
		req := testutil.WithHeader(testutil.NewRequest(t, http.MethodGet, "/"), HeaderRequestID, "abc-123")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rr.Header().Get(HeaderRequestID))
	})
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("database password is hunter2")
	}))

	rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))

	testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, httputil.ErrorCodeInternalError)
	assert.NotContains(t, rr.Body.String(), "hunter2")
}

func TestTimeout(t *testing.T) {
	t.Run("answers for a handler that ran out of time", func(t *testing.T) {
		handler := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))

		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))

		testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, httputil.ErrorCodeServiceUnavailable)
	})

	t.Run("keeps a response already written", func(t *testing.T) {
		handler := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "late"})
		}))

		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))

		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "late")
	})

	t.Run("passes fast handlers through with a deadline", func(t *testing.T) {
		var hasDeadline bool
		handler := Timeout(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasDeadline = r.Context().Deadline()
			w.WriteHeader(http.StatusNoContent)
		}))

		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.True(t, hasDeadline)
	})
}
