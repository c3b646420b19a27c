package apikey

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yksilo/pkg/platform/audit"
	auditmemory "yksilo/pkg/platform/audit/store/memory"
	"yksilo/pkg/platform/httputil"
	"yksilo/pkg/requestcontext"
	"yksilo/pkg/testutil"
)

const secret = "s3cr3t-partner-key"

// recordingHandler counts invocations and captures the authority it saw.
type recordingHandler struct {
	calls     int
	authority string
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	h.authority = requestcontext.Authority(r.Context())
	w.WriteHeader(http.StatusOK)
}

func listEvents(t *testing.T, store *auditmemory.InMemoryStore) []audit.Event {
	t.Helper()
	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	return events
}

func newGate(key string, store *auditmemory.InMemoryStore) *Gate {
	return New(Config{Key: key}, WithPublisher(store))
}

func TestGate(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		presented  string
		wantStatus int
		wantReason string
	}{
		{name: "matching key passes", configured: secret, header: DefaultHeader, presented: secret, wantStatus: http.StatusOK},
		{name: "missing header", configured: secret, wantStatus: http.StatusForbidden, wantReason: reasonMissing},
		{name: "wrong key", configured: secret, header: DefaultHeader, presented: "wrong", wantStatus: http.StatusForbidden, wantReason: reasonMismatch},
		{name: "prefix of key", configured: secret, header: DefaultHeader, presented: secret[:4], wantStatus: http.StatusForbidden, wantReason: reasonMismatch},
		{name: "key in another header", configured: secret, header: "Authorization", presented: secret, wantStatus: http.StatusForbidden, wantReason: reasonMissing},
		{name: "no key configured fails closed", configured: "", header: DefaultHeader, presented: "", wantStatus: http.StatusForbidden, wantReason: reasonNoKey},
		{name: "no key configured with any header", configured: "", header: DefaultHeader, presented: "anything", wantStatus: http.StatusForbidden, wantReason: reasonNoKey},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := auditmemory.NewInMemoryStore()
			next := &recordingHandler{}
			req := testutil.NewRequest(t, http.MethodGet, "/external-api/v1/profiilit")
			if tc.header != "" {
				req.Header.Set(tc.header, tc.presented)
			}

			rr := testutil.DoRequest(newGate(tc.configured, store).Middleware(next), req)

			testutil.AssertStatus(t, rr, tc.wantStatus)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, 1, next.calls)
				assert.Equal(t, AuthorityExternalAPI, next.authority)
				assert.Empty(t, listEvents(t, store))
				return
			}

			assert.Zero(t, next.calls, "downstream must not run")
			testutil.AssertErrorCode(t, rr, httputil.ErrorCodeAuthenticationFailure)
			events := listEvents(t, store)
			require.Len(t, events, 1)
			assert.Equal(t, string(audit.EventExternalAPIRejected), events[0].Action)
			assert.Equal(t, audit.CategorySecurity, events[0].Category)
			assert.Equal(t, tc.wantReason, events[0].Reason)
		})
	}
}

func TestGateCustomHeader(t *testing.T) {
	next := &recordingHandler{}
	gate := New(Config{Header: "X-Partner-Key", Key: secret})

	req := testutil.WithHeader(testutil.NewRequest(t, http.MethodGet, "/"), "X-Partner-Key", secret)
	rr := testutil.DoRequest(gate.Middleware(next), req)
	testutil.AssertStatusOK(t, rr)

	req = testutil.WithHeader(testutil.NewRequest(t, http.MethodGet, "/"), DefaultHeader, secret)
	rr = testutil.DoRequest(gate.Middleware(next), req)
	testutil.AssertStatus(t, rr, http.StatusForbidden)
	assert.Equal(t, 1, next.calls)
}

func TestGateNeverEchoesSecret(t *testing.T) {
	gate := New(Config{Key: secret})
	req := testutil.WithHeader(testutil.NewRequest(t, http.MethodGet, "/"), DefaultHeader, "guess")

	rr := testutil.DoRequest(gate.Middleware(&recordingHandler{}), req)

	assert.NotContains(t, rr.Body.String(), secret)
	assert.NotContains(t, rr.Body.String(), "guess")
}
