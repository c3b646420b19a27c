// Package apikey guards the external partner API with a shared secret.
//
// The gate runs before any session handling. A request passes only when the
// configured header carries exactly the configured key; the comparison is
// constant-time and the secret never reaches a log line.
package apikey

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"yksilo/pkg/platform/audit"
	"yksilo/pkg/platform/httputil"
	request "yksilo/pkg/platform/middleware/request"
	"yksilo/pkg/requestcontext"
)

const (
	// DefaultHeader is used when Config.Header is empty.
	DefaultHeader = "X-Api-Key"
	// AuthorityExternalAPI is the only authority granted to key holders.
	AuthorityExternalAPI = "ROLE_EXTERNAL_API"
)

const (
	reasonMissing  = "missing"
	reasonMismatch = "mismatch"
	reasonNoKey    = "not_configured"
)

var rejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "yksilo_external_api_key_rejections_total",
	Help: "External API requests rejected by the API key gate, by reason.",
}, []string{"reason"})

// Config holds the header name and the expected key.
type Config struct {
	Header string
	Key    string
}

// Gate is the API key filter.
type Gate struct {
	header    string
	key       []byte
	publisher audit.Publisher
	logger    *slog.Logger
}

type Option func(*Gate)

// WithPublisher emits a security event for every rejection.
func WithPublisher(p audit.Publisher) Option {
	return func(g *Gate) {
		g.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func New(cfg Config, opts ...Option) *Gate {
	g := &Gate{
		header: cfg.Header,
		key:    []byte(cfg.Key),
		logger: slog.Default(),
	}
	if g.header == "" {
		g.header = DefaultHeader
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Middleware rejects with 403 AUTHENTICATION_FAILURE unless the key matches.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason, ok := g.check(r); !ok {
			g.reject(w, r, reason)
			return
		}
		ctx := requestcontext.WithAuthority(r.Context(), AuthorityExternalAPI)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) check(r *http.Request) (string, bool) {
	if len(g.key) == 0 {
		return reasonNoKey, false
	}
	presented := r.Header.Get(g.header)
	if presented == "" {
		return reasonMissing, false
	}
	if subtle.ConstantTimeCompare([]byte(presented), g.key) != 1 {
		return reasonMismatch, false
	}
	return "", true
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, reason string) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	rejections.WithLabelValues(reason).Inc()
	g.logger.WarnContext(ctx, "external api key rejected",
		"request_id", requestID,
		"reason", reason,
		"path", r.URL.Path,
	)
	if g.publisher != nil {
		event := audit.NewEvent(audit.EventExternalAPIRejected, requestcontext.Now(ctx))
		event.Subject = r.URL.Path
		event.Reason = reason
		event.IP = requestcontext.ClientIP(ctx)
		event.RequestID = requestID
		if err := g.publisher.Emit(ctx, event); err != nil {
			g.logger.ErrorContext(ctx, "failed to emit audit event", "error", err, "request_id", requestID)
		}
	}
	httputil.WriteErrorStatus(w, http.StatusForbidden, httputil.ErrorCodeAuthenticationFailure)
}
