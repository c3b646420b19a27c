package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	externalhandler "yksilo/internal/external/handler"
	featurehandler "yksilo/internal/feature/handler"
	koodistohandler "yksilo/internal/koodisto/handler"
	mahdollisuushandler "yksilo/internal/mahdollisuus/handler"
	"yksilo/internal/platform/config"
	"yksilo/internal/platform/metrics"
	yksilohandler "yksilo/internal/yksilo/handler"
	"yksilo/pkg/platform/httputil"
	"yksilo/pkg/platform/middleware/admin"
	"yksilo/pkg/platform/middleware/apikey"
	"yksilo/pkg/platform/middleware/auth"
	"yksilo/pkg/platform/middleware/metadata"
	"yksilo/pkg/platform/middleware/request"
	"yksilo/pkg/platform/middleware/requesttime"
)

func (a *app) router(cfg config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(a.log))
	r.Use(request.Logger(a.log))
	r.Use(a.metrics.Middleware)
	r.Use(request.Timeout(cfg.Server.RequestTimeout))

	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	maxPageSize := cfg.Pagination.MaxPageSize
	profiles := yksilohandler.New(a.yksilo, a.flags, a.log)
	catalog := mahdollisuushandler.New(a.mahdollisuus, a.flags, maxPageSize, a.log)
	codes := koodistohandler.New(a.koodisto, maxPageSize, a.log)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowCredentials: true,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
		}).Handler)

		catalog.RegisterPublic(r)
		codes.RegisterPublic(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(a.sessions, a.audit, a.log))
			profiles.Register(r)
		})
	})

	partnerGate := apikey.New(
		apikey.Config{Header: cfg.ExternalAPI.Header, Key: cfg.ExternalAPI.Key},
		apikey.WithPublisher(a.audit),
		apikey.WithLogger(a.log),
	)
	r.Route("/external-api", func(r chi.Router) {
		r.Use(partnerGate.Middleware)
		externalhandler.New(a.external, a.flags, maxPageSize, a.log).Register(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(admin.RequireAdminToken(cfg.Admin.Token, a.audit, a.log))
		featurehandler.New(a.flags, a.log).Register(r)
		codes.RegisterAdmin(r)
		catalog.RegisterAdmin(r)
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleHealth reports every configured backing service. Any failure turns
// the response into a 503.
func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]func(context.Context) error{}
	if a.db != nil {
		checks["postgres"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Health
	}

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
	status := http.StatusOK
	for name, check := range checks {
		if err := check(ctx); err != nil {
			a.log.WarnContext(ctx, "health check failed", "check", name, "error", err)
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	httputil.WriteJSON(w, status, resp)
}
