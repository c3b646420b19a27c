package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	external "yksilo/internal/external/service"
	"yksilo/internal/feature"
	featurestore "yksilo/internal/feature/store"
	jwttoken "yksilo/internal/jwt_token"
	koodistometrics "yksilo/internal/koodisto/metrics"
	koodisto "yksilo/internal/koodisto/service"
	koodistostore "yksilo/internal/koodisto/store"
	mahdollisuus "yksilo/internal/mahdollisuus/service"
	mahdollisuusstore "yksilo/internal/mahdollisuus/store"
	"yksilo/internal/platform/config"
	"yksilo/internal/platform/database"
	"yksilo/internal/platform/kafka"
	"yksilo/internal/platform/metrics"
	"yksilo/internal/platform/redis"
	yksilo "yksilo/internal/yksilo/service"
	yksilostore "yksilo/internal/yksilo/store"
	"yksilo/pkg/domain"
	"yksilo/pkg/platform/audit"
	"yksilo/pkg/platform/audit/publishers/compliance"
	auditkafka "yksilo/pkg/platform/audit/publishers/kafka"
	"yksilo/pkg/platform/audit/publishers/security"
	auditmemory "yksilo/pkg/platform/audit/store/memory"
	"yksilo/pkg/platform/strings"
)

// profileStore backs both the profile API and the partner listing.
type profileStore interface {
	yksilo.Store
	external.Store
}

// app holds the wired services and the resources they share.
type app struct {
	log     *slog.Logger
	metrics *metrics.Metrics

	db    *sql.DB
	pool  *pgxpool.Pool
	redis *redis.Client

	audit         audit.Publisher
	securityAudit *security.Publisher
	closers       []func()

	sessions     *jwttoken.JWTService
	flags        *feature.Flags
	koodisto     *koodisto.Service
	mahdollisuus *mahdollisuus.Service
	yksilo       *yksilo.Service
	external     *external.Service
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (_ *app, err error) {
	a := &app{log: log, metrics: metrics.New(reg)}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	if err := a.openStorage(ctx, cfg); err != nil {
		return nil, err
	}
	if err := a.openAudit(ctx, cfg); err != nil {
		return nil, err
	}

	var overrides feature.OverrideStore = featurestore.NewInMemoryStore()
	if a.redis != nil {
		overrides = featurestore.NewRedisStore(a.redis.Client)
	}
	a.flags, err = feature.New(cfg.Features, overrides,
		feature.WithPublisher(a.audit),
		feature.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("feature flags: %w", err)
	}

	kielet, err := parseKielet(cfg.Languages)
	if err != nil {
		return nil, err
	}
	var (
		koodistoStore koodisto.Store     = koodistostore.NewInMemoryStore()
		catalogStore  mahdollisuus.Store = mahdollisuusstore.NewInMemoryStore()
		profiles      profileStore       = yksilostore.NewInMemoryStore()
	)
	if a.db != nil {
		koodistoStore = koodistostore.NewPostgres(a.pool)
		catalogStore = mahdollisuusstore.NewPostgres(a.db)
		profiles = yksilostore.NewPostgres(a.db)
	}
	a.koodisto = koodisto.New(koodistoStore,
		koodisto.WithKielet(kielet),
		koodisto.WithMetrics(koodistometrics.New(reg)),
		koodisto.WithPublisher(a.audit),
		koodisto.WithLogger(log),
	)
	a.mahdollisuus = mahdollisuus.New(catalogStore,
		mahdollisuus.WithPublisher(a.audit),
		mahdollisuus.WithLogger(log),
	)

	a.yksilo = yksilo.New(profiles, a.mahdollisuus, a.flags,
		yksilo.WithPublisher(a.audit),
		yksilo.WithLogger(log),
	)
	a.external = external.New(profiles,
		external.WithPublisher(a.audit),
		external.WithLogger(log),
	)
	a.sessions = jwttoken.NewJWTService(cfg.Session.SigningKey, cfg.Session.Issuer, cfg.Session.Audience)
	return a, nil
}

// openStorage connects PostgreSQL and Redis when configured. Without a DSN
// every store stays in memory.
func (a *app) openStorage(ctx context.Context, cfg config.Config) error {
	if cfg.Database.DSN != "" {
		if cfg.Database.Migrate {
			if err := database.Migrate(cfg.Database.DSN); err != nil {
				return err
			}
		}
		dbCfg := database.Config{DSN: cfg.Database.DSN, MaxConns: cfg.Database.MaxConns}
		db, err := database.OpenSQL(ctx, dbCfg)
		if err != nil {
			return err
		}
		a.db = db
		a.closers = append(a.closers, func() { _ = db.Close() })

		pool, err := database.OpenPool(ctx, dbCfg)
		if err != nil {
			return err
		}
		a.pool = pool
		a.closers = append(a.closers, pool.Close)
	} else {
		a.log.WarnContext(ctx, "no database configured, using in-memory stores")
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if client != nil {
		a.redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })
	}
	return nil
}

// openAudit routes compliance events synchronously and security events
// through the buffered publisher. Kafka is the sink when brokers are
// configured, otherwise events are kept in process.
func (a *app) openAudit(ctx context.Context, cfg config.Config) error {
	var sink audit.Store = auditmemory.NewInMemoryStore()
	client, err := kafka.New(cfg.Kafka)
	if err != nil {
		return err
	}
	if client != nil {
		a.closers = append(a.closers, client.Close)
		if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.AuditTopic, cfg.Kafka.Partitions); err != nil {
			return err
		}
		sink = auditkafka.NewSink(client, cfg.Kafka.AuditTopic)
	}
	a.securityAudit = security.New(sink, security.WithLogger(a.log))
	a.audit = audit.Router{
		Compliance: compliance.New(sink, compliance.WithLogger(a.log)),
		Security:   a.securityAudit,
		Operations: a.securityAudit,
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func parseKielet(values []string) ([]domain.Kieli, error) {
	var kielet []domain.Kieli
	for _, v := range strings.DedupeAndTrim(values) {
		k, err := domain.ParseKieli(v)
		if err != nil {
			return nil, fmt.Errorf("languages: %w", err)
		}
		kielet = append(kielet, k)
	}
	return kielet, nil
}
