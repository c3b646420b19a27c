//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"yksilo/internal/platform/database"
)

// PostgresContainer is a migrated database shared by the integration suites.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
	Pool      *pgxpool.Pool
}

func newPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("yksilo"),
		tcpostgres.WithUsername("yksilo"),
		tcpostgres.WithPassword("yksilo"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := database.Migrate(dsn); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	db, err := database.OpenSQL(ctx, database.Config{DSN: dsn})
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	pool, err := database.OpenPool(ctx, database.Config{DSN: dsn})
	if err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}
	return &PostgresContainer{Container: container, DSN: dsn, DB: db, Pool: pool}, nil
}

// Truncate empties every application table.
func (p *PostgresContainer) Truncate(t *testing.T) {
	t.Helper()
	_, err := p.DB.ExecContext(context.Background(),
		`TRUNCATE yksilo, paamaara, yksilon_osaaminen, mahdollisuus, koodi CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
