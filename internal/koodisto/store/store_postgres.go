package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"yksilo/internal/koodisto/models"
	"yksilo/pkg/domain"
)

var copyColumns = []string{"koodisto", "koodi", "kieli", "nimi", "kuvaus"}

// PostgresStore keeps reference data in the koodi table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]models.Row, error) {
	rows, err := s.pool.Query(ctx, `SELECT koodisto, koodi, kieli, nimi, kuvaus FROM koodi ORDER BY koodisto, koodi, kieli`)
	if err != nil {
		return nil, fmt.Errorf("query koodit: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Row, error) {
		var r models.Row
		var kieli string
		if err := row.Scan(&r.Koodisto, &r.Koodi, &kieli, &r.Nimi, &r.Kuvaus); err != nil {
			return models.Row{}, err
		}
		r.Kieli = domain.Kieli(kieli)
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan koodit: %w", err)
	}
	return out, nil
}

// Replace deletes the code list and bulk-loads the new rows in one
// transaction, so readers of the table see either the old or the new list.
func (s *PostgresStore) Replace(ctx context.Context, koodisto string, rows []models.Row) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM koodi WHERE koodisto = $1`, koodisto); err != nil {
			return fmt.Errorf("delete koodisto %s: %w", koodisto, err)
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"koodi"}, copyColumns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{koodisto, r.Koodi, string(r.Kieli), r.Nimi, r.Kuvaus}, nil
		}))
		if err != nil {
			return fmt.Errorf("copy koodisto %s: %w", koodisto, err)
		}
		return nil
	})
}
