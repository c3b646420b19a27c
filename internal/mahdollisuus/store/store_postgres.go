package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"yksilo/internal/mahdollisuus/models"
	id "yksilo/pkg/domain"
	"yksilo/pkg/platform/sentinel"
	"yksilo/pkg/platform/tx"
)

// PostgresStore persists the catalog in PostgreSQL. Localized texts are
// stored as JSONB objects keyed by language.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const upsertMahdollisuus = `
INSERT INTO mahdollisuus (id, tyyppi, otsikko, tiivistelma, kuvaus, aktiivinen, muokattu)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	tyyppi = EXCLUDED.tyyppi,
	otsikko = EXCLUDED.otsikko,
	tiivistelma = EXCLUDED.tiivistelma,
	kuvaus = EXCLUDED.kuvaus,
	aktiivinen = EXCLUDED.aktiivinen,
	muokattu = EXCLUDED.muokattu`

// Upsert writes the whole batch in one transaction.
func (s *PostgresStore) Upsert(ctx context.Context, items []models.Mahdollisuus) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		conn := tx.Conn(ctx, s.db)
		for _, m := range items {
			_, err := conn.ExecContext(ctx, upsertMahdollisuus,
				uuid.UUID(m.ID), string(m.Tyyppi), m.Otsikko, m.Tiivistelma, m.Kuvaus, m.Aktiivinen, m.Muokattu)
			if err != nil {
				var pqErr *pq.Error
				if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
					return fmt.Errorf("upsert mahdollisuus %s: %w", m.ID, sentinel.ErrConflict)
				}
				return fmt.Errorf("upsert mahdollisuus %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

const selectColumns = `id, tyyppi, otsikko, tiivistelma, kuvaus, aktiivinen, muokattu`

func (s *PostgresStore) FindByID(ctx context.Context, mid id.MahdollisuusID) (models.Mahdollisuus, error) {
	row := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM mahdollisuus WHERE id = $1`, uuid.UUID(mid))
	m, err := scanMahdollisuus(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Mahdollisuus{}, sentinel.ErrNotFound
		}
		return models.Mahdollisuus{}, fmt.Errorf("find mahdollisuus by id: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListActive(ctx context.Context, tyyppi models.Tyyppi, offset, limit int) ([]models.Mahdollisuus, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+selectColumns+` FROM mahdollisuus
		WHERE tyyppi = $1 AND aktiivinen
		ORDER BY id
		OFFSET $2 LIMIT $3`, string(tyyppi), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list mahdollisuudet: %w", err)
	}
	defer rows.Close()

	var out []models.Mahdollisuus
	for rows.Next() {
		m, err := scanMahdollisuus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mahdollisuus: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mahdollisuudet: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountActive(ctx context.Context, tyyppi models.Tyyppi) (int64, error) {
	var n int64
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT count(*) FROM mahdollisuus WHERE tyyppi = $1 AND aktiivinen`, string(tyyppi)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count mahdollisuudet: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Exists(ctx context.Context, tyyppi models.Tyyppi, mid id.MahdollisuusID) (bool, error) {
	var exists bool
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM mahdollisuus WHERE id = $1 AND tyyppi = $2 AND aktiivinen)`,
		uuid.UUID(mid), string(tyyppi)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check mahdollisuus: %w", err)
	}
	return exists, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMahdollisuus(row scanner) (models.Mahdollisuus, error) {
	var (
		m      models.Mahdollisuus
		rawID  uuid.UUID
		tyyppi string
	)
	if err := row.Scan(&rawID, &tyyppi, &m.Otsikko, &m.Tiivistelma, &m.Kuvaus, &m.Aktiivinen, &m.Muokattu); err != nil {
		return models.Mahdollisuus{}, err
	}
	m.ID = id.MahdollisuusID(rawID)
	m.Tyyppi = models.Tyyppi(tyyppi)
	m.Muokattu = m.Muokattu.UTC()
	return m, nil
}
