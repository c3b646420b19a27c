package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	mahdollisuus "yksilo/internal/mahdollisuus/models"
	"yksilo/internal/yksilo/models"
	id "yksilo/pkg/domain"
	"yksilo/pkg/platform/sentinel"
	"yksilo/pkg/platform/tx"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// PostgresStore persists profiles in PostgreSQL. Goals and skills reference
// the profile row with ON DELETE CASCADE.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const yksiloColumns = `id, tervetuloapolku, lupa_luovuttaa_tiedot, lupa_kayttaa_tekoalya, luotu, muokattu`

func (s *PostgresStore) FindByID(ctx context.Context, yid id.YksiloID) (models.Yksilo, error) {
	row := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+yksiloColumns+` FROM yksilo WHERE id = $1`, uuid.UUID(yid))
	y, err := scanYksilo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Yksilo{}, sentinel.ErrNotFound
		}
		return models.Yksilo{}, fmt.Errorf("find yksilo by id: %w", err)
	}
	return y, nil
}

// RunInTx joins or starts a transaction that every call made with the
// callback's context participates in.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.Run(ctx, s.db, fn)
}

func (s *PostgresStore) Save(ctx context.Context, y models.Yksilo) error {
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO yksilo (`+yksiloColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			tervetuloapolku = EXCLUDED.tervetuloapolku,
			lupa_luovuttaa_tiedot = EXCLUDED.lupa_luovuttaa_tiedot,
			lupa_kayttaa_tekoalya = EXCLUDED.lupa_kayttaa_tekoalya,
			muokattu = EXCLUDED.muokattu`,
		uuid.UUID(y.ID), y.Tervetuloapolku, y.LupaLuovuttaaTiedotUlkopuoliselle,
		y.LupaKayttaaTekoalynOminaisuuksia, y.Luotu, y.Muokattu)
	if err != nil {
		return fmt.Errorf("save yksilo: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, yid id.YksiloID) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM yksilo WHERE id = $1`, uuid.UUID(yid))
	if err != nil {
		return fmt.Errorf("delete yksilo: %w", err)
	}
	return requireAffected(res)
}

const paamaaraColumns = `id, yksilo_id, tyyppi, mahdollisuus_tyyppi, mahdollisuus_id, tavoite, luotu`

func (s *PostgresStore) ListPaamaarat(ctx context.Context, yid id.YksiloID) ([]models.Paamaara, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+paamaaraColumns+` FROM paamaara WHERE yksilo_id = $1 ORDER BY luotu, id`, uuid.UUID(yid))
	if err != nil {
		return nil, fmt.Errorf("list paamaarat: %w", err)
	}
	return collect(rows, scanPaamaara)
}

// AddPaamaara locks the profile row so concurrent inserts cannot pass the
// limit together.
func (s *PostgresStore) AddPaamaara(ctx context.Context, p models.Paamaara, limit int) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		conn := tx.Conn(ctx, s.db)
		var locked uuid.UUID
		err := conn.QueryRowContext(ctx,
			`SELECT id FROM yksilo WHERE id = $1 FOR UPDATE`, uuid.UUID(p.YksiloID)).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock yksilo: %w", err)
		}
		var count int
		if err := conn.QueryRowContext(ctx,
			`SELECT count(*) FROM paamaara WHERE yksilo_id = $1`, uuid.UUID(p.YksiloID)).Scan(&count); err != nil {
			return fmt.Errorf("count paamaarat: %w", err)
		}
		if count >= limit {
			return ErrPaamaaraLimit
		}
		_, err = conn.ExecContext(ctx,
			`INSERT INTO paamaara (`+paamaaraColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.UUID(p.ID), uuid.UUID(p.YksiloID), string(p.Tyyppi), string(p.MahdollisuusTyyppi),
			uuid.UUID(p.MahdollisuusID), p.Tavoite, p.Luotu)
		if err != nil {
			return fmt.Errorf("insert paamaara: %w", classify(err))
		}
		return nil
	})
}

func (s *PostgresStore) DeletePaamaara(ctx context.Context, yid id.YksiloID, pid id.PaamaaraID) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM paamaara WHERE id = $1 AND yksilo_id = $2`, uuid.UUID(pid), uuid.UUID(yid))
	if err != nil {
		return fmt.Errorf("delete paamaara: %w", err)
	}
	return requireAffected(res)
}

const osaaminenColumns = `id, yksilo_id, osaaminen, lahde, luotu`

func (s *PostgresStore) ListOsaamiset(ctx context.Context, yid id.YksiloID) ([]models.YksilonOsaaminen, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+osaaminenColumns+` FROM yksilon_osaaminen WHERE yksilo_id = $1 ORDER BY luotu, id`, uuid.UUID(yid))
	if err != nil {
		return nil, fmt.Errorf("list osaamiset: %w", err)
	}
	return collect(rows, scanOsaaminen)
}

func (s *PostgresStore) AddOsaaminen(ctx context.Context, o models.YksilonOsaaminen) error {
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO yksilon_osaaminen (`+osaaminenColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(o.ID), uuid.UUID(o.YksiloID), o.Osaaminen, string(o.Lahde), o.Luotu)
	if err != nil {
		return fmt.Errorf("insert osaaminen: %w", classify(err))
	}
	return nil
}

func (s *PostgresStore) DeleteOsaaminen(ctx context.Context, yid id.YksiloID, oid id.OsaaminenID) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM yksilon_osaaminen WHERE id = $1 AND yksilo_id = $2`, uuid.UUID(oid), uuid.UUID(yid))
	if err != nil {
		return fmt.Errorf("delete osaaminen: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) CountShared(ctx context.Context) (int64, error) {
	var n int64
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT count(*) FROM yksilo WHERE lupa_luovuttaa_tiedot`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count shared profiles: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListShared(ctx context.Context, offset, limit int) ([]models.Yksilo, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+yksiloColumns+` FROM yksilo WHERE lupa_luovuttaa_tiedot ORDER BY id OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list shared profiles: %w", err)
	}
	return collect(rows, scanYksilo)
}

func (s *PostgresStore) PaamaaratFor(ctx context.Context, ids []id.YksiloID) (map[id.YksiloID][]models.Paamaara, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+paamaaraColumns+` FROM paamaara WHERE yksilo_id = ANY($1::uuid[]) ORDER BY luotu, id`,
		idArray(ids))
	if err != nil {
		return nil, fmt.Errorf("list paamaarat for profiles: %w", err)
	}
	goals, err := collect(rows, scanPaamaara)
	if err != nil {
		return nil, err
	}
	out := make(map[id.YksiloID][]models.Paamaara, len(ids))
	for _, p := range goals {
		out[p.YksiloID] = append(out[p.YksiloID], p)
	}
	return out, nil
}

func (s *PostgresStore) OsaamisetFor(ctx context.Context, ids []id.YksiloID) (map[id.YksiloID][]models.YksilonOsaaminen, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+osaaminenColumns+` FROM yksilon_osaaminen WHERE yksilo_id = ANY($1::uuid[]) ORDER BY luotu, id`,
		idArray(ids))
	if err != nil {
		return nil, fmt.Errorf("list osaamiset for profiles: %w", err)
	}
	skills, err := collect(rows, scanOsaaminen)
	if err != nil {
		return nil, err
	}
	out := make(map[id.YksiloID][]models.YksilonOsaaminen, len(ids))
	for _, o := range skills {
		out[o.YksiloID] = append(out[o.YksiloID], o)
	}
	return out, nil
}

func idArray(ids []id.YksiloID) any {
	out := make([]string, len(ids))
	for i, yid := range ids {
		out[i] = yid.String()
	}
	return pq.Array(out)
}

func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return sentinel.ErrConflict
	case pqForeignKeyViolation:
		return sentinel.ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func scanYksilo(row scanner) (models.Yksilo, error) {
	var (
		y     models.Yksilo
		rawID uuid.UUID
	)
	err := row.Scan(&rawID, &y.Tervetuloapolku, &y.LupaLuovuttaaTiedotUlkopuoliselle,
		&y.LupaKayttaaTekoalynOminaisuuksia, &y.Luotu, &y.Muokattu)
	if err != nil {
		return models.Yksilo{}, err
	}
	y.ID = id.YksiloID(rawID)
	y.Luotu = y.Luotu.UTC()
	y.Muokattu = y.Muokattu.UTC()
	return y, nil
}

func scanPaamaara(row scanner) (models.Paamaara, error) {
	var (
		p                         models.Paamaara
		rawID, rawYksilo, rawMahd uuid.UUID
		tyyppi, mahdTyyppi        string
	)
	err := row.Scan(&rawID, &rawYksilo, &tyyppi, &mahdTyyppi, &rawMahd, &p.Tavoite, &p.Luotu)
	if err != nil {
		return models.Paamaara{}, err
	}
	p.ID = id.PaamaaraID(rawID)
	p.YksiloID = id.YksiloID(rawYksilo)
	p.Tyyppi = models.PaamaaraTyyppi(tyyppi)
	p.MahdollisuusTyyppi = mahdollisuus.Tyyppi(mahdTyyppi)
	p.MahdollisuusID = id.MahdollisuusID(rawMahd)
	p.Luotu = p.Luotu.UTC()
	return p, nil
}

func scanOsaaminen(row scanner) (models.YksilonOsaaminen, error) {
	var (
		o                models.YksilonOsaaminen
		rawID, rawYksilo uuid.UUID
		lahde            string
	)
	if err := row.Scan(&rawID, &rawYksilo, &o.Osaaminen, &lahde, &o.Luotu); err != nil {
		return models.YksilonOsaaminen{}, err
	}
	o.ID = id.OsaaminenID(rawID)
	o.YksiloID = id.YksiloID(rawYksilo)
	o.Lahde = models.Lahde(lahde)
	o.Luotu = o.Luotu.UTC()
	return o, nil
}
