package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/db"
)

type PgRepository struct {
	conn db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{conn: conn}
}

func scanStock(row pgx.Row) (VaccineStock, error) {
	var v VaccineStock
	if err := row.Scan(&v.Name, &v.AvailableDoses); err != nil {
		return VaccineStock{}, err
	}
	return v, nil
}

func (r *PgRepository) Upsert(ctx context.Context, name string, delta int) (VaccineStock, error) {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO vaccines (name, doses)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET doses = vaccines.doses + EXCLUDED.doses
		RETURNING name, doses
	`, name, delta)

	v, err := scanStock(row)
	if err != nil {
		return VaccineStock{}, db.TranslateError(err, "vaccine")
	}
	return v, nil
}

// Subtract relies on the row lock taken by UPDATE: a concurrent decrement
// waits, then re-evaluates the doses predicate against the committed value.
func (r *PgRepository) Subtract(ctx context.Context, name string, n int) (VaccineStock, error) {
	row := r.conn.QueryRow(ctx, `
		UPDATE vaccines
		SET doses = doses - $2
		WHERE name = $1
		  AND doses >= $2
		RETURNING name, doses
	`, name, n)

	v, err := scanStock(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VaccineStock{}, apperr.New(apperr.InsufficientStock, "not enough available doses")
		}
		return VaccineStock{}, db.TranslateError(err, "vaccine")
	}
	return v, nil
}

func (r *PgRepository) List(ctx context.Context) ([]VaccineStock, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT name, doses
		FROM vaccines
		ORDER BY name
	`)
	if err != nil {
		return nil, db.TranslateError(err, "vaccines")
	}
	defer rows.Close()

	var result []VaccineStock
	for rows.Next() {
		v, err := scanStock(rows)
		if err != nil {
			return nil, db.TranslateError(err, "vaccines")
		}
		result = append(result, v)
	}

	if err := rows.Err(); err != nil {
		return nil, db.TranslateError(err, "vaccines")
	}

	return result, nil
}
