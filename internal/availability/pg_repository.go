package availability

import (
	"context"
	"time"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/db"
)

type PgRepository struct {
	conn db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{conn: conn}
}

func (r *PgRepository) Insert(ctx context.Context, s Slot) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO availabilities (time, username)
		VALUES ($1, $2)
	`, s.Date, s.Caregiver)
	if err != nil {
		return db.TranslateError(err, "availability")
	}
	return nil
}

func (r *PgRepository) ListCaregivers(ctx context.Context, date time.Time) ([]string, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT username
		FROM availabilities
		WHERE time = $1
		ORDER BY username
	`, date)
	if err != nil {
		return nil, db.TranslateError(err, "availability")
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, db.TranslateError(err, "availability")
		}
		result = append(result, username)
	}

	if err := rows.Err(); err != nil {
		return nil, db.TranslateError(err, "availability")
	}

	return result, nil
}

// Delete is the consume step. Two transactions deleting the same row
// serialize on its lock; the loser sees zero rows affected.
func (r *PgRepository) Delete(ctx context.Context, s Slot) error {
	tag, err := r.conn.Exec(ctx, `
		DELETE FROM availabilities
		WHERE time = $1 AND username = $2
	`, s.Date, s.Caregiver)
	if err != nil {
		return db.TranslateError(err, "availability")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.NotFound, "%s is not available on %s", s.Caregiver, s.Date.Format(DateLayout))
	}
	return nil
}

func (r *PgRepository) DeleteBefore(ctx context.Context, date time.Time) (int64, error) {
	tag, err := r.conn.Exec(ctx, `
		DELETE FROM availabilities
		WHERE time < $1
	`, date)
	if err != nil {
		return 0, db.TranslateError(err, "availability")
	}
	return tag.RowsAffected(), nil
}
