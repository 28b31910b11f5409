package account

import (
	"context"

	"github.com/hackgods/vaccine-scheduling/internal/db"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
)

type PgRepository struct {
	conn db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{conn: conn}
}

func table(role identity.Role) string {
	if role == identity.RoleCaregiver {
		return "caregivers"
	}
	return "patients"
}

func (r *PgRepository) Create(ctx context.Context, a Account) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO `+table(a.Role)+` (username, password_hash, created_at)
		VALUES ($1, $2, now())
	`, a.Username, a.PasswordHash)
	if err != nil {
		return db.TranslateError(err, string(a.Role))
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, username string, role identity.Role) (Account, error) {
	a := Account{Role: role}
	err := r.conn.QueryRow(ctx, `
		SELECT username, password_hash
		FROM `+table(role)+`
		WHERE username = $1
	`, username).Scan(&a.Username, &a.PasswordHash)
	if err != nil {
		return Account{}, db.TranslateError(err, string(role))
	}
	return a, nil
}
