package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/vaccine-scheduling/internal/account"
	"github.com/hackgods/vaccine-scheduling/internal/appointment"
	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/availability"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
	"github.com/hackgods/vaccine-scheduling/internal/db"
	"github.com/hackgods/vaccine-scheduling/internal/inventory"
)

// Store runs units of work as READ COMMITTED transactions. Stock and slot
// races are settled by row locks taken by the conditional UPDATE / DELETE
// statements in the repositories.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return db.TranslateError(err, "transaction")
	}

	if err := fn(ctx, pgTx{tx: tx}); err != nil {
		// the caller's context may already be cancelled
		rbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if rbErr := tx.Rollback(rbCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return apperr.Wrap(apperr.DataIntegrity, "rollback failed", errors.Join(err, rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return db.TranslateError(err, "transaction")
	}
	return nil
}

func (s *Store) Accounts() account.Repository {
	return account.NewPgRepository(s.pool)
}

func (s *Store) InsertEvent(ctx context.Context, ev appointment.EventLog) error {
	return appointment.NewPgRepository(s.pool).InsertEvent(ctx, ev)
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) Vaccines() inventory.Repository {
	return inventory.NewPgRepository(t.tx)
}

func (t pgTx) Slots() availability.Repository {
	return availability.NewPgRepository(t.tx)
}

func (t pgTx) Appointments() appointment.Repository {
	return appointment.NewPgRepository(t.tx)
}
