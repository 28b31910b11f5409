package booking

import (
	"context"

	"github.com/hackgods/vaccine-scheduling/internal/appointment"
	"github.com/hackgods/vaccine-scheduling/internal/availability"
	"github.com/hackgods/vaccine-scheduling/internal/inventory"
)

// Tx exposes the repositories bound to one transaction.
type Tx interface {
	Vaccines() inventory.Repository
	Slots() availability.Repository
	Appointments() appointment.Repository
}

// UnitOfWork runs fn in a single transaction. If fn returns an error nothing
// fn did is visible afterwards. A failed rollback is reported as DataIntegrity.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
