package inventory

import (
	"context"
	"strings"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
)

type VaccineStock struct {
	Name           string
	AvailableDoses int
}

// Repository is the storage primitive behind the ledger. Implementations must
// apply each call atomically per vaccine row.
type Repository interface {
	// Upsert creates the vaccine with delta doses or adds delta to the existing row.
	Upsert(ctx context.Context, name string, delta int) (VaccineStock, error)
	// Subtract removes n doses only if at least n are available.
	// Unknown vaccines and short stock both fail with InsufficientStock.
	Subtract(ctx context.Context, name string, n int) (VaccineStock, error)
	// List returns every vaccine sorted by name.
	List(ctx context.Context) ([]VaccineStock, error)
}

// Ledger owns dose counts. Counts never go negative.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Ensure returns the stock row for name, creating it with zero doses.
func (l *Ledger) Ensure(ctx context.Context, name string) (VaccineStock, error) {
	name, err := normalizeName(name)
	if err != nil {
		return VaccineStock{}, err
	}
	return l.repo.Upsert(ctx, name, 0)
}

// Increase adds n doses, creating the vaccine on first use.
func (l *Ledger) Increase(ctx context.Context, name string, n int) (VaccineStock, error) {
	name, err := normalizeName(name)
	if err != nil {
		return VaccineStock{}, err
	}
	if n <= 0 {
		return VaccineStock{}, apperr.Newf(apperr.InvalidArgument, "dose count must be positive, got %d", n)
	}
	return l.repo.Upsert(ctx, name, n)
}

func (l *Ledger) Decrease(ctx context.Context, name string, n int) (VaccineStock, error) {
	name, err := normalizeName(name)
	if err != nil {
		return VaccineStock{}, err
	}
	if n <= 0 {
		return VaccineStock{}, apperr.Newf(apperr.InvalidArgument, "dose count must be positive, got %d", n)
	}
	return l.repo.Subtract(ctx, name, n)
}

// Snapshot lists available doses per vaccine, sorted by name.
func (l *Ledger) Snapshot(ctx context.Context) ([]VaccineStock, error) {
	return l.repo.List(ctx)
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.New(apperr.InvalidArgument, "vaccine name is required")
	}
	return name, nil
}
