package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
)

// Store is the durable record of committed bookings.
type Store struct {
	repo Repository
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

func (s *Store) NextID(ctx context.Context) (int64, error) {
	id, err := s.repo.NextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("allocate appointment id: %w", err)
	}
	return id, nil
}

func (s *Store) Create(ctx context.Context, a Appointment) error {
	if a.ID <= 0 {
		return apperr.Newf(apperr.InvalidArgument, "appointment id must be positive, got %d", a.ID)
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return apperr.Wrap(apperr.AlreadyExists, fmt.Sprintf("duplicate appointment id %d", a.ID), err)
		}
		return err
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Get fails with NotFound when no appointment has id.
func (s *Store) Get(ctx context.Context, id int64) (Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Store) ListFor(ctx context.Context, username string, role identity.Role) ([]Appointment, error) {
	if _, err := identity.ParseRole(string(role)); err != nil {
		return nil, err
	}
	return s.repo.ListFor(ctx, username, role)
}

func (s *Store) CaregiverBooked(ctx context.Context, caregiver string, date time.Time) (bool, error) {
	return s.repo.CaregiverBooked(ctx, caregiver, date)
}
