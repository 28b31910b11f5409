package appointment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/vaccine-scheduling/internal/appointment"
	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
	"github.com/hackgods/vaccine-scheduling/internal/storage/memory"
)

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func withStore(t *testing.T, st *memory.Store, fn func(ctx context.Context, s *appointment.Store) error) error {
	t.Helper()
	return st.Do(context.Background(), func(ctx context.Context, tx booking.Tx) error {
		return fn(ctx, appointment.NewStore(tx.Appointments()))
	})
}

func TestStoreCreateGetDelete(t *testing.T) {
	st := memory.New()

	err := withStore(t, st, func(ctx context.Context, s *appointment.Store) error {
		id, err := s.NextID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		a := appointment.Appointment{ID: id, Caregiver: "amy", Patient: "p1", Vaccine: "pfizer", Date: day}
		require.NoError(t, s.Create(ctx, a))

		err = s.Create(ctx, a)
		assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, a, got)

		booked, err := s.CaregiverBooked(ctx, "amy", day)
		require.NoError(t, err)
		assert.True(t, booked)

		require.NoError(t, s.Delete(ctx, id))
		_, err = s.Get(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, id), apperr.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreRejectsNonPositiveID(t *testing.T) {
	st := memory.New()

	err := withStore(t, st, func(ctx context.Context, s *appointment.Store) error {
		err := s.Create(ctx, appointment.Appointment{ID: 0, Caregiver: "amy", Patient: "p1", Vaccine: "pfizer", Date: day})
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreNextIDNeverReused(t *testing.T) {
	st := memory.New()

	var ids []int64
	err := withStore(t, st, func(ctx context.Context, s *appointment.Store) error {
		for i := 0; i < 3; i++ {
			id, err := s.NextID(ctx)
			require.NoError(t, err)
			require.NoError(t, s.Create(ctx, appointment.Appointment{ID: id, Caregiver: "amy", Patient: "p1", Vaccine: "pfizer", Date: day}))
			ids = append(ids, id)
		}
		// dropping the newest row must not free its id
		require.NoError(t, s.Delete(ctx, ids[2]))
		id, err := s.NextID(ctx)
		require.NoError(t, err)
		ids = append(ids, id)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)
}

func TestStoreListFor(t *testing.T) {
	st := memory.New()

	err := withStore(t, st, func(ctx context.Context, s *appointment.Store) error {
		rows := []appointment.Appointment{
			{ID: 3, Caregiver: "amy", Patient: "p2", Vaccine: "pfizer", Date: day},
			{ID: 1, Caregiver: "amy", Patient: "p1", Vaccine: "pfizer", Date: day},
			{ID: 2, Caregiver: "bob", Patient: "p1", Vaccine: "moderna", Date: day},
		}
		for _, a := range rows {
			require.NoError(t, s.Create(ctx, a))
		}

		mine, err := s.ListFor(ctx, "p1", identity.RolePatient)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, int64(1), mine[0].ID)
		assert.Equal(t, int64(2), mine[1].ID)

		mine, err = s.ListFor(ctx, "amy", identity.RoleCaregiver)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, int64(1), mine[0].ID)
		assert.Equal(t, int64(3), mine[1].ID)

		_, err = s.ListFor(ctx, "amy", identity.Role("nurse"))
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
		return nil
	})
	require.NoError(t, err)
}

func TestInvolves(t *testing.T) {
	a := appointment.Appointment{ID: 1, Caregiver: "amy", Patient: "p1"}

	assert.True(t, a.Involves(identity.Identity{Username: "p1", Role: identity.RolePatient}))
	assert.True(t, a.Involves(identity.Identity{Username: "amy", Role: identity.RoleCaregiver}))
	assert.False(t, a.Involves(identity.Identity{Username: "amy", Role: identity.RolePatient}))
	assert.False(t, a.Involves(identity.Identity{Username: "p2", Role: identity.RolePatient}))
	assert.False(t, a.Involves(identity.Identity{}))
}
