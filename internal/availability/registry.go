package availability

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
)

const DateLayout = "2006-01-02"

// Slot is one caregiver's declared availability on a calendar date.
type Slot struct {
	Date      time.Time
	Caregiver string
}

// Repository stores open slots keyed by (date, caregiver).
type Repository interface {
	Insert(ctx context.Context, s Slot) error
	// ListCaregivers returns caregiver usernames with an open slot on date.
	ListCaregivers(ctx context.Context, date time.Time) ([]string, error)
	// Delete fails with NotFound when the slot does not exist.
	Delete(ctx context.Context, s Slot) error
	DeleteBefore(ctx context.Context, date time.Time) (int64, error)
}

type Registry struct {
	repo Repository
}

func NewRegistry(repo Repository) *Registry {
	return &Registry{repo: repo}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.InvalidDate, "please enter a valid date", err)
	}
	return d, nil
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r *Registry) Publish(ctx context.Context, date time.Time, caregiver string) error {
	s, err := newSlot(date, caregiver)
	if err != nil {
		return err
	}
	if err := r.repo.Insert(ctx, s); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return apperr.New(apperr.AlreadyExists, "you're already available on this date")
		}
		return err
	}
	return nil
}

// ListAvailable returns caregivers with an open slot on date, sorted by username.
// Caregiver selection depends on this order.
func (r *Registry) ListAvailable(ctx context.Context, date time.Time) ([]string, error) {
	names, err := r.repo.ListCaregivers(ctx, Day(date))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (r *Registry) Consume(ctx context.Context, date time.Time, caregiver string) error {
	s, err := newSlot(date, caregiver)
	if err != nil {
		return err
	}
	return r.repo.Delete(ctx, s)
}

// Restore re-inserts a slot released by a cancellation. An existing slot means
// the registry and the appointment store disagree.
func (r *Registry) Restore(ctx context.Context, date time.Time, caregiver string) error {
	s, err := newSlot(date, caregiver)
	if err != nil {
		return err
	}
	if err := r.repo.Insert(ctx, s); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return apperr.Wrap(apperr.DataIntegrity, "slot already open for "+caregiver+" on "+s.Date.Format(DateLayout), err)
		}
		return err
	}
	return nil
}

// PruneBefore removes every slot dated strictly before date.
func (r *Registry) PruneBefore(ctx context.Context, date time.Time) (int64, error) {
	return r.repo.DeleteBefore(ctx, Day(date))
}

func newSlot(date time.Time, caregiver string) (Slot, error) {
	caregiver = strings.TrimSpace(caregiver)
	if caregiver == "" {
		return Slot{}, apperr.New(apperr.InvalidArgument, "caregiver username is required")
	}
	if date.IsZero() {
		return Slot{}, apperr.New(apperr.InvalidDate, "please enter a valid date")
	}
	return Slot{Date: Day(date), Caregiver: caregiver}, nil
}
