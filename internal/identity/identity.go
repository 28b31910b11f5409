package identity

import (
	"fmt"
	"sync"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
)

type Role string

const (
	RolePatient   Role = "patient"
	RoleCaregiver Role = "caregiver"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleCaregiver:
		return Role(s), nil
	}
	return "", apperr.Newf(apperr.InvalidArgument, "unknown role %q", s)
}

// Identity is a verified user. The zero value means nobody is authenticated.
type Identity struct {
	Username string
	Role     Role
}

func (id Identity) IsZero() bool {
	return id.Username == ""
}

func (id Identity) String() string {
	if id.IsZero() {
		return "anonymous"
	}
	return fmt.Sprintf("%s:%s", id.Role, id.Username)
}

// Require checks that id is authenticated and holds one of roles.
// With no roles any authenticated identity passes.
func Require(id Identity, roles ...Role) error {
	if id.IsZero() {
		return apperr.New(apperr.Unauthenticated, "please login first")
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if id.Role == r {
			return nil
		}
	}
	return apperr.Newf(apperr.WrongRole, "please login as a %s", roles[0])
}

// Session holds at most one active identity.
type Session struct {
	mu      sync.Mutex
	current Identity
}

func (s *Session) Current() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Login activates id. Fails while another identity is active.
func (s *Session) Login(id Identity) error {
	if id.IsZero() {
		return apperr.New(apperr.InvalidArgument, "empty identity")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current.IsZero() {
		return apperr.New(apperr.AlreadyAuthenticated, "user already logged in")
	}
	s.current = id
	return nil
}

// RequireAnonymous fails if any identity is active. Registration uses it.
func (s *Session) RequireAnonymous() error {
	if !s.Current().IsZero() {
		return apperr.New(apperr.AlreadyAuthenticated, "user already logged in")
	}
	return nil
}

func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.IsZero() {
		return apperr.New(apperr.Unauthenticated, "please login first")
	}
	s.current = Identity{}
	return nil
}
