package account

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
)

const MinPasswordLen = 8

type Account struct {
	Username     string
	Role         identity.Role
	PasswordHash string
}

// Repository keeps patients and caregivers in separate namespaces.
type Repository interface {
	Create(ctx context.Context, a Account) error
	Get(ctx context.Context, username string, role identity.Role) (Account, error)
}

// PasswordHasher hashes and compares passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// Service is the credential verifier consulted before a session gets an identity.
type Service struct {
	repo   Repository
	hasher PasswordHasher
}

func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

func (s *Service) Register(ctx context.Context, username, password string, role identity.Role) (identity.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.ContainsAny(username, " \t\n") {
		return identity.Identity{}, apperr.New(apperr.InvalidArgument, "username must be a single non-empty word")
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return identity.Identity{}, apperr.Newf(apperr.InvalidArgument, "password must be at least %d characters", MinPasswordLen)
	}
	if _, err := identity.ParseRole(string(role)); err != nil {
		return identity.Identity{}, err
	}

	taken, err := s.UsernameTaken(ctx, username, role)
	if err != nil {
		return identity.Identity{}, err
	}
	if taken {
		return identity.Identity{}, apperr.New(apperr.AlreadyExists, "username taken, try again")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return identity.Identity{}, apperr.Wrap(apperr.Internal, "hash password", err)
	}

	// a concurrent registration may still win; the unique key reports it
	if err := s.repo.Create(ctx, Account{Username: username, Role: role, PasswordHash: hash}); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return identity.Identity{}, apperr.New(apperr.AlreadyExists, "username taken, try again")
		}
		return identity.Identity{}, err
	}

	return identity.Identity{Username: username, Role: role}, nil
}

func (s *Service) UsernameTaken(ctx context.Context, username string, role identity.Role) (bool, error) {
	_, err := s.repo.Get(ctx, username, role)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Verify returns the identity for valid credentials. Unknown users and wrong
// passwords fail the same way.
func (s *Service) Verify(ctx context.Context, username, password string, role identity.Role) (identity.Identity, error) {
	acc, err := s.repo.Get(ctx, strings.TrimSpace(username), role)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return identity.Identity{}, apperr.New(apperr.AuthFailed, "login failed")
		}
		return identity.Identity{}, err
	}
	if err := s.hasher.Compare(acc.PasswordHash, password); err != nil {
		return identity.Identity{}, apperr.New(apperr.AuthFailed, "login failed")
	}
	return identity.Identity{Username: acc.Username, Role: acc.Role}, nil
}
