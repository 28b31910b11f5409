package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to react to it
type Kind int

const (
	Internal Kind = iota
	InvalidArgument
	InvalidDate
	Unauthenticated
	AlreadyAuthenticated
	AuthFailed
	WrongRole
	Forbidden
	AlreadyExists
	NotFound
	InsufficientStock
	NoCaregiverAvailable
	DataIntegrity
	StoreUnavailable
)

var kindNames = map[Kind]string{
	Internal:             "internal",
	InvalidArgument:      "invalid_argument",
	InvalidDate:          "invalid_date",
	Unauthenticated:      "unauthenticated",
	AlreadyAuthenticated: "already_authenticated",
	AuthFailed:           "auth_failed",
	WrongRole:            "wrong_role",
	Forbidden:            "forbidden",
	AlreadyExists:        "already_exists",
	NotFound:             "not_found",
	InsufficientStock:    "insufficient_stock",
	NoCaregiverAvailable: "no_caregiver_available",
	DataIntegrity:        "data_integrity",
	StoreUnavailable:     "store_unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned by every core operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrInternal             = &Error{Kind: Internal}
	ErrInvalidArgument      = &Error{Kind: InvalidArgument}
	ErrInvalidDate          = &Error{Kind: InvalidDate}
	ErrUnauthenticated      = &Error{Kind: Unauthenticated}
	ErrAlreadyAuthenticated = &Error{Kind: AlreadyAuthenticated}
	ErrAuthFailed           = &Error{Kind: AuthFailed}
	ErrWrongRole            = &Error{Kind: WrongRole}
	ErrForbidden            = &Error{Kind: Forbidden}
	ErrAlreadyExists        = &Error{Kind: AlreadyExists}
	ErrNotFound             = &Error{Kind: NotFound}
	ErrInsufficientStock    = &Error{Kind: InsufficientStock}
	ErrNoCaregiverAvailable = &Error{Kind: NoCaregiverAvailable}
	ErrDataIntegrity        = &Error{Kind: DataIntegrity}
	ErrStoreUnavailable     = &Error{Kind: StoreUnavailable}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the human readable message of the first *Error in err's chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
