package pgmap

import (
	"errors"
	"io/fs"

	"github.com/jackc/pgx/v5/pgconn"
)

// roleAuthCode is the SQLSTATE for invalid_authorization_specification,
// reported when the connecting role does not exist or may not log in.
const roleAuthCode = "28000"

var (
	// ErrNotFound is returned by strict single-row queries yielding no rows.
	ErrNotFound = &Error{Status: StatusNotFound, Message: "Not Found"}

	// ErrClosed is returned once the pool has been disconnected.
	ErrClosed = errors.New("pgmap: pool is closed")
)

// Error is a user-facing error carrying a status code and optionally the
// error it encloses.
type Error struct {
	Status  int
	Message string
	Err     error
}

func NewError(msg string, status int, err error) *Error {
	return &Error{Status: status, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match on equal status, so any 404 satisfies
// errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Status == e.Status
}

// Kind classifies an error returned by this package.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindRoleAuth
	KindFileNotFound
	KindDriver
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindRoleAuth:
		return "role_auth"
	case KindFileNotFound:
		return "file_not_found"
	default:
		return "driver"
	}
}

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case IsRoleAuth(err):
		return KindRoleAuth
	case errors.Is(err, fs.ErrNotExist):
		return KindFileNotFound
	default:
		return KindDriver
	}
}

// IsRoleAuth reports whether the driver rejected the connecting role.
func IsRoleAuth(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == roleAuthCode
}
