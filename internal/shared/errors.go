package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate indicates a uniqueness conflict (e.g. email already taken).
	ErrDuplicate = errors.New("duplicate entry")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps internal errors to a message safe to flash at users.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "El registro solicitado no existe"
	case errors.Is(err, ErrDuplicate):
		return "Ya existe un registro con esos datos"
	case errors.Is(err, ErrInvalidCredentials):
		return "Email o contraseña incorrectos"
	default:
		return "Ocurrió un error, por favor intentá nuevamente"
	}
}
