package service

import "errors"

// Engine error taxonomy. Services wrap these with detail via fmt.Errorf
// ("%w: ...") and handlers map them to HTTP statuses with errors.Is.
var (
	// ErrValidation: malformed input; the caller must correct it, never retry as-is.
	ErrValidation = errors.New("donnees invalides")
	// ErrNotFound: the referenced record does not exist or belongs to
	// another account. Cross-account access reports not-found on purpose,
	// so document existence never leaks across tenants.
	ErrNotFound = errors.New("introuvable")
	// ErrInvalidState: the operation is not permitted in the document's
	// current status.
	ErrInvalidState = errors.New("statut invalide pour cette operation")
	// ErrConflict: a concurrent modification was detected; the caller
	// should retry the whole operation.
	ErrConflict = errors.New("modification concurrente detectee")
)
