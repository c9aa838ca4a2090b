package ledger

import "errors"

// Command failures. Callers match them with errors.Is.
var (
	// Validation errors: never retried, never partially committed.
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfTransfer      = errors.New("cannot transfer to self")
	ErrAccountNotFound   = errors.New("account not found")

	// Transient errors: the unit of work rolled back, the caller may retry.
	ErrLockTimeout    = errors.New("timed out waiting for account lock")
	ErrInfrastructure = errors.New("ledger storage unavailable")
)

// Event history errors.
var (
	ErrUnknownEventType  = errors.New("unknown event type")
	ErrUnsupportedSchema = errors.New("unsupported event schema version")
	ErrHistoryMismatch   = errors.New("event does not belong to account")
)

// IsTransient reports whether err leaves no side effect and is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrInfrastructure)
}
