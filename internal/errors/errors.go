package errors

import (
	stderrors "errors"
	"net/http"

	"walletledger/internal/domain/ledger"
)

// DomainError is the API-facing form of a ledger failure.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Retryable reports whether the client may resend the same request.
func (e *DomainError) Retryable() bool {
	return e == ErrLockTimeout || e == ErrInfrastructure
}

var mapping = []struct {
	sentinel error
	domain   *DomainError
}{
	{ledger.ErrInvalidAmount, ErrInvalidAmount},
	{ledger.ErrInsufficientFunds, ErrInsufficientFunds},
	{ledger.ErrSelfTransfer, ErrSelfTransfer},
	{ledger.ErrAccountNotFound, ErrAccountNotFound},
	{ledger.ErrLockTimeout, ErrLockTimeout},
	{ledger.ErrInfrastructure, ErrInfrastructure},
}

// FromError maps err onto a DomainError. Unknown errors become
// ErrInternal so their text never leaks to clients.
func FromError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var de *DomainError
	if stderrors.As(err, &de) {
		return de
	}
	for _, m := range mapping {
		if stderrors.Is(err, m.sentinel) {
			return m.domain
		}
	}
	return ErrInternal
}

var ErrInternal = &DomainError{
	Code:    "INTERNAL",
	Message: "internal server error",
	Status:  http.StatusInternalServerError,
}
