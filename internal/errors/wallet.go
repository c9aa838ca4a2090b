package errors

import "net/http"

var (
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount must be a positive integer",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrInsufficientFunds = &DomainError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient wallet balance",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrSelfTransfer = &DomainError{
		Code:    "SELF_TRANSFER",
		Message: "cannot transfer to your own wallet",
		Status:  http.StatusBadRequest,
	}
	ErrAccountNotFound = &DomainError{
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "wallet not found",
		Status:  http.StatusNotFound,
	}
	ErrLockTimeout = &DomainError{
		Code:    "LOCK_TIMEOUT",
		Message: "wallet is busy, retry later",
		Status:  http.StatusConflict,
	}
	ErrInfrastructure = &DomainError{
		Code:    "INFRASTRUCTURE",
		Message: "service temporarily unavailable",
		Status:  http.StatusServiceUnavailable,
	}
	ErrOwnerNotFound = &DomainError{
		Code:    "OWNER_NOT_FOUND",
		Message: "user not found",
		Status:  http.StatusNotFound,
	}
	ErrInvalidRequest = &DomainError{
		Code:    "INVALID_REQUEST",
		Message: "invalid request body",
		Status:  http.StatusBadRequest,
	}
	ErrUnauthorized = &DomainError{
		Code:    "UNAUTHORIZED",
		Message: "unauthorized",
		Status:  http.StatusUnauthorized,
	}
)
