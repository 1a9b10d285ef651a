package models

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a business-rule violation. The set is closed:
// handlers map each code to a transport status, so adding a code means
// extending that map too.
type ErrorCode string

const (
	ErrOwnerNotFound              ErrorCode = "OWNER_NOT_FOUND"
	ErrAccountNotFound            ErrorCode = "ACCOUNT_NOT_FOUND"
	ErrTransactionNotFound        ErrorCode = "TRANSACTION_NOT_FOUND"
	ErrOwnerAccountMismatch       ErrorCode = "OWNER_ACCOUNT_MISMATCH"
	ErrMaxAccountPerOwner         ErrorCode = "MAX_ACCOUNT_PER_OWNER"
	ErrAccountAlreadyUnregistered ErrorCode = "ACCOUNT_ALREADY_UNREGISTERED"
	ErrBalanceNotEmpty            ErrorCode = "BALANCE_NOT_EMPTY"
	ErrAmountExceedBalance        ErrorCode = "AMOUNT_EXCEED_BALANCE"
	ErrCancelMustFully            ErrorCode = "CANCEL_MUST_FULLY"
	ErrTooOldToCancel             ErrorCode = "TOO_OLD_TO_CANCEL"
	ErrTransactionAccountMismatch ErrorCode = "TRANSACTION_ACCOUNT_MISMATCH"
	ErrAccountTransactionLock     ErrorCode = "ACCOUNT_TRANSACTION_LOCK"
)

var errorMessages = map[ErrorCode]string{
	ErrOwnerNotFound:              "account owner not found",
	ErrAccountNotFound:            "account not found",
	ErrTransactionNotFound:        "transaction not found",
	ErrOwnerAccountMismatch:       "account does not belong to the owner",
	ErrMaxAccountPerOwner:         "owner already holds the maximum of 10 accounts",
	ErrAccountAlreadyUnregistered: "account is already unregistered",
	ErrBalanceNotEmpty:            "account balance must be empty before unregistering",
	ErrAmountExceedBalance:        "amount exceeds the account balance",
	ErrCancelMustFully:            "cancel amount must fully match the original transaction",
	ErrTooOldToCancel:             "transactions older than one year cannot be cancelled",
	ErrTransactionAccountMismatch: "transaction does not belong to the account",
	ErrAccountTransactionLock:     "another transaction is in progress on this account",
}

// AccountError is a recoverable business error carrying a stable code and
// a human-readable description. Infrastructure faults (store unreachable,
// lock provider down) stay plain wrapped errors and never use this type.
type AccountError struct {
	Code    ErrorCode
	Message string
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAccountError(code ErrorCode) *AccountError {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &AccountError{Code: code, Message: msg}
}

// AsAccountError unwraps a business error from err, or returns nil when
// err is an infrastructure fault.
func AsAccountError(err error) *AccountError {
	var accErr *AccountError
	if errors.As(err, &accErr) {
		return accErr
	}
	return nil
}
