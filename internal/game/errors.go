package game

import (
	"errors"
	"fmt"
)

// Code is a machine-checkable failure reason. Every engine precondition
// failure carries one; callers branch on codes, not message text.
type Code string

const (
	CodeInvalidQuantity       Code = "E_INVALID_QUANTITY"
	CodeInsufficientFunds     Code = "E_INSUFFICIENT_FUNDS"
	CodeInsufficientSupply    Code = "E_INSUFFICIENT_SUPPLY"
	CodeInsufficientInventory Code = "E_INSUFFICIENT_INVENTORY"
	CodeInsufficientGang      Code = "E_INSUFFICIENT_GANG"
	CodeInsufficientGuns      Code = "E_INSUFFICIENT_GUNS"
	CodeAlreadyOwned          Code = "E_ALREADY_OWNED"
	CodeNotFound              Code = "E_NOT_FOUND"
	CodeLocked                Code = "E_LOCKED"
	CodeOnCooldown            Code = "E_ON_COOLDOWN"
	CodeCapacityExceeded      Code = "E_CAPACITY_EXCEEDED"
	CodeNoOp                  Code = "E_NO_OP"
)

// Error is a structured engine failure. Engines return these from failed
// preconditions; they never panic and never silently no-op.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Errf builds an Error with a formatted detail message.
func Errf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the failure code from an error chain. Returns "" for nil
// or non-engine errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
