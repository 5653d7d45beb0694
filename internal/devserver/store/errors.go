package store

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrVisitNotFound      = errors.New("visit not found")
	ErrDwellingNotFound   = errors.New("dwelling not found")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrAreaNotFound       = errors.New("area not found")
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrInvalidState       = errors.New("invalid visit state")
	ErrSlotTaken          = errors.New("time slot already reserved")
	ErrAmountMismatch     = errors.New("amount does not match expense")
)
