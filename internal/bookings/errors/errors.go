package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDuplicateSlot = errors.New("a confirmed booking already starts in this slot")

	ErrStatusChanged = errors.New("booking is no longer confirmed")

	ErrLockHeld = errors.New("slot lock is held by another request")

	ErrLockLost = errors.New("slot lock expired or was taken over")
)
