package errors

import "errors"

var (
	ErrNotFound = errors.New("venue not found")

	ErrInvalidID = errors.New("invalid venue ID format")

	ErrAlreadyReviewed = errors.New("booking has already been reviewed")
)
