package domain

import "errors"

var (
	// ErrEntryNotFound is returned for operations against an unknown household entry.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrInvalidPayload is returned when a payload is not a JSON document at all.
	ErrInvalidPayload = errors.New("invalid board payload")
	// ErrStaleBoard is returned by a conditional save when storage holds a
	// different revision than the one the change was derived from.
	ErrStaleBoard = errors.New("board changed in storage")
)
