package store

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDayClosed         = errors.New("day is closed for booking")
	ErrSlotUnavailable   = errors.New("slot is not available")
	ErrSlotBooked        = errors.New("slot is booked")
	ErrSlotOverlap       = errors.New("slot overlaps an existing slot")
	ErrInvalidTransition = errors.New("invalid status transition")
)
