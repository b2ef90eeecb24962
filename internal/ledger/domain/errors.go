package ledger

import "errors"

var (
	// ErrInvalidSchedule is returned when a shift schedule overlaps, leaves a
	// gap, or does not cover a full day.
	ErrInvalidSchedule = errors.New("ledger: invalid shift schedule")
	// ErrUnknownTimezone is returned when a timezone identifier cannot be resolved.
	ErrUnknownTimezone = errors.New("ledger: unknown timezone")
	// ErrInvalidDate is returned when a calendar date cannot be parsed.
	ErrInvalidDate = errors.New("ledger: invalid date")
	// ErrInvalidDateRange is returned when a range ends before it starts.
	ErrInvalidDateRange = errors.New("ledger: invalid date range")
	// ErrInvalidTopN is returned when an item ranking size is not positive.
	ErrInvalidTopN = errors.New("ledger: invalid top-n size")
	// ErrInvalidRankKey is returned when an item ranking key is unrecognized.
	ErrInvalidRankKey = errors.New("ledger: invalid rank key")
)
