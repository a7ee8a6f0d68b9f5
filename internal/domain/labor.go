package domain

import (
	"strconv"
	"strings"
	"time"
)

// LaborEntry is the per-case record of estimated and confirmed labor hours.
// A zero ConfirmedHours means the technician has not confirmed anything yet.
type LaborEntry struct {
	EstimatedHours float64
	ConfirmedHours float64
	ConfirmedAt    *time.Time
}

// IsConfirmed reports whether a confirmation has been recorded.
func (e LaborEntry) IsConfirmed() bool {
	return e.ConfirmedHours > 0
}

// HasEstimate reports whether an estimate is on record.
func (e LaborEntry) HasEstimate() bool {
	return e.EstimatedHours > 0
}

// AwaitingConfirmation is true when an estimate exists that nobody confirmed.
func (e LaborEntry) AwaitingConfirmation() bool {
	return e.HasEstimate() && !e.IsConfirmed()
}

// FormatHours renders hours without trailing zeros: 2.5, 3, 1.25.
func FormatHours(h float64) string {
	return strings.TrimSuffix(strings.TrimRight(strconv.FormatFloat(h, 'f', 2, 64), "0"), ".")
}
