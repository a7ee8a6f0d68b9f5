package service

import (
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/reportdiff"
)

// ReportOutcome is the result of gating a report on confirmed labor.
type ReportOutcome struct {
	// PreconditionUnmet is set when no report could be produced; Missing
	// names what is needed and Report is empty.
	PreconditionUnmet bool
	Missing           domain.MissingField

	Report         string
	ConfirmedHours float64
	ComputedSum    float64
	Violations     []domain.Violation

	// Repair is set when the first draft was rewritten to fix violations.
	Repair *reportdiff.Diff
}

// Valid reports whether the report can be delivered as-is.
func (o *ReportOutcome) Valid() bool {
	return o != nil && !o.PreconditionUnmet && len(o.Violations) == 0
}

// TurnResult is what the technician sees for one turn.
type TurnResult struct {
	CaseID string
	Reply  string
	Source domain.TurnSource
	State  domain.SessionState

	// Report is set whenever a report was attempted this turn.
	Report *ReportOutcome

	LaborConfirmed *float64 // set when this turn confirmed labor
	Estimate       *float64 // set when the reply surfaced a new estimate
}

type LaborStatus struct {
	CaseID  string
	Entry   domain.LaborEntry
	Known   bool
	Pending *domain.PendingReportRequest
	State   domain.SessionState
}
