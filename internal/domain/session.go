package domain

import "time"

// SessionStateKind tags the conversational state of a case.
type SessionStateKind string

const (
	StateNormal        SessionStateKind = "normal"
	StateReportPending SessionStateKind = "report_pending"
	StateFallback      SessionStateKind = "fallback"
)

// MissingField names the precondition that blocks a final report.
type MissingField string

const (
	MissingLaborConfirmation MissingField = "labor_confirmation"
	MissingConsistentDraft   MissingField = "consistent_draft"
)

// SessionState is the persisted tagged variant
// Normal | ReportPending{Missing} | Fallback.
type SessionState struct {
	Kind    SessionStateKind
	Missing MissingField // only set for StateReportPending
}

func NormalState() SessionState { return SessionState{Kind: StateNormal} }

func FallbackState() SessionState { return SessionState{Kind: StateFallback} }

func ReportPendingState(missing MissingField) SessionState {
	return SessionState{Kind: StateReportPending, Missing: missing}
}

// PendingReportRequest records that a report was asked for but cannot be
// produced until Missing is resolved.
type PendingReportRequest struct {
	Missing     MissingField
	RequestedAt time.Time
}

// TurnSource identifies who produced the assistant side of a turn.
type TurnSource string

const (
	SourceLLM          TurnSource = "llm"
	SourceChecklist    TurnSource = "checklist"
	SourceOrchestrator TurnSource = "orchestrator"
)
