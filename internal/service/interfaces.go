package service

import (
	"context"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
)

type CaseService interface {
	Create(ctx context.Context, title, unit string) (*domain.Case, error)
	// Resolve accepts a full case id or a unique prefix of one.
	Resolve(ctx context.Context, ref string) (*domain.Case, error)
	List(ctx context.Context, status domain.CaseStatus) ([]*domain.Case, error)
	Transcript(ctx context.Context, caseID string) ([]*domain.Message, error)
}

// DiagnosticService is the per-case session orchestrator.
type DiagnosticService interface {
	// RecordAssistantEstimate extracts an hour estimate from assistant text
	// and stores it in the ledger when one is found.
	RecordAssistantEstimate(ctx context.Context, caseID, assistantText string) (float64, bool, error)

	// RecordTechnicianReply interprets technician text against the current
	// estimate and confirms it in the ledger when resolved.
	RecordTechnicianReply(ctx context.Context, caseID, technicianText string) (float64, bool, error)

	// RequestReport validates a drafted report against confirmed labor.
	RequestReport(ctx context.Context, caseID, draft string) (*ReportOutcome, error)

	// HandleTurn runs one technician turn through the state machine. Model
	// failures never surface as errors; only persistence failures do.
	HandleTurn(ctx context.Context, caseID, technicianText string) (*TurnResult, error)

	// RequestFinalReport is HandleTurn for an explicit report request.
	RequestFinalReport(ctx context.Context, caseID string) (*TurnResult, error)

	AbandonReport(ctx context.Context, caseID string) error
	ConfirmLabor(ctx context.Context, caseID string, hours float64) error
	LaborStatus(ctx context.Context, caseID string) (*LaborStatus, error)
	State(ctx context.Context, caseID string) (domain.SessionState, error)
}
