package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/db"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/intelligence"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/labor"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/reportdiff"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/repository"
	"github.com/google/uuid"
)

type diagnosticService struct {
	cases     repository.CaseRepo
	messages  repository.MessageRepo
	metadata  repository.MetadataRepo
	uow       db.UnitOfWork
	ledger    *labor.Ledger
	assistant intelligence.DiagnosticAssistant
	observer  UseCaseObserver
	now       func() time.Time
}

// ledgerIdleTTL bounds how long a case's labor record stays cached between
// turns. An evicted record is restored from metadata on the next load.
const ledgerIdleTTL = 12 * time.Hour

func NewDiagnosticService(
	cases repository.CaseRepo,
	messages repository.MessageRepo,
	metadata repository.MetadataRepo,
	uow db.UnitOfWork,
	ledger *labor.Ledger,
	assistant intelligence.DiagnosticAssistant,
	observers ...UseCaseObserver,
) DiagnosticService {
	return &diagnosticService{
		cases:     cases,
		messages:  messages,
		metadata:  metadata,
		uow:       uow,
		ledger:    ledger,
		assistant: assistant,
		observer:  useCaseObserverOrNoop(observers),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// turnContext is the persisted case state loaded at the start of a turn.
type turnContext struct {
	c       *domain.Case
	md      domain.Metadata
	history []*domain.Message
	state   domain.SessionState
	pending *domain.PendingReportRequest
	facts   map[string]string
}

// turnWrite accumulates everything a turn persists in one transaction.
type turnWrite struct {
	messages     []*domain.Message
	patch        domain.Metadata
	status       domain.CaseStatus
	factsChanged bool
	laborChanged bool
	fallbackErr  error
}

func newTurnWrite() *turnWrite {
	return &turnWrite{patch: domain.Metadata{}}
}

func (w *turnWrite) addMessage(caseID string, role domain.MessageRole, content string, source domain.TurnSource) {
	w.messages = append(w.messages, &domain.Message{
		ID:      uuid.New().String(),
		CaseID:  caseID,
		Role:    role,
		Content: content,
		Source:  source,
	})
}

func (s *diagnosticService) loadTurn(ctx context.Context, caseID string, withHistory bool) (*turnContext, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	md, err := s.metadata.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	s.ledger.EvictIdle(ledgerIdleTTL)
	if entry, ok := md.LaborEntry(); ok {
		s.ledger.Restore(caseID, entry)
	}

	tc := &turnContext{c: c, md: md, state: md.SessionState(), facts: md.Facts()}
	tc.pending, _ = md.PendingReport()
	if withHistory {
		if tc.history, err = s.messages.ListByCase(ctx, caseID); err != nil {
			return nil, err
		}
	}
	return tc, nil
}

// persist writes the turn atomically. On failure the case is dropped from
// the ledger so the next load rehydrates it from what was actually stored.
func (s *diagnosticService) persist(ctx context.Context, c *domain.Case, w *turnWrite) error {
	now := s.now()
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		msgs := repository.NewSQLiteMessageRepo(tx)
		for _, m := range w.messages {
			m.CreatedAt = now
			if err := msgs.Append(ctx, m); err != nil {
				return err
			}
		}
		if len(w.patch) > 0 {
			if err := repository.NewSQLiteMetadataRepo(tx).Update(ctx, c.ID, w.patch); err != nil {
				return err
			}
		}
		updated := *c
		updated.UpdatedAt = now
		if w.status != "" {
			updated.Status = w.status
		}
		return repository.NewSQLiteCaseRepo(tx).Update(ctx, &updated)
	})
	if err != nil {
		s.ledger.Evict(c.ID)
		return fmt.Errorf("persisting case %s: %w", c.ID, err)
	}
	return nil
}

func (s *diagnosticService) laborPatch(caseID string) domain.Metadata {
	entry, _ := s.ledger.Entry(caseID)
	return domain.LaborPatch(entry)
}

func (s *diagnosticService) markPending(tc *turnContext, w *turnWrite, missing domain.MissingField) {
	p := &domain.PendingReportRequest{Missing: missing, RequestedAt: s.now()}
	if tc.pending != nil {
		p.RequestedAt = tc.pending.RequestedAt
	}
	tc.pending = p
	w.patch.Merge(domain.PendingReportPatch(p))
}

func (s *diagnosticService) clearPending(tc *turnContext, w *turnWrite) {
	tc.pending = nil
	w.patch.Merge(domain.PendingReportPatch(nil))
}

func (s *diagnosticService) RecordAssistantEstimate(ctx context.Context, caseID, assistantText string) (hours float64, found bool, err error) {
	done := observe(ctx, s.observer, "record-assistant-estimate", caseID, nil)
	defer func() { done(err) }()

	tc, err := s.loadTurn(ctx, caseID, false)
	if err != nil {
		return 0, false, err
	}
	hours, found = intelligence.ExtractEstimate(assistantText)
	if !found {
		return 0, false, nil
	}
	s.ledger.SetEstimate(caseID, hours)

	w := newTurnWrite()
	w.patch.Merge(s.laborPatch(caseID))
	if err := s.persist(ctx, tc.c, w); err != nil {
		return 0, false, err
	}
	return hours, true, nil
}

func (s *diagnosticService) RecordTechnicianReply(ctx context.Context, caseID, technicianText string) (hours float64, resolved bool, err error) {
	done := observe(ctx, s.observer, "record-technician-reply", caseID, nil)
	defer func() { done(err) }()

	tc, err := s.loadTurn(ctx, caseID, false)
	if err != nil {
		return 0, false, err
	}
	hours, resolved = s.confirmReply(caseID, technicianText)
	if !resolved {
		return 0, false, nil
	}

	w := newTurnWrite()
	w.patch.Merge(s.laborPatch(caseID))
	if err := s.persist(ctx, tc.c, w); err != nil {
		return 0, false, err
	}
	return hours, true, nil
}

// confirmReply runs the interpreter against the current estimate and
// confirms the result in the ledger.
func (s *diagnosticService) confirmReply(caseID, text string) (float64, bool) {
	entry, _ := s.ledger.Entry(caseID)
	var current *float64
	if entry.HasEstimate() {
		v := entry.EstimatedHours
		current = &v
	}
	hours, ok := intelligence.InterpretConfirmation(text, current)
	if !ok {
		return 0, false
	}
	s.ledger.Confirm(caseID, hours)
	return hours, true
}

func (s *diagnosticService) RequestReport(ctx context.Context, caseID, draft string) (outcome *ReportOutcome, err error) {
	done := observe(ctx, s.observer, "request-report", caseID, nil)
	defer func() { done(err) }()

	tc, err := s.loadTurn(ctx, caseID, false)
	if err != nil {
		return nil, err
	}
	w := newTurnWrite()

	confirmed, ok := s.ledger.ConfirmedHours(caseID)
	if !ok {
		s.markPending(tc, w, domain.MissingLaborConfirmation)
		w.patch.Merge(domain.SessionStatePatch(domain.ReportPendingState(domain.MissingLaborConfirmation)))
		outcome = &ReportOutcome{PreconditionUnmet: true, Missing: domain.MissingLaborConfirmation}
	} else {
		outcome, _ = evaluateReport(draft, confirmed)
		if outcome.Valid() {
			s.clearPending(tc, w)
			w.status = domain.CaseReported
			w.patch.Merge(domain.SessionStatePatch(domain.NormalState()))
		} else {
			s.markPending(tc, w, domain.MissingConsistentDraft)
			w.patch.Merge(domain.SessionStatePatch(domain.ReportPendingState(domain.MissingConsistentDraft)))
		}
	}

	if err := s.persist(ctx, tc.c, w); err != nil {
		return nil, err
	}
	return outcome, nil
}

func evaluateReport(report string, confirmed float64) (*ReportOutcome, intelligence.LaborCheck) {
	check := intelligence.ValidateLaborSum(report, confirmed)
	return &ReportOutcome{
		Report:         report,
		ConfirmedHours: confirmed,
		ComputedSum:    check.ComputedSum,
		Violations:     check.Violations,
	}, check
}

func (s *diagnosticService) HandleTurn(ctx context.Context, caseID, technicianText string) (*TurnResult, error) {
	text := strings.TrimSpace(technicianText)
	if text == "" {
		return nil, fmt.Errorf("technician message is required")
	}
	return s.runTurn(ctx, "handle-turn", caseID, text, false)
}

func (s *diagnosticService) RequestFinalReport(ctx context.Context, caseID string) (*TurnResult, error) {
	return s.runTurn(ctx, "request-final-report", caseID, "", true)
}

func (s *diagnosticService) runTurn(ctx context.Context, name, caseID, text string, forceReport bool) (result *TurnResult, err error) {
	fields := map[string]any{}
	done := observe(ctx, s.observer, name, caseID, fields)
	defer func() { done(err) }()

	tc, err := s.loadTurn(ctx, caseID, true)
	if err != nil {
		return nil, err
	}

	w := newTurnWrite()
	result = &TurnResult{CaseID: caseID}
	if text != "" {
		w.addMessage(caseID, domain.RoleTechnician, text, "")
	}

	reportRequested := forceReport || intelligence.IsReportRequest(text)
	if text != "" && !reportRequested && s.awaitingLabor(caseID, tc) {
		if hours, ok := s.confirmReply(caseID, text); ok {
			result.LaborConfirmed = &hours
			w.laborChanged = true
		}
	}
	if text != "" && !reportRequested && result.LaborConfirmed == nil && tc.state.Kind == domain.StateFallback {
		if step := tc.md.ChecklistStep(); step != "" {
			tc.facts[step] = text
			w.factsChanged = true
		}
	}

	switch {
	case reportRequested || tc.pending != nil:
		s.reportTurn(ctx, tc, w, result)
	case result.LaborConfirmed != nil:
		s.laborAckTurn(tc, result)
	default:
		s.diagnosticTurn(ctx, tc, text, w, result)
	}

	w.addMessage(caseID, domain.RoleAssistant, result.Reply, result.Source)
	w.patch.Merge(domain.SessionStatePatch(result.State))
	w.patch[domain.KeyTurnSource] = string(result.Source)
	if result.State.Kind != domain.StateFallback {
		w.patch[domain.KeyChecklistStep] = nil
	}
	if w.factsChanged {
		w.patch.Merge(domain.FactsPatch(tc.facts))
	}
	if w.laborChanged {
		w.patch.Merge(s.laborPatch(caseID))
	}

	fields["state"] = string(result.State.Kind)
	fields["source"] = string(result.Source)
	fields["ledger_cases"] = s.ledger.Len()
	if w.fallbackErr != nil {
		fields["fallback_reason"] = w.fallbackErr.Error()
	}

	if err := s.persist(ctx, tc.c, w); err != nil {
		return nil, err
	}
	return result, nil
}

// awaitingLabor reports whether technician text should be read as a labor
// answer: a report is blocked on it, or the assistant's last message put an
// unconfirmed estimate in front of the technician.
func (s *diagnosticService) awaitingLabor(caseID string, tc *turnContext) bool {
	entry, _ := s.ledger.Entry(caseID)
	if entry.IsConfirmed() {
		return false
	}
	if tc.pending != nil && tc.pending.Missing == domain.MissingLaborConfirmation {
		return true
	}
	if !entry.AwaitingConfirmation() {
		return false
	}
	_, asked := intelligence.ExtractStatedEstimate(lastAssistantMessage(tc.history))
	return asked
}

func (s *diagnosticService) reportTurn(ctx context.Context, tc *turnContext, w *turnWrite, result *TurnResult) {
	caseID := tc.c.ID
	confirmed, ok := s.ledger.ConfirmedHours(caseID)
	if !ok {
		entry, _ := s.ledger.Entry(caseID)
		s.markPending(tc, w, domain.MissingLaborConfirmation)
		result.State = domain.ReportPendingState(domain.MissingLaborConfirmation)
		result.Source = domain.SourceOrchestrator
		result.Reply = laborQuestion(entry)
		result.Report = &ReportOutcome{PreconditionUnmet: true, Missing: domain.MissingLaborConfirmation}
		return
	}

	draft, err := s.assistant.DraftReport(ctx, intelligence.ReportContext{
		Case:           *tc.c,
		History:        derefMessages(tc.history),
		Facts:          tc.facts,
		ConfirmedHours: confirmed,
	})
	if err != nil {
		s.fallbackTurn(tc, "", w, result, err)
		s.markPending(tc, w, domain.MissingConsistentDraft)
		result.Reply = "The final report could not be generated right now. It will be written on your next message once the assistant is back.\n\n" + result.Reply
		result.Report = &ReportOutcome{PreconditionUnmet: true, Missing: domain.MissingConsistentDraft, ConfirmedHours: confirmed}
		return
	}

	outcome, repairErr := s.checkAndRepair(ctx, draft, confirmed)
	result.Report = outcome
	result.Source = domain.SourceLLM

	switch {
	case outcome.Valid():
		s.clearPending(tc, w)
		w.status = domain.CaseReported
		result.State = domain.NormalState()
		result.Reply = outcome.Report
	default:
		if repairErr != nil {
			w.fallbackErr = repairErr
		}
		s.markPending(tc, w, domain.MissingConsistentDraft)
		result.State = domain.ReportPendingState(domain.MissingConsistentDraft)
		result.Reply = flaggedReport(outcome)
	}
}

// checkAndRepair validates draft and, when it violates the labor check,
// asks the model for one corrected version.
func (s *diagnosticService) checkAndRepair(ctx context.Context, draft string, confirmed float64) (*ReportOutcome, error) {
	outcome, check := evaluateReport(draft, confirmed)
	if outcome.Valid() {
		return outcome, nil
	}

	repaired, err := s.assistant.RepairReport(ctx, draft, check, confirmed)
	if err != nil {
		return outcome, err
	}
	diff := reportdiff.Compute(draft, repaired)
	fixed, _ := evaluateReport(repaired, confirmed)
	fixed.Repair = &diff
	return fixed, nil
}

func (s *diagnosticService) laborAckTurn(tc *turnContext, result *TurnResult) {
	result.Source = domain.SourceOrchestrator
	result.State = tc.state
	if result.State.Kind == domain.StateReportPending {
		result.State = domain.NormalState()
	}
	result.Reply = fmt.Sprintf("Labor confirmed: %s hr. Ask for the final report when the repair is done.",
		domain.FormatHours(*result.LaborConfirmed))
}

func (s *diagnosticService) diagnosticTurn(ctx context.Context, tc *turnContext, text string, w *turnWrite, result *TurnResult) {
	turn, err := s.assistant.Reply(ctx, intelligence.DiagnosticContext{
		Case:           *tc.c,
		History:        derefMessages(tc.history),
		Facts:          tc.facts,
		TechnicianText: text,
	})
	if err != nil {
		s.fallbackTurn(tc, text, w, result, err)
		return
	}

	for k, v := range turn.Facts {
		if tc.facts[k] != v {
			tc.facts[k] = v
			w.factsChanged = true
		}
	}
	result.Reply = turn.Reply
	result.Source = domain.SourceLLM
	result.State = domain.NormalState()

	if hours, ok := intelligence.ExtractStatedEstimate(turn.Reply); ok {
		s.ledger.SetEstimate(tc.c.ID, hours)
		result.Estimate = &hours
		w.laborChanged = true
	}
}

// fallbackTurn answers from the deterministic checklist.
func (s *diagnosticService) fallbackTurn(tc *turnContext, text string, w *turnWrite, result *TurnResult, cause error) {
	resp := intelligence.BuildChecklistResponse(intelligence.ChecklistContext{
		CaseTitle:      tc.c.Title,
		Unit:           tc.c.Unit,
		TechnicianText: text,
		Facts:          tc.facts,
	})
	if tc.facts[intelligence.FactSystem] != resp.System {
		tc.facts[intelligence.FactSystem] = resp.System
		w.factsChanged = true
	}
	if resp.StepKey != "" {
		w.patch[domain.KeyChecklistStep] = resp.StepKey
	} else {
		w.patch[domain.KeyChecklistStep] = nil
	}

	w.fallbackErr = cause
	result.Reply = resp.Text
	result.Source = domain.SourceChecklist
	result.State = domain.FallbackState()
}

func (s *diagnosticService) AbandonReport(ctx context.Context, caseID string) (err error) {
	done := observe(ctx, s.observer, "abandon-report", caseID, nil)
	defer func() { done(err) }()

	tc, err := s.loadTurn(ctx, caseID, false)
	if err != nil {
		return err
	}
	if tc.pending == nil && tc.state.Kind != domain.StateReportPending {
		return nil
	}

	w := newTurnWrite()
	s.clearPending(tc, w)
	if tc.state.Kind == domain.StateReportPending {
		w.patch.Merge(domain.SessionStatePatch(domain.NormalState()))
	}
	w.addMessage(caseID, domain.RoleSystem, "Report request cancelled.", domain.SourceOrchestrator)
	return s.persist(ctx, tc.c, w)
}

func (s *diagnosticService) ConfirmLabor(ctx context.Context, caseID string, hours float64) (err error) {
	done := observe(ctx, s.observer, "confirm-labor", caseID, map[string]any{"hours": hours})
	defer func() { done(err) }()

	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidLaborHours, hours)
	}
	tc, err := s.loadTurn(ctx, caseID, false)
	if err != nil {
		return err
	}
	s.ledger.Confirm(caseID, hours)

	w := newTurnWrite()
	w.patch.Merge(s.laborPatch(caseID))
	w.addMessage(caseID, domain.RoleSystem,
		fmt.Sprintf("Labor confirmed: %s hr.", domain.FormatHours(hours)), domain.SourceOrchestrator)
	return s.persist(ctx, tc.c, w)
}

func (s *diagnosticService) LaborStatus(ctx context.Context, caseID string) (*LaborStatus, error) {
	tc, err := s.loadTurn(ctx, caseID, false)
	if err != nil {
		return nil, err
	}
	entry, known := s.ledger.Entry(caseID)
	return &LaborStatus{
		CaseID:  caseID,
		Entry:   entry,
		Known:   known,
		Pending: tc.pending,
		State:   tc.state,
	}, nil
}

func (s *diagnosticService) State(ctx context.Context, caseID string) (domain.SessionState, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return domain.SessionState{}, err
	}
	md, err := s.metadata.Get(ctx, caseID)
	if err != nil {
		return domain.SessionState{}, err
	}
	return md.SessionState(), nil
}

func laborQuestion(entry domain.LaborEntry) string {
	if entry.HasEstimate() {
		return fmt.Sprintf(
			"Before I write the final report I need the labor total confirmed. The current estimate is %s hr. "+
				"Reply \"yes\" to accept it or send the actual hours (for example \"3.5 h\").",
			domain.FormatHours(entry.EstimatedHours))
	}
	return "Before I write the final report I need the total labor time. How many hours did the repair take? (for example \"2.5 h\")"
}

func flaggedReport(o *ReportOutcome) string {
	var b strings.Builder
	b.WriteString(o.Report)
	b.WriteString("\n\nLabor check failed, do not submit this report as-is:\n")
	for _, v := range o.Violations {
		b.WriteString("- ")
		b.WriteString(v.Message())
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func lastAssistantMessage(history []*domain.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleAssistant {
			return history[i].Content
		}
	}
	return ""
}

func derefMessages(msgs []*domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, *m)
	}
	return out
}
