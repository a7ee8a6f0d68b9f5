package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/db"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/intelligence"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/labor"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/llm"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/repository"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAssistant scripts model output per call; an exhausted script repeats
// its last entry.
type fakeAssistant struct {
	replies   []string
	replyErr  error
	drafts    []string
	draftErr  error
	repairs   []string
	repairErr error

	replyCalls, draftCalls, repairCalls int
	lastDiag                            intelligence.DiagnosticContext
	replyFacts                          map[string]string
}

func next(script []string, i int) string {
	if len(script) == 0 {
		return ""
	}
	if i >= len(script) {
		i = len(script) - 1
	}
	return script[i]
}

func (f *fakeAssistant) Reply(_ context.Context, dc intelligence.DiagnosticContext) (*intelligence.AssistantTurn, error) {
	f.lastDiag = dc
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	text := next(f.replies, f.replyCalls)
	f.replyCalls++
	if text == "" {
		text = "What do you see next?"
	}
	return &intelligence.AssistantTurn{Reply: text, Facts: f.replyFacts}, nil
}

func (f *fakeAssistant) DraftReport(_ context.Context, _ intelligence.ReportContext) (string, error) {
	if f.draftErr != nil {
		return "", f.draftErr
	}
	text := next(f.drafts, f.draftCalls)
	f.draftCalls++
	return text, nil
}

func (f *fakeAssistant) RepairReport(_ context.Context, _ string, _ intelligence.LaborCheck, _ float64) (string, error) {
	if f.repairErr != nil {
		return "", f.repairErr
	}
	text := next(f.repairs, f.repairCalls)
	f.repairCalls++
	return text, nil
}

type harness struct {
	db        *sql.DB
	cases     *repository.SQLiteCaseRepo
	messages  *repository.SQLiteMessageRepo
	metadata  *repository.SQLiteMetadataRepo
	ledger    *labor.Ledger
	assistant *fakeAssistant
	svc       DiagnosticService
	caseID    string
}

func newHarness(t *testing.T, a *fakeAssistant) *harness {
	t.Helper()
	database := testutil.NewTestDB(t)
	h := &harness{
		db:        database,
		cases:     repository.NewSQLiteCaseRepo(database),
		messages:  repository.NewSQLiteMessageRepo(database),
		metadata:  repository.NewSQLiteMetadataRepo(database),
		ledger:    labor.NewLedger(),
		assistant: a,
	}
	c := testutil.NewTestCase("Water pump not running", testutil.WithUnit("2019 Jayco Eagle"))
	require.NoError(t, h.cases.Create(context.Background(), c))
	h.caseID = c.ID
	h.svc = h.service(testutil.NewTestUoW(database), h.ledger)
	return h
}

func (h *harness) service(uow db.UnitOfWork, ledger *labor.Ledger, observers ...UseCaseObserver) DiagnosticService {
	return NewDiagnosticService(h.cases, h.messages, h.metadata, uow, ledger, h.assistant, observers...)
}

func (h *harness) turn(t *testing.T, text string) *TurnResult {
	t.Helper()
	res, err := h.svc.HandleTurn(context.Background(), h.caseID, text)
	require.NoError(t, err)
	require.NotEmpty(t, res.Reply)
	return res
}

func (h *harness) meta(t *testing.T) domain.Metadata {
	t.Helper()
	md, err := h.metadata.Get(context.Background(), h.caseID)
	require.NoError(t, err)
	return md
}

const validReport = "Complaint: no water\nLabor:\n- Replace pump 2.0 hr\n- Test system 0.5 hr\nTotal labor: 2.5 hr"

func TestHandleTurn_ReportWithoutConfirmationGoesPending(t *testing.T) {
	h := newHarness(t, &fakeAssistant{drafts: []string{validReport}})

	res := h.turn(t, "generate the final report")

	assert.Equal(t, domain.ReportPendingState(domain.MissingLaborConfirmation), res.State)
	assert.Equal(t, domain.SourceOrchestrator, res.Source)
	require.NotNil(t, res.Report)
	assert.True(t, res.Report.PreconditionUnmet)
	assert.Empty(t, res.Report.Report)
	assert.NotContains(t, res.Reply, "Total labor")
	assert.Zero(t, h.assistant.draftCalls)

	md := h.meta(t)
	pending, ok := md.PendingReport()
	require.True(t, ok)
	assert.Equal(t, domain.MissingLaborConfirmation, pending.Missing)
	assert.Equal(t, domain.ReportPendingState(domain.MissingLaborConfirmation), md.SessionState())
}

func TestHandleTurn_PendingResolvedByConfirmation(t *testing.T) {
	h := newHarness(t, &fakeAssistant{
		replies: []string{"Replace the pump.\nEstimated total labor: 2.5 hours"},
		drafts:  []string{validReport},
	})

	first := h.turn(t, "pump hums but no water")
	require.NotNil(t, first.Estimate)
	assert.Equal(t, 2.5, *first.Estimate)

	pending := h.turn(t, "write the report")
	assert.Equal(t, domain.StateReportPending, pending.State.Kind)
	assert.Contains(t, pending.Reply, "2.5 hr")
	assert.Nil(t, pending.LaborConfirmed)

	done := h.turn(t, "yes")
	require.NotNil(t, done.LaborConfirmed)
	assert.Equal(t, 2.5, *done.LaborConfirmed)
	assert.Equal(t, domain.NormalState(), done.State)
	assert.Equal(t, validReport, done.Reply)
	require.True(t, done.Report.Valid())
	assert.Equal(t, 2.5, done.Report.ComputedSum)

	md := h.meta(t)
	_, stillPending := md.PendingReport()
	assert.False(t, stillPending)
	assert.Equal(t, domain.NormalState(), md.SessionState())
	entry, ok := md.LaborEntry()
	require.True(t, ok)
	assert.Equal(t, 2.5, entry.ConfirmedHours)

	c, err := h.cases.GetByID(context.Background(), h.caseID)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseReported, c.Status)
}

func TestHandleTurn_PendingReasksOnlyForLabor(t *testing.T) {
	h := newHarness(t, &fakeAssistant{})
	ctx := context.Background()

	h.turn(t, "final report please")
	before, _ := h.meta(t).PendingReport()

	res := h.turn(t, "what about the fuse?")

	assert.Equal(t, domain.ReportPendingState(domain.MissingLaborConfirmation), res.State)
	assert.Contains(t, res.Reply, "How many hours")
	assert.Zero(t, h.assistant.replyCalls, "diagnostics must not restart while a report is pending")

	after, ok := h.meta(t).PendingReport()
	require.True(t, ok)
	assert.True(t, before.RequestedAt.Equal(after.RequestedAt))

	state, err := h.svc.State(ctx, h.caseID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateReportPending, state.Kind)
}

func TestHandleTurn_OverrideWithUnitResolvesPending(t *testing.T) {
	h := newHarness(t, &fakeAssistant{drafts: []string{"- Replace pump 3 hr\nTotal labor: 3 hr"}})

	h.turn(t, "final report please")
	res := h.turn(t, "it took 3 hours in the end")

	require.NotNil(t, res.LaborConfirmed)
	assert.Equal(t, 3.0, *res.LaborConfirmed)
	assert.Equal(t, domain.NormalState(), res.State)
	assert.True(t, res.Report.Valid())
}

func TestHandleTurn_LLMFailureFallsBackToChecklist(t *testing.T) {
	for _, cause := range []error{llm.ErrTimeout, llm.ErrOllamaUnavailable, llm.ErrDisabled, llm.ErrInvalidOutput} {
		t.Run(cause.Error(), func(t *testing.T) {
			h := newHarness(t, &fakeAssistant{replyErr: cause})

			res, err := h.svc.HandleTurn(context.Background(), h.caseID, "pump is dead")

			require.NoError(t, err)
			assert.NotEmpty(t, res.Reply)
			assert.Equal(t, domain.FallbackState(), res.State)
			assert.Equal(t, domain.SourceChecklist, res.Source)

			md := h.meta(t)
			assert.Equal(t, "water.tank_level", md.ChecklistStep())
			assert.Equal(t, "water", md.Facts()[intelligence.FactSystem])
			assert.Equal(t, string(domain.SourceChecklist), md[domain.KeyTurnSource])
		})
	}
}

func TestHandleTurn_FallbackRecordsAnswersThenRecovers(t *testing.T) {
	a := &fakeAssistant{replyErr: llm.ErrTimeout}
	h := newHarness(t, a)

	h.turn(t, "pump is dead")
	second := h.turn(t, "tank is full")
	assert.Equal(t, domain.StateFallback, second.State.Kind)
	assert.Contains(t, second.Reply, "12V")
	assert.Equal(t, "water.pump_power", h.meta(t).ChecklistStep())

	a.replyErr = nil
	third := h.turn(t, "pump gets 12.6V")

	assert.Equal(t, domain.NormalState(), third.State)
	assert.Equal(t, domain.SourceLLM, third.Source)
	assert.Equal(t, "tank is full", a.lastDiag.Facts["water.tank_level"])
	assert.Len(t, a.lastDiag.History, 4)

	md := h.meta(t)
	assert.Empty(t, md.ChecklistStep())
	assert.Equal(t, "pump gets 12.6V", md.Facts()["water.pump_power"])
}

func TestHandleTurn_EstimateThenAffirmation(t *testing.T) {
	h := newHarness(t, &fakeAssistant{replies: []string{"Estimated total labor: 3 hours. Does that work?"}})

	h.turn(t, "pump replaced")
	res := h.turn(t, "sounds right")

	require.NotNil(t, res.LaborConfirmed)
	assert.Equal(t, 3.0, *res.LaborConfirmed)
	assert.Equal(t, domain.SourceOrchestrator, res.Source)
	assert.Contains(t, res.Reply, "Labor confirmed: 3 hr")
	assert.Equal(t, 1, h.assistant.replyCalls)

	hours, ok := h.ledger.ConfirmedHours(h.caseID)
	require.True(t, ok)
	assert.Equal(t, 3.0, hours)
}

func TestHandleTurn_NumbersIgnoredWhenNoEstimateAsked(t *testing.T) {
	h := newHarness(t, &fakeAssistant{replies: []string{"Check the pressure switch."}})

	res := h.turn(t, "battery reads 12.4 volts")

	assert.Nil(t, res.LaborConfirmed)
	_, ok := h.ledger.ConfirmedHours(h.caseID)
	assert.False(t, ok)
}

func TestHandleTurn_ModelFactsMergeIntoRegistry(t *testing.T) {
	a := &fakeAssistant{replyFacts: map[string]string{"tank_level": "full"}}
	h := newHarness(t, a)

	h.turn(t, "tank is full")
	h.turn(t, "what next?")

	assert.Equal(t, "full", a.lastDiag.Facts["tank_level"])
	assert.Equal(t, "full", h.meta(t).Facts()["tank_level"])
}

func TestHandleTurn_ReportRepairedOnce(t *testing.T) {
	a := &fakeAssistant{
		drafts:  []string{"- Replace pump 2.0 hr\nTotal labor: 2.0 hr"},
		repairs: []string{"- Replace pump 2.5 hr\nTotal labor: 2.5 hr"},
	}
	h := newHarness(t, a)
	require.NoError(t, h.svc.ConfirmLabor(context.Background(), h.caseID, 2.5))

	res, err := h.svc.RequestFinalReport(context.Background(), h.caseID)

	require.NoError(t, err)
	assert.Equal(t, 1, a.repairCalls)
	require.True(t, res.Report.Valid())
	require.NotNil(t, res.Report.Repair)
	assert.True(t, res.Report.Repair.Changed())
	assert.Equal(t, "- Replace pump 2.5 hr\nTotal labor: 2.5 hr", res.Reply)
	assert.Equal(t, domain.NormalState(), res.State)
}

func TestHandleTurn_UnrepairableReportIsFlagged(t *testing.T) {
	bad := "- Replace pump 1.0 hr\n- Test 1.0 hr\nTotal labor: 2.5 hr"
	a := &fakeAssistant{drafts: []string{bad}, repairs: []string{bad}}
	h := newHarness(t, a)
	require.NoError(t, h.svc.ConfirmLabor(context.Background(), h.caseID, 2.5))

	res, err := h.svc.RequestFinalReport(context.Background(), h.caseID)

	require.NoError(t, err)
	assert.Equal(t, domain.ReportPendingState(domain.MissingConsistentDraft), res.State)
	require.Len(t, res.Report.Violations, 1)
	assert.Equal(t, domain.LaborSumDrift, res.Report.Violations[0].Code)
	assert.Contains(t, res.Reply, "Labor check failed")
	assert.Contains(t, res.Reply, "itemized labor sums to 2.0 hr")

	pending, ok := h.meta(t).PendingReport()
	require.True(t, ok)
	assert.Equal(t, domain.MissingConsistentDraft, pending.Missing)
}

func TestHandleTurn_RepairFailureKeepsFlaggedDraftPending(t *testing.T) {
	a := &fakeAssistant{replyErr: llm.ErrTimeout, drafts: []string{"Total labor: 4 hr"}, repairErr: llm.ErrTimeout}
	h := newHarness(t, a)
	h.turn(t, "pump is dead")
	require.Equal(t, "water.tank_level", h.meta(t).ChecklistStep())
	require.NoError(t, h.svc.ConfirmLabor(context.Background(), h.caseID, 2))

	res, err := h.svc.RequestFinalReport(context.Background(), h.caseID)

	require.NoError(t, err)
	assert.Equal(t, domain.ReportPendingState(domain.MissingConsistentDraft), res.State)
	assert.Equal(t, domain.SourceLLM, res.Source)
	assert.Contains(t, res.Reply, "does not match confirmed 2.0 hr")

	md := h.meta(t)
	assert.Empty(t, md.ChecklistStep())
	assert.Equal(t, domain.ReportPendingState(domain.MissingConsistentDraft), md.SessionState())
	pending, ok := md.PendingReport()
	require.True(t, ok)
	assert.Equal(t, domain.MissingConsistentDraft, pending.Missing)
}

func TestHandleTurn_ReportRequestIsNotAChecklistAnswer(t *testing.T) {
	a := &fakeAssistant{replyErr: llm.ErrTimeout}
	h := newHarness(t, a)

	h.turn(t, "pump is dead")
	require.Equal(t, "water.tank_level", h.meta(t).ChecklistStep())

	res := h.turn(t, "generate the final report")

	assert.True(t, res.Report.PreconditionUnmet)
	_, answered := h.meta(t).Facts()["water.tank_level"]
	assert.False(t, answered)

	require.NoError(t, h.svc.AbandonReport(context.Background(), h.caseID))
	a.replyErr = nil
	h.turn(t, "what next?")
	require.Equal(t, 1, a.replyCalls)
	_, answered = a.lastDiag.Facts["water.tank_level"]
	assert.False(t, answered)
}

func TestHandleTurn_LaborWordNearMeasurementIsNotAnEstimate(t *testing.T) {
	a := &fakeAssistant{replies: []string{
		"Labor check first: is the 12V supply present? What voltage do you read?",
		"12.4 V is healthy. Check the pump fuse next.",
	}}
	h := newHarness(t, a)

	first := h.turn(t, "pump is dead")
	assert.Nil(t, first.Estimate)

	second := h.turn(t, "12.4")

	assert.Nil(t, second.LaborConfirmed)
	assert.Equal(t, domain.SourceLLM, second.Source)
	assert.Equal(t, 2, a.replyCalls)
	assert.Equal(t, "12.4", a.lastDiag.TechnicianText)
	_, ok := h.ledger.ConfirmedHours(h.caseID)
	assert.False(t, ok)
	_, ok = h.meta(t).LaborEntry()
	assert.False(t, ok)
}

func TestHandleTurn_EvictsIdleLedgerRecords(t *testing.T) {
	h := newHarness(t, &fakeAssistant{})
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	ledger := labor.NewLedger(labor.WithClock(func() time.Time { return now }))
	svc := h.service(testutil.NewTestUoW(h.db), ledger)
	ledger.Confirm("stale-case", 2)

	now = now.Add(ledgerIdleTTL + time.Minute)
	_, err := svc.HandleTurn(context.Background(), h.caseID, "pump is dead")

	require.NoError(t, err)
	_, ok := ledger.Entry("stale-case")
	assert.False(t, ok)
}

func TestHandleTurn_DraftFailureKeepsRequestPending(t *testing.T) {
	a := &fakeAssistant{draftErr: llm.ErrOllamaUnavailable, drafts: []string{"- Fix 2 hr\nTotal labor: 2 hr"}}
	h := newHarness(t, a)
	require.NoError(t, h.svc.ConfirmLabor(context.Background(), h.caseID, 2))

	failed := h.turn(t, "final report please")
	assert.Equal(t, domain.FallbackState(), failed.State)
	assert.True(t, failed.Report.PreconditionUnmet)
	assert.Equal(t, domain.MissingConsistentDraft, failed.Report.Missing)
	pending, ok := h.meta(t).PendingReport()
	require.True(t, ok)
	assert.Equal(t, domain.MissingConsistentDraft, pending.Missing)

	a.draftErr = nil
	recovered := h.turn(t, "any luck?")
	assert.Equal(t, domain.NormalState(), recovered.State)
	assert.True(t, recovered.Report.Valid())
	_, ok = h.meta(t).PendingReport()
	assert.False(t, ok)
}

func TestHandleTurn_EmptyTextRejected(t *testing.T) {
	h := newHarness(t, &fakeAssistant{})

	_, err := h.svc.HandleTurn(context.Background(), h.caseID, "   ")
	assert.Error(t, err)
}

func TestHandleTurn_UnknownCase(t *testing.T) {
	h := newHarness(t, &fakeAssistant{})

	_, err := h.svc.HandleTurn(context.Background(), "nope", "hello")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHandleTurn_PersistsBothSidesOfTheTurn(t *testing.T) {
	h := newHarness(t, &fakeAssistant{replies: []string{"Check the pump fuse."}})

	h.turn(t, "pump is dead")

	msgs, err := h.messages.ListByCase(context.Background(), h.caseID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleTechnician, msgs[0].Role)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, domain.SourceLLM, msgs[1].Source)
	assert.Equal(t, "Check the pump fuse.", msgs[1].Content)
}

func TestHandleTurn_DisabledModelUsesChecklist(t *testing.T) {
	h := newHarness(t, nil)
	assistant := intelligence.NewDiagnosticAssistant(llm.NewClient(llm.DefaultConfig(), llm.NoopObserver{}))
	svc := NewDiagnosticService(h.cases, h.messages, h.metadata, testutil.NewTestUoW(h.db), h.ledger, assistant)

	res, err := svc.HandleTurn(context.Background(), h.caseID, "no water at faucets")

	require.NoError(t, err)
	assert.Equal(t, domain.SourceChecklist, res.Source)
	assert.Contains(t, res.Reply, "fresh water")
}

func TestRecordAssistantEstimateAndTechnicianReply(t *testing.T) {
	h := newHarness(t, &fakeAssistant{})
	ctx := context.Background()

	_, found, err := h.svc.RecordAssistantEstimate(ctx, h.caseID, "no numbers here")
	require.NoError(t, err)
	assert.False(t, found)

	est, found, err := h.svc.RecordAssistantEstimate(ctx, h.caseID, "Estimated total labor: 2.5 hours")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2.5, est)

	_, resolved, err := h.svc.RecordTechnicianReply(ctx, h.caseID, "no, not that, I need to think about it some more")
	require.NoError(t, err)
	assert.False(t, resolved)

	hours, resolved, err := h.svc.RecordTechnicianReply(ctx, h.caseID, "yes")
	require.NoError(t, err)
	require.True(t, resolved)
	assert.Equal(t, 2.5, hours)

	entry, ok := h.meta(t).LaborEntry()
	require.True(t, ok)
	assert.Equal(t, 2.5, entry.ConfirmedHours)
	assert.NotNil(t, entry.ConfirmedAt)
}

func TestRequestReport(t *testing.T) {
	h := newHarness(t, &fakeAssistant{})
	ctx := context.Background()

	unmet, err := h.svc.RequestReport(ctx, h.caseID, validReport)
	require.NoError(t, err)
	assert.True(t, unmet.PreconditionUnmet)
	assert.Equal(t, domain.MissingLaborConfirmation, unmet.Missing)
	assert.Empty(t, unmet.Report)

	require.NoError(t, h.svc.ConfirmLabor(ctx, h.caseID, 2.5))

	drift, err := h.svc.RequestReport(ctx, h.caseID, "- 1.0 hr\n- 1.0 hr\nTotal labor: 2.5 hr")
	require.NoError(t, err)
	require.Len(t, drift.Violations, 1)
	assert.Equal(t, domain.LaborSumDrift, drift.Violations[0].Code)
	assert.Equal(t, 2.0, drift.ComputedSum)

	c, err := h.cases.GetByID(ctx, h.caseID)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseOpen, c.Status)

	ok, err := h.svc.RequestReport(ctx, h.caseID, "- 1.0 hr\n- 1.5 hr\nTotal labor: 2.5 hr")
	require.NoError(t, err)
	assert.True(t, ok.Valid())

	c, err = h.cases.GetByID(ctx, h.caseID)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseReported, c.Status)

	state, err := h.svc.State(ctx, h.caseID)
	require.NoError(t, err)
	assert.Equal(t, domain.NormalState(), state)
}

func TestConfirmLabor_RejectsNonPositive(t *testing.T) {
	h := newHarness(t, &fakeAssistant{})

	for _, hours := range []float64{0, -1} {
		err := h.svc.ConfirmLabor(context.Background(), h.caseID, hours)
		assert.ErrorIs(t, err, ErrInvalidLaborHours)
	}
	assert.Zero(t, h.ledger.Len())
}

func TestAbandonReport(t *testing.T) {
	h := newHarness(t, &fakeAssistant{})
	ctx := context.Background()
	h.turn(t, "final report please")

	require.NoError(t, h.svc.AbandonReport(ctx, h.caseID))

	md := h.meta(t)
	_, pending := md.PendingReport()
	assert.False(t, pending)
	assert.Equal(t, domain.NormalState(), md.SessionState())

	msgs, err := h.messages.ListByCase(ctx, h.caseID)
	require.NoError(t, err)
	last := msgs[len(msgs)-1]
	assert.Equal(t, domain.RoleSystem, last.Role)

	// Nothing pending: a second cancel is a no-op.
	require.NoError(t, h.svc.AbandonReport(ctx, h.caseID))
	again, err := h.messages.ListByCase(ctx, h.caseID)
	require.NoError(t, err)
	assert.Len(t, again, len(msgs))
}

func TestLaborStatus_HydratesAfterRestart(t *testing.T) {
	h := newHarness(t, &fakeAssistant{drafts: []string{"- Work 3 hr\nTotal labor: 3 hr"}})
	ctx := context.Background()
	require.NoError(t, h.svc.ConfirmLabor(ctx, h.caseID, 3))

	restarted := h.service(testutil.NewTestUoW(h.db), labor.NewLedger())

	status, err := restarted.LaborStatus(ctx, h.caseID)
	require.NoError(t, err)
	assert.True(t, status.Known)
	assert.Equal(t, 3.0, status.Entry.ConfirmedHours)
	assert.Equal(t, 3.0, status.Entry.EstimatedHours)

	res, err := restarted.RequestFinalReport(ctx, h.caseID)
	require.NoError(t, err)
	assert.True(t, res.Report.Valid())
}

func TestConfirmLabor_PersistFailureRollsBackLedger(t *testing.T) {
	h := newHarness(t, &fakeAssistant{})
	boom := errors.New("disk full")
	svc := h.service(&testutil.FailOnNthExecUoW{DB: h.db, FailOn: 1, Err: boom}, h.ledger)

	err := svc.ConfirmLabor(context.Background(), h.caseID, 2)

	assert.ErrorIs(t, err, boom)
	_, ok := h.ledger.Entry(h.caseID)
	assert.False(t, ok)
	_, stored := h.meta(t).LaborEntry()
	assert.False(t, stored)
}

func TestHandleTurn_PersistFailureWritesNothing(t *testing.T) {
	h := newHarness(t, &fakeAssistant{replies: []string{"Estimated total labor: 2 hours"}})
	boom := errors.New("locked")
	uow := &testutil.FailOnNthExecUoW{DB: h.db, FailOn: 2, Err: boom}
	svc := h.service(uow, h.ledger)

	_, err := svc.HandleTurn(context.Background(), h.caseID, "pump is dead")

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), uow.Rollbacks.Load())
	msgs, err := h.messages.ListByCase(context.Background(), h.caseID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Zero(t, h.ledger.Len())
}

type captureObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (c *captureObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func TestHandleTurn_ObservesUseCase(t *testing.T) {
	h := newHarness(t, &fakeAssistant{replyErr: llm.ErrTimeout})
	obs := &captureObserver{}
	svc := h.service(testutil.NewTestUoW(h.db), h.ledger, obs)

	_, err := svc.HandleTurn(context.Background(), h.caseID, "pump is dead")
	require.NoError(t, err)

	require.Len(t, obs.events, 1)
	e := obs.events[0]
	assert.Equal(t, "handle-turn", e.Name)
	assert.Equal(t, h.caseID, e.CaseID)
	assert.True(t, e.Success)
	assert.Equal(t, "fallback", e.Fields["state"])
	assert.Contains(t, e.Fields["fallback_reason"], "timed out")
	assert.Contains(t, e.Fields, "ledger_cases")
}
