package domain

import (
	"encoding/json"
	"time"
)

// Metadata is the opaque per-case mapping persisted by the storage
// collaborator. Values survive a JSON round trip, so readers accept the
// shapes encoding/json produces (float64, string, map[string]any).
type Metadata map[string]any

// Metadata keys written by the orchestrator.
const (
	KeySessionState   = "session_state"
	KeyPendingReport  = "pending_report"
	KeyLaborEstimated = "labor_estimated_hours"
	KeyLaborConfirmed = "labor_confirmed_hours"
	KeyLaborConfirmAt = "labor_confirmed_at"
	KeyFacts          = "diagnostic_facts"
	KeyChecklistStep  = "checklist_step"
	KeyTurnSource     = "turn_source"
)

// SessionState decodes the persisted state, defaulting to Normal.
func (m Metadata) SessionState() SessionState {
	raw, ok := m[KeySessionState].(map[string]any)
	if !ok {
		return NormalState()
	}
	kind, _ := raw["kind"].(string)
	missing, _ := raw["missing"].(string)
	switch SessionStateKind(kind) {
	case StateReportPending:
		return ReportPendingState(MissingField(missing))
	case StateFallback:
		return FallbackState()
	default:
		return NormalState()
	}
}

// PendingReport returns the pending report marker, if any.
func (m Metadata) PendingReport() (*PendingReportRequest, bool) {
	raw, ok := m[KeyPendingReport].(map[string]any)
	if !ok {
		return nil, false
	}
	missing, _ := raw["missing"].(string)
	if missing == "" {
		return nil, false
	}
	p := &PendingReportRequest{Missing: MissingField(missing)}
	if s, ok := raw["requested_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			p.RequestedAt = t
		}
	}
	return p, true
}

// LaborEntry returns the labor fields mirrored from the ledger.
func (m Metadata) LaborEntry() (LaborEntry, bool) {
	est, hasEst := toFloat(m[KeyLaborEstimated])
	conf, hasConf := toFloat(m[KeyLaborConfirmed])
	if !hasEst && !hasConf {
		return LaborEntry{}, false
	}
	e := LaborEntry{EstimatedHours: est, ConfirmedHours: conf}
	if s, ok := m[KeyLaborConfirmAt].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			e.ConfirmedAt = &t
		}
	}
	return e, true
}

// Facts returns the diagnostic registry: questions already answered.
func (m Metadata) Facts() map[string]string {
	facts := map[string]string{}
	switch raw := m[KeyFacts].(type) {
	case map[string]any:
		for k, v := range raw {
			if s, ok := v.(string); ok {
				facts[k] = s
			}
		}
	case map[string]string:
		for k, v := range raw {
			facts[k] = v
		}
	}
	return facts
}

func (m Metadata) ChecklistStep() string {
	s, _ := m[KeyChecklistStep].(string)
	return s
}

// SessionStatePatch encodes s for UpdateCaseMetadata.
func SessionStatePatch(s SessionState) Metadata {
	v := map[string]any{"kind": string(s.Kind)}
	if s.Missing != "" {
		v["missing"] = string(s.Missing)
	}
	return Metadata{KeySessionState: v}
}

// PendingReportPatch encodes p; a nil p clears the marker.
func PendingReportPatch(p *PendingReportRequest) Metadata {
	if p == nil {
		return Metadata{KeyPendingReport: nil}
	}
	return Metadata{KeyPendingReport: map[string]any{
		"missing":      string(p.Missing),
		"requested_at": p.RequestedAt.UTC().Format(time.RFC3339),
	}}
}

// LaborPatch mirrors a ledger entry into plain metadata fields.
func LaborPatch(e LaborEntry) Metadata {
	patch := Metadata{
		KeyLaborEstimated: e.EstimatedHours,
		KeyLaborConfirmed: e.ConfirmedHours,
		KeyLaborConfirmAt: nil,
	}
	if e.ConfirmedAt != nil {
		patch[KeyLaborConfirmAt] = e.ConfirmedAt.UTC().Format(time.RFC3339)
	}
	return patch
}

// FactsPatch encodes the full fact registry.
func FactsPatch(facts map[string]string) Metadata {
	v := make(map[string]any, len(facts))
	for k, f := range facts {
		v[k] = f
	}
	return Metadata{KeyFacts: v}
}

// Merge applies patch onto m in place: nil values delete keys.
func (m Metadata) Merge(patch Metadata) {
	for k, v := range patch {
		if v == nil {
			delete(m, k)
			continue
		}
		m[k] = v
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
