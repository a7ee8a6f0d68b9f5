package intelligence

import (
	"context"
	"fmt"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/llm"
)

// maxHistoryTurns bounds how much of the conversation is replayed to the model.
const maxHistoryTurns = 20

// DiagnosticContext is everything the model sees for one technician turn.
type DiagnosticContext struct {
	Case           domain.Case
	History        []domain.Message // oldest first, excludes TechnicianText
	Facts          map[string]string
	TechnicianText string
}

// ReportContext is the input for drafting the final report.
type ReportContext struct {
	Case           domain.Case
	History        []domain.Message
	Facts          map[string]string
	ConfirmedHours float64
}

// AssistantTurn is a model-authored diagnostic reply.
type AssistantTurn struct {
	Reply string
	Facts map[string]string // new facts learned this turn
	Model string
}

// DiagnosticAssistant is the language-model side of a case conversation.
// Every method returns the underlying error on failure; the caller decides
// how to recover.
type DiagnosticAssistant interface {
	Reply(ctx context.Context, dc DiagnosticContext) (*AssistantTurn, error)
	DraftReport(ctx context.Context, rc ReportContext) (string, error)
	RepairReport(ctx context.Context, draft string, check LaborCheck, confirmedHours float64) (string, error)
}

type diagnosticAssistant struct {
	client llm.LLMClient
}

// NewDiagnosticAssistant creates a DiagnosticAssistant backed by an LLM client.
func NewDiagnosticAssistant(client llm.LLMClient) DiagnosticAssistant {
	return &diagnosticAssistant{client: client}
}

type diagnoseLLMResponse struct {
	Reply string            `json:"reply"`
	Facts map[string]string `json:"facts"`
}

func (a *diagnosticAssistant) Reply(ctx context.Context, dc DiagnosticContext) (*AssistantTurn, error) {
	resp, err := a.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskDiagnose,
		SystemPrompt: diagnoseSystemPrompt + "\n\n" + buildCaseHeader(dc.Case.Title, dc.Case.Unit, dc.Facts),
		History:      toChatHistory(dc.History),
		UserPrompt:   dc.TechnicianText,
	})
	if err != nil {
		return nil, fmt.Errorf("llm diagnose failed: %w", err)
	}

	parsed, err := llm.ExtractJSON[diagnoseLLMResponse](resp.Text, validateDiagnoseResponse)
	if err != nil {
		// Models drift out of JSON mode; plain prose is still a usable reply.
		text := strings.TrimSpace(resp.Text)
		if text == "" || strings.HasPrefix(text, "{") {
			return nil, fmt.Errorf("failed to extract diagnose response: %w", err)
		}
		return &AssistantTurn{Reply: text, Model: resp.Model}, nil
	}

	return &AssistantTurn{
		Reply: strings.TrimSpace(parsed.Reply),
		Facts: cleanFacts(parsed.Facts),
		Model: resp.Model,
	}, nil
}

func (a *diagnosticAssistant) DraftReport(ctx context.Context, rc ReportContext) (string, error) {
	var user strings.Builder
	user.WriteString(buildCaseHeader(rc.Case.Title, rc.Case.Unit, rc.Facts))
	user.WriteString("\n## Conversation\n")
	for _, m := range tail(rc.History, maxHistoryTurns) {
		fmt.Fprintf(&user, "%s: %s\n", m.Role, m.Content)
	}

	resp, err := a.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskReport,
		SystemPrompt: buildReportSystemPrompt(rc.ConfirmedHours),
		UserPrompt:   user.String(),
	})
	if err != nil {
		return "", fmt.Errorf("llm report failed: %w", err)
	}
	return nonEmptyReport(resp.Text)
}

func (a *diagnosticAssistant) RepairReport(ctx context.Context, draft string, check LaborCheck, confirmedHours float64) (string, error) {
	resp, err := a.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskReportRepair,
		SystemPrompt: buildRepairSystemPrompt(confirmedHours),
		UserPrompt:   buildRepairUserPrompt(draft, check),
	})
	if err != nil {
		return "", fmt.Errorf("llm report repair failed: %w", err)
	}
	return nonEmptyReport(resp.Text)
}

func nonEmptyReport(text string) (string, error) {
	text = strings.TrimSpace(stripReportFences(text))
	if text == "" {
		return "", fmt.Errorf("report: %w", llm.ErrEmptyResponse)
	}
	return text, nil
}

func stripReportFences(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

func validateDiagnoseResponse(resp diagnoseLLMResponse) error {
	if strings.TrimSpace(resp.Reply) == "" {
		return fmt.Errorf("reply field is required")
	}
	return nil
}

func cleanFacts(facts map[string]string) map[string]string {
	out := make(map[string]string, len(facts))
	for k, v := range facts {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func toChatHistory(msgs []domain.Message) []llm.ChatMessage {
	msgs = tail(msgs, maxHistoryTurns)
	out := make([]llm.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleTechnician:
			out = append(out, llm.ChatMessage{Role: llm.RoleUser, Content: m.Content})
		case domain.RoleAssistant:
			out = append(out, llm.ChatMessage{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	return out
}

func tail(msgs []domain.Message, n int) []domain.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
