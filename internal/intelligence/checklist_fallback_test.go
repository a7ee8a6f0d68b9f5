package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChecklistResponse_SelectsSystemByKeywords(t *testing.T) {
	tests := []struct {
		title  string
		system string
	}{
		{"Water pump not running", "water"},
		{"Furnace won't ignite", "lp_furnace"},
		{"Slide out stuck halfway", "slide_out"},
		{"Onan generator shuts down", "generator"},
		{"Lights flicker, blown fuse", "electrical_12v"},
		{"Roof A/C not cooling", "air_conditioning"},
		{"Strange noise", "general"},
		{"", "general"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			resp := BuildChecklistResponse(ChecklistContext{CaseTitle: tt.title})
			assert.Equal(t, tt.system, resp.System)
			assert.NotEmpty(t, resp.Text)
			assert.NotEmpty(t, resp.StepKey)
		})
	}
}

func TestBuildChecklistResponse_SkipsAnsweredSteps(t *testing.T) {
	first := BuildChecklistResponse(ChecklistContext{CaseTitle: "Water pump not running"})
	require.Equal(t, "water.tank_level", first.StepKey)

	second := BuildChecklistResponse(ChecklistContext{
		CaseTitle: "Water pump not running",
		Facts:     map[string]string{"water.tank_level": "full", FactSystem: "water"},
	})
	assert.Equal(t, "water.pump_power", second.StepKey)
	assert.Contains(t, second.Text, "step 2 of 5")
	assert.NotEqual(t, first.Text, second.Text)
}

func TestBuildChecklistResponse_StoredSystemWins(t *testing.T) {
	resp := BuildChecklistResponse(ChecklistContext{
		CaseTitle:      "Water pump not running",
		TechnicianText: "the furnace is also acting up",
		Facts:          map[string]string{FactSystem: "water"},
	})
	assert.Equal(t, "water", resp.System)
}

func TestBuildChecklistResponse_CompleteStillHasText(t *testing.T) {
	facts := map[string]string{FactSystem: "generator"}
	for _, s := range checklistSystems {
		if s.name != "generator" {
			continue
		}
		for _, step := range s.steps {
			facts[step.key] = "done"
		}
	}

	resp := BuildChecklistResponse(ChecklistContext{Facts: facts})

	assert.True(t, resp.Complete)
	assert.Empty(t, resp.StepKey)
	assert.Contains(t, resp.Text, "final report")
}

func TestBuildChecklistResponse_NeverRepeatsAStep(t *testing.T) {
	facts := map[string]string{}
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		resp := BuildChecklistResponse(ChecklistContext{CaseTitle: "Furnace won't ignite", Facts: facts})
		if resp.Complete {
			break
		}
		assert.False(t, seen[resp.StepKey], "step %s repeated", resp.StepKey)
		seen[resp.StepKey] = true
		facts[FactSystem] = resp.System
		facts[resp.StepKey] = "answer"
	}
	assert.Len(t, seen, 5)
}
