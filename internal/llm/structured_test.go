package llm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type turnPayload struct {
	Reply string            `json:"reply"`
	Facts map[string]string `json:"facts"`
}

func TestExtractJSON_CleanJSON(t *testing.T) {
	result, err := ExtractJSON[turnPayload](`{"reply":"Check the fuse","facts":{"fuse":"unknown"}}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "Check the fuse", result.Reply)
	assert.Equal(t, "unknown", result.Facts["fuse"])
}

func TestExtractJSON_FencedWithChatter(t *testing.T) {
	raw := "Sure, here you go:\n```json\n{\"reply\":\"Measure voltage at the pump\"}\n```\nAnything else?"
	result, err := ExtractJSON[turnPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "Measure voltage at the pump", result.Reply)
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	raw := `{"reply":"Use the {brace} test \"quoted\"","facts":{}}`
	result, err := ExtractJSON[turnPayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, `Use the {brace} test "quoted"`, result.Reply)
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := ExtractJSON[turnPayload]("Just check the breaker.", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_Unbalanced(t *testing.T) {
	_, err := ExtractJSON[turnPayload](`{"reply":"cut off`, nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_ValidatorRejects(t *testing.T) {
	validator := func(p turnPayload) error {
		if p.Reply == "" {
			return fmt.Errorf("reply is required")
		}
		return nil
	}
	_, err := ExtractJSON[turnPayload](`{"facts":{}}`, validator)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "reply is required")
}
