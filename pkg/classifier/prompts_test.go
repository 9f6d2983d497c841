package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careline/careline/pkg/models"
)

func TestBuildIntentPrompt(t *testing.T) {
	prompt, err := buildIntentPrompt(
		[]string{"billing", "payment"},
		"Caller: hi\nAgent: Main Menu",
		"why is my bill so high",
	)
	require.NoError(t, err)

	assert.Contains(t, prompt, "billing\npayment")
	assert.Contains(t, prompt, "not_telecom")
	assert.Contains(t, prompt, "Recent conversation:\nCaller: hi")
	assert.Contains(t, prompt, "Caller message: why is my bill so high")
}

func TestBuildIntentPromptWithoutHistory(t *testing.T) {
	prompt, err := buildIntentPrompt([]string{"billing"}, "", "hello")
	require.NoError(t, err)
	assert.NotContains(t, prompt, "Recent conversation:")
}

func TestExtractJSON(t *testing.T) {
	raw, ok := extractJSON("```json\n{\"intent\": \"billing\"}\n```")
	require.True(t, ok)
	assert.Equal(t, `{"intent": "billing"}`, raw)

	raw, ok = extractJSON(`Here you go: {"intent": "billing"} hope that helps`)
	require.True(t, ok)
	assert.Equal(t, `{"intent": "billing"}`, raw)

	_, ok = extractJSON("no json here")
	assert.False(t, ok)
}

func TestParseClassifyCompletion(t *testing.T) {
	resp, err := parseClassifyCompletion(`{"intent": "billing",
		"entities": {"amount": "$25.00"}, "urgency": "medium"}`)
	require.NoError(t, err)
	assert.Equal(t, models.Intent("billing"), resp.Intent)
	assert.Equal(t, "$25.00", resp.Entities.Amount)
	assert.Equal(t, models.UrgencyMedium, resp.Urgency)

	_, err = parseClassifyCompletion("the intent is probably billing")
	assert.Error(t, err)
}
