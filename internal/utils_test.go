package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrompt(t *testing.T) {
	type promptData struct {
		Input string
	}

	prompt, err := ParsePrompt("classify: {{.Input}}", promptData{Input: "hello"})
	assert.NoError(t, err)
	assert.Equal(t, "classify: hello", prompt)
}

func TestMergeMaps(t *testing.T) {
	a := map[string]string{"one": "1", "two": "2"}
	b := map[string]string{"two": "overridden", "three": "3"}

	merged := MergeMaps(a, b)
	assert.Equal(t, map[string]string{
		"one":   "1",
		"two":   "overridden",
		"three": "3",
	}, merged)
}
