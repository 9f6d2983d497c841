package classifier

import (
	"strings"

	"github.com/careline/careline/internal"
)

const intentPromptTemplate = `You are an intent classifier for a telecom customer
support service. Classify the caller's message into exactly one of the known
intents below. If the message is unrelated to telecom support (accounts, plans,
billing, data usage, devices, connectivity), classify it as "not_telecom".

Known intents:
{{.Intents}}
not_telecom

{{if .History}}Recent conversation:
{{.History}}

{{end}}Caller message: {{.Input}}

Respond with only a JSON object, no prose, of the form:
{"intent": "<intent name>",
 "entities": {"amount": "", "date": "", "account_number": "", "plan_type": ""},
 "urgency": "<low, medium or high>"}
Leave entity fields empty when the message does not mention them.`

type intentPromptData struct {
	Intents string
	History string
	Input   string
}

func buildIntentPrompt(intents []string, history, message string) (string, error) {
	return internal.ParsePrompt(intentPromptTemplate, intentPromptData{
		Intents: strings.Join(intents, "\n"),
		History: history,
		Input:   message,
	})
}

// extractJSON pulls the JSON object out of a model completion, which
// may be wrapped in markdown fences or surrounded by prose.
func extractJSON(completion string) (string, bool) {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start < 0 || end < start {
		return "", false
	}
	return completion[start : end+1], true
}
