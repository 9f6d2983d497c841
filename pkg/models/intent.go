package models

// Intent names a support topic or menu node the dialog can be in.
// Intents are values, not entities with lifecycle.
type Intent string

const (
	IntentMainMenu     Intent = "main_menu"
	IntentGeneralQuery Intent = "general_query"
	IntentNotTelecom   Intent = "not_telecom"
)

// Urgency tags a classified message. The keyword and fuzzy resolution
// paths always yield UrgencyLow.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// Entities is the fixed record of values the classifier may extract from
// a message. Keyword and fuzzy matches always produce an empty record.
type Entities struct {
	Amount        string `json:"amount,omitempty"`
	Date          string `json:"date,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	PlanType      string `json:"plan_type,omitempty"`
}

func (e Entities) IsEmpty() bool {
	return e == Entities{}
}

// AsMap returns the non-empty entity values keyed by placeholder name.
func (e Entities) AsMap() map[string]string {
	m := make(map[string]string, 4)
	if e.Amount != "" {
		m["amount"] = e.Amount
	}
	if e.Date != "" {
		m["date"] = e.Date
	}
	if e.AccountNumber != "" {
		m["account_number"] = e.AccountNumber
	}
	if e.PlanType != "" {
		m["plan_type"] = e.PlanType
	}
	return m
}

// KeywordEntry maps a normalized keyword to an intent.
type KeywordEntry struct {
	Keyword string `json:"keyword"`
	Intent  Intent `json:"intent"`
}

// ResponseTemplate is the reply template for an intent. Placeholders use
// the {field} form and are substituted from caller attributes and
// extracted entities.
type ResponseTemplate struct {
	Intent   Intent `json:"intent"`
	Template string `json:"template"`
	FollowUp string `json:"follow_up,omitempty"`
}
