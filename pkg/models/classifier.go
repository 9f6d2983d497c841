package models

import "context"

// ClassifyResponse is the payload returned by the external classifier
// collaborator.
type ClassifyResponse struct {
	Intent   Intent   `json:"intent"   validate:"required"`
	Entities Entities `json:"entities"`
	Urgency  Urgency  `json:"urgency"  validate:"omitempty,oneof=low medium high"`
}

// Classifier is the external fallback classifier, consulted only when
// the keyword and fuzzy cascade stages find nothing. Implementations
// must bound their own timeouts; callers recover from any error by
// falling back to the main menu.
type Classifier interface {
	Classify(ctx context.Context, message string, history []DialogTurn) (*ClassifyResponse, error)
}
