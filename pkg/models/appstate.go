package models

import (
	"github.com/careline/careline/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	Config            *config.Config
	RuleStore         RuleStore
	CallerStore       CallerStore
	ConversationStore ConversationStore
	Classifier        Classifier
	Dialog            DialogService
	TurnPublisher     TurnPublisher
}
