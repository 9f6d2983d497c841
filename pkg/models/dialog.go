package models

import (
	"context"
	"time"
)

// NavigationState is the per-caller position inside the menu tree: the
// current intent plus a stack of menu descents. The zero value means no
// conversation has started yet.
//
// A NavigationState is owned by exactly one orchestrator and must not be
// shared across concurrent requests for the same caller.
type NavigationState struct {
	Current Intent   `json:"current_intent,omitempty"`
	History []Intent `json:"history,omitempty"`
}

// Push records a menu descent. Descents into the main menu clear
// history instead of pushing; that is the navigator's call to make.
func (s *NavigationState) Push(intent Intent) {
	s.History = append(s.History, intent)
}

// Pop removes and returns the most recent descent. ok is false when the
// stack is empty.
func (s *NavigationState) Pop() (Intent, bool) {
	if len(s.History) == 0 {
		return "", false
	}
	intent := s.History[len(s.History)-1]
	s.History = s.History[:len(s.History)-1]
	return intent, true
}

func (s *NavigationState) ClearHistory() {
	s.History = s.History[:0]
}

// DialogTurn is one completed exchange: the caller's raw message and the
// rendered reply, reported to the conversation log after each turn.
type DialogTurn struct {
	CallerID  string    `json:"caller_id"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	Intent    Intent    `json:"intent"`
	Urgency   Urgency   `json:"urgency"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the body of a chat API call.
type ChatRequest struct {
	Message string `json:"message"`
}

// DialogService processes caller messages. Implementations must
// serialize turns per caller; the state machine is not designed for
// interleaved mutation.
type DialogService interface {
	ProcessMessage(ctx context.Context, callerID, message string) (*DialogTurn, error)
	RefreshRules(ctx context.Context) error
}

// TurnPublisher accepts completed turns for asynchronous persistence.
// Publishing is fire-and-forget: a failed append must not fail the reply
// already computed.
type TurnPublisher interface {
	PublishTurn(turn *DialogTurn) error
}
