package models

import "context"

// RuleStore is the bulk-read interface over the keyword/intent/response
// tables. The dialog engine loads these once per process and rebuilds
// its in-memory index on an explicit refresh.
type RuleStore interface {
	GetKeywords(ctx context.Context) ([]KeywordEntry, error)
	GetResponses(ctx context.Context) ([]ResponseTemplate, error)
	GetIntents(ctx context.Context) ([]string, error)
}

// CallerStore manages caller accounts and the attributes used to fill
// renderer placeholders.
type CallerStore interface {
	Create(ctx context.Context, caller *CreateCallerRequest) (*Caller, error)
	Get(ctx context.Context, callerID string) (*Caller, error)
	Update(ctx context.Context, caller *UpdateCallerRequest, isPrivileged bool) (*Caller, error)
	Delete(ctx context.Context, callerID string) error
	ListAll(ctx context.Context, cursor int64, limit int) ([]*Caller, error)
	// GetAttributes returns the placeholder map for a caller, or an
	// empty map when the caller is unknown. Attribute lookup misses are
	// not errors; the renderer degrades instead.
	GetAttributes(ctx context.Context, callerID string) (map[string]string, error)
}

// ConversationStore is the append-only conversation log. The core never
// reads the log back for its own logic; GetRecent exists to feed the
// classifier's history window and the history API.
type ConversationStore interface {
	Append(ctx context.Context, turn *DialogTurn) error
	GetRecent(ctx context.Context, callerID string, lastN int) ([]DialogTurn, error)
	DeleteForCaller(ctx context.Context, callerID string) error
}
