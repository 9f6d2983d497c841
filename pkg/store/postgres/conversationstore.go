package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/careline/careline/pkg/models"
	"github.com/careline/careline/pkg/store"
)

var _ models.ConversationStore = &ConversationStoreDAO{}

// ConversationStoreDAO is the append-only conversation log.
type ConversationStoreDAO struct {
	db *bun.DB
}

func NewConversationStoreDAO(db *bun.DB) *ConversationStoreDAO {
	return &ConversationStoreDAO{db: db}
}

func (dao *ConversationStoreDAO) Append(ctx context.Context, turn *models.DialogTurn) error {
	if turn.CallerID == "" {
		return models.NewBadRequestError("CallerID cannot be empty")
	}
	turnDB := &ConversationSchema{
		CallerID:  turn.CallerID,
		Message:   turn.Message,
		Reply:     turn.Reply,
		Intent:    string(turn.Intent),
		Urgency:   string(turn.Urgency),
		CreatedAt: turn.CreatedAt,
	}
	_, err := dao.db.NewInsert().Model(turnDB).Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to append conversation turn", err)
	}
	return nil
}

// GetRecent returns the last N turns for a caller in chronological
// order.
func (dao *ConversationStoreDAO) GetRecent(
	ctx context.Context,
	callerID string,
	lastN int,
) ([]models.DialogTurn, error) {
	if lastN <= 0 {
		return nil, nil
	}

	var turnsDB []ConversationSchema
	err := dao.db.NewSelect().
		Model(&turnsDB).
		Where("caller_id = ?", callerID).
		OrderExpr("id DESC").
		Limit(lastN).
		Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to get conversation turns", err)
	}

	// reverse into chronological order
	turns := make([]models.DialogTurn, len(turnsDB))
	for i := range turnsDB {
		t := turnsDB[len(turnsDB)-1-i]
		turns[i] = models.DialogTurn{
			CallerID:  t.CallerID,
			Message:   t.Message,
			Reply:     t.Reply,
			Intent:    models.Intent(t.Intent),
			Urgency:   models.Urgency(t.Urgency),
			CreatedAt: t.CreatedAt,
		}
	}
	return turns, nil
}

// DeleteForCaller purges a caller's conversation log. This is a hard
// delete.
func (dao *ConversationStoreDAO) DeleteForCaller(ctx context.Context, callerID string) error {
	_, err := dao.db.NewDelete().
		Model((*ConversationSchema)(nil)).
		Where("caller_id = ?", callerID).
		ForceDelete().
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to delete conversation log", err)
	}
	return nil
}
