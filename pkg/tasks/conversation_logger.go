package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/careline/careline/pkg/models"
)

var _ models.Task = &ConversationLoggerTask{}

// ConversationLoggerTask appends completed dialog turns to the
// conversation store. Persistence runs off the request path so a slow
// or failing store never delays a reply.
type ConversationLoggerTask struct {
	BaseTask
}

func NewConversationLoggerTask(appState *models.AppState) *ConversationLoggerTask {
	return &ConversationLoggerTask{
		BaseTask: BaseTask{appState: appState},
	}
}

func (t *ConversationLoggerTask) Execute(
	ctx context.Context,
	msg *message.Message,
) error {
	callerID := msg.Metadata["caller_id"]
	if callerID == "" {
		return fmt.Errorf("conversation logger task missing caller_id metadata: %s", msg.UUID)
	}

	var turn models.DialogTurn
	if err := json.Unmarshal(msg.Payload, &turn); err != nil {
		return fmt.Errorf("failed to unmarshal dialog turn payload: %w", err)
	}

	if err := t.appState.ConversationStore.Append(ctx, &turn); err != nil {
		return fmt.Errorf("failed to append dialog turn: %w", err)
	}

	log.Debugf("conversation logger appended turn for caller %s", callerID)
	return nil
}

func (t *ConversationLoggerTask) HandleError(err error) {
	log.Errorf("ConversationLoggerTask error: %s", err)
}
