package tasks

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/careline/careline/internal"
	"github.com/careline/careline/pkg/models"
)

var log = internal.GetLogger()

type BaseTask struct {
	appState *models.AppState // nolint: unused
}

func (b *BaseTask) Execute(
	ctx context.Context, // nolint: revive
	msg *message.Message, // nolint: revive
) error {
	return nil
}

func (b *BaseTask) HandleError(err error) {
	log.Errorf("Task HandleError error: %s", err)
}

func Initialize(ctx context.Context, appState *models.AppState, router models.TaskRouter) {
	log.Info("Initializing tasks")

	addTask := func(ctx context.Context, name string, taskType models.TaskTopic, newTask func() models.Task) {
		task := newTask()
		router.AddTask(ctx, name, taskType, task)
		log.Infof("%s task added to task router", name)
	}

	addTask(
		ctx,
		string(models.ConversationLoggerTopic),
		models.ConversationLoggerTopic,
		func() models.Task { return NewConversationLoggerTask(appState) },
	)
}
