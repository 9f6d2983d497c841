package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	wla "github.com/ma-hartma/watermill-logrus-adapter"

	"github.com/careline/careline/pkg/models"
)

const TaskCountThrottle = 50 // messages per second
const MaxQueueRetries = 5

var onceRouter sync.Once

// TaskRouter is a wrapper around watermill's Router that adds some
// functionality for managing tasks and handlers. Tasks are delivered
// over an in-process gochannel pub/sub: turns are buffered, not
// durable, which is acceptable for an advisory conversation log.
type TaskRouter struct {
	*message.Router
	appState *models.AppState
	pubSub   *gochannel.GoChannel
	logger   watermill.LoggerAdapter
}

func NewTaskRouter(appState *models.AppState, pubSub *gochannel.GoChannel) (*TaskRouter, error) {
	var wlog = wla.NewLogrusLogger(log)

	cfg := message.RouterConfig{}
	router, err := message.NewRouter(cfg, wlog)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		// CorrelationID will copy the correlation id from the incoming message's metadata to the produced messages
		middleware.CorrelationID,

		// Throttle limits the number of messages processed per second.
		middleware.NewThrottle(TaskCountThrottle, time.Second).Middleware,

		// Recoverer handles panics from handlers.
		// In this case, it passes them as errors to the Retry middleware.
		middleware.Recoverer,

		// The handler function is retried if it returns an error.
		// After MaxRetries, the message is Nacked and it's up to the PubSub to resend it.
		middleware.Retry{
			MaxRetries:      MaxQueueRetries,
			InitialInterval: 1 * time.Second,
			Multiplier:      0.5,
			Logger:          wlog,
		}.Middleware,
	)

	return &TaskRouter{
		Router:   router,
		appState: appState,
		pubSub:   pubSub,
		logger:   wlog,
	}, nil
}

// AddTask adds a task handler to the router.
func (tr *TaskRouter) AddTask(_ context.Context, name string, taskType models.TaskTopic, task models.Task) {
	tr.AddNoPublisherHandler(
		name,
		string(taskType),
		tr.pubSub,
		TaskHandler(task),
	)
}

func (tr *TaskRouter) Close() (err error) {
	routerErr := tr.Router.Close()
	defer func() {
		pubSubErr := tr.pubSub.Close()
		if err == nil {
			err = pubSubErr
		}
	}()
	if routerErr != nil {
		err = routerErr
	}
	return err
}

// TaskHandler returns a message handler function for the given task.
// Handlers are NoPublishHandlerFuncs i.e. do not publish messages.
func TaskHandler(task models.Task) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		err := task.Execute(msg.Context(), msg)
		if err != nil {
			task.HandleError(err)
			return err
		}
		return nil
	}
}

// RunTaskRouter starts the task router and registers it, along with its
// publisher, on the app state.
func RunTaskRouter(ctx context.Context, appState *models.AppState) {
	// Run once to avoid test situations where the router is initialized multiple times
	onceRouter.Do(func() {
		pubSub := NewTaskPubSub()

		router, err := NewTaskRouter(appState, pubSub)
		if err != nil {
			log.Fatalf("failed to create task router: %v", err)
		}

		publisher := NewTaskPublisher(pubSub)
		Initialize(ctx, appState, router)

		appState.TurnPublisher = publisher

		go func() {
			log.Info("running task router")
			err := router.Run(ctx)
			if err != nil {
				log.Fatalf("failed to run task router %v", err)
			}
		}()
	})
}

// NewTaskPubSub creates the shared in-process pub/sub used by the
// router and publisher.
func NewTaskPubSub() *gochannel.GoChannel {
	var wlog = wla.NewLogrusLogger(log)
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		wlog,
	)
}
