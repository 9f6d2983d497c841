package tasks

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careline/careline/internal"
	"github.com/careline/careline/pkg/models"
)

var testCtx context.Context

func TestMain(m *testing.M) {
	testCtx = context.Background()

	internal.SetLogLevel(logrus.DebugLevel)
	exitCode := m.Run()
	internal.SetLogLevel(logrus.InfoLevel)

	os.Exit(exitCode)
}

type memoryConversationStore struct {
	mu    sync.Mutex
	turns []models.DialogTurn
	err   error
}

func (s *memoryConversationStore) Append(_ context.Context, turn *models.DialogTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.turns = append(s.turns, *turn)
	return nil
}

func (s *memoryConversationStore) GetRecent(
	_ context.Context,
	callerID string,
	lastN int,
) ([]models.DialogTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DialogTurn
	for _, turn := range s.turns {
		if turn.CallerID == callerID {
			out = append(out, turn)
		}
	}
	if lastN > 0 && len(out) > lastN {
		out = out[len(out)-lastN:]
	}
	return out, nil
}

func (s *memoryConversationStore) DeleteForCaller(_ context.Context, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.turns[:0]
	for _, turn := range s.turns {
		if turn.CallerID != callerID {
			kept = append(kept, turn)
		}
	}
	s.turns = kept
	return nil
}

func (s *memoryConversationStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

func TestPublishTurnDeliversToConversationLogger(t *testing.T) {
	ctx, done := context.WithTimeout(testCtx, 5*time.Second)
	defer done()

	store := &memoryConversationStore{}
	appState := &models.AppState{ConversationStore: store}

	pubSub := NewTaskPubSub()
	router, err := NewTaskRouter(appState, pubSub)
	require.NoError(t, err, "failed to create task router")
	defer router.Close()

	Initialize(ctx, appState, router)

	go func() {
		_ = router.Run(ctx)
	}()
	select {
	case <-router.Running():
	case <-ctx.Done():
		t.Fatal("timed out waiting for the router to start")
	}

	publisher := NewTaskPublisher(pubSub)
	turn := &models.DialogTurn{
		CallerID:  "caller-42",
		Message:   "I want to pay my bill",
		Reply:     "Your current balance is $150.00.",
		Intent:    "payment",
		Urgency:   models.UrgencyLow,
		CreatedAt: time.Now().UTC(),
	}
	err = publisher.PublishTurn(turn)
	require.NoError(t, err, "failed to publish turn")

	require.Eventually(t, func() bool {
		return store.count() == 1
	}, 3*time.Second, 50*time.Millisecond, "turn was not appended")

	logged, err := store.GetRecent(ctx, "caller-42", 0)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, turn.Message, logged[0].Message)
	assert.Equal(t, turn.Reply, logged[0].Reply)
	assert.Equal(t, turn.Intent, logged[0].Intent)
}

func TestConversationLoggerTaskRejectsMissingCallerID(t *testing.T) {
	store := &memoryConversationStore{}
	task := NewConversationLoggerTask(&models.AppState{ConversationStore: store})

	msg := message.NewMessage("test-uuid", []byte(`{"message":"hi"}`))
	err := task.Execute(testCtx, msg)
	assert.ErrorContains(t, err, "missing caller_id")
	assert.Equal(t, 0, store.count())
}

func TestConversationLoggerTaskRejectsBadPayload(t *testing.T) {
	store := &memoryConversationStore{}
	task := NewConversationLoggerTask(&models.AppState{ConversationStore: store})

	msg := message.NewMessage("test-uuid", []byte(`not json`))
	msg.Metadata = message.Metadata{"caller_id": "caller-1"}
	err := task.Execute(testCtx, msg)
	assert.ErrorContains(t, err, "unmarshal")
}

func TestConversationLoggerTaskPropagatesStoreError(t *testing.T) {
	store := &memoryConversationStore{err: errors.New("connection refused")}
	task := NewConversationLoggerTask(&models.AppState{ConversationStore: store})

	msg := message.NewMessage("test-uuid", []byte(`{"caller_id":"caller-1","message":"hi"}`))
	msg.Metadata = message.Metadata{"caller_id": "caller-1"}
	err := task.Execute(testCtx, msg)
	assert.ErrorContains(t, err, "connection refused")
}

func TestTaskHandlerCallsHandleErrorOnFailure(t *testing.T) {
	task := &failingTask{err: errors.New("boom")}
	handler := TaskHandler(task)

	msg := message.NewMessage("test-uuid", []byte(`{}`))
	err := handler(msg)
	assert.ErrorContains(t, err, "boom")
	assert.True(t, task.handled, "HandleError was not called")
}

type failingTask struct {
	BaseTask
	err     error
	handled bool
}

func (t *failingTask) Execute(_ context.Context, _ *message.Message) error {
	return t.err
}

func (t *failingTask) HandleError(_ error) {
	t.handled = true
}
