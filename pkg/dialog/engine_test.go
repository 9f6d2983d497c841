package dialog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careline/careline/pkg/models"
)

type fakeRuleStore struct {
	keywords  []models.KeywordEntry
	responses []models.ResponseTemplate
	err       error
}

func (s *fakeRuleStore) GetKeywords(_ context.Context) ([]models.KeywordEntry, error) {
	return s.keywords, s.err
}

func (s *fakeRuleStore) GetResponses(_ context.Context) ([]models.ResponseTemplate, error) {
	return s.responses, s.err
}

func (s *fakeRuleStore) GetIntents(_ context.Context) ([]string, error) {
	intents := make(map[string]struct{})
	for _, k := range s.keywords {
		intents[string(k.Intent)] = struct{}{}
	}
	out := make([]string, 0, len(intents))
	for intent := range intents {
		out = append(out, intent)
	}
	return out, s.err
}

type fakeCallerStore struct {
	models.CallerStore
	attributes map[string]string
	err        error
}

func (s *fakeCallerStore) GetAttributes(_ context.Context, _ string) (map[string]string, error) {
	return s.attributes, s.err
}

type fakeConversationStore struct {
	models.ConversationStore
	recent []models.DialogTurn
}

func (s *fakeConversationStore) GetRecent(_ context.Context, _ string, _ int) ([]models.DialogTurn, error) {
	return s.recent, nil
}

type fakeClassifier struct {
	response *models.ClassifyResponse
	err      error
	calls    int
}

func (c *fakeClassifier) Classify(
	_ context.Context,
	_ string,
	_ []models.DialogTurn,
) (*models.ClassifyResponse, error) {
	c.calls++
	return c.response, c.err
}

type fakePublisher struct {
	mu    sync.Mutex
	turns []*models.DialogTurn
}

func (p *fakePublisher) PublishTurn(turn *models.DialogTurn) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.turns = append(p.turns, turn)
	return nil
}

func testResponseTemplates() []models.ResponseTemplate {
	return []models.ResponseTemplate{
		{
			Intent: "payment",
			Template: "Your current balance is {balance}. Would you like to:\n" +
				"1. Make a payment now\n2. Set up a payment plan\n3. See payment history",
		},
		{
			Intent:   "billing",
			Template: "Your last bill was {last_bill_amount} on {last_bill_date}.",
			FollowUp: "Would you like to see a detailed breakdown?",
		},
		{
			Intent:   "view_usage",
			Template: "You have used {data_usage} of your {data_limit} allowance this month.",
		},
	}
}

func testCallerAttributes() map[string]string {
	return map[string]string{
		"balance":          "$150.00",
		"account_number":   "ACC-1001",
		"plan_type":        "Premium",
		"data_usage":       "75GB",
		"data_limit":       "100GB",
		"last_bill_amount": "$89.99",
		"last_bill_date":   "2026-08-15",
	}
}

func newTestEngine(t *testing.T, classifier models.Classifier) (*Engine, *fakePublisher) {
	t.Helper()
	publisher := &fakePublisher{}
	appState := &models.AppState{
		RuleStore: &fakeRuleStore{
			keywords:  testKeywordEntries(),
			responses: testResponseTemplates(),
		},
		CallerStore:       &fakeCallerStore{attributes: testCallerAttributes()},
		ConversationStore: &fakeConversationStore{},
		Classifier:        classifier,
		TurnPublisher:     publisher,
	}
	engine, err := NewEngine(context.Background(), appState)
	require.NoError(t, err)
	return engine, publisher
}

func TestProcessMessageKeywordMatch(t *testing.T) {
	classifier := &fakeClassifier{}
	engine, publisher := newTestEngine(t, classifier)
	ctx := context.Background()

	turn, err := engine.ProcessMessage(ctx, "caller-1", "pay")
	require.NoError(t, err)
	assert.Equal(t, models.Intent("payment"), turn.Intent)
	assert.Equal(t, models.UrgencyLow, turn.Urgency)
	assert.Contains(t, turn.Reply, "$150.00")
	assert.Zero(t, classifier.calls, "keyword match must not consult the classifier")

	require.Len(t, publisher.turns, 1)
	assert.Equal(t, "caller-1", publisher.turns[0].CallerID)
}

func TestProcessMessagePhoneticMatch(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeClassifier{})
	ctx := context.Background()

	misspelled, err := engine.ProcessMessage(ctx, "caller-1", "paymnt")
	require.NoError(t, err)
	canonical, err := engine.ProcessMessage(ctx, "caller-2", "payment")
	require.NoError(t, err)

	assert.Equal(t, canonical.Intent, misspelled.Intent)
	assert.Equal(t, models.Intent("payment"), misspelled.Intent)
}

func TestProcessMessageFuzzyMatch(t *testing.T) {
	classifier := &fakeClassifier{}
	engine, _ := newTestEngine(t, classifier)

	turn, err := engine.ProcessMessage(context.Background(), "caller-1", "paymet")
	require.NoError(t, err)
	assert.Equal(t, models.Intent("payment"), turn.Intent)
	assert.Zero(t, classifier.calls)
}

func TestProcessMessageMenuNavigation(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeClassifier{})
	ctx := context.Background()

	// "back" from the initial state lands on the main menu
	turn, err := engine.ProcessMessage(ctx, "caller-1", "back")
	require.NoError(t, err)
	assert.Equal(t, models.IntentMainMenu, turn.Intent)
	assert.Contains(t, turn.Reply, "3. Plan Information")

	// option 3 descends into plan info, pushing main_menu
	turn, err = engine.ProcessMessage(ctx, "caller-1", "3")
	require.NoError(t, err)
	assert.Equal(t, models.Intent("plan_info"), turn.Intent)
	assert.Contains(t, turn.Reply, "Plan Information")

	state := engine.orchestratorFor("caller-1").State()
	assert.Equal(t, models.Intent("plan_info"), state.Current)
	assert.Equal(t, []models.Intent{models.IntentMainMenu}, state.History)

	// back pops the descent
	turn, err = engine.ProcessMessage(ctx, "caller-1", "back")
	require.NoError(t, err)
	assert.Equal(t, models.IntentMainMenu, turn.Intent)

	state = engine.orchestratorFor("caller-1").State()
	assert.Empty(t, state.History)
}

func TestProcessMessageInvalidOption(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeClassifier{})
	ctx := context.Background()

	_, err := engine.ProcessMessage(ctx, "caller-1", "back")
	require.NoError(t, err)

	turn, err := engine.ProcessMessage(ctx, "caller-1", "42")
	require.NoError(t, err)
	assert.Equal(t, models.IntentGeneralQuery, turn.Intent)
	assert.Contains(t, turn.Reply, "didn't understand")

	state := engine.orchestratorFor("caller-1").State()
	assert.Empty(t, state.History)
}

func TestProcessMessageLeafOptionRendersStoredFallback(t *testing.T) {
	responses := append(testResponseTemplates(), models.ResponseTemplate{
		Intent:   models.IntentGeneralQuery,
		Template: "Please tell me a bit more about what you need.",
	})
	appState := &models.AppState{
		RuleStore: &fakeRuleStore{
			keywords:  testKeywordEntries(),
			responses: responses,
		},
		CallerStore: &fakeCallerStore{attributes: testCallerAttributes()},
	}
	engine, err := NewEngine(context.Background(), appState)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = engine.ProcessMessage(ctx, "caller-1", "back")
	require.NoError(t, err)
	_, err = engine.ProcessMessage(ctx, "caller-1", "1")
	require.NoError(t, err)

	// view_account_details has neither a menu node nor a template;
	// the reply must come from the stored general_query template
	turn, err := engine.ProcessMessage(ctx, "caller-1", "1")
	require.NoError(t, err)
	assert.Equal(t, models.Intent("view_account_details"), turn.Intent)
	assert.Contains(t, turn.Reply, "Please tell me a bit more")
	assert.NotContains(t, turn.Reply, "didn't understand")
}

func TestProcessMessageHugeOptionNumber(t *testing.T) {
	classifier := &fakeClassifier{}
	engine, _ := newTestEngine(t, classifier)
	ctx := context.Background()

	_, err := engine.ProcessMessage(ctx, "caller-1", "back")
	require.NoError(t, err)

	turn, err := engine.ProcessMessage(ctx, "caller-1", "99999999999999999999")
	require.NoError(t, err)
	assert.Equal(t, models.IntentGeneralQuery, turn.Intent)
	assert.Zero(t, classifier.calls, "digit strings must never reach the classifier")

	state := engine.orchestratorFor("caller-1").State()
	assert.Empty(t, state.History)
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeClassifier{})
	engine.sessionTTL = time.Millisecond
	ctx := context.Background()

	_, err := engine.ProcessMessage(ctx, "caller-1", "back")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = engine.ProcessMessage(ctx, "caller-2", "back")
	require.NoError(t, err)

	engine.sessionsMu.Lock()
	_, ok := engine.sessions["caller-1"]
	engine.sessionsMu.Unlock()
	assert.False(t, ok, "idle caller state should be reclaimed")
}

func TestProcessMessageClassifierFallback(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("service unavailable")}
	engine, _ := newTestEngine(t, classifier)

	turn, err := engine.ProcessMessage(context.Background(), "caller-1", "xyzzy")
	require.NoError(t, err)
	assert.Equal(t, 1, classifier.calls)
	assert.Equal(t, models.IntentMainMenu, turn.Intent)
	assert.Equal(t, models.UrgencyLow, turn.Urgency)

	main, ok := engine.tree.NodeFor(models.IntentMainMenu)
	require.True(t, ok)
	assert.Equal(t, main.Listing(), turn.Reply)
}

func TestProcessMessageClassifierResult(t *testing.T) {
	classifier := &fakeClassifier{
		response: &models.ClassifyResponse{
			Intent:   "billing",
			Entities: models.Entities{Amount: "$25.00"},
			Urgency:  models.UrgencyHigh,
		},
	}
	engine, _ := newTestEngine(t, classifier)

	turn, err := engine.ProcessMessage(context.Background(), "caller-1", "why is my invoice so strange")
	require.NoError(t, err)
	assert.Equal(t, models.Intent("billing"), turn.Intent)
	assert.Equal(t, models.UrgencyHigh, turn.Urgency)
	assert.Contains(t, turn.Reply, "$89.99")
	assert.Contains(t, turn.Reply, "detailed breakdown")
}

func TestProcessMessageRefusal(t *testing.T) {
	classifier := &fakeClassifier{
		response: &models.ClassifyResponse{Intent: models.IntentNotTelecom},
	}
	engine, _ := newTestEngine(t, classifier)
	ctx := context.Background()

	_, err := engine.ProcessMessage(ctx, "caller-1", "back")
	require.NoError(t, err)
	before := engine.orchestratorFor("caller-1").State()

	turn, err := engine.ProcessMessage(ctx, "caller-1", "what is the weather tomorrow")
	require.NoError(t, err)
	assert.Equal(t, models.IntentNotTelecom, turn.Intent)
	assert.Equal(t, defaultRefusalMessage, turn.Reply)

	after := engine.orchestratorFor("caller-1").State()
	assert.Equal(t, before, after, "refusals must not move the caller")
}

func TestProcessMessageRejectsEmptyInput(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeClassifier{})
	ctx := context.Background()

	_, err := engine.ProcessMessage(ctx, "caller-1", "   ")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = engine.ProcessMessage(ctx, "", "hello")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestRefreshRules(t *testing.T) {
	store := &fakeRuleStore{
		keywords:  testKeywordEntries(),
		responses: testResponseTemplates(),
	}
	appState := &models.AppState{
		RuleStore:   store,
		CallerStore: &fakeCallerStore{attributes: map[string]string{}},
	}
	engine, err := NewEngine(context.Background(), appState)
	require.NoError(t, err)

	_, err = engine.ProcessMessage(context.Background(), "caller-1", "roaming")
	require.NoError(t, err)

	store.keywords = append(store.keywords, models.KeywordEntry{
		Keyword: "roaming", Intent: "roaming_info",
	})
	require.NoError(t, engine.RefreshRules(context.Background()))

	turn, err := engine.ProcessMessage(context.Background(), "caller-1", "roaming")
	require.NoError(t, err)
	assert.Equal(t, models.Intent("roaming_info"), turn.Intent)
}

func TestRefreshRulesPropagatesStoreErrors(t *testing.T) {
	appState := &models.AppState{
		RuleStore: &fakeRuleStore{err: errors.New("connection refused")},
	}
	_, err := NewEngine(context.Background(), appState)
	assert.Error(t, err)
}

func TestProcessMessageSerializesPerCaller(t *testing.T) {
	engine, publisher := newTestEngine(t, &fakeClassifier{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.ProcessMessage(ctx, "caller-1", "pay")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, publisher.turns, 20)
}
