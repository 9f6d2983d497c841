package dialog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/careline/careline/pkg/models"
)

const (
	defaultHistoryWindow = 8

	// idle orchestrators are reclaimed after this long; a caller who
	// returns later simply starts from a fresh navigation state
	defaultSessionIdleTTL = 30 * time.Minute

	defaultRefusalMessage = "I'm sorry, I can only help with telecom-related " +
		"questions about your account, plans, billing, data usage or technical support."

	generalQueryReply = "I'm sorry, I didn't understand that. " +
		"Could you please rephrase, pick a numbered option or type \"back\"?"
)

var _ models.DialogService = (*Engine)(nil)

// Engine is the dialog service: it owns the rule cache, the menu tree
// and one orchestrator per caller. Rules are loaded at startup and
// replaced wholesale by RefreshRules; in-flight turns keep the snapshot
// they started with.
type Engine struct {
	appState      *models.AppState
	tree          *MenuTree
	nav           *Navigator
	refusal       string
	historyWindow int
	sessionTTL    time.Duration

	rulesMu   sync.RWMutex
	index     *KeywordIndex
	templates map[models.Intent]models.ResponseTemplate

	sessionsMu sync.Mutex
	sessions   map[string]*Orchestrator
}

func NewEngine(ctx context.Context, appState *models.AppState) (*Engine, error) {
	e := &Engine{
		appState:      appState,
		tree:          DefaultMenuTree(),
		refusal:       defaultRefusalMessage,
		historyWindow: defaultHistoryWindow,
		sessionTTL:    defaultSessionIdleTTL,
		index:         NewKeywordIndex(nil),
		templates:     map[models.Intent]models.ResponseTemplate{},
		sessions:      map[string]*Orchestrator{},
	}
	e.nav = NewNavigator(e.tree)

	if appState.Config != nil {
		if appState.Config.Dialog.RefusalMessage != "" {
			e.refusal = appState.Config.Dialog.RefusalMessage
		}
		if appState.Config.Classifier.HistoryWindow > 0 {
			e.historyWindow = appState.Config.Classifier.HistoryWindow
		}
	}

	if err := e.RefreshRules(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// RefreshRules reloads keywords and response templates from the rule
// store and swaps the in-memory cache atomically.
func (e *Engine) RefreshRules(ctx context.Context) error {
	keywords, err := e.appState.RuleStore.GetKeywords(ctx)
	if err != nil {
		return fmt.Errorf("refresh rules: get keywords: %w", err)
	}
	responses, err := e.appState.RuleStore.GetResponses(ctx)
	if err != nil {
		return fmt.Errorf("refresh rules: get responses: %w", err)
	}

	templates := make(map[models.Intent]models.ResponseTemplate, len(responses))
	for _, response := range responses {
		templates[response.Intent] = response
	}
	index := NewKeywordIndex(keywords)

	e.rulesMu.Lock()
	e.index = index
	e.templates = templates
	e.rulesMu.Unlock()

	log.WithFields(map[string]interface{}{
		"keywords":  index.Len(),
		"templates": len(templates),
	}).Info("dialog rules refreshed")
	return nil
}

// ProcessMessage runs one turn for a caller. Turns for the same caller
// are serialized; different callers proceed concurrently.
func (e *Engine) ProcessMessage(
	ctx context.Context,
	callerID string,
	message string,
) (*models.DialogTurn, error) {
	if strings.TrimSpace(message) == "" {
		return nil, models.NewBadRequestError("message must not be empty")
	}
	if callerID == "" {
		return nil, models.NewBadRequestError("callerID must not be empty")
	}
	return e.orchestratorFor(callerID).processMessage(ctx, message)
}

func (e *Engine) orchestratorFor(callerID string) *Orchestrator {
	e.sessionsMu.Lock()
	defer e.sessionsMu.Unlock()

	now := time.Now()
	for id, other := range e.sessions {
		if id != callerID && now.Sub(other.lastSeen) > e.sessionTTL {
			delete(e.sessions, id)
		}
	}

	o, ok := e.sessions[callerID]
	if !ok {
		o = &Orchestrator{engine: e, callerID: callerID}
		e.sessions[callerID] = o
	}
	o.lastSeen = now
	return o
}

func (e *Engine) rules() (*KeywordIndex, map[models.Intent]models.ResponseTemplate) {
	e.rulesMu.RLock()
	defer e.rulesMu.RUnlock()
	return e.index, e.templates
}

// render turns a resolution into reply text. Menu transitions show the
// target node's listing, prefixed by the intent's template when one is
// configured. Everything else uses the intent's template, falling back
// to the node listing and finally to the generic reprompt.
func (e *Engine) render(res *Resolution, attrs map[string]string) string {
	if res.Refusal {
		return e.refusal
	}

	_, templates := e.rules()
	tpl, hasTemplate := templates[res.Intent]
	node, hasNode := e.tree.NodeFor(res.Intent)

	if res.Menu && hasNode {
		if hasTemplate {
			return Render(tpl.Template, attrs, res.Entities) + "\n\n" + node.Listing()
		}
		return node.Listing()
	}

	if hasTemplate {
		reply := Render(tpl.Template, attrs, res.Entities)
		if tpl.FollowUp != "" {
			followUp := Render(tpl.FollowUp, attrs, res.Entities)
			if !strings.Contains(reply, followUp) {
				reply += "\n\n" + followUp
			}
		}
		return reply
	}
	if hasNode {
		return node.Listing()
	}

	// the stored general_query template, when configured, is the
	// fallback for any intent with neither template nor node
	fallback := generalQueryReply
	if gq, ok := templates[models.IntentGeneralQuery]; ok && gq.Template != "" {
		fallback = Render(gq.Template, attrs, res.Entities)
	}
	if main, ok := e.tree.NodeFor(models.IntentMainMenu); ok && res.Intent != models.IntentGeneralQuery {
		return fallback + "\n\n" + main.Listing()
	}
	return fallback
}

func (e *Engine) callerAttributes(ctx context.Context, callerID string) map[string]string {
	if e.appState.CallerStore == nil {
		return map[string]string{}
	}
	attrs, err := e.appState.CallerStore.GetAttributes(ctx, callerID)
	if err != nil {
		log.WithError(err).WithField("caller_id", callerID).
			Warn("failed to load caller attributes, rendering without them")
		return map[string]string{}
	}
	if attrs == nil {
		attrs = map[string]string{}
	}
	return attrs
}

// Orchestrator holds one caller's navigation state and serializes that
// caller's turns.
type Orchestrator struct {
	engine   *Engine
	callerID string

	// lastSeen is guarded by the engine's sessionsMu, not mu
	lastSeen time.Time

	mu    sync.Mutex
	state models.NavigationState
}

// State returns a copy of the caller's navigation state.
func (o *Orchestrator) State() models.NavigationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	state := o.state
	state.History = append([]models.Intent(nil), o.state.History...)
	return state
}

func (o *Orchestrator) processMessage(ctx context.Context, message string) (*models.DialogTurn, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	index, _ := o.engine.rules()

	res, ok := resolveNavigation(o.engine.nav, &o.state, message)
	if !ok {
		res, ok = resolveKeyword(index, message)
	}
	if !ok {
		res, ok = resolveFuzzy(index, message)
	}
	if !ok {
		res = o.classify(ctx, message)
	}

	switch {
	case res.Refusal:
		// out-of-domain refusals never move the caller
	case res.Source != SourceNavigation:
		o.engine.nav.Jump(&o.state, res.Intent)
	}

	attrs := o.engine.callerAttributes(ctx, o.callerID)
	reply := o.engine.render(res, attrs)

	urgency := res.Urgency
	if !urgency.Valid() {
		urgency = models.UrgencyLow
	}
	turn := &models.DialogTurn{
		CallerID:  o.callerID,
		Message:   strings.TrimSpace(message),
		Reply:     reply,
		Intent:    res.Intent,
		Urgency:   urgency,
		CreatedAt: time.Now().UTC(),
	}

	if publisher := o.engine.appState.TurnPublisher; publisher != nil {
		if err := publisher.PublishTurn(turn); err != nil {
			log.WithError(err).WithField("caller_id", o.callerID).
				Warn("failed to publish dialog turn")
		}
	}
	return turn, nil
}

// classify consults the external classifier. Any failure degrades to
// the main menu so the caller always gets a usable reply.
func (o *Orchestrator) classify(ctx context.Context, message string) *Resolution {
	classifier := o.engine.appState.Classifier
	if classifier == nil {
		return fallbackResolution()
	}

	var history []models.DialogTurn
	if store := o.engine.appState.ConversationStore; store != nil {
		recent, err := store.GetRecent(ctx, o.callerID, o.engine.historyWindow)
		if err != nil {
			log.WithError(err).WithField("caller_id", o.callerID).
				Warn("failed to load history for classification")
		} else {
			history = recent
		}
	}

	resp, err := classifier.Classify(ctx, message, history)
	if err != nil {
		log.WithError(err).WithField("caller_id", o.callerID).
			Warn("classifier unavailable, falling back to main menu")
		return fallbackResolution()
	}
	if resp == nil || resp.Intent == "" {
		return fallbackResolution()
	}

	if resp.Intent == models.IntentNotTelecom {
		return &Resolution{
			Intent:  models.IntentNotTelecom,
			Urgency: models.UrgencyLow,
			Source:  SourceClassifier,
			Refusal: true,
		}
	}

	urgency := resp.Urgency
	if !urgency.Valid() {
		urgency = models.UrgencyLow
	}
	return &Resolution{
		Intent:   resp.Intent,
		Entities: resp.Entities,
		Urgency:  urgency,
		Source:   SourceClassifier,
	}
}

func fallbackResolution() *Resolution {
	return &Resolution{
		Intent:  models.IntentMainMenu,
		Urgency: models.UrgencyLow,
		Source:  SourceFallback,
		Menu:    true,
	}
}
