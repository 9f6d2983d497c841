package dialog

import (
	"github.com/careline/careline/pkg/models"
)

// Resolution source labels, recorded on turns for log inspection.
const (
	SourceNavigation = "navigation"
	SourceKeyword    = "keyword"
	SourcePhonetic   = "phonetic"
	SourceFuzzy      = "fuzzy"
	SourceClassifier = "classifier"
	SourceFallback   = "fallback"
)

// Resolution is the outcome of one stage of the resolution cascade.
type Resolution struct {
	Intent   models.Intent
	Entities models.Entities
	Urgency  models.Urgency
	Source   string

	// Refusal marks an out-of-domain message: reply with the fixed
	// refusal text and leave navigation state untouched.
	Refusal bool

	// Menu marks a menu transition whose reply is the target node's
	// listing rather than a bare template.
	Menu bool
}

// resolveNavigation handles the two structured inputs, "back" and a
// bare option number, mutating state as a side effect. Any other
// message falls through to the keyword stage.
func resolveNavigation(nav *Navigator, state *models.NavigationState, message string) (*Resolution, bool) {
	back, option, ok := parseNavigation(message)
	if !ok {
		return nil, false
	}

	if back {
		target := nav.Back(state)
		return &Resolution{
			Intent:  target,
			Urgency: models.UrgencyLow,
			Source:  SourceNavigation,
			Menu:    true,
		}, true
	}

	valid := false
	if node, found := nav.tree.NodeFor(state.Current); found {
		_, valid = node.Options[option]
	}
	target := nav.Select(state, option)
	return &Resolution{
		Intent:  target,
		Urgency: models.UrgencyLow,
		Source:  SourceNavigation,
		Menu:    valid,
	}, true
}

// resolveKeyword tries exact whole-message and whole-token matches,
// then the phonetic variant table. Exact beats phonetic regardless of
// token position.
func resolveKeyword(idx *KeywordIndex, message string) (*Resolution, bool) {
	if intent, ok := idx.Lookup(message); ok {
		return &Resolution{Intent: intent, Urgency: models.UrgencyLow, Source: SourceKeyword}, true
	}

	tokens := Tokenize(message)
	for _, token := range tokens {
		if intent, ok := idx.Lookup(token); ok {
			return &Resolution{Intent: intent, Urgency: models.UrgencyLow, Source: SourceKeyword}, true
		}
	}
	for _, token := range tokens {
		if intent, ok := idx.LookupPhonetic(token); ok {
			return &Resolution{Intent: intent, Urgency: models.UrgencyLow, Source: SourcePhonetic}, true
		}
	}
	return nil, false
}

// resolveFuzzy picks the single best-scoring keyword match across all
// message tokens. Nothing clearing the threshold means no resolution.
func resolveFuzzy(idx *KeywordIndex, message string) (*Resolution, bool) {
	best := Match{Score: -1}
	for _, token := range Tokenize(message) {
		if match, ok := BestFuzzyMatch(idx, token); ok && match.Score > best.Score {
			best = match
		}
	}
	if best.Score < 0 {
		return nil, false
	}
	return &Resolution{Intent: best.Intent, Urgency: models.UrgencyLow, Source: SourceFuzzy}, true
}
