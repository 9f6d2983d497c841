package dialog

import (
	"strconv"
	"strings"

	"github.com/careline/careline/pkg/models"
)

const backCommand = "back"

// Navigator applies menu transitions to a caller's NavigationState. It
// holds no per-caller data itself; all mutation happens on the state
// passed in.
type Navigator struct {
	tree *MenuTree
}

func NewNavigator(tree *MenuTree) *Navigator {
	return &Navigator{tree: tree}
}

// Back pops the most recent menu descent and returns to it. With an
// empty history the caller lands on the main menu. Back never fails,
// whatever the current state.
func (nav *Navigator) Back(state *models.NavigationState) models.Intent {
	if intent, ok := state.Pop(); ok {
		state.Current = intent
		return intent
	}
	state.Current = models.IntentMainMenu
	return models.IntentMainMenu
}

// Select applies a numbered option from the current menu node. Choosing
// an option that leads back to the main menu clears the history stack;
// any other valid option pushes the departed node first. An invalid
// number, or a selection made outside any menu node, transitions to
// general_query and leaves history untouched.
func (nav *Navigator) Select(state *models.NavigationState, option int) models.Intent {
	node, ok := nav.tree.NodeFor(state.Current)
	if !ok {
		state.Current = models.IntentGeneralQuery
		return state.Current
	}
	choice, ok := node.Options[option]
	if !ok {
		state.Current = models.IntentGeneralQuery
		return state.Current
	}
	if choice.Intent == models.IntentMainMenu {
		state.ClearHistory()
	} else {
		state.Push(state.Current)
	}
	state.Current = choice.Intent
	return choice.Intent
}

// Jump moves directly to an intent resolved from free text. Jumps do
// not touch history: "back" after a jump returns to wherever the caller
// last descended from, not to the jump origin.
func (nav *Navigator) Jump(state *models.NavigationState, intent models.Intent) {
	state.Current = intent
}

// parseNavigation recognizes the two navigation inputs: the literal
// word "back" and a bare non-negative integer. Matching is
// case-insensitive and ignores surrounding whitespace. A digit string
// too large to parse is still a navigation input; it resolves as an
// option no menu offers rather than leaking into keyword matching.
func parseNavigation(message string) (back bool, option int, ok bool) {
	trimmed := strings.ToLower(strings.TrimSpace(message))
	if trimmed == backCommand {
		return true, 0, true
	}
	if !isAllDigits(trimmed) {
		return false, 0, false
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return false, -1, true
	}
	return false, n, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
