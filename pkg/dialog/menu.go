package dialog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/careline/careline/pkg/models"
)

// MenuOption is a single numbered choice in a menu node.
type MenuOption struct {
	Text   string        `json:"text"`
	Intent models.Intent `json:"intent"`
}

// MenuNode is one node of the menu tree: a title plus numbered options.
type MenuNode struct {
	Title   string             `json:"title"`
	Options map[int]MenuOption `json:"options"`
}

// OptionNumbers returns the option keys in ascending order.
func (n *MenuNode) OptionNumbers() []int {
	numbers := make([]int, 0, len(n.Options))
	for number := range n.Options {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)
	return numbers
}

// Listing renders the node as a numbered text menu.
func (n *MenuNode) Listing() string {
	var b strings.Builder
	b.WriteString(n.Title)
	for _, number := range n.OptionNumbers() {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(number))
		b.WriteString(". ")
		b.WriteString(n.Options[number].Text)
	}
	return b.String()
}

// MenuTree is the static, read-only menu graph keyed by intent name.
// Sub-menu "back to main menu" edges form cycles by design, so nodes are
// held in a flat lookup table rather than as nested owned objects.
type MenuTree struct {
	nodes map[models.Intent]*MenuNode
}

func NewMenuTree(nodes map[models.Intent]*MenuNode) *MenuTree {
	return &MenuTree{nodes: nodes}
}

// NodeFor returns the menu node for an intent, if one exists. Terminal
// leaf intents have no node.
func (t *MenuTree) NodeFor(intent models.Intent) (*MenuNode, bool) {
	node, ok := t.nodes[intent]
	return node, ok
}

// DefaultMenuTree returns the built-in support menu structure.
func DefaultMenuTree() *MenuTree {
	return NewMenuTree(map[models.Intent]*MenuNode{
		models.IntentMainMenu: {
			Title: "Main Menu",
			Options: map[int]MenuOption{
				1: {Text: "Account Information", Intent: "account_info"},
				2: {Text: "Technical Support", Intent: "technical_support"},
				3: {Text: "Plan Information", Intent: "plan_info"},
				4: {Text: "Data Usage", Intent: "data_usage"},
				5: {Text: "Set up Alerts", Intent: "setup_alerts"},
			},
		},
		"account_info": {
			Title: "Account Information",
			Options: map[int]MenuOption{
				1: {Text: "View Account Details", Intent: "view_account_details"},
				2: {Text: "Update Personal Information", Intent: "update_personal_info"},
				3: {Text: "Check Account Status", Intent: "check_account_status"},
				4: {Text: "View Bill Details", Intent: "view_bill_details"},
				5: {Text: "Back to Main Menu", Intent: models.IntentMainMenu},
			},
		},
		"technical_support": {
			Title: "Technical Support",
			Options: map[int]MenuOption{
				1: {Text: "Troubleshoot", Intent: "troubleshoot"},
				2: {Text: "Check Service Status", Intent: "check_service_status"},
				3: {Text: "Schedule Technician", Intent: "schedule_technician"},
				4: {Text: "Device Support", Intent: "device_support"},
				5: {Text: "Back to Main Menu", Intent: models.IntentMainMenu},
			},
		},
		"plan_info": {
			Title: "Plan Information",
			Options: map[int]MenuOption{
				1: {Text: "View Current Plan", Intent: "view_current_plan"},
				2: {Text: "Compare Plans", Intent: "compare_plans"},
				3: {Text: "Upgrade/Downgrade Plan", Intent: "upgrade_downgrade_plan"},
				4: {Text: "Check Data Usage", Intent: "check_data_usage"},
				5: {Text: "Back to Main Menu", Intent: models.IntentMainMenu},
			},
		},
		"data_usage": {
			Title: "Data Usage",
			Options: map[int]MenuOption{
				1: {Text: "View Usage", Intent: "view_usage"},
				2: {Text: "Usage Breakdown", Intent: "usage_breakdown"},
				3: {Text: "Set Alert Threshold", Intent: "set_alert_threshold"},
				4: {Text: "View Current Alerts", Intent: "view_current_alerts"},
				5: {Text: "Back to Main Menu", Intent: models.IntentMainMenu},
			},
		},
		"setup_alerts": {
			Title: "Set up Alerts",
			Options: map[int]MenuOption{
				1: {Text: "Set Alert Threshold", Intent: "set_alert_threshold"},
				2: {Text: "Set Alert Frequency", Intent: "set_alert_frequency"},
				3: {Text: "View Current Alerts", Intent: "view_current_alerts"},
				4: {Text: "Disable Alerts", Intent: "disable_alerts"},
				5: {Text: "Back to Main Menu", Intent: models.IntentMainMenu},
			},
		},
	})
}
