package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careline/careline/pkg/models"
)

func TestDefaultMenuTree(t *testing.T) {
	tree := DefaultMenuTree()

	main, ok := tree.NodeFor(models.IntentMainMenu)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, main.OptionNumbers())
	assert.Equal(t, models.Intent("plan_info"), main.Options[3].Intent)

	// every submenu's last option leads back to the main menu
	for _, intent := range []models.Intent{
		"account_info", "technical_support", "plan_info", "data_usage", "setup_alerts",
	} {
		node, ok := tree.NodeFor(intent)
		require.True(t, ok, "missing node for %q", intent)
		numbers := node.OptionNumbers()
		require.NotEmpty(t, numbers)
		last := node.Options[numbers[len(numbers)-1]]
		assert.Equal(t, models.IntentMainMenu, last.Intent, "node %q", intent)
	}

	_, ok = tree.NodeFor("view_account_details")
	assert.False(t, ok, "leaf intents have no node")
}

func TestMenuNodeListing(t *testing.T) {
	tree := DefaultMenuTree()
	main, ok := tree.NodeFor(models.IntentMainMenu)
	require.True(t, ok)

	want := "Main Menu\n" +
		"1. Account Information\n" +
		"2. Technical Support\n" +
		"3. Plan Information\n" +
		"4. Data Usage\n" +
		"5. Set up Alerts"
	assert.Equal(t, want, main.Listing())
}
