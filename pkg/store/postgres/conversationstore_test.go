package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careline/careline/pkg/models"
	"github.com/careline/careline/pkg/testutils"
)

func TestConversationStoreDAO(t *testing.T) {
	ctx := context.Background()

	callerID, err := testutils.GenerateRandomCallerID(16)
	require.NoError(t, err)

	callerStore := NewCallerStoreDAO(testDB)
	_, err = callerStore.Create(ctx, &models.CreateCallerRequest{CallerID: callerID})
	require.NoError(t, err)

	conversationStore := NewConversationStoreDAO(testDB)

	turns := []models.DialogTurn{
		{CallerID: callerID, Message: "hi", Reply: "Main Menu", Intent: "main_menu", Urgency: "low"},
		{CallerID: callerID, Message: "pay", Reply: "Your current balance is $150.00.", Intent: "payment", Urgency: "low"},
		{CallerID: callerID, Message: "3", Reply: "Plan Information", Intent: "plan_info", Urgency: "low"},
	}

	t.Run("Append", func(t *testing.T) {
		for i := range turns {
			turns[i].CreatedAt = time.Now().UTC()
			err := conversationStore.Append(ctx, &turns[i])
			assert.NoError(t, err)
		}
	})

	t.Run("Append with empty CallerID should fail", func(t *testing.T) {
		err := conversationStore.Append(ctx, &models.DialogTurn{Message: "hi"})
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("GetRecent returns chronological order", func(t *testing.T) {
		recent, err := conversationStore.GetRecent(ctx, callerID, 10)
		assert.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, "hi", recent[0].Message)
		assert.Equal(t, "3", recent[2].Message)
		assert.Equal(t, models.Intent("payment"), recent[1].Intent)
	})

	t.Run("GetRecent honors lastN", func(t *testing.T) {
		recent, err := conversationStore.GetRecent(ctx, callerID, 2)
		assert.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "pay", recent[0].Message)
		assert.Equal(t, "3", recent[1].Message)
	})

	t.Run("GetRecent with zero lastN returns nothing", func(t *testing.T) {
		recent, err := conversationStore.GetRecent(ctx, callerID, 0)
		assert.NoError(t, err)
		assert.Empty(t, recent)
	})

	t.Run("DeleteForCaller", func(t *testing.T) {
		err := conversationStore.DeleteForCaller(ctx, callerID)
		assert.NoError(t, err)

		recent, err := conversationStore.GetRecent(ctx, callerID, 10)
		assert.NoError(t, err)
		assert.Empty(t, recent)
	})
}
