package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careline/careline/pkg/models"
	"github.com/careline/careline/pkg/testutils"
)

func TestCallerStoreDAO(t *testing.T) {
	ctx := context.Background()

	callerID, err := testutils.GenerateRandomCallerID(16)
	assert.NoError(t, err, "GenerateRandomCallerID should not return an error")

	callerStore := NewCallerStoreDAO(testDB)

	caller := &models.CreateCallerRequest{
		CallerID:      callerID,
		AccountNumber: "ACC-1001",
		Balance:       "$150.00",
		Status:        "active",
		PlanType:      "Premium",
		DataUsage:     "75GB",
		DataLimit:     "100GB",
		Metadata: map[string]interface{}{
			"key": "value",
		},
	}

	t.Run("Create", func(t *testing.T) {
		created, err := callerStore.Create(ctx, caller)
		assert.NoError(t, err)
		assert.Equal(t, callerID, created.CallerID)
	})

	t.Run("Create with empty CallerID should fail", func(t *testing.T) {
		_, err := callerStore.Create(ctx, &models.CreateCallerRequest{})
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("Create duplicate should fail", func(t *testing.T) {
		_, err := callerStore.Create(ctx, caller)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("Get", func(t *testing.T) {
		retrieved, err := callerStore.Get(ctx, callerID)
		assert.NoError(t, err)
		assert.Equal(t, callerID, retrieved.CallerID)
		assert.Equal(t, "$150.00", retrieved.Balance)
		assert.Equal(t, caller.Metadata, retrieved.Metadata)
	})

	t.Run("Get non-existent caller should result in NotFoundError", func(t *testing.T) {
		_, err := callerStore.Get(ctx, "non-existent-caller-id")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		update := &models.UpdateCallerRequest{
			CallerID: callerID,
			Balance:  "$0.00",
			Metadata: map[string]interface{}{
				"key2": "value2",
			},
		}
		updated, err := callerStore.Update(ctx, update, false)
		assert.NoError(t, err)
		assert.Equal(t, "$0.00", updated.Balance)
		// metadata is merged, not replaced
		assert.Equal(t, "value", updated.Metadata["key"])
		assert.Equal(t, "value2", updated.Metadata["key2"])
	})

	t.Run("Update non-existent caller should result in NotFoundError", func(t *testing.T) {
		_, err := callerStore.Update(ctx, &models.UpdateCallerRequest{
			CallerID: "non-existent-caller-id",
			Balance:  "$1.00",
		}, false)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("GetAttributes", func(t *testing.T) {
		attrs, err := callerStore.GetAttributes(ctx, callerID)
		assert.NoError(t, err)
		assert.Equal(t, "$0.00", attrs["balance"])
		assert.Equal(t, "Premium", attrs["plan_type"])
		assert.Equal(t, "value", attrs["key"])
	})

	t.Run("GetAttributes for unknown caller yields empty map", func(t *testing.T) {
		attrs, err := callerStore.GetAttributes(ctx, "non-existent-caller-id")
		assert.NoError(t, err)
		assert.Empty(t, attrs)
	})

	t.Run("ListAll", func(t *testing.T) {
		callers, err := callerStore.ListAll(ctx, 0, 100)
		assert.NoError(t, err)
		require.NotEmpty(t, callers)
	})

	t.Run("Delete", func(t *testing.T) {
		err := callerStore.Delete(ctx, callerID)
		assert.NoError(t, err)

		_, err = callerStore.Get(ctx, callerID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Delete non-existent caller should result in NotFoundError", func(t *testing.T) {
		err := callerStore.Delete(ctx, "non-existent-caller-id")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
