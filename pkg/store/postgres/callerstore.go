package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/jinzhu/copier"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/careline/careline/pkg/models"
	"github.com/careline/careline/pkg/store"
)

var _ models.CallerStore = &CallerStoreDAO{}

type CallerStoreDAO struct {
	db *bun.DB
}

func NewCallerStoreDAO(db *bun.DB) *CallerStoreDAO {
	return &CallerStoreDAO{
		db: db,
	}
}

// Create creates a new caller account.
func (dao *CallerStoreDAO) Create(
	ctx context.Context,
	caller *models.CreateCallerRequest,
) (*models.Caller, error) {
	if caller.CallerID == "" {
		return nil, models.NewBadRequestError("CallerID cannot be empty")
	}
	callerDB := &CallerSchema{
		CallerID:       caller.CallerID,
		AccountNumber:  caller.AccountNumber,
		Balance:        caller.Balance,
		Status:         caller.Status,
		PlanType:       caller.PlanType,
		MonthlyFee:     caller.MonthlyFee,
		Email:          caller.Email,
		Phone:          caller.Phone,
		DataUsage:      caller.DataUsage,
		DataLimit:      caller.DataLimit,
		LastBillDate:   caller.LastBillDate,
		LastBillAmount: caller.LastBillAmount,
		Metadata:       caller.Metadata,
	}
	_, err := dao.db.NewInsert().Model(callerDB).Returning("*").Exec(ctx)
	if err != nil {
		if err, ok := err.(pgdriver.Error); ok && err.IntegrityViolation() {
			return nil, models.NewBadRequestError(
				"caller already exists with caller_id: " + caller.CallerID,
			)
		}
		return nil, err
	}

	return callerSchemaToCaller(callerDB)
}

// Get gets a caller by CallerID.
func (dao *CallerStoreDAO) Get(ctx context.Context, callerID string) (*models.Caller, error) {
	caller := new(CallerSchema)
	err := dao.db.NewSelect().Model(caller).Where("caller_id = ?", callerID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("caller " + callerID)
		}
		return nil, err
	}
	return callerSchemaToCaller(caller)
}

// Update updates a caller. Metadata updates are serialized behind a
// per-caller advisory lock and merged with the stored map.
func (dao *CallerStoreDAO) Update(
	ctx context.Context,
	caller *models.UpdateCallerRequest,
	isPrivileged bool,
) (*models.Caller, error) {
	if caller.CallerID == "" {
		return nil, errors.New("CallerID cannot be empty")
	}

	// if metadata is null, we can keep this a cheap operation
	if caller.Metadata == nil {
		return dao.updateCaller(ctx, caller)
	}

	// Acquire a lock for this CallerID. This is to prevent concurrent updates
	// to the caller metadata.
	lockRetryPolicy := retrypolicy.Builder[any]().
		HandleErrors(models.ErrLockAcquisitionFailed).
		WithBackoff(200*time.Millisecond, 10*time.Second).
		WithMaxRetries(7).
		Build()

	lockIDVal, err := failsafe.Get(func() (any, error) {
		return tryAcquireAdvisoryLock(ctx, dao.db, caller.CallerID)
	}, lockRetryPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	lockID, ok := lockIDVal.(uint64)
	if !ok {
		return nil, fmt.Errorf(
			"failed to acquire advisory lock: %w",
			models.ErrLockAcquisitionFailed,
		)
	}

	defer func(ctx context.Context, db bun.IDB, lockID uint64) {
		err := releaseAdvisoryLock(ctx, db, lockID)
		if err != nil {
			log.Errorf("failed to release advisory lock: %v", err)
		}
	}(ctx, dao.db, lockID)

	mergedMetadata, err := mergeMetadata(
		ctx,
		dao.db,
		"caller_id",
		caller.CallerID,
		"caller",
		caller.Metadata,
		isPrivileged,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to merge metadata: %w", err)
	}

	caller.Metadata = mergedMetadata
	return dao.updateCaller(ctx, caller)
}

func (dao *CallerStoreDAO) updateCaller(
	ctx context.Context,
	caller *models.UpdateCallerRequest,
) (*models.Caller, error) {
	callerDB := CallerSchema{
		Balance:        caller.Balance,
		Status:         caller.Status,
		PlanType:       caller.PlanType,
		MonthlyFee:     caller.MonthlyFee,
		Email:          caller.Email,
		Phone:          caller.Phone,
		DataUsage:      caller.DataUsage,
		DataLimit:      caller.DataLimit,
		LastBillDate:   caller.LastBillDate,
		LastBillAmount: caller.LastBillAmount,
		Metadata:       caller.Metadata,
	}
	r, err := dao.db.NewUpdate().
		Model(&callerDB).
		Column(
			"balance", "status", "plan_type", "monthly_fee", "email", "phone",
			"data_usage", "data_limit", "last_bill_date", "last_bill_amount",
			"metadata", "updated_at",
		).
		OmitZero().
		Where("caller_id = ?", caller.CallerID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := r.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, models.NewNotFoundError("caller " + caller.CallerID)
	}

	// We can't return the updated caller above as we're using OmitZero,
	// so we need to get the updated caller from the DB
	return dao.Get(ctx, caller.CallerID)
}

// Delete removes a caller and its conversation log.
func (dao *CallerStoreDAO) Delete(ctx context.Context, callerID string) error {
	tx, err := dao.db.Begin()
	if err != nil {
		return err
	}
	defer rollbackOnError(tx)

	_, err = tx.NewDelete().
		Model((*ConversationSchema)(nil)).
		Where("caller_id = ?", callerID).
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to delete conversation log", err)
	}

	r, err := tx.NewDelete().
		Model((*CallerSchema)(nil)).
		Where("caller_id = ?", callerID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rowsAffected, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.NewNotFoundError("caller " + callerID)
	}

	return tx.Commit()
}

// ListAll lists all callers. The cursor is used to paginate results.
func (dao *CallerStoreDAO) ListAll(
	ctx context.Context,
	cursor int64,
	limit int,
) ([]*models.Caller, error) {
	var callersDB []*CallerSchema
	err := dao.db.NewSelect().
		Model(&callersDB).
		Where("id > ?", cursor).
		OrderExpr("id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	callers := make([]*models.Caller, len(callersDB))
	for i := range callers {
		caller, err := callerSchemaToCaller(callersDB[i])
		if err != nil {
			return nil, err
		}
		callers[i] = caller
	}

	return callers, nil
}

// GetAttributes returns the renderer placeholder map for a caller. An
// unknown caller yields an empty map, not an error.
func (dao *CallerStoreDAO) GetAttributes(
	ctx context.Context,
	callerID string,
) (map[string]string, error) {
	caller, err := dao.Get(ctx, callerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return caller.Attributes(), nil
}

func callerSchemaToCaller(callerDB *CallerSchema) (*models.Caller, error) {
	caller := &models.Caller{}
	if err := copier.Copy(caller, callerDB); err != nil {
		return nil, store.NewStorageError("failed to copy caller", err)
	}
	return caller, nil
}
