package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	app "github.com/shopdash/backend/internal/application/dashboard"
)

const orderBatchSize = 200

// GormRunRepository stores completed runs and their canonical orders. It is
// both a run sink and the run reader backing the HTTP views.
type GormRunRepository struct {
	db *gorm.DB
}

var (
	_ app.Sink       = (*GormRunRepository)(nil)
	_ app.RunReader  = (*GormRunRepository)(nil)
	_ app.RunHistory = (*GormRunRepository)(nil)
)

// NewGormRunRepository creates a new run repository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// Name identifies the sink in run reports
func (r *GormRunRepository) Name() string { return "database" }

// Publish persists the run and its orders in one transaction
func (r *GormRunRepository) Publish(ctx context.Context, run *app.Run) error {
	model, err := RunModelFromRun(run)
	if err != nil {
		return fmt.Errorf("persistence: invalid run id %q: %w", run.ID, err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Orders").Create(model).Error; err != nil {
			return fmt.Errorf("persistence: save run: %w", err)
		}
		if len(model.Orders) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(model.Orders, orderBatchSize).Error; err != nil {
			return fmt.Errorf("persistence: save run orders: %w", err)
		}
		return nil
	})
}

// LatestRun returns the most recently finished run
func (r *GormRunRepository) LatestRun(ctx context.Context) (*app.Run, error) {
	var model RunModel
	err := r.db.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("finished_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, app.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: load latest run: %w", err)
	}
	return model.ToRun(), nil
}

// FindByID returns a stored run
func (r *GormRunRepository) FindByID(ctx context.Context, id string) (*app.Run, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, app.ErrRunNotFound
	}

	var model RunModel
	err = r.db.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", runID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, app.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: load run %s: %w", id, err)
	}
	return model.ToRun(), nil
}

// List returns the newest runs first, without payloads or orders
func (r *GormRunRepository) List(ctx context.Context, limit int) ([]app.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	var models []RunModel
	err := r.db.WithContext(ctx).
		Select("id", "finished_at", "summary_date", "total_orders", "total_revenue",
			"pending_shipments", "low_stock_alerts", "degraded").
		Order("finished_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("persistence: list runs: %w", err)
	}

	out := make([]app.RunSummary, len(models))
	for i := range models {
		out[i] = models[i].toSummary()
	}
	return out, nil
}

// DeleteBefore removes runs finished before the cutoff and returns how many
// were removed.
func (r *GormRunRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&RunModel{}).Select("id").Where("finished_at < ?", cutoff)
		if err := tx.Where("run_id IN (?)", sub).Delete(&RunOrderModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("finished_at < ?", cutoff).Delete(&RunModel{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("persistence: delete runs: %w", err)
	}
	return deleted, nil
}
