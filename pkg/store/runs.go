package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/resolution"
)

func (r *Repository) StartRun(ctx context.Context, run *models.ResolutionRun) error {
	row := runFromModel(run)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) FinishRun(ctx context.Context, run *models.ResolutionRun) error {
	row := runFromModel(run)
	return r.db.WithContext(ctx).Model(&ResolutionRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":      row.Status,
			"stats":       row.Stats,
			"error":       row.Error,
			"finished_at": row.FinishedAt,
		}).Error
}

func (r *Repository) GetRun(ctx context.Context, id string) (*models.ResolutionRun, error) {
	var row ResolutionRun
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return nil, fmt.Errorf("run %s: %w", id, resolution.ErrRunNotFound)
		}
		return nil, err
	}
	return row.toModel(), nil
}
