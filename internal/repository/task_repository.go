package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/datasyncfood/datasync-worker/internal/models"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListActive returns a page of active tasks plus the total count
func (r *TaskRepository) ListActive(ctx context.Context, page, limit int, filter string) ([]models.Task, int64, error) {
	if page < 1 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.Task{}).Where("active = ?", true)
	if filter != "" {
		query = query.Where("name LIKE ?", "%"+filter+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	var tasks []models.Task
	result := query.
		Order("name ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&tasks)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", result.Error)
	}
	return tasks, total, nil
}

// GetByID retrieves a task by its id, or nil when no such task exists
func (r *TaskRepository) GetByID(ctx context.Context, taskID uint) (*models.Task, error) {
	var task models.Task
	result := r.db.WithContext(ctx).First(&task, taskID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query task %d: %w", taskID, result.Error)
	}
	return &task, nil
}
