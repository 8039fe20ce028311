package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/datasyncfood/datasync-worker/internal/models"
	"gorm.io/gorm"
)

// ErrNotClaimed reports that a conditional claim matched no row, either
// because another instance claimed the pairing first or because its status
// changed underneath us.
var ErrNotClaimed = errors.New("pairing already claimed")

type TaskCompanyRepository struct {
	db *gorm.DB
}

func NewTaskCompanyRepository(db *gorm.DB) *TaskCompanyRepository {
	return &TaskCompanyRepository{db: db}
}

// Request inserts a new PENDENTE pairing ("solicitar")
func (r *TaskCompanyRepository) Request(ctx context.Context, pairing *models.TaskCompany) error {
	if pairing.Status == "" {
		pairing.Status = models.StatusPending
	}
	result := r.db.WithContext(ctx).Create(pairing)
	if result.Error != nil {
		return fmt.Errorf("failed to request task: %w", result.Error)
	}
	return nil
}

// Latest returns the highest-id pairing for the given task/company pair, or
// nil when none exists.
func (r *TaskCompanyRepository) Latest(ctx context.Context, taskID, companyID uint) (*models.TaskCompany, error) {
	var pairing models.TaskCompany
	result := r.db.WithContext(ctx).
		Where("task_id = ? AND company_id = ?", taskID, companyID).
		Order("id DESC").
		First(&pairing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest pairing: %w", result.Error)
	}
	return &pairing, nil
}

// NextReady returns the ready queue entry with the lowest pairing id, or nil
// when the queue is empty.
func (r *TaskCompanyRepository) NextReady(ctx context.Context) (*models.QueueItem, error) {
	var item models.QueueItem
	result := r.db.WithContext(ctx).
		Table("vw_task_queue").
		Where("ready = ?", true).
		Order("pairing_id ASC").
		First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query task queue: %w", result.Error)
	}
	return &item, nil
}

// Claim conditionally moves a pairing from PENDENTE to PROCESSANDO. The
// status guard makes the claim atomic in storage, so two instances cannot
// both win the same pairing.
func (r *TaskCompanyRepository) Claim(ctx context.Context, pairingID uint64) error {
	result := r.db.WithContext(ctx).Model(&models.TaskCompany{}).
		Where("id = ? AND status = ?", pairingID, models.StatusPending).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to claim pairing %d: %w", pairingID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotClaimed
	}
	return nil
}

// Finish records a successful run
func (r *TaskCompanyRepository) Finish(ctx context.Context, pairingID uint64, feedback string) error {
	return r.updateStatus(ctx, pairingID, map[string]interface{}{
		"status":   models.StatusFinished,
		"feedback": feedback,
	})
}

// Fail records a failed run with the normalized error message
func (r *TaskCompanyRepository) Fail(ctx context.Context, pairingID uint64, errMsg string) error {
	return r.updateStatus(ctx, pairingID, map[string]interface{}{
		"status": models.StatusError,
		"error":  errMsg,
	})
}

func (r *TaskCompanyRepository) updateStatus(ctx context.Context, pairingID uint64, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.TaskCompany{}).
		Where("id = ?", pairingID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update pairing %d: %w", pairingID, result.Error)
	}
	return nil
}
