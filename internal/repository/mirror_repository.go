package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/datasyncfood/datasync-worker/internal/models"
	"gorm.io/gorm"
)

const insertBatchSize = 200

// MirrorRepository stores the locally persisted snapshot of one side's
// catalog. The same implementation backs both mirrors; only the table
// differs. A mirror is always refreshed destructively: DeleteByCompany
// followed by BulkInsert, never an incremental diff.
type MirrorRepository struct {
	db    *gorm.DB
	table string
}

func NewERPMirrorRepository(db *gorm.DB) *MirrorRepository {
	return &MirrorRepository{db: db, table: "erp_catalog"}
}

func NewMarketplaceMirrorRepository(db *gorm.DB) *MirrorRepository {
	return &MirrorRepository{db: db, table: "marketplace_catalog"}
}

func (r *MirrorRepository) DeleteByCompany(ctx context.Context, companyID uint) error {
	result := r.db.WithContext(ctx).Table(r.table).
		Where("company_id = ?", companyID).
		Delete(&models.CatalogRow{})
	if result.Error != nil {
		return fmt.Errorf("failed to clear %s for company %d: %w", r.table, companyID, result.Error)
	}
	return nil
}

func (r *MirrorRepository) BulkInsert(ctx context.Context, rows []models.CatalogRow) error {
	if len(rows) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Table(r.table).CreateInBatches(rows, insertBatchSize)
	if result.Error != nil {
		return fmt.Errorf("failed to insert into %s: %w", r.table, result.Error)
	}
	return nil
}

// Insert records a single row, used right after a remote creation so the
// mirror keeps reflecting what exists remotely within the same run.
func (r *MirrorRepository) Insert(ctx context.Context, row *models.CatalogRow) error {
	result := r.db.WithContext(ctx).Table(r.table).Create(row)
	if result.Error != nil {
		return fmt.Errorf("failed to insert into %s: %w", r.table, result.Error)
	}
	return nil
}

// RowsByType lists every row of one type for a company
func (r *MirrorRepository) RowsByType(ctx context.Context, companyID uint, rowType models.RowType) ([]models.CatalogRow, error) {
	var rows []models.CatalogRow
	result := r.db.WithContext(ctx).Table(r.table).
		Where("company_id = ? AND type = ?", companyID, rowType).
		Order("id ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, result.Error)
	}
	return rows, nil
}

// CategoryByCode resolves a category row by natural key; nil when absent
func (r *MirrorRepository) CategoryByCode(ctx context.Context, companyID uint, code string) (*models.CatalogRow, error) {
	return r.firstBy(ctx, companyID, models.RowCategory, "category_code = ?", code)
}

// ProductByCode resolves a product row by natural key; nil when absent
func (r *MirrorRepository) ProductByCode(ctx context.Context, companyID uint, code string) (*models.CatalogRow, error) {
	return r.firstBy(ctx, companyID, models.RowProduct, "product_code = ?", code)
}

// VariationByHash resolves a variation-header row by its name hash; nil when absent
func (r *MirrorRepository) VariationByHash(ctx context.Context, companyID uint, hash string) (*models.CatalogRow, error) {
	return r.firstBy(ctx, companyID, models.RowVariationHeader, "variation_hash = ?", hash)
}

// ItemByCode resolves a variation-item row by natural key; nil when absent
func (r *MirrorRepository) ItemByCode(ctx context.Context, companyID uint, code string) (*models.CatalogRow, error) {
	return r.firstBy(ctx, companyID, models.RowVariationItem, "item_code = ?", code)
}

// CategoryProductCount counts products linked to a category code. Categories
// with zero linked products are skipped by the export pipeline.
func (r *MirrorRepository) CategoryProductCount(ctx context.Context, companyID uint, categoryCode string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Table(r.table).
		Where("company_id = ? AND type = ? AND category_code = ?", companyID, models.RowProduct, categoryCode).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count products in %s: %w", r.table, result.Error)
	}
	return count, nil
}

func (r *MirrorRepository) firstBy(ctx context.Context, companyID uint, rowType models.RowType, cond string, arg string) (*models.CatalogRow, error) {
	var row models.CatalogRow
	result := r.db.WithContext(ctx).Table(r.table).
		Where("company_id = ? AND type = ?", companyID, rowType).
		Where(cond, arg).
		First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query %s: %w", r.table, result.Error)
	}
	return &row, nil
}
