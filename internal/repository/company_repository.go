package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/datasyncfood/datasync-worker/internal/models"
	"gorm.io/gorm"
)

// ErrCompanyNotFound reports a lookup for a company id that does not exist.
var ErrCompanyNotFound = errors.New("company not found")

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// GetByID retrieves a company by its id
func (r *CompanyRepository) GetByID(ctx context.Context, companyID uint) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).First(&company, companyID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("company %d: %w", companyID, ErrCompanyNotFound)
		}
		return nil, fmt.Errorf("failed to query company: %w", result.Error)
	}
	return &company, nil
}

// Create registers a new company
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Create(company)
	if result.Error != nil {
		return fmt.Errorf("failed to create company: %w", result.Error)
	}
	return nil
}

// FindByRegistrationOrTaxID checks for an existing company before onboarding
func (r *CompanyRepository) FindByRegistrationOrTaxID(ctx context.Context, registration, taxID string) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).
		Where("registration = ?", registration).
		Or("tax_id = ?", taxID).
		First(&company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query company: %w", result.Error)
	}
	return &company, nil
}

// List returns a page of companies plus the total row count. orderBy is
// validated against the actual table columns; unknown columns fall back to
// name so user input can never inject an ORDER BY expression.
func (r *CompanyRepository) List(ctx context.Context, page, limit int, filter, orderBy, order string) ([]models.Company, int64, error) {
	if page < 1 {
		page = 1
	}

	direction := "asc"
	if strings.EqualFold(order, "desc") {
		direction = "desc"
	}

	columns, err := r.db.Migrator().ColumnTypes(&models.Company{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to inspect company columns: %w", err)
	}
	orderColumn := "name"
	for _, c := range columns {
		if c.Name() == orderBy {
			orderColumn = orderBy
			break
		}
	}

	query := r.db.WithContext(ctx).Model(&models.Company{})
	if filter != "" {
		like := "%" + filter + "%"
		query = query.Where(
			r.db.Where("name LIKE ?", like).
				Or("registration LIKE ?", like).
				Or("tax_id LIKE ?", like),
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count companies: %w", err)
	}

	var companies []models.Company
	result := query.
		Order(orderColumn + " " + direction).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&companies)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", result.Error)
	}
	return companies, total, nil
}

// UpdateERPToken persists a refreshed ERP token and its local expiry
func (r *CompanyRepository) UpdateERPToken(ctx context.Context, companyID uint, token string, expiresAt int64) error {
	return r.updateColumns(ctx, companyID, map[string]interface{}{
		"erp_token":     token,
		"erp_token_exp": expiresAt,
	})
}

// UpdateMarketplaceToken persists a refreshed marketplace token and its local expiry
func (r *CompanyRepository) UpdateMarketplaceToken(ctx context.Context, companyID uint, token string, expiresAt int64) error {
	return r.updateColumns(ctx, companyID, map[string]interface{}{
		"marketplace_token":     token,
		"marketplace_token_exp": expiresAt,
	})
}

// UpdateERPConfig records the result of ERP device provisioning
func (r *CompanyRepository) UpdateERPConfig(ctx context.Context, companyID uint, updates map[string]interface{}) error {
	return r.updateColumns(ctx, companyID, updates)
}

// ClearERPConfig wipes the ERP credentials after a failed provisioning
func (r *CompanyRepository) ClearERPConfig(ctx context.Context, companyID uint) error {
	return r.updateColumns(ctx, companyID, map[string]interface{}{
		"erp_qrcode_url":     nil,
		"erp_base_url":       nil,
		"erp_client_id":      nil,
		"erp_client_secret":  nil,
		"erp_company_name":   nil,
		"erp_company_tax_id": nil,
		"erp_token":          nil,
		"erp_token_exp":      0,
	})
}

func (r *CompanyRepository) updateColumns(ctx context.Context, companyID uint, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", companyID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update company %d: %w", companyID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("company %d not found", companyID)
	}
	return nil
}
