// Package syncer drives the catalog export pipeline: both mirrors are
// destructively refreshed, then missing entities are created in the
// marketplace in strict order (categories, products, variation headers,
// variation items) with a settling delay before item creation. Existing
// remote entities are never mutated; per entity the only outcomes are
// "create", "skip" or a hard failure that aborts the run.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/datasyncfood/datasync-worker/internal/erp"
	"github.com/datasyncfood/datasync-worker/internal/marketplace"
	"github.com/datasyncfood/datasync-worker/internal/models"
	"github.com/datasyncfood/datasync-worker/internal/naturalkey"
	"github.com/datasyncfood/datasync-worker/internal/repository"
)

// Remote field limit for category names.
const categoryNameLimit = 100

// ERPAPI is the slice of the ERP client the pipeline needs.
type ERPAPI interface {
	Categories(ctx context.Context, companyID uint, baseURL string) ([]erp.Category, error)
	Products(ctx context.Context, companyID uint, baseURL string) ([]erp.Product, error)
}

// MarketplaceAPI is the slice of the marketplace client the pipeline needs.
type MarketplaceAPI interface {
	Categories(ctx context.Context, companyID uint, merchantID string) ([]marketplace.Category, error)
	Products(ctx context.Context, companyID uint) ([]marketplace.Product, error)
	CreateCategory(ctx context.Context, companyID uint, req marketplace.CreateCategoryRequest) (*marketplace.Category, error)
	SetCategoryAvailability(ctx context.Context, companyID uint, categoryID string, availability marketplace.Availability) error
	CreateProduct(ctx context.Context, companyID uint, req marketplace.CreateProductRequest) (*marketplace.Product, error)
	SetProductAvailability(ctx context.Context, companyID uint, productID string, availability marketplace.Availability) error
	AddProductImage(ctx context.Context, companyID uint, productID, url string) error
	CreateVariation(ctx context.Context, companyID uint, productID string, req marketplace.CreateVariationRequest) (*marketplace.Variation, error)
	ReorderVariations(ctx context.Context, companyID uint, productID string, orders []marketplace.VariationOrder) error
	CreateVariationItem(ctx context.Context, companyID uint, variationID string, req marketplace.CreateVariationItemRequest) (*marketplace.VariationItem, error)
	SetVariationItemAvailability(ctx context.Context, companyID uint, variationID, itemID string, availability marketplace.Availability) error
	UpdateProductAvailabilityBatch(ctx context.Context, companyID uint, updates []marketplace.AvailabilityUpdate) error
	UpdateProductStockBatch(ctx context.Context, companyID uint, updates []marketplace.StockUpdate) error
	UpdateVariationItemAvailabilityBatch(ctx context.Context, companyID uint, updates []marketplace.VariationItemAvailabilityUpdate) error
	UpdateVariationItemStockBatch(ctx context.Context, companyID uint, updates []marketplace.VariationItemStockUpdate) error
}

// CompanyStore resolves the company's ERP base URL.
type CompanyStore interface {
	GetByID(ctx context.Context, companyID uint) (*models.Company, error)
}

type Syncer struct {
	companies CompanyStore
	erp       ERPAPI
	mc        MarketplaceAPI
	erpMirror *repository.MirrorRepository
	mcMirror  *repository.MirrorRepository

	// settleDelay is the wait between the last variation-header creation
	// and the first item creation. The marketplace indexes new headers
	// asynchronously; items created too soon are rejected or dropped.
	settleDelay time.Duration
}

func New(
	companies CompanyStore,
	erpAPI ERPAPI,
	mcAPI MarketplaceAPI,
	erpMirror *repository.MirrorRepository,
	mcMirror *repository.MirrorRepository,
	settleDelay time.Duration,
) *Syncer {
	return &Syncer{
		companies:   companies,
		erp:         erpAPI,
		mc:          mcAPI,
		erpMirror:   erpMirror,
		mcMirror:    mcMirror,
		settleDelay: settleDelay,
	}
}

func (s *Syncer) erpBaseURL(ctx context.Context, companyID uint) (string, error) {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return "", err
	}
	if company.ERPBaseURL == nil || *company.ERPBaseURL == "" {
		return "", fmt.Errorf("ERP não configurado para a empresa %d", companyID)
	}
	return *company.ERPBaseURL, nil
}

// refreshMarketplaceMirror rebuilds the local reflection of the current
// remote marketplace state, used for existence checks and id resolution.
func (s *Syncer) refreshMarketplaceMirror(ctx context.Context, companyID uint, merchantID string) error {
	if err := s.mcMirror.DeleteByCompany(ctx, companyID); err != nil {
		return err
	}

	categories, err := s.mc.Categories(ctx, companyID, merchantID)
	if err != nil {
		return err
	}
	products, err := s.mc.Products(ctx, companyID)
	if err != nil {
		return err
	}

	categoryByID := make(map[string]marketplace.Category, len(categories))
	rows := make([]models.CatalogRow, 0, len(categories)+len(products))
	for _, cat := range categories {
		categoryByID[cat.ID] = cat
		rows = append(rows, models.CatalogRow{
			CompanyID:    companyID,
			Type:         models.RowCategory,
			CategoryID:   cat.ID,
			CategoryCode: cat.ExternalCode,
			CategoryName: cat.Name,
		})
	}

	for _, p := range products {
		cat := categoryByID[p.CategoryID]
		base := models.CatalogRow{
			CompanyID:          companyID,
			CategoryID:         cat.ID,
			CategoryCode:       cat.ExternalCode,
			CategoryName:       cat.Name,
			ProductID:          p.ID,
			ProductCode:        p.ExternalCode,
			ProductName:        p.Name,
			ProductDescription: p.Description,
			ProductPrice:       p.Price,
			ProductAvailable:   p.Availability == marketplace.Available,
		}

		productRow := base
		productRow.Type = models.RowProduct
		rows = append(rows, productRow)

		for _, v := range p.Variations {
			headerRow := base
			headerRow.Type = models.RowVariationHeader
			headerRow.VariationID = v.ID
			headerRow.VariationName = v.Name
			headerRow.VariationHash = naturalkey.VariationHash(p.ExternalCode, v.Name)
			headerRow.VariationRequired = v.Required
			headerRow.VariationMin = v.Minimum
			headerRow.VariationMax = v.Maximum
			headerRow.VariationOrder = v.Priority
			rows = append(rows, headerRow)

			for _, item := range v.Items {
				itemRow := headerRow
				itemRow.Type = models.RowVariationItem
				itemRow.ItemID = item.ID
				itemRow.ItemCode = item.ExternalCode
				itemRow.ItemName = item.Name
				itemRow.ItemPrice = item.Price
				itemRow.ItemStock = item.Stock
				itemRow.ItemAvailable = item.Availability == marketplace.Available
				rows = append(rows, itemRow)
			}
		}
	}

	return s.mcMirror.BulkInsert(ctx, rows)
}

// refreshERPMirror rebuilds the local snapshot of the ERP catalog, the
// source of truth for what must exist in the marketplace.
func (s *Syncer) refreshERPMirror(ctx context.Context, companyID uint, baseURL string) error {
	if err := s.erpMirror.DeleteByCompany(ctx, companyID); err != nil {
		return err
	}

	categories, err := s.erp.Categories(ctx, companyID, baseURL)
	if err != nil {
		return err
	}
	products, err := s.erp.Products(ctx, companyID, baseURL)
	if err != nil {
		return err
	}

	categoryByCode := make(map[string]erp.Category, len(categories))
	rows := make([]models.CatalogRow, 0, len(categories)+len(products))
	for _, cat := range categories {
		categoryByCode[cat.Code] = cat
		rows = append(rows, models.CatalogRow{
			CompanyID:    companyID,
			Type:         models.RowCategory,
			CategoryCode: cat.Code,
			CategoryName: cat.Name,
		})
	}

	for _, p := range products {
		cat := categoryByCode[p.CategoryCode]
		base := models.CatalogRow{
			CompanyID:          companyID,
			CategoryCode:       p.CategoryCode,
			CategoryName:       cat.Name,
			ProductCode:        p.Code,
			ProductName:        p.Name,
			ProductDescription: p.Description,
			ProductPrice:       p.Price,
			ProductImageURLs:   p.ImageURLs,
			ProductAvailable:   p.Available,
			ProductStock:       p.Stock,
		}

		productRow := base
		productRow.Type = models.RowProduct
		rows = append(rows, productRow)

		for order, v := range p.Variations {
			headerRow := base
			headerRow.Type = models.RowVariationHeader
			headerRow.VariationName = v.Name
			headerRow.VariationHash = naturalkey.VariationHash(p.Code, v.Name)
			headerRow.VariationRequired = v.Required
			headerRow.VariationMin = v.Minimum
			headerRow.VariationMax = v.Maximum
			headerRow.VariationOrder = order + 1
			rows = append(rows, headerRow)

			for _, item := range v.Items {
				itemRow := headerRow
				itemRow.Type = models.RowVariationItem
				itemRow.ItemCode = item.Code
				itemRow.ItemName = item.Name
				itemRow.ItemPrice = item.Price
				itemRow.ItemStock = item.Stock
				itemRow.ItemAvailable = item.Available
				rows = append(rows, itemRow)
			}
		}
	}

	return s.erpMirror.BulkInsert(ctx, rows)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// settle waits out the marketplace's indexing of freshly created headers.
func (s *Syncer) settle(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.settleDelay):
		return nil
	}
}
