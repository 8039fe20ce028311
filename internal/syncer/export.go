package syncer

import (
	"context"
	"fmt"

	"github.com/datasyncfood/datasync-worker/internal/logger"
	"github.com/datasyncfood/datasync-worker/internal/marketplace"
	"github.com/datasyncfood/datasync-worker/internal/models"
	"go.uber.org/zap"
)

// ExportCatalog runs the full creation pipeline for one company. Stages run
// strictly in order and any failure aborts the run; a retry starts over from
// the first mirror refresh, there is no checkpoint to resume from.
func (s *Syncer) ExportCatalog(ctx context.Context, companyID uint, merchantID string) error {
	if merchantID == "" {
		return fmt.Errorf("merchant do marketplace não configurado para a empresa %d", companyID)
	}
	baseURL, err := s.erpBaseURL(ctx, companyID)
	if err != nil {
		return err
	}

	if err := s.refreshMarketplaceMirror(ctx, companyID, merchantID); err != nil {
		return err
	}
	if err := s.refreshERPMirror(ctx, companyID, baseURL); err != nil {
		return err
	}
	if err := s.createCategories(ctx, companyID, merchantID); err != nil {
		return err
	}
	if err := s.createProducts(ctx, companyID, merchantID); err != nil {
		return err
	}
	if err := s.createVariationHeaders(ctx, companyID); err != nil {
		return err
	}
	if err := s.settle(ctx); err != nil {
		return err
	}
	if err := s.createVariationItems(ctx, companyID); err != nil {
		return err
	}

	logger.Log.Info("catalog export finished", zap.Uint("companyId", companyID))
	return nil
}

// createCategories creates every ERP category that has at least one linked
// product and does not yet exist in the marketplace. Categories without
// products would be orphaned remotely and are skipped.
func (s *Syncer) createCategories(ctx context.Context, companyID uint, merchantID string) error {
	categories, err := s.erpMirror.RowsByType(ctx, companyID, models.RowCategory)
	if err != nil {
		return err
	}

	for _, cat := range categories {
		linked, err := s.erpMirror.CategoryProductCount(ctx, companyID, cat.CategoryCode)
		if err != nil {
			return err
		}
		if linked == 0 {
			logger.Log.Info("skipping category without products",
				zap.Uint("companyId", companyID), zap.String("categoryCode", cat.CategoryCode))
			continue
		}

		name := truncate(cat.CategoryName, categoryNameLimit)
		if cat.CategoryCode == "" || name == "" {
			return fmt.Errorf("categoria inválida no ERP: código ou nome ausente")
		}

		existing, err := s.mcMirror.CategoryByCode(ctx, companyID, cat.CategoryCode)
		if err != nil {
			return err
		}
		if existing != nil {
			logger.Log.Debug("category already exists in marketplace",
				zap.Uint("companyId", companyID), zap.String("categoryCode", cat.CategoryCode))
			continue
		}

		created, err := s.mc.CreateCategory(ctx, companyID, marketplace.CreateCategoryRequest{
			MerchantID:   merchantID,
			Name:         name,
			ExternalCode: cat.CategoryCode,
		})
		if err != nil {
			return err
		}
		if err := s.mc.SetCategoryAvailability(ctx, companyID, created.ID, marketplace.Available); err != nil {
			return err
		}

		if err := s.mcMirror.Insert(ctx, &models.CatalogRow{
			CompanyID:    companyID,
			Type:         models.RowCategory,
			CategoryID:   created.ID,
			CategoryCode: cat.CategoryCode,
			CategoryName: name,
		}); err != nil {
			return err
		}

		logger.Log.Info("category created",
			zap.Uint("companyId", companyID),
			zap.String("categoryCode", cat.CategoryCode),
			zap.String("categoryId", created.ID))
	}
	return nil
}

// createProducts creates every ERP product missing from the marketplace,
// resolving the parent category id through the marketplace mirror. A product
// whose code already exists remotely is skipped, never updated.
func (s *Syncer) createProducts(ctx context.Context, companyID uint, merchantID string) error {
	products, err := s.erpMirror.RowsByType(ctx, companyID, models.RowProduct)
	if err != nil {
		return err
	}

	for _, p := range products {
		category, err := s.mcMirror.CategoryByCode(ctx, companyID, p.CategoryCode)
		if err != nil {
			return err
		}
		if category == nil {
			return fmt.Errorf("categoria %s do produto %s não encontrada no marketplace", p.CategoryCode, p.ProductCode)
		}

		existing, err := s.mcMirror.ProductByCode(ctx, companyID, p.ProductCode)
		if err != nil {
			return err
		}
		if existing != nil {
			logger.Log.Debug("product already exists in marketplace",
				zap.Uint("companyId", companyID), zap.String("productCode", p.ProductCode))
			continue
		}

		created, err := s.mc.CreateProduct(ctx, companyID, marketplace.CreateProductRequest{
			MerchantID:   merchantID,
			CategoryID:   category.CategoryID,
			Name:         p.ProductName,
			Description:  p.ProductDescription,
			ExternalCode: p.ProductCode,
			Price:        p.ProductPrice,
		})
		if err != nil {
			return err
		}
		if err := s.mc.SetProductAvailability(ctx, companyID, created.ID, marketplace.Available); err != nil {
			return err
		}

		for _, url := range p.ProductImageURLs {
			if err := s.mc.AddProductImage(ctx, companyID, created.ID, url); err != nil {
				return err
			}
		}

		row := p
		row.ID = 0
		row.CategoryID = category.CategoryID
		row.ProductID = created.ID
		row.ProductAvailable = true
		if err := s.mcMirror.Insert(ctx, &row); err != nil {
			return err
		}

		logger.Log.Info("product created",
			zap.Uint("companyId", companyID),
			zap.String("productCode", p.ProductCode),
			zap.String("productId", created.ID))
	}
	return nil
}

// createVariationHeaders creates missing variation headers, resolving the
// parent product by code and matching existing headers by the normalized
// name hash.
func (s *Syncer) createVariationHeaders(ctx context.Context, companyID uint) error {
	headers, err := s.erpMirror.RowsByType(ctx, companyID, models.RowVariationHeader)
	if err != nil {
		return err
	}

	for _, h := range headers {
		product, err := s.mcMirror.ProductByCode(ctx, companyID, h.ProductCode)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("produto %s da variação %s não encontrado no marketplace", h.ProductCode, h.VariationName)
		}

		existing, err := s.mcMirror.VariationByHash(ctx, companyID, h.VariationHash)
		if err != nil {
			return err
		}
		if existing != nil {
			logger.Log.Debug("variation header already exists in marketplace",
				zap.Uint("companyId", companyID),
				zap.String("productCode", h.ProductCode),
				zap.String("variationName", h.VariationName))
			continue
		}

		created, err := s.mc.CreateVariation(ctx, companyID, product.ProductID, marketplace.CreateVariationRequest{
			Name:     h.VariationName,
			Required: h.VariationRequired,
			Minimum:  h.VariationMin,
			Maximum:  h.VariationMax,
		})
		if err != nil {
			return err
		}
		if err := s.mc.ReorderVariations(ctx, companyID, product.ProductID, []marketplace.VariationOrder{
			{ID: created.ID, Priority: h.VariationOrder},
		}); err != nil {
			return err
		}

		row := h
		row.ID = 0
		row.CategoryID = product.CategoryID
		row.ProductID = product.ProductID
		row.VariationID = created.ID
		if err := s.mcMirror.Insert(ctx, &row); err != nil {
			return err
		}

		logger.Log.Info("variation header created",
			zap.Uint("companyId", companyID),
			zap.String("productCode", h.ProductCode),
			zap.String("variationId", created.ID))
	}
	return nil
}

// createVariationItems creates missing variation items, resolving the
// parent header by name hash. Runs only after the settling delay.
func (s *Syncer) createVariationItems(ctx context.Context, companyID uint) error {
	items, err := s.erpMirror.RowsByType(ctx, companyID, models.RowVariationItem)
	if err != nil {
		return err
	}

	for _, item := range items {
		header, err := s.mcMirror.VariationByHash(ctx, companyID, item.VariationHash)
		if err != nil {
			return err
		}
		if header == nil {
			return fmt.Errorf("variação %s do item %s não encontrada no marketplace", item.VariationName, item.ItemCode)
		}

		existing, err := s.mcMirror.ItemByCode(ctx, companyID, item.ItemCode)
		if err != nil {
			return err
		}
		if existing != nil {
			logger.Log.Debug("variation item already exists in marketplace",
				zap.Uint("companyId", companyID), zap.String("itemCode", item.ItemCode))
			continue
		}

		created, err := s.mc.CreateVariationItem(ctx, companyID, header.VariationID, marketplace.CreateVariationItemRequest{
			Name:         item.ItemName,
			ExternalCode: item.ItemCode,
			Price:        item.ItemPrice,
		})
		if err != nil {
			return err
		}
		if err := s.mc.SetVariationItemAvailability(ctx, companyID, header.VariationID, created.ID, marketplace.Available); err != nil {
			return err
		}

		row := item
		row.ID = 0
		row.CategoryID = header.CategoryID
		row.ProductID = header.ProductID
		row.VariationID = header.VariationID
		row.ItemID = created.ID
		row.ItemAvailable = true
		if err := s.mcMirror.Insert(ctx, &row); err != nil {
			return err
		}

		logger.Log.Info("variation item created",
			zap.Uint("companyId", companyID),
			zap.String("itemCode", item.ItemCode),
			zap.String("itemId", created.ID))
	}
	return nil
}
