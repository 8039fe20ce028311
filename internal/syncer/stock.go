package syncer

import (
	"context"
	"fmt"

	"github.com/datasyncfood/datasync-worker/internal/logger"
	"github.com/datasyncfood/datasync-worker/internal/marketplace"
	"github.com/datasyncfood/datasync-worker/internal/models"
	"go.uber.org/zap"
)

// PushStock pushes the ERP's current stock and availability to the
// marketplace in bulk. Both mirrors are refreshed first; entities that do
// not exist remotely yet are merely logged, never created here — that is the
// export pipeline's job.
func (s *Syncer) PushStock(ctx context.Context, companyID uint, merchantID string) error {
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

	products, err := s.erpMirror.RowsByType(ctx, companyID, models.RowProduct)
	if err != nil {
		return err
	}

	var availability []marketplace.AvailabilityUpdate
	var stock []marketplace.StockUpdate
	for _, p := range products {
		remote, err := s.mcMirror.ProductByCode(ctx, companyID, p.ProductCode)
		if err != nil {
			return err
		}
		if remote == nil {
			logger.Log.Warn("product not in marketplace, stock push skipped",
				zap.Uint("companyId", companyID), zap.String("productCode", p.ProductCode))
			continue
		}

		state := marketplace.Unavailable
		if p.ProductAvailable {
			state = marketplace.Available
		}
		availability = append(availability, marketplace.AvailabilityUpdate{ID: remote.ProductID, Availability: state})
		stock = append(stock, marketplace.StockUpdate{ID: remote.ProductID, Stock: p.ProductStock})
	}

	items, err := s.erpMirror.RowsByType(ctx, companyID, models.RowVariationItem)
	if err != nil {
		return err
	}

	var itemAvailability []marketplace.VariationItemAvailabilityUpdate
	var itemStock []marketplace.VariationItemStockUpdate
	for _, item := range items {
		remote, err := s.mcMirror.ItemByCode(ctx, companyID, item.ItemCode)
		if err != nil {
			return err
		}
		if remote == nil {
			logger.Log.Warn("variation item not in marketplace, stock push skipped",
				zap.Uint("companyId", companyID), zap.String("itemCode", item.ItemCode))
			continue
		}

		state := marketplace.Unavailable
		if item.ItemAvailable {
			state = marketplace.Available
		}
		itemAvailability = append(itemAvailability, marketplace.VariationItemAvailabilityUpdate{
			VariationID:  remote.VariationID,
			ID:           remote.ItemID,
			Availability: state,
		})
		itemStock = append(itemStock, marketplace.VariationItemStockUpdate{
			VariationID: remote.VariationID,
			ID:          remote.ItemID,
			Stock:       item.ItemStock,
		})
	}

	if err := s.mc.UpdateProductAvailabilityBatch(ctx, companyID, availability); err != nil {
		return err
	}
	if err := s.mc.UpdateVariationItemAvailabilityBatch(ctx, companyID, itemAvailability); err != nil {
		return err
	}
	if err := s.mc.UpdateProductStockBatch(ctx, companyID, stock); err != nil {
		return err
	}
	if err := s.mc.UpdateVariationItemStockBatch(ctx, companyID, itemStock); err != nil {
		return err
	}

	logger.Log.Info("stock push finished",
		zap.Uint("companyId", companyID),
		zap.Int("products", len(stock)),
		zap.Int("items", len(itemStock)))
	return nil
}
