package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/datasyncfood/datasync-worker/internal/logger"
	"go.uber.org/zap"
)

// Chunk sizes tuned to the remote endpoints. Availability is a per-item
// PATCH, so small concurrent chunks; stock is a bulk PATCH, so larger ones.
const (
	availabilityChunkSize       = 15
	productStockChunkSize       = 100
	variationItemStockChunkSize = 50
)

func errNoSource() error {
	return fmt.Errorf("marketplace client source is not configured")
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// UpdateProductAvailabilityBatch toggles availability for many products.
// Items within a chunk are dispatched concurrently and a failing item does
// not abort the chunk or the batch; the only hard failure mode is not being
// able to resolve an authenticated client at all.
func (c *Client) UpdateProductAvailabilityBatch(ctx context.Context, companyID uint, updates []AvailabilityUpdate) error {
	if c.source == nil {
		return errNoSource()
	}
	hc, err := c.source.MarketplaceClient(ctx, companyID)
	if err != nil {
		return err
	}

	for _, batch := range chunk(updates, availabilityChunkSize) {
		var wg sync.WaitGroup
		for _, u := range batch {
			wg.Add(1)
			go func(u AvailabilityUpdate) {
				defer wg.Done()
				path := "/products/" + u.ID + "/availability/" + string(u.Availability)
				if err := c.doWith(ctx, hc, http.MethodPatch, path, nil, nil); err != nil {
					logger.Log.Error("failed to update product availability",
						zap.String("productId", u.ID), zap.Error(err))
				}
			}(u)
		}
		wg.Wait()
	}
	return nil
}

// UpdateVariationItemAvailabilityBatch toggles availability for many
// variation items with the same per-item isolation as products.
func (c *Client) UpdateVariationItemAvailabilityBatch(ctx context.Context, companyID uint, updates []VariationItemAvailabilityUpdate) error {
	if c.source == nil {
		return errNoSource()
	}
	hc, err := c.source.MarketplaceClient(ctx, companyID)
	if err != nil {
		return err
	}

	for _, batch := range chunk(updates, availabilityChunkSize) {
		var wg sync.WaitGroup
		for _, u := range batch {
			wg.Add(1)
			go func(u VariationItemAvailabilityUpdate) {
				defer wg.Done()
				path := "/variations/" + u.VariationID + "/items/" + u.ID + "/availability/" + string(u.Availability)
				if err := c.doWith(ctx, hc, http.MethodPatch, path, nil, nil); err != nil {
					logger.Log.Error("failed to update variation item availability",
						zap.String("variationId", u.VariationID),
						zap.String("itemId", u.ID), zap.Error(err))
				}
			}(u)
		}
		wg.Wait()
	}
	return nil
}

// UpdateProductStockBatch pushes stock levels in bulk PATCHes of 100. The
// endpoint is all-or-nothing per request, so a chunk failure aborts the
// whole batch; there is no per-item isolation at this granularity.
func (c *Client) UpdateProductStockBatch(ctx context.Context, companyID uint, updates []StockUpdate) error {
	for _, batch := range chunk(updates, productStockChunkSize) {
		if err := c.do(ctx, companyID, http.MethodPatch, "/products/stock", batch, nil); err != nil {
			return err
		}
	}
	return nil
}

// UpdateVariationItemStockBatch pushes variation-item stock levels. The
// endpoint is scoped to one variation, so updates are grouped by variation
// id first and each group split into bulk PATCHes of 50. Like product
// stock, a failed chunk aborts the batch.
func (c *Client) UpdateVariationItemStockBatch(ctx context.Context, companyID uint, updates []VariationItemStockUpdate) error {
	groups := make(map[string][]VariationItemStockUpdate)
	var order []string
	for _, u := range updates {
		if _, ok := groups[u.VariationID]; !ok {
			order = append(order, u.VariationID)
		}
		groups[u.VariationID] = append(groups[u.VariationID], u)
	}

	for _, variationID := range order {
		for _, batch := range chunk(groups[variationID], variationItemStockChunkSize) {
			path := "/variations/" + variationID + "/items/stock"
			if err := c.do(ctx, companyID, http.MethodPatch, path, batch, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
