package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/datasyncfood/datasync-worker/internal/logger"
	"go.uber.org/zap"
)

const productsPageSize = 500

// ClientSource yields a bearer-authenticated HTTP client for a company,
// refreshing the cached token when needed. Implemented by the auth manager.
type ClientSource interface {
	MarketplaceClient(ctx context.Context, companyID uint) (*http.Client, error)
}

// Client is the typed binding for the marketplace catalog API. All
// company-scoped calls go through the ClientSource; only Authenticate runs
// unauthenticated.
type Client struct {
	baseURL string
	http    *http.Client
	source  ClientSource

	// tokenValidity is how long a freshly issued token is trusted locally.
	// The provider issues 4h tokens; keeping the window shorter means a
	// token is never used close to its real expiry.
	tokenValidity time.Duration
}

func NewClient(baseURL string, timeout, tokenValidity time.Duration) *Client {
	return &Client{
		baseURL:       baseURL,
		http:          &http.Client{Timeout: timeout},
		tokenValidity: tokenValidity,
	}
}

// SetSource wires the authenticated-client factory. Set once at startup;
// separate from NewClient because the auth manager needs this client for
// token refreshes.
func (c *Client) SetSource(source ClientSource) {
	c.source = source
}

// Authenticate exchanges the merchant's username/password for a bearer token.
// The returned expiry is now plus the configured validity window.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, int64, error) {
	body := map[string]string{"username": username, "password": password}
	var out AuthResponse
	if err := c.doWith(ctx, c.http, http.MethodPost, "/auth/token", body, &out); err != nil {
		return "", 0, err
	}
	expiresAt := time.Now().Add(c.tokenValidity).Unix()
	return out.Token, expiresAt, nil
}

// CurrentUser returns the authenticated user, whose id is the merchant id
func (c *Client) CurrentUser(ctx context.Context, companyID uint) (*User, error) {
	var out User
	if err := c.do(ctx, companyID, http.MethodGet, "/auth/user", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMerchant returns merchant details
func (c *Client) GetMerchant(ctx context.Context, companyID uint, merchantID string) (*Merchant, error) {
	var out Merchant
	if err := c.do(ctx, companyID, http.MethodGet, "/merchants/"+merchantID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories lists every category of a merchant
func (c *Client) Categories(ctx context.Context, companyID uint, merchantID string) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, companyID, http.MethodGet, "/categories?merchantId="+merchantID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Products lists the merchant's full product catalog. The API paginates;
// there is no total-count metadata, so pages are fetched until one comes
// back empty. A failed page discards everything fetched so far.
func (c *Client) Products(ctx context.Context, companyID uint) ([]Product, error) {
	var all []Product
	for page := 1; ; page++ {
		path := fmt.Sprintf("/products?pageNumber=%d&pageSize=%d", page, productsPageSize)
		var batch []Product
		if err := c.do(ctx, companyID, http.MethodGet, path, nil, &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
	}
	return all, nil
}

// ProductByID returns one product with its variations
func (c *Client) ProductByID(ctx context.Context, companyID uint, productID string) (*Product, error) {
	var out Product
	if err := c.do(ctx, companyID, http.MethodGet, "/products/"+productID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCategory registers a new category
func (c *Client) CreateCategory(ctx context.Context, companyID uint, req CreateCategoryRequest) (*Category, error) {
	var out Category
	if err := c.do(ctx, companyID, http.MethodPost, "/categories", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct registers a new product
func (c *Client) CreateProduct(ctx context.Context, companyID uint, req CreateProductRequest) (*Product, error) {
	var out Product
	if err := c.do(ctx, companyID, http.MethodPost, "/products", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddProductImage attaches an image to a product by URL
func (c *Client) AddProductImage(ctx context.Context, companyID uint, productID, url string) error {
	body := map[string]interface{}{"url": url, "jpegQuality": 100}
	return c.do(ctx, companyID, http.MethodPost, "/products/"+productID+"/images/url", body, nil)
}

// CreateVariation registers a variation header under a product
func (c *Client) CreateVariation(ctx context.Context, companyID uint, productID string, req CreateVariationRequest) (*Variation, error) {
	var out Variation
	if err := c.do(ctx, companyID, http.MethodPost, "/products/"+productID+"/variations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReorderVariations sets the display priority of a product's variations
func (c *Client) ReorderVariations(ctx context.Context, companyID uint, productID string, orders []VariationOrder) error {
	return c.do(ctx, companyID, http.MethodPatch, "/products/"+productID+"/variations/reorder", orders, nil)
}

// CreateVariationItem registers an item under a variation header
func (c *Client) CreateVariationItem(ctx context.Context, companyID uint, variationID string, req CreateVariationItemRequest) (*VariationItem, error) {
	var out VariationItem
	if err := c.do(ctx, companyID, http.MethodPost, "/variations/"+variationID+"/items", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetCategoryAvailability toggles a category
func (c *Client) SetCategoryAvailability(ctx context.Context, companyID uint, categoryID string, availability Availability) error {
	return c.do(ctx, companyID, http.MethodPatch, "/categories/"+categoryID+"/availability/"+string(availability), nil, nil)
}

// SetProductAvailability toggles a product
func (c *Client) SetProductAvailability(ctx context.Context, companyID uint, productID string, availability Availability) error {
	return c.do(ctx, companyID, http.MethodPatch, "/products/"+productID+"/availability/"+string(availability), nil, nil)
}

// SetVariationItemAvailability toggles a variation item
func (c *Client) SetVariationItemAvailability(ctx context.Context, companyID uint, variationID, itemID string, availability Availability) error {
	return c.do(ctx, companyID, http.MethodPatch, "/variations/"+variationID+"/items/"+itemID+"/availability/"+string(availability), nil, nil)
}

// SetStockControl toggles per-product stock tracking
func (c *Client) SetStockControl(ctx context.Context, companyID uint, productID string, active bool) error {
	return c.do(ctx, companyID, http.MethodPatch, fmt.Sprintf("/products/%s/stock/%t", productID, active), nil, nil)
}

// DeleteCategory removes a category; a 404 means it is already gone
func (c *Client) DeleteCategory(ctx context.Context, companyID uint, categoryID string) error {
	err := c.do(ctx, companyID, http.MethodDelete, "/categories/"+categoryID, nil, nil)
	return ignoreNotFound(err, "category", categoryID)
}

// DeleteProduct removes a product; a 404 means it is already gone
func (c *Client) DeleteProduct(ctx context.Context, companyID uint, productID string) error {
	err := c.do(ctx, companyID, http.MethodDelete, "/products/"+productID, nil, nil)
	return ignoreNotFound(err, "product", productID)
}

func ignoreNotFound(err error, kind, id string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		logger.Log.Warn("marketplace entity already absent",
			zap.String("kind", kind), zap.String("id", id))
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, companyID uint, method, path string, body, out interface{}) error {
	if c.source == nil {
		return fmt.Errorf("marketplace client source is not configured")
	}
	hc, err := c.source.MarketplaceClient(ctx, companyID)
	if err != nil {
		return err
	}
	return c.doWith(ctx, hc, method, path, body, out)
}

func (c *Client) doWith(ctx context.Context, hc *http.Client, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("marketplace request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, data)
		logger.Log.Error("marketplace API error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
