package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const listPageSize = 100

// ClientSource yields a bearer-authenticated HTTP client for a company's ERP
// instance. Implemented by the auth manager.
type ClientSource interface {
	ERPClient(ctx context.Context, companyID uint) (*http.Client, error)
}

// Client is the typed binding for the ERP source API. Token exchange and
// device provisioning run unauthenticated against fixed endpoints; catalog
// listing runs against the merchant's own base URL through the ClientSource.
type Client struct {
	tokenURL string
	http     *http.Client
	source   ClientSource

	// Tokens are treated as expired this long before the ERP's own
	// expiry.
	earlyExpiry time.Duration
}

func NewClient(tokenURL string, timeout, earlyExpiry time.Duration) *Client {
	return &Client{
		tokenURL:    tokenURL,
		http:        &http.Client{Timeout: timeout},
		earlyExpiry: earlyExpiry,
	}
}

// SetSource wires the authenticated-client factory.
func (c *Client) SetSource(source ClientSource) {
	c.source = source
}

// ProvisionDevice registers this integration as a device on the merchant's
// ERP instance. The QR-code URL the merchant scans carries the provisioning
// endpoint plus client_id and device_name query parameters; the response
// carries the client_secret and merchant identity.
func (c *Client) ProvisionDevice(ctx context.Context, qrcodeURL string) (*Device, error) {
	u, err := url.Parse(qrcodeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ERP URL: %w", err)
	}

	clientID := u.Query().Get("client_id")
	deviceName := u.Query().Get("device_name")
	if clientID == "" || deviceName == "" {
		return nil, fmt.Errorf("ERP URL is missing required parameters (client_id or device_name)")
	}

	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("device_id", deviceName)

	endpoint := u.Scheme + "://" + u.Host + u.Path
	var data deviceData
	if err := c.postForm(ctx, endpoint, form, &data); err != nil {
		return nil, err
	}

	return &Device{
		BaseURL:      u.Scheme + "://" + u.Host,
		ClientID:     data.ClientID,
		ClientSecret: data.ClientSecret,
		CompanyTaxID: data.CompanyTaxID,
		CompanyName:  data.CompanyName,
	}, nil
}

// Token performs the client-credentials exchange. The returned expiry is the
// ERP's own expires_in reduced by the early-expiry margin.
func (c *Client) Token(ctx context.Context, clientID, clientSecret string) (string, int64, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	var data tokenData
	if err := c.postForm(ctx, c.tokenURL, form, &data); err != nil {
		return "", 0, err
	}

	expiresAt := time.Now().Unix() + data.ExpiresIn - int64(c.earlyExpiry.Seconds())
	return data.Token, expiresAt, nil
}

// Categories lists every catalog category of the merchant's ERP
func (c *Client) Categories(ctx context.Context, companyID uint, baseURL string) ([]Category, error) {
	var all []Category
	err := c.listPages(ctx, companyID, baseURL+"/api/v1/catalog/categories", func(data json.RawMessage) (int, error) {
		var batch []Category
		if err := json.Unmarshal(data, &batch); err != nil {
			return 0, fmt.Errorf("failed to decode categories: %w", err)
		}
		all = append(all, batch...)
		return len(batch), nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// Products lists every product of the merchant's ERP, each carrying its
// variations and items.
func (c *Client) Products(ctx context.Context, companyID uint, baseURL string) ([]Product, error) {
	var all []Product
	err := c.listPages(ctx, companyID, baseURL+"/api/v1/catalog/products", func(data json.RawMessage) (int, error) {
		var batch []Product
		if err := json.Unmarshal(data, &batch); err != nil {
			return 0, fmt.Errorf("failed to decode products: %w", err)
		}
		all = append(all, batch...)
		return len(batch), nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// listPages walks a paginated listing. The ERP reports a page count in its
// envelope meta, which is honored when present, but an empty page always
// terminates the walk regardless of what meta claims. Any page failure
// aborts the whole listing.
func (c *Client) listPages(ctx context.Context, companyID uint, endpoint string, accept func(json.RawMessage) (int, error)) error {
	if c.source == nil {
		return fmt.Errorf("ERP client source is not configured")
	}
	hc, err := c.source.ERPClient(ctx, companyID)
	if err != nil {
		return err
	}

	for page := 1; ; page++ {
		pageURL := fmt.Sprintf("%s?page=%d&size=%d", endpoint, page, listPageSize)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		env, err := c.send(hc, req)
		if err != nil {
			return err
		}

		n, err := accept(env.Data)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if env.Meta != nil && env.Meta.PageCount > 0 && page >= env.Meta.PageCount {
			return nil
		}
	}
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	env, err := c.send(c.http, req)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode ERP response: %w", err)
		}
	}
	return nil
}

// send executes a request and unwraps the ERP envelope, normalizing both
// transport-level failures and code != 1 responses into single errors with
// the ERP's human-readable message when one exists.
func (c *Client) send(hc *http.Client, req *http.Request) (*envelope, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ERP request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ERP response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode ERP envelope (status %d): %w", resp.StatusCode, err)
	}
	if env.Code != 1 {
		msg := env.Human
		if msg == "" {
			msg = "Erro inesperado ao consultar o ERP."
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return &env, nil
}
