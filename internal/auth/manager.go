// Package auth owns the per-company token lifecycle for both providers. A
// cached token is reused while its locally recorded expiry is in the future;
// otherwise exactly one refresh runs and the new token is persisted before
// it is ever used, so a credential-store write failure counts as an
// authentication failure.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/datasyncfood/datasync-worker/internal/logger"
	"github.com/datasyncfood/datasync-worker/internal/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ERPAuthenticator performs the ERP client-credentials exchange.
type ERPAuthenticator interface {
	Token(ctx context.Context, clientID, clientSecret string) (string, int64, error)
}

// MarketplaceAuthenticator performs the marketplace username/password login.
type MarketplaceAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, int64, error)
}

// CompanyStore is the credential store: company credentials and cached
// tokens with absolute expiry.
type CompanyStore interface {
	GetByID(ctx context.Context, companyID uint) (*models.Company, error)
	UpdateERPToken(ctx context.Context, companyID uint, token string, expiresAt int64) error
	UpdateMarketplaceToken(ctx context.Context, companyID uint, token string, expiresAt int64) error
}

type Manager struct {
	companies   CompanyStore
	erp         ERPAuthenticator
	marketplace MarketplaceAuthenticator
	timeout     time.Duration

	now func() time.Time
}

func NewManager(companies CompanyStore, erp ERPAuthenticator, marketplace MarketplaceAuthenticator, timeout time.Duration) *Manager {
	return &Manager{
		companies:   companies,
		erp:         erp,
		marketplace: marketplace,
		timeout:     timeout,
		now:         time.Now,
	}
}

// ERPClient returns a ready-to-use authenticated client for the company's
// ERP instance, refreshing the cached token when expired or absent.
func (m *Manager) ERPClient(ctx context.Context, companyID uint) (*http.Client, error) {
	company, err := m.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company.ERPBaseURL == nil || *company.ERPBaseURL == "" ||
		company.ERPClientID == nil || *company.ERPClientID == "" ||
		company.ERPClientSecret == nil || *company.ERPClientSecret == "" {
		return nil, fmt.Errorf("ERP não configurado para a empresa %d", companyID)
	}

	token := ""
	if company.ERPToken != nil {
		token = *company.ERPToken
	}
	if token != "" && m.now().Unix() <= company.ERPTokenExp {
		return m.bearerClient(ctx, token), nil
	}

	logger.Log.Info("refreshing ERP token", zap.Uint("companyId", companyID))
	newToken, expiresAt, err := m.erp.Token(ctx, *company.ERPClientID, *company.ERPClientSecret)
	if err != nil {
		return nil, fmt.Errorf("falha na autenticação com o ERP: %w", err)
	}
	if err := m.companies.UpdateERPToken(ctx, companyID, newToken, expiresAt); err != nil {
		return nil, fmt.Errorf("falha ao gravar o token do ERP: %w", err)
	}
	return m.bearerClient(ctx, newToken), nil
}

// MarketplaceClient returns a ready-to-use authenticated client for the
// marketplace, refreshing the cached token when expired or absent.
func (m *Manager) MarketplaceClient(ctx context.Context, companyID uint) (*http.Client, error) {
	company, err := m.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company.MarketplaceUsername == nil || *company.MarketplaceUsername == "" ||
		company.MarketplacePassword == nil || *company.MarketplacePassword == "" {
		return nil, fmt.Errorf("marketplace não configurado para a empresa %d", companyID)
	}

	token := ""
	if company.MarketplaceToken != nil {
		token = *company.MarketplaceToken
	}
	if token != "" && m.now().Unix() <= company.MarketplaceTokenExp {
		return m.bearerClient(ctx, token), nil
	}

	logger.Log.Info("refreshing marketplace token", zap.Uint("companyId", companyID))
	newToken, expiresAt, err := m.marketplace.Authenticate(ctx, *company.MarketplaceUsername, *company.MarketplacePassword)
	if err != nil {
		return nil, fmt.Errorf("falha na autenticação com o marketplace: %w", err)
	}
	if err := m.companies.UpdateMarketplaceToken(ctx, companyID, newToken, expiresAt); err != nil {
		return nil, fmt.Errorf("falha ao gravar o token do marketplace: %w", err)
	}
	return m.bearerClient(ctx, newToken), nil
}

func (m *Manager) bearerClient(ctx context.Context, token string) *http.Client {
	base := &http.Client{Timeout: m.timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	// oauth2.NewClient copies only the Transport of the base client, so the
	// timeout has to be set again on the client it returns.
	hc.Timeout = m.timeout
	return hc
}
