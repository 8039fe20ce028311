package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/datasyncfood/datasync-worker/internal/models"
)

type mockCompanyStore struct {
	getByIDFunc                func(ctx context.Context, companyID uint) (*models.Company, error)
	updateERPTokenFunc         func(ctx context.Context, companyID uint, token string, expiresAt int64) error
	updateMarketplaceTokenFunc func(ctx context.Context, companyID uint, token string, expiresAt int64) error
}

func (m *mockCompanyStore) GetByID(ctx context.Context, companyID uint) (*models.Company, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, companyID)
	}
	return nil, nil
}

func (m *mockCompanyStore) UpdateERPToken(ctx context.Context, companyID uint, token string, expiresAt int64) error {
	if m.updateERPTokenFunc != nil {
		return m.updateERPTokenFunc(ctx, companyID, token, expiresAt)
	}
	return nil
}

func (m *mockCompanyStore) UpdateMarketplaceToken(ctx context.Context, companyID uint, token string, expiresAt int64) error {
	if m.updateMarketplaceTokenFunc != nil {
		return m.updateMarketplaceTokenFunc(ctx, companyID, token, expiresAt)
	}
	return nil
}

type mockERPAuth struct {
	tokenFunc func(ctx context.Context, clientID, clientSecret string) (string, int64, error)
	calls     int
}

func (m *mockERPAuth) Token(ctx context.Context, clientID, clientSecret string) (string, int64, error) {
	m.calls++
	if m.tokenFunc != nil {
		return m.tokenFunc(ctx, clientID, clientSecret)
	}
	return "", 0, nil
}

type mockMarketplaceAuth struct {
	authenticateFunc func(ctx context.Context, username, password string) (string, int64, error)
	calls            int
}

func (m *mockMarketplaceAuth) Authenticate(ctx context.Context, username, password string) (string, int64, error) {
	m.calls++
	if m.authenticateFunc != nil {
		return m.authenticateFunc(ctx, username, password)
	}
	return "", 0, nil
}

func str(s string) *string { return &s }

func erpConfiguredCompany(token *string, tokenExp int64) *models.Company {
	return &models.Company{
		ID:              1,
		ERPBaseURL:      str("https://erp.example.com"),
		ERPClientID:     str("cid"),
		ERPClientSecret: str("sec"),
		ERPToken:        token,
		ERPTokenExp:     tokenExp,
	}
}

func TestERPClient_ReusesValidToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &mockCompanyStore{
		getByIDFunc: func(ctx context.Context, companyID uint) (*models.Company, error) {
			return erpConfiguredCompany(str("cached"), now.Unix()+600), nil
		},
	}
	erpAuth := &mockERPAuth{}

	m := NewManager(store, erpAuth, &mockMarketplaceAuth{}, time.Minute)
	m.now = func() time.Time { return now }

	hc, err := m.ERPClient(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hc == nil {
		t.Fatal("expected a client, got nil")
	}
	if erpAuth.calls != 0 {
		t.Errorf("expected no token refresh, got %d calls", erpAuth.calls)
	}
}

func TestERPClient_RefreshesExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var persistedToken string
	var persistedExp int64
	store := &mockCompanyStore{
		getByIDFunc: func(ctx context.Context, companyID uint) (*models.Company, error) {
			return erpConfiguredCompany(str("stale"), now.Unix()-1), nil
		},
		updateERPTokenFunc: func(ctx context.Context, companyID uint, token string, expiresAt int64) error {
			persistedToken = token
			persistedExp = expiresAt
			return nil
		},
	}
	erpAuth := &mockERPAuth{
		tokenFunc: func(ctx context.Context, clientID, clientSecret string) (string, int64, error) {
			return "fresh", now.Unix() + 75600, nil
		},
	}

	m := NewManager(store, erpAuth, &mockMarketplaceAuth{}, time.Minute)
	m.now = func() time.Time { return now }

	if _, err := m.ERPClient(context.Background(), 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if erpAuth.calls != 1 {
		t.Errorf("expected exactly one refresh, got %d", erpAuth.calls)
	}
	if persistedToken != "fresh" || persistedExp != now.Unix()+75600 {
		t.Errorf("expected refreshed token persisted, got %q exp %d", persistedToken, persistedExp)
	}
}

func TestERPClient_MissingTokenTriggersRefresh(t *testing.T) {
	store := &mockCompanyStore{
		getByIDFunc: func(ctx context.Context, companyID uint) (*models.Company, error) {
			return erpConfiguredCompany(nil, 0), nil
		},
	}
	erpAuth := &mockERPAuth{
		tokenFunc: func(ctx context.Context, clientID, clientSecret string) (string, int64, error) {
			return "first", time.Now().Unix() + 600, nil
		},
	}

	m := NewManager(store, erpAuth, &mockMarketplaceAuth{}, time.Minute)
	if _, err := m.ERPClient(context.Background(), 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if erpAuth.calls != 1 {
		t.Errorf("expected one refresh for missing token, got %d", erpAuth.calls)
	}
}

func TestERPClient_NotConfigured(t *testing.T) {
	store := &mockCompanyStore{
		getByIDFunc: func(ctx context.Context, companyID uint) (*models.Company, error) {
			return &models.Company{ID: 1}, nil
		},
	}

	m := NewManager(store, &mockERPAuth{}, &mockMarketplaceAuth{}, time.Minute)
	_, err := m.ERPClient(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for unconfigured company, got nil")
	}
	if err.Error() != "ERP não configurado para a empresa 1" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestERPClient_PersistFailureIsAuthFailure(t *testing.T) {
	store := &mockCompanyStore{
		getByIDFunc: func(ctx context.Context, companyID uint) (*models.Company, error) {
			return erpConfiguredCompany(nil, 0), nil
		},
		updateERPTokenFunc: func(ctx context.Context, companyID uint, token string, expiresAt int64) error {
			return errors.New("disk full")
		},
	}
	erpAuth := &mockERPAuth{
		tokenFunc: func(ctx context.Context, clientID, clientSecret string) (string, int64, error) {
			return "fresh", time.Now().Unix() + 600, nil
		},
	}

	m := NewManager(store, erpAuth, &mockMarketplaceAuth{}, time.Minute)
	if _, err := m.ERPClient(context.Background(), 1); err == nil {
		t.Fatal("expected persist failure to surface as error, got nil")
	}
}

func TestERPClient_EnforcesTimeout(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &mockCompanyStore{
		getByIDFunc: func(ctx context.Context, companyID uint) (*models.Company, error) {
			return erpConfiguredCompany(str("cached"), now.Unix()+600), nil
		},
	}

	timeout := 100 * time.Millisecond
	m := NewManager(store, &mockERPAuth{}, &mockMarketplaceAuth{}, timeout)
	m.now = func() time.Time { return now }

	hc, err := m.ERPClient(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hc.Timeout != timeout {
		t.Fatalf("expected client timeout %v, got %v", timeout, hc.Timeout)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	start := time.Now()
	resp, err := hc.Get(srv.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected the request to a hanging server to time out")
	}
	if elapsed := time.Since(start); elapsed > 800*time.Millisecond {
		t.Errorf("request took %v, timeout was not enforced", elapsed)
	}
}

func TestMarketplaceClient_RefreshesExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	persisted := false
	store := &mockCompanyStore{
		getByIDFunc: func(ctx context.Context, companyID uint) (*models.Company, error) {
			return &models.Company{
				ID:                  1,
				MarketplaceUsername: str("merchant@example.com"),
				MarketplacePassword: str("secret"),
				MarketplaceToken:    str("stale"),
				MarketplaceTokenExp: now.Unix() - 10,
			}, nil
		},
		updateMarketplaceTokenFunc: func(ctx context.Context, companyID uint, token string, expiresAt int64) error {
			persisted = true
			return nil
		},
	}
	mcAuth := &mockMarketplaceAuth{
		authenticateFunc: func(ctx context.Context, username, password string) (string, int64, error) {
			return "fresh", now.Unix() + 10800, nil
		},
	}

	m := NewManager(store, &mockERPAuth{}, mcAuth, time.Minute)
	m.now = func() time.Time { return now }

	if _, err := m.MarketplaceClient(context.Background(), 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mcAuth.calls != 1 {
		t.Errorf("expected exactly one authentication, got %d", mcAuth.calls)
	}
	if !persisted {
		t.Error("expected refreshed token to be persisted")
	}
}

func TestMarketplaceClient_NotConfigured(t *testing.T) {
	store := &mockCompanyStore{
		getByIDFunc: func(ctx context.Context, companyID uint) (*models.Company, error) {
			return &models.Company{ID: 7}, nil
		},
	}

	m := NewManager(store, &mockERPAuth{}, &mockMarketplaceAuth{}, time.Minute)
	_, err := m.MarketplaceClient(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error for unconfigured company, got nil")
	}
	if err.Error() != "marketplace não configurado para a empresa 7" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
