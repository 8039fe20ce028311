package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/datasyncfood/datasync-worker/internal/logger"
	"github.com/datasyncfood/datasync-worker/internal/models"
	"github.com/datasyncfood/datasync-worker/internal/repository"
	"go.uber.org/zap"
)

type createCompanyRequest struct {
	Registration string `json:"registration" validate:"required"`
	Name         string `json:"name" validate:"required"`
	TaxID        string `json:"taxId" validate:"required"`

	MarketplaceUsername   *string `json:"marketplaceUsername"`
	MarketplacePassword   *string `json:"marketplacePassword"`
	MarketplaceMerchantID *string `json:"marketplaceMerchantId"`
}

// companyResponse hides credentials and cached tokens from API consumers.
type companyResponse struct {
	ID           uint   `json:"id"`
	Registration string `json:"registration"`
	Name         string `json:"name"`
	TaxID        string `json:"taxId"`
	Active       bool   `json:"active"`

	ERPConfigured  bool    `json:"erpConfigured"`
	ERPCompanyName *string `json:"erpCompanyName,omitempty"`

	MarketplaceMerchantID *string `json:"marketplaceMerchantId,omitempty"`
}

func toCompanyResponse(c *models.Company) companyResponse {
	return companyResponse{
		ID:                    c.ID,
		Registration:          c.Registration,
		Name:                  c.Name,
		TaxID:                 c.TaxID,
		Active:                c.Active,
		ERPConfigured:         c.ERPClientID != nil && c.ERPClientSecret != nil,
		ERPCompanyName:        c.ERPCompanyName,
		MarketplaceMerchantID: c.MarketplaceMerchantID,
	}
}

func (s *Server) createCompany(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	existing, err := s.companies.FindByRegistrationOrTaxID(r.Context(), req.Registration, req.TaxID)
	if err != nil {
		logger.Log.Error("failed to check for duplicate company", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create company")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "a company with this registration or tax id already exists")
		return
	}

	company := models.Company{
		Registration:          req.Registration,
		Name:                  req.Name,
		TaxID:                 req.TaxID,
		MarketplaceUsername:   req.MarketplaceUsername,
		MarketplacePassword:   req.MarketplacePassword,
		MarketplaceMerchantID: req.MarketplaceMerchantID,
		Active:                true,
	}
	if err := s.companies.Create(r.Context(), &company); err != nil {
		logger.Log.Error("failed to create company", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create company")
		return
	}

	writeJSON(w, http.StatusCreated, toCompanyResponse(&company))
}

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := r.URL.Query()

	companies, total, err := s.companies.List(r.Context(), page, limit,
		q.Get("filter"), q.Get("orderBy"), q.Get("order"))
	if err != nil {
		logger.Log.Error("failed to list companies", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list companies")
		return
	}

	items := make([]companyResponse, 0, len(companies))
	for i := range companies {
		items = append(items, toCompanyResponse(&companies[i]))
	}
	writeJSON(w, http.StatusOK, pagedResponse{Items: items, Total: total, Page: page, Limit: limit})
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	companyID, ok := idParam(w, r)
	if !ok {
		return
	}

	company, err := s.companies.GetByID(r.Context(), companyID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		logger.Log.Error("failed to load company", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load company")
		return
	}
	writeJSON(w, http.StatusOK, toCompanyResponse(company))
}

type erpConfigRequest struct {
	QRCodeURL string `json:"qrcodeUrl" validate:"required,url"`
}

// configureERP provisions the company's ERP device from a scanned QR-code
// URL. When the same URL was provisioned before, the stored credentials are
// reused and only the token is refreshed. Any failure wipes the partial ERP
// configuration so the company is never left half-provisioned.
func (s *Server) configureERP(w http.ResponseWriter, r *http.Request) {
	companyID, ok := idParam(w, r)
	if !ok {
		return
	}

	var req erpConfigRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	company, err := s.companies.GetByID(r.Context(), companyID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		logger.Log.Error("failed to load company", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load company")
		return
	}

	sameDevice := company.ERPQRCodeURL != nil && *company.ERPQRCodeURL == req.QRCodeURL &&
		company.ERPClientID != nil && company.ERPClientSecret != nil
	if sameDevice {
		token, expiresAt, err := s.erp.Token(r.Context(), *company.ERPClientID, *company.ERPClientSecret)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		if err := s.companies.UpdateERPToken(r.Context(), companyID, token, expiresAt); err != nil {
			logger.Log.Error("failed to store refreshed ERP token", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store ERP token")
			return
		}
		writeJSON(w, http.StatusOK, toCompanyResponse(company))
		return
	}

	device, err := s.erp.ProvisionDevice(r.Context(), req.QRCodeURL)
	if err != nil {
		s.rollbackERPConfig(r, companyID)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	token, expiresAt, err := s.erp.Token(r.Context(), device.ClientID, device.ClientSecret)
	if err != nil {
		s.rollbackERPConfig(r, companyID)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	err = s.companies.UpdateERPConfig(r.Context(), companyID, map[string]interface{}{
		"erp_qrcode_url":     req.QRCodeURL,
		"erp_base_url":       device.BaseURL,
		"erp_client_id":      device.ClientID,
		"erp_client_secret":  device.ClientSecret,
		"erp_company_name":   device.CompanyName,
		"erp_company_tax_id": device.CompanyTaxID,
		"erp_token":          token,
		"erp_token_exp":      expiresAt,
	})
	if err != nil {
		logger.Log.Error("failed to store ERP configuration", zap.Error(err))
		s.rollbackERPConfig(r, companyID)
		writeError(w, http.StatusInternalServerError, "failed to store ERP configuration")
		return
	}

	company, err = s.companies.GetByID(r.Context(), companyID)
	if err != nil {
		logger.Log.Error("failed to reload company", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load company")
		return
	}
	writeJSON(w, http.StatusOK, toCompanyResponse(company))
}

func (s *Server) rollbackERPConfig(r *http.Request, companyID uint) {
	if err := s.companies.ClearERPConfig(r.Context(), companyID); err != nil {
		logger.Log.Error("failed to clear ERP configuration",
			zap.Uint("companyId", companyID), zap.Error(err))
	}
}

type pagedResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func idParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return 0, false
	}
	return uint(id), true
}
