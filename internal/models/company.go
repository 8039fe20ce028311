package models

import "time"

// Company is a merchant onboarded into the sync platform. It owns the
// credentials for both integrated providers: the ERP the catalog is read from
// and the marketplace it is exported to. Cached bearer tokens are stored next
// to the credentials with an absolute expiry (unix seconds) so the token
// manager can decide locally whether a refresh is needed.
type Company struct {
	ID           uint   `gorm:"column:id;primaryKey"`
	Registration string `gorm:"column:registration;uniqueIndex"`
	Name         string `gorm:"column:name"`
	TaxID        string `gorm:"column:tax_id;uniqueIndex"`

	// ERP provider. The QR-code URL is what the merchant scans on
	// onboarding; device provisioning derives client_id/client_secret
	// from it and records the base URL of the merchant's ERP instance.
	ERPQRCodeURL    *string `gorm:"column:erp_qrcode_url"`
	ERPBaseURL      *string `gorm:"column:erp_base_url"`
	ERPClientID     *string `gorm:"column:erp_client_id"`
	ERPClientSecret *string `gorm:"column:erp_client_secret"`
	ERPCompanyName  *string `gorm:"column:erp_company_name"`
	ERPCompanyTaxID *string `gorm:"column:erp_company_tax_id"`
	ERPToken        *string `gorm:"column:erp_token"`
	ERPTokenExp     int64   `gorm:"column:erp_token_exp"`

	// Marketplace provider.
	MarketplaceUsername   *string `gorm:"column:marketplace_username"`
	MarketplacePassword   *string `gorm:"column:marketplace_password"`
	MarketplaceMerchantID *string `gorm:"column:marketplace_merchant_id"`
	MarketplaceToken      *string `gorm:"column:marketplace_token"`
	MarketplaceTokenExp   int64   `gorm:"column:marketplace_token_exp"`

	Active bool `gorm:"column:active"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (Company) TableName() string {
	return "companies"
}
