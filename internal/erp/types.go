package erp

import "encoding/json"

// envelope is the response wrapper every ERP endpoint uses. code 1 means
// success; anything else carries a human-readable message in `human`.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Human   string          `json:"human"`
	Data    json.RawMessage `json:"data"`
	Meta    *pageMeta       `json:"meta"`
}

type pageMeta struct {
	Page      int `json:"page"`
	PageCount int `json:"page_count"`
	Total     int `json:"total"`
}

type tokenData struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	Type      string `json:"type"`
}

type deviceData struct {
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	CompanyTaxID  string `json:"empresa_cnpj"`
	CompanyName   string `json:"empresa_fantasia"`
	CompanyRealID int    `json:"empresa_id"`
}

// Device is the result of provisioning: the credentials and identity of the
// merchant's ERP instance.
type Device struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	CompanyTaxID string
	CompanyName  string
}

type Category struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

type Product struct {
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Price        float64     `json:"price"`
	CategoryCode string      `json:"category_code"`
	ImageURLs    []string    `json:"image_urls"`
	Available    bool        `json:"available"`
	StockControl bool        `json:"stock_control"`
	Stock        int         `json:"stock"`
	Variations   []Variation `json:"variations"`
}

type Variation struct {
	Name     string          `json:"name"`
	Required bool            `json:"required"`
	Minimum  int             `json:"minimum"`
	Maximum  int             `json:"maximum"`
	Items    []VariationItem `json:"items"`
}

type VariationItem struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Available bool    `json:"available"`
}
