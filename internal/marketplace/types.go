package marketplace

type Availability string

const (
	Available   Availability = "AVAILABLE"
	Unavailable Availability = "UNAVAILABLE"
)

type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Message       string `json:"message"`
	Token         string `json:"token"`
	TokenType     string `json:"tokenType"`
	ExpiresIn     int64  `json:"expiresIn"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type Merchant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TaxID  string `json:"cnpj"`
	Status string `json:"status"`
	Active bool   `json:"active"`
}

type Category struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalCode string       `json:"externalCode"`
	Availability Availability `json:"availability"`
}

type Product struct {
	ID           string       `json:"id"`
	CategoryID   string       `json:"categoryId"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	ExternalCode string       `json:"externalCode"`
	Price        float64      `json:"price"`
	Availability Availability `json:"availability"`
	Variations   []Variation  `json:"variations"`
}

type Variation struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Required bool            `json:"required"`
	Minimum  int             `json:"minimum"`
	Maximum  int             `json:"maximum"`
	Priority int             `json:"priority"`
	Items    []VariationItem `json:"items"`
}

type VariationItem struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalCode string       `json:"externalCode"`
	Price        float64      `json:"price"`
	Stock        int          `json:"stock"`
	Availability Availability `json:"availability"`
}

type CreateCategoryRequest struct {
	MerchantID   string `json:"merchantId"`
	Name         string `json:"name"`
	ExternalCode string `json:"externalCode"`
}

type CreateProductRequest struct {
	MerchantID   string  `json:"merchantId"`
	CategoryID   string  `json:"categoryId"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	ExternalCode string  `json:"externalCode"`
	Price        float64 `json:"price"`
}

type CreateVariationRequest struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Minimum  int    `json:"minimum"`
	Maximum  int    `json:"maximum"`
}

type CreateVariationItemRequest struct {
	Name         string  `json:"name"`
	ExternalCode string  `json:"externalCode"`
	Price        float64 `json:"price"`
}

type VariationOrder struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
}

type AvailabilityUpdate struct {
	ID           string       `json:"id"`
	Availability Availability `json:"availability"`
}

type StockUpdate struct {
	ID    string `json:"id"`
	Stock int    `json:"stock"`
}

type VariationItemAvailabilityUpdate struct {
	VariationID  string       `json:"variationId"`
	ID           string       `json:"id"`
	Availability Availability `json:"availability"`
}

type VariationItemStockUpdate struct {
	VariationID string `json:"variationId"`
	ID          string `json:"id"`
	Stock       int    `json:"stock"`
}
