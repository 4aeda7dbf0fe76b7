// Package marketv1 holds the wire messages and the gRPC service descriptor of garagesale.v1.Market.
//
// Messages are plain structs encoded as JSON, both on gRPC (content subtype "json") and over HTTP.
// Money travels as decimal strings; ids as canonical UUID strings.
package marketv1

import "time"

// UserProfile is the public view of an account.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User UserProfile `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string      `json:"accessToken"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	User        UserProfile `json:"user"`
}

// Product carries both the availability discriminant and the derived boolean flags.
type Product struct {
	ID           string    `json:"id"`
	SellerID     string    `json:"sellerId"`
	ScanCode     string    `json:"scanCode"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        string    `json:"price"`
	Currency     string    `json:"currency"`
	Category     string    `json:"category,omitempty"`
	Condition    string    `json:"condition"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Availability string    `json:"availability"`
	IsAvailable  bool      `json:"isAvailable"`
	IsReserved   bool      `json:"isReserved"`
	IsSold       bool      `json:"isSold"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Currency    string `json:"currency,omitempty"`
	Category    string `json:"category,omitempty"`
	Condition   string `json:"condition,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// UpdateProductRequest changes only the fields that are present.
type UpdateProductRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *string `json:"price,omitempty"`
	Category    *string `json:"category,omitempty"`
	Condition   *string `json:"condition,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

// ProductRequest addresses one product by id.
type ProductRequest struct {
	ID string `json:"id"`
}

type ProductResponse struct {
	Product Product `json:"product"`
}

type ListProductsRequest struct {
	Category  string `json:"category,omitempty"`
	Condition string `json:"condition,omitempty"`
	SellerID  string `json:"sellerId,omitempty"`
	MaxPrice  string `json:"maxPrice,omitempty"`
	Page      int    `json:"page,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type ListProductsResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

type ListMyProductsRequest struct{}

type ListMyProductsResponse struct {
	Products []Product `json:"products"`
}

type ResolveScanRequest struct {
	Code string `json:"code"`
}

type ResolveScanResponse struct {
	Product Product     `json:"product"`
	Seller  UserProfile `json:"seller"`
}

// DeleteProductResponse acknowledges a removed listing.
type DeleteProductResponse struct {
	ID string `json:"id"`
}

// LabelResponse is the printable tag of a product; both fields scan back to it.
type LabelResponse struct {
	ProductID  string `json:"productId"`
	Code       string `json:"code"`
	ProductURL string `json:"productUrl"`
}

type Purchase struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"productId"`
	BuyerID       string    `json:"buyerId"`
	SellerID      string    `json:"sellerId"`
	Price         string    `json:"price"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Status        string    `json:"status"`
	PurchasedAt   time.Time `json:"purchasedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type CreatePurchaseRequest struct {
	ProductID     string `json:"productId"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// PurchaseRequest addresses one purchase by id.
type PurchaseRequest struct {
	ID string `json:"id"`
}

type PurchaseResponse struct {
	Purchase Purchase `json:"purchase"`
}

type ListPurchasesRequest struct {
	Page   int    `json:"page,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Status string `json:"status,omitempty"`
}

type ListPurchasesResponse struct {
	Purchases  []Purchase `json:"purchases"`
	Pagination Pagination `json:"pagination"`
}

type SellerSummaryRequest struct {
	Period string `json:"period,omitempty"`
}

type SellerSummaryResponse struct {
	SellerID           string `json:"sellerId"`
	Period             string `json:"period"`
	TotalSales         int    `json:"totalSales"`
	TotalRevenue       string `json:"totalRevenue"`
	AveragePrice       string `json:"averagePrice"`
	ProductsSold       int    `json:"productsSold"`
	ProductsListed     int    `json:"productsListed"`
	TotalListingsValue string `json:"totalListingsValue"`
	UniqueBuyers       int    `json:"uniqueBuyers"`
}

// ErrorResponse is the HTTP error body.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}
