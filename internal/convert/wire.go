// Package convert maps domain models to marketv1 wire messages and back.
package convert

import (
	"strings"

	u "github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	v1 "github.com/and161185/garagesale/api/marketv1"
	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
)

// --- helpers ---

// ParseID parses a canonical UUID string; what names the field in the validation message.
func ParseID(s, what string) (u.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return u.Nil, errs.Validationf("%s is required", what)
	}
	id, err := u.FromString(s)
	if err != nil {
		return u.Nil, errs.Validationf("%s is not a valid id", what)
	}
	return id, nil
}

func parsePrice(s, what string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, errs.Validationf("%s must be a decimal number", what)
	}
	return d, nil
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// --- users ---

// ToWireUser returns the public profile; credentials never leave the service.
func ToWireUser(m model.User) v1.UserProfile {
	return v1.UserProfile{ID: m.ID.String(), Email: m.Email, Name: m.Name, CreatedAt: m.CreatedAt}
}

// --- products (server -> client) ---

// ToWireProduct converts a product, deriving the legacy boolean triple from its availability.
func ToWireProduct(p model.Product) v1.Product {
	avail, reserved, sold := p.Availability.Flags()
	return v1.Product{
		ID:           p.ID.String(),
		SellerID:     p.SellerID.String(),
		ScanCode:     p.ScanCode,
		Name:         p.Name,
		Description:  p.Description,
		Price:        money(p.Price),
		Currency:     p.Currency,
		Category:     p.Category,
		Condition:    string(p.Condition),
		ImageURL:     p.ImageURL,
		Availability: string(p.Availability),
		IsAvailable:  avail,
		IsReserved:   reserved,
		IsSold:       sold,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ToWireProducts converts a slice; nil becomes an empty slice so JSON renders [].
func ToWireProducts(ps []model.Product) []v1.Product {
	out := make([]v1.Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToWireProduct(p))
	}
	return out
}

func ToWirePagination(p model.Pagination) v1.Pagination {
	return v1.Pagination{Page: p.Page, Limit: p.Limit, Total: p.Total, TotalPages: p.TotalPages}
}

// ToWireProductPage converts a listing page.
func ToWireProductPage(pg model.ProductPage) *v1.ListProductsResponse {
	return &v1.ListProductsResponse{Products: ToWireProducts(pg.Products), Pagination: ToWirePagination(pg.Pagination)}
}

// ToWireScan converts a scan result.
func ToWireScan(r model.ScanResult) *v1.ResolveScanResponse {
	return &v1.ResolveScanResponse{Product: ToWireProduct(r.Product), Seller: ToWireUser(r.Seller)}
}

// ToWireLabel converts a product tag.
func ToWireLabel(l model.Label) *v1.LabelResponse {
	return &v1.LabelResponse{ProductID: l.ProductID.String(), Code: l.Code, ProductURL: l.ProductURL}
}

// --- products (client -> server) ---

// FromWireNewProduct converts a create request.
func FromWireNewProduct(in *v1.CreateProductRequest) (model.NewProduct, error) {
	if in == nil {
		return model.NewProduct{}, errs.Validationf("empty request")
	}
	price, err := parsePrice(in.Price, "price")
	if err != nil {
		return model.NewProduct{}, err
	}
	return model.NewProduct{
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
		Currency:    in.Currency,
		Category:    in.Category,
		Condition:   model.Condition(strings.ToUpper(strings.TrimSpace(in.Condition))),
		ImageURL:    in.ImageURL,
	}, nil
}

// FromWirePatch converts an update request into the product id and its patch.
func FromWirePatch(in *v1.UpdateProductRequest) (u.UUID, model.ProductPatch, error) {
	if in == nil {
		return u.Nil, model.ProductPatch{}, errs.Validationf("empty request")
	}
	id, err := ParseID(in.ID, "product id")
	if err != nil {
		return u.Nil, model.ProductPatch{}, err
	}
	patch := model.ProductPatch{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
	}
	if in.Price != nil {
		price, err := parsePrice(*in.Price, "price")
		if err != nil {
			return u.Nil, model.ProductPatch{}, err
		}
		patch.Price = &price
	}
	if in.Condition != nil {
		c := model.Condition(strings.ToUpper(strings.TrimSpace(*in.Condition)))
		patch.Condition = &c
	}
	return id, patch, nil
}

// FromWireFilter converts listing filters.
func FromWireFilter(in *v1.ListProductsRequest) (model.ProductFilter, error) {
	if in == nil {
		return model.ProductFilter{}, nil
	}
	f := model.ProductFilter{
		Category:  strings.TrimSpace(in.Category),
		Condition: model.Condition(strings.ToUpper(strings.TrimSpace(in.Condition))),
		Page:      model.PageQuery{Page: in.Page, Limit: in.Limit},
	}
	if in.SellerID != "" {
		id, err := ParseID(in.SellerID, "sellerId")
		if err != nil {
			return model.ProductFilter{}, err
		}
		f.SellerID = id
	}
	if in.MaxPrice != "" {
		mp, err := parsePrice(in.MaxPrice, "maxPrice")
		if err != nil {
			return model.ProductFilter{}, err
		}
		f.MaxPrice = &mp
	}
	return f, nil
}

// --- purchases ---

// ToWirePurchase converts a purchase record.
func ToWirePurchase(p model.Purchase) v1.Purchase {
	return v1.Purchase{
		ID:            p.ID.String(),
		ProductID:     p.ProductID.String(),
		BuyerID:       p.BuyerID.String(),
		SellerID:      p.SellerID.String(),
		Price:         money(p.Price),
		Currency:      p.Currency,
		PaymentMethod: string(p.PaymentMethod),
		Notes:         p.Notes,
		Status:        string(p.Status),
		PurchasedAt:   p.PurchasedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToWirePurchasePage converts a purchase page.
func ToWirePurchasePage(pg model.PurchasePage) *v1.ListPurchasesResponse {
	out := make([]v1.Purchase, 0, len(pg.Purchases))
	for _, p := range pg.Purchases {
		out = append(out, ToWirePurchase(p))
	}
	return &v1.ListPurchasesResponse{Purchases: out, Pagination: ToWirePagination(pg.Pagination)}
}

// FromWireNewPurchase converts a purchase intent. A missing productId is a validation error.
func FromWireNewPurchase(in *v1.CreatePurchaseRequest) (model.NewPurchase, error) {
	if in == nil {
		return model.NewPurchase{}, errs.Validationf("empty request")
	}
	id, err := ParseID(in.ProductID, "productId")
	if err != nil {
		return model.NewPurchase{}, err
	}
	return model.NewPurchase{
		ProductID:     id,
		PaymentMethod: model.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.PaymentMethod))),
		Notes:         in.Notes,
	}, nil
}

// FromWirePurchaseQuery converts list parameters.
func FromWirePurchaseQuery(in *v1.ListPurchasesRequest) model.PurchaseQuery {
	if in == nil {
		return model.PurchaseQuery{}
	}
	return model.PurchaseQuery{
		Page:   model.PageQuery{Page: in.Page, Limit: in.Limit},
		Status: model.PurchaseStatus(strings.ToUpper(strings.TrimSpace(in.Status))),
	}
}

// --- analytics ---

// ToWireSummary converts a seller rollup.
func ToWireSummary(s model.SellerSummary) *v1.SellerSummaryResponse {
	return &v1.SellerSummaryResponse{
		SellerID:           s.SellerID.String(),
		Period:             string(s.Period),
		TotalSales:         s.TotalSales,
		TotalRevenue:       money(s.TotalRevenue),
		AveragePrice:       money(s.AveragePrice),
		ProductsSold:       s.ProductsSold,
		ProductsListed:     s.ProductsListed,
		TotalListingsValue: money(s.TotalListingsValue),
		UniqueBuyers:       s.UniqueBuyers,
	}
}

// Period normalizes a requested analytics period.
func Period(s string) model.Period {
	return model.Period(strings.ToLower(strings.TrimSpace(s)))
}

