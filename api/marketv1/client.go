package marketv1

import (
	"context"

	"google.golang.org/grpc"
)

// MarketClient is the client API of garagesale.v1.Market.
type MarketClient struct {
	cc grpc.ClientConnInterface
}

// NewMarketClient returns a client that speaks the JSON codec over cc.
func NewMarketClient(cc grpc.ClientConnInterface) *MarketClient {
	return &MarketClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *MarketClient, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c, "Register", in, opts)
}

func (c *MarketClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c, "Login", in, opts)
}

func (c *MarketClient) CreateProduct(ctx context.Context, in *CreateProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c, "CreateProduct", in, opts)
}

func (c *MarketClient) UpdateProduct(ctx context.Context, in *UpdateProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c, "UpdateProduct", in, opts)
}

func (c *MarketClient) GetProduct(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c, "GetProduct", in, opts)
}

func (c *MarketClient) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error) {
	return invoke[ListProductsResponse](ctx, c, "ListProducts", in, opts)
}

func (c *MarketClient) ListMyProducts(ctx context.Context, in *ListMyProductsRequest, opts ...grpc.CallOption) (*ListMyProductsResponse, error) {
	return invoke[ListMyProductsResponse](ctx, c, "ListMyProducts", in, opts)
}

func (c *MarketClient) ReserveProduct(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c, "ReserveProduct", in, opts)
}

func (c *MarketClient) UnreserveProduct(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c, "UnreserveProduct", in, opts)
}

func (c *MarketClient) MarkProductSold(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c, "MarkProductSold", in, opts)
}

func (c *MarketClient) DeleteProduct(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*DeleteProductResponse, error) {
	return invoke[DeleteProductResponse](ctx, c, "DeleteProduct", in, opts)
}

func (c *MarketClient) GetLabel(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*LabelResponse, error) {
	return invoke[LabelResponse](ctx, c, "GetLabel", in, opts)
}

func (c *MarketClient) ResolveScan(ctx context.Context, in *ResolveScanRequest, opts ...grpc.CallOption) (*ResolveScanResponse, error) {
	return invoke[ResolveScanResponse](ctx, c, "ResolveScan", in, opts)
}

func (c *MarketClient) CreatePurchase(ctx context.Context, in *CreatePurchaseRequest, opts ...grpc.CallOption) (*PurchaseResponse, error) {
	return invoke[PurchaseResponse](ctx, c, "CreatePurchase", in, opts)
}

func (c *MarketClient) GetPurchase(ctx context.Context, in *PurchaseRequest, opts ...grpc.CallOption) (*PurchaseResponse, error) {
	return invoke[PurchaseResponse](ctx, c, "GetPurchase", in, opts)
}

func (c *MarketClient) ListPurchases(ctx context.Context, in *ListPurchasesRequest, opts ...grpc.CallOption) (*ListPurchasesResponse, error) {
	return invoke[ListPurchasesResponse](ctx, c, "ListPurchases", in, opts)
}

func (c *MarketClient) ListSales(ctx context.Context, in *ListPurchasesRequest, opts ...grpc.CallOption) (*ListPurchasesResponse, error) {
	return invoke[ListPurchasesResponse](ctx, c, "ListSales", in, opts)
}

func (c *MarketClient) CompletePurchase(ctx context.Context, in *PurchaseRequest, opts ...grpc.CallOption) (*PurchaseResponse, error) {
	return invoke[PurchaseResponse](ctx, c, "CompletePurchase", in, opts)
}

func (c *MarketClient) CancelPurchase(ctx context.Context, in *PurchaseRequest, opts ...grpc.CallOption) (*PurchaseResponse, error) {
	return invoke[PurchaseResponse](ctx, c, "CancelPurchase", in, opts)
}

func (c *MarketClient) RefundPurchase(ctx context.Context, in *PurchaseRequest, opts ...grpc.CallOption) (*PurchaseResponse, error) {
	return invoke[PurchaseResponse](ctx, c, "RefundPurchase", in, opts)
}

func (c *MarketClient) SellerSummary(ctx context.Context, in *SellerSummaryRequest, opts ...grpc.CallOption) (*SellerSummaryResponse, error) {
	return invoke[SellerSummaryResponse](ctx, c, "SellerSummary", in, opts)
}
