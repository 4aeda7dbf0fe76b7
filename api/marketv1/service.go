package marketv1

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "garagesale.v1.Market"

// MarketServer is the server API of garagesale.v1.Market.
type MarketServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)

	CreateProduct(context.Context, *CreateProductRequest) (*ProductResponse, error)
	UpdateProduct(context.Context, *UpdateProductRequest) (*ProductResponse, error)
	GetProduct(context.Context, *ProductRequest) (*ProductResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	ListMyProducts(context.Context, *ListMyProductsRequest) (*ListMyProductsResponse, error)
	ReserveProduct(context.Context, *ProductRequest) (*ProductResponse, error)
	UnreserveProduct(context.Context, *ProductRequest) (*ProductResponse, error)
	MarkProductSold(context.Context, *ProductRequest) (*ProductResponse, error)
	DeleteProduct(context.Context, *ProductRequest) (*DeleteProductResponse, error)
	ResolveScan(context.Context, *ResolveScanRequest) (*ResolveScanResponse, error)
	GetLabel(context.Context, *ProductRequest) (*LabelResponse, error)

	CreatePurchase(context.Context, *CreatePurchaseRequest) (*PurchaseResponse, error)
	GetPurchase(context.Context, *PurchaseRequest) (*PurchaseResponse, error)
	ListPurchases(context.Context, *ListPurchasesRequest) (*ListPurchasesResponse, error)
	ListSales(context.Context, *ListPurchasesRequest) (*ListPurchasesResponse, error)
	CompletePurchase(context.Context, *PurchaseRequest) (*PurchaseResponse, error)
	CancelPurchase(context.Context, *PurchaseRequest) (*PurchaseResponse, error)
	RefundPurchase(context.Context, *PurchaseRequest) (*PurchaseResponse, error)

	SellerSummary(context.Context, *SellerSummaryRequest) (*SellerSummaryResponse, error)
}

// FullMethod returns "/garagesale.v1.Market/<method>".
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

func unary[Req, Resp any](name string, call func(MarketServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, ic grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if ic == nil {
				return call(srv.(MarketServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			h := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MarketServer), ctx, req.(*Req))
			}
			return ic(ctx, in, info, h)
		},
	}
}

// ServiceDesc describes garagesale.v1.Market for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", MarketServer.Register),
		unary("Login", MarketServer.Login),
		unary("CreateProduct", MarketServer.CreateProduct),
		unary("UpdateProduct", MarketServer.UpdateProduct),
		unary("GetProduct", MarketServer.GetProduct),
		unary("ListProducts", MarketServer.ListProducts),
		unary("ListMyProducts", MarketServer.ListMyProducts),
		unary("ReserveProduct", MarketServer.ReserveProduct),
		unary("UnreserveProduct", MarketServer.UnreserveProduct),
		unary("MarkProductSold", MarketServer.MarkProductSold),
		unary("DeleteProduct", MarketServer.DeleteProduct),
		unary("ResolveScan", MarketServer.ResolveScan),
		unary("GetLabel", MarketServer.GetLabel),
		unary("CreatePurchase", MarketServer.CreatePurchase),
		unary("GetPurchase", MarketServer.GetPurchase),
		unary("ListPurchases", MarketServer.ListPurchases),
		unary("ListSales", MarketServer.ListSales),
		unary("CompletePurchase", MarketServer.CompletePurchase),
		unary("CancelPurchase", MarketServer.CancelPurchase),
		unary("RefundPurchase", MarketServer.RefundPurchase),
		unary("SellerSummary", MarketServer.SellerSummary),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "garagesale/v1/market",
}

// RegisterMarketServer registers srv on s.
func RegisterMarketServer(s grpc.ServiceRegistrar, srv MarketServer) {
	s.RegisterService(&ServiceDesc, srv)
}
