package service

// Services bundles the application services handed to the transports.
type Services struct {
	Auth      AuthService
	Catalog   CatalogService
	Purchases PurchaseService
	Scan      ScanService
	Analytics AnalyticsService
}
