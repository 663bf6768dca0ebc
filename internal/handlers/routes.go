package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes wires the quote and pricing endpoints onto the router
func RegisterRoutes(router *gin.Engine, quotes *QuoteHandler, pricing *PricingHandler) {
	router.GET("/health", quotes.HealthCheck)

	api := router.Group("/api")
	{
		// Quoting
		api.POST("/quotes", quotes.QuoteShipment)
		api.POST("/quotes/batch", quotes.QuoteBatch)
		api.GET("/quotes/:id", quotes.GetResult)
		api.PUT("/quotes/:id/quotes/:quoteId/price", quotes.OverridePrice)
		api.POST("/quotes/historical/:id", quotes.RequoteHistorical)
		api.GET("/batches/:id/export", quotes.ExportBatch)

		// Historical shipments
		api.POST("/historical/import", quotes.ImportHistorical)

		// Gateways
		api.POST("/gateways/:name/test-connection", quotes.TestConnection)

		// Margin configuration
		api.GET("/customers/:customerId/margins", pricing.ListMarginRules)
		api.POST("/customers/:customerId/margins", pricing.CreateMarginRule)
		api.PUT("/customers/:customerId/margins/:ruleId", pricing.UpdateMarginRule)
		api.DELETE("/customers/:customerId/margins/:ruleId", pricing.DeleteMarginRule)
		api.GET("/pricing-settings", pricing.GetPricingPolicy)
		api.PUT("/pricing-settings", pricing.UpdatePricingPolicy)
	}
}
