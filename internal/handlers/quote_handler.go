package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"freight-quote-service/internal/carriers"
	"freight-quote-service/internal/export"
	"freight-quote-service/internal/models"
	"freight-quote-service/internal/services"
)

// QuoteService is the quoting surface the handler depends on
type QuoteService interface {
	QuoteShipment(ctx context.Context, input services.QuoteInput) *models.ShipmentResult
	QuoteBatch(ctx context.Context, inputs []services.QuoteInput) (uuid.UUID, []*models.ShipmentResult)
	OverridePrice(ctx context.Context, resultID, quoteID uuid.UUID, newPrice float64) (*models.ShipmentResult, error)
	GetResult(ctx context.Context, id uuid.UUID) (*models.ShipmentResult, error)
	BatchResults(ctx context.Context, batchID uuid.UUID) ([]*models.ShipmentResult, error)
	TestGateway(ctx context.Context, name string) error
}

// Requoter re-quotes stored historical shipments
type Requoter interface {
	Requote(ctx context.Context, id uuid.UUID, carrierIDs []string) (*models.ShipmentResult, error)
}

// HistoricalImporter stores imported historical shipments
type HistoricalImporter interface {
	CreateHistoricalShipments(ctx context.Context, shipments []models.HistoricalShipment) error
}

// QuoteHandler handles HTTP requests for freight quotes
type QuoteHandler struct {
	quotes     QuoteService
	historical Requoter
	importer   HistoricalImporter
	logger     *logrus.Entry
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quotes QuoteService, historical Requoter, importer HistoricalImporter, logger *logrus.Entry) *QuoteHandler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &QuoteHandler{
		quotes:     quotes,
		historical: historical,
		importer:   importer,
		logger:     logger.WithField("component", "quote_handler"),
	}
}

// HealthCheck handles GET /health
func (h *QuoteHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "freight-quote-service",
	})
}

// QuoteShipment handles POST /api/quotes
func (h *QuoteHandler) QuoteShipment(c *gin.Context) {
	var request models.QuoteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	result := h.quotes.QuoteShipment(c.Request.Context(), toQuoteInput(request))

	// a shipment that could not be rated is still a stored, well-formed result
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: result.Status == models.ResultStatusSuccess,
		Data:    result,
	})
}

// QuoteBatch handles POST /api/quotes/batch
func (h *QuoteHandler) QuoteBatch(c *gin.Context) {
	var request models.BatchQuoteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	inputs := make([]services.QuoteInput, len(request.Shipments))
	for i, shipment := range request.Shipments {
		inputs[i] = toQuoteInput(shipment)
	}

	batchID, results := h.quotes.QuoteBatch(c.Request.Context(), inputs)

	response := models.BatchQuoteResponse{
		Success: true,
		BatchID: batchID,
		Results: results,
	}
	for _, result := range results {
		if result.Status == models.ResultStatusSuccess {
			response.Succeeded++
		} else {
			response.Failed++
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetResult handles GET /api/quotes/:id
func (h *QuoteHandler) GetResult(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "result")
	if !ok {
		return
	}

	result, err := h.quotes.GetResult(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to load quote result")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
	})
}

// OverridePrice handles PUT /api/quotes/:id/quotes/:quoteId/price
func (h *QuoteHandler) OverridePrice(c *gin.Context) {
	resultID, ok := parseUUIDParam(c, "id", "result")
	if !ok {
		return
	}
	quoteID, ok := parseUUIDParam(c, "quoteId", "quote")
	if !ok {
		return
	}

	var request models.PriceOverrideRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	result, err := h.quotes.OverridePrice(c.Request.Context(), resultID, quoteID, *request.CustomerPrice)
	if err != nil {
		h.respondError(c, err, "Failed to override price")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
		Message: stringPtr("Customer price updated"),
	})
}

// RequoteHistorical handles POST /api/quotes/historical/:id
func (h *QuoteHandler) RequoteHistorical(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "historical shipment")
	if !ok {
		return
	}

	var request models.RequoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid request body",
				Message: err.Error(),
			})
			return
		}
	}

	result, err := h.historical.Requote(c.Request.Context(), id, request.SelectedCarrierIDs)
	if err != nil {
		h.respondError(c, err, "Failed to re-quote historical shipment")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: result.Status == models.ResultStatusSuccess,
		Data:    result,
	})
}

// ImportHistorical handles POST /api/historical/import
func (h *QuoteHandler) ImportHistorical(c *gin.Context) {
	customerID := c.PostForm("customerId")
	if customerID == "" {
		customerID = c.GetString("customer_id")
	}
	if customerID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing customer",
			Message: "customerId form field or X-Customer-ID header is required",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing file",
			Message: "An .xlsx file must be uploaded in the file field",
		})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid file",
			Message: err.Error(),
		})
		return
	}
	defer file.Close()

	shipments, rowErrors, err := export.ReadHistoricalWorkbook(file, customerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid workbook",
			Message: err.Error(),
		})
		return
	}

	if len(shipments) > 0 {
		if err := h.importer.CreateHistoricalShipments(c.Request.Context(), shipments); err != nil {
			h.respondError(c, err, "Failed to store historical shipments")
			return
		}
	}

	ids := make([]uuid.UUID, len(shipments))
	for i, shipment := range shipments {
		ids[i] = shipment.ID
	}

	h.logger.WithFields(logrus.Fields{
		"customer_id": customerID,
		"imported":    len(shipments),
		"skipped":     len(rowErrors),
	}).Info("Historical shipments imported")

	c.JSON(http.StatusOK, models.ImportHistoricalResponse{
		Success:   true,
		Imported:  len(shipments),
		IDs:       ids,
		RowErrors: rowErrors,
	})
}

// ExportBatch handles GET /api/batches/:id/export
func (h *QuoteHandler) ExportBatch(c *gin.Context) {
	batchID, ok := parseUUIDParam(c, "id", "batch")
	if !ok {
		return
	}

	results, err := h.quotes.BatchResults(c.Request.Context(), batchID)
	if err != nil {
		h.respondError(c, err, "Failed to load batch")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBatchWorkbook(&buf, batchID, results); err != nil {
		h.respondError(c, err, "Failed to build workbook")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=freight_quotes_%s.xlsx", batchID))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// TestConnection handles POST /api/gateways/:name/test-connection
func (h *QuoteHandler) TestConnection(c *gin.Context) {
	name := c.Param("name")
	if name != carriers.GatewayFreight && name != carriers.GatewayReefer {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Unknown gateway",
			Message: fmt.Sprintf("gateway %q does not exist", name),
		})
		return
	}

	if err := h.quotes.TestGateway(c.Request.Context(), name); err != nil {
		h.logger.WithError(err).WithField("gateway", name).Warn("Gateway connection test failed")
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "Connection test failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"gateway": name,
			"name":    carriers.GatewayDisplayName(name),
		},
		Message: stringPtr("Connection successful"),
	})
}

func (h *QuoteHandler) respondError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrResultNotFound),
		errors.Is(err, services.ErrQuoteNotFound),
		errors.Is(err, services.ErrHistoricalNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidPrice):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrResultNotFinal):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error(message)
	}
	c.JSON(status, models.ErrorResponse{
		Error:   message,
		Message: err.Error(),
	})
}

func toQuoteInput(request models.QuoteRequest) services.QuoteInput {
	return services.QuoteInput{
		CustomerID:         request.CustomerID,
		Shipment:           request.Shipment,
		SelectedCarrierIDs: request.SelectedCarrierIDs,
		Mode:               request.Mode,
		Policy:             request.Policy,
	}
}

func parseUUIDParam(c *gin.Context, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   fmt.Sprintf("Invalid %s ID", label),
			Message: fmt.Sprintf("%s ID must be a valid UUID", label),
		})
		return uuid.Nil, false
	}
	return id, true
}

func stringPtr(s string) *string {
	return &s
}
