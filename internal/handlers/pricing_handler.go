package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"freight-quote-service/internal/models"
)

// PricingStore reads and writes margin configuration
type PricingStore interface {
	GetMarginRules(ctx context.Context, customerID string) ([]models.MarginRule, error)
	CreateMarginRule(ctx context.Context, rule *models.MarginRule) error
	UpdateMarginRule(ctx context.Context, rule *models.MarginRule) error
	DeleteMarginRule(ctx context.Context, customerID string, ruleID uuid.UUID) error
	GetDefaultPricingPolicy(ctx context.Context) (*models.PricingPolicy, error)
	SavePricingSettings(ctx context.Context, policy models.PricingPolicy) error
}

// PricingHandler handles HTTP requests for margin rules and the default pricing policy
type PricingHandler struct {
	store         PricingStore
	defaultPolicy models.PricingPolicy
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(store PricingStore, defaultPolicy models.PricingPolicy) *PricingHandler {
	return &PricingHandler{
		store:         store,
		defaultPolicy: defaultPolicy,
	}
}

// ListMarginRules handles GET /api/customers/:customerId/margins
func (h *PricingHandler) ListMarginRules(c *gin.Context) {
	rules, err := h.store.GetMarginRules(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list margin rules",
			Message: err.Error(),
		})
		return
	}

	// Initialize as empty slice (not nil) to return [] instead of null
	if rules == nil {
		rules = []models.MarginRule{}
	}
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    rules,
	})
}

// CreateMarginRule handles POST /api/customers/:customerId/margins
func (h *PricingHandler) CreateMarginRule(c *gin.Context) {
	rule, ok := bindMarginRule(c)
	if !ok {
		return
	}

	if err := h.store.CreateMarginRule(c.Request.Context(), rule); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to save margin rule",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    rule,
		Message: stringPtr("Margin rule saved"),
	})
}

// UpdateMarginRule handles PUT /api/customers/:customerId/margins/:ruleId
func (h *PricingHandler) UpdateMarginRule(c *gin.Context) {
	ruleID, ok := parseUUIDParam(c, "ruleId", "margin rule")
	if !ok {
		return
	}
	rule, ok := bindMarginRule(c)
	if !ok {
		return
	}
	rule.ID = ruleID

	if err := h.store.UpdateMarginRule(c.Request.Context(), rule); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "Margin rule not found",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to save margin rule",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    rule,
		Message: stringPtr("Margin rule saved"),
	})
}

// bindMarginRule reads a rule for the customer in the path, writing a 400 on bad input
func bindMarginRule(c *gin.Context) (*models.MarginRule, bool) {
	var request models.MarginRuleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return nil, false
	}
	if request.MaxAmount != nil && *request.MaxAmount <= request.MinAmount {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid margin range",
			Message: "maxAmount must be greater than minAmount",
		})
		return nil, false
	}

	return &models.MarginRule{
		CustomerID: c.Param("customerId"),
		CarrierID:  request.CarrierID,
		MinAmount:  request.MinAmount,
		MaxAmount:  request.MaxAmount,
		Percentage: request.Percentage,
	}, true
}

// DeleteMarginRule handles DELETE /api/customers/:customerId/margins/:ruleId
func (h *PricingHandler) DeleteMarginRule(c *gin.Context) {
	ruleID, ok := parseUUIDParam(c, "ruleId", "margin rule")
	if !ok {
		return
	}

	if err := h.store.DeleteMarginRule(c.Request.Context(), c.Param("customerId"), ruleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "Margin rule not found",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to delete margin rule",
			Message: err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPricingPolicy handles GET /api/pricing-settings
func (h *PricingHandler) GetPricingPolicy(c *gin.Context) {
	policy, err := h.store.GetDefaultPricingPolicy(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load pricing settings",
			Message: err.Error(),
		})
		return
	}
	if policy == nil {
		policy = &h.defaultPolicy
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    policy,
	})
}

// UpdatePricingPolicy handles PUT /api/pricing-settings
func (h *PricingHandler) UpdatePricingPolicy(c *gin.Context) {
	var request models.PricingPolicyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	policy := models.PricingPolicy{
		MarkupType:    request.MarkupType,
		MarkupValue:   request.MarkupValue,
		MinimumProfit: request.MinimumProfit,
	}
	if err := h.store.SavePricingSettings(c.Request.Context(), policy); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to save pricing settings",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    policy,
		Message: stringPtr("Pricing settings updated"),
	})
}
