package models

import (
	"time"

	"github.com/google/uuid"
)

// MarkupType is how a margin value is applied to a carrier rate
type MarkupType string

const (
	MarkupPercentage MarkupType = "percentage"
	MarkupFixed      MarkupType = "fixed"
)

// IsValid reports whether the markup type is known
func (t MarkupType) IsValid() bool {
	return t == MarkupPercentage || t == MarkupFixed
}

// MarginRule is a customer+carrier specific margin for base rates within [MinAmount, MaxAmount).
// A nil MaxAmount means the tier has no upper bound.
type MarginRule struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CustomerID string    `gorm:"type:varchar(255);not null;index:idx_margin_rules_customer_carrier" json:"customerId"`
	CarrierID  string    `gorm:"type:varchar(100);not null;index:idx_margin_rules_customer_carrier" json:"carrierId"`
	MinAmount  float64   `gorm:"type:decimal(12,2);not null;default:0" json:"minAmount"`
	MaxAmount  *float64  `gorm:"type:decimal(12,2)" json:"maxAmount,omitempty"`
	Percentage float64   `gorm:"type:decimal(6,3);not null" json:"percentage"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for MarginRule
func (MarginRule) TableName() string {
	return "customer_carrier_margins"
}

// Contains reports whether amount falls inside the rule's range
func (r MarginRule) Contains(amount float64) bool {
	if amount < r.MinAmount {
		return false
	}
	return r.MaxAmount == nil || amount < *r.MaxAmount
}

// PricingPolicy is the default markup applied when no customer rule matches
type PricingPolicy struct {
	MarkupType    MarkupType `json:"markupType"`
	MarkupValue   float64    `json:"markupValue"`
	MinimumProfit float64    `json:"minimumProfit"`
}

// PricingSettings is the stored default pricing policy
type PricingSettings struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MarkupType    MarkupType `gorm:"type:varchar(20);not null;default:'percentage'" json:"markupType"`
	MarkupValue   float64    `gorm:"type:decimal(12,3);not null;default:0" json:"markupValue"`
	MinimumProfit float64    `gorm:"type:decimal(12,2);not null;default:0" json:"minimumProfit"`
	IsActive      bool       `gorm:"default:true;index" json:"isActive"`
	CreatedAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for PricingSettings
func (PricingSettings) TableName() string {
	return "pricing_settings"
}

// Policy converts the stored settings into a PricingPolicy
func (s PricingSettings) Policy() PricingPolicy {
	return PricingPolicy{
		MarkupType:    s.MarkupType,
		MarkupValue:   s.MarkupValue,
		MinimumProfit: s.MinimumProfit,
	}
}

// MarginRuleRequest is the API payload for creating or replacing a margin rule
type MarginRuleRequest struct {
	CarrierID  string   `json:"carrierId" binding:"required"`
	MinAmount  float64  `json:"minAmount" binding:"gte=0"`
	MaxAmount  *float64 `json:"maxAmount,omitempty"`
	Percentage float64  `json:"percentage" binding:"gte=0"`
}

// PricingPolicyRequest is the API payload for the default pricing policy
type PricingPolicyRequest struct {
	MarkupType    MarkupType `json:"markupType" binding:"required,oneof=percentage fixed"`
	MarkupValue   float64    `json:"markupValue" binding:"gte=0"`
	MinimumProfit float64    `json:"minimumProfit" binding:"gte=0"`
}
