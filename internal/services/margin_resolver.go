package services

import (
	"bytes"
	"math"
	"strings"

	"github.com/google/uuid"

	"freight-quote-service/internal/models"
)

// ResolvedMargin is the margin chosen for one quote
type ResolvedMargin struct {
	Value  float64
	Type   models.MarkupType
	Source models.MarginSource
	RuleID *uuid.UUID
}

// MarginResolver picks customer+carrier margins from a rule set fetched up front,
// falling back to the session's default policy.
type MarginResolver struct {
	rules  []models.MarginRule
	policy models.PricingPolicy
}

// NewMarginResolver creates a resolver over a customer's rules and a default policy
func NewMarginResolver(rules []models.MarginRule, policy models.PricingPolicy) *MarginResolver {
	if !policy.MarkupType.IsValid() {
		policy.MarkupType = models.MarkupPercentage
	}
	if policy.MinimumProfit < 0 {
		policy.MinimumProfit = 0
	}
	return &MarginResolver{rules: rules, policy: policy}
}

// Policy returns the default policy in effect
func (r *MarginResolver) Policy() models.PricingPolicy {
	return r.policy
}

// Resolve returns the margin for a carrier rate. A carrier matches a rule by code or
// display name, ignoring case. When several ranges contain the rate the narrowest wins,
// then the one with the higher minimum, then the lowest rule id.
func (r *MarginResolver) Resolve(carrierCode, carrierName string, baseRate float64) ResolvedMargin {
	var best *models.MarginRule
	for i := range r.rules {
		rule := &r.rules[i]
		if !carrierMatches(rule.CarrierID, carrierCode, carrierName) || !rule.Contains(baseRate) {
			continue
		}
		if best == nil || preferRule(rule, best) {
			best = rule
		}
	}

	if best != nil {
		id := best.ID
		return ResolvedMargin{
			Value:  best.Percentage,
			Type:   models.MarkupPercentage,
			Source: models.MarginSourceCustomer,
			RuleID: &id,
		}
	}

	return ResolvedMargin{
		Value:  r.policy.MarkupValue,
		Type:   r.policy.MarkupType,
		Source: models.MarginSourceDefault,
	}
}

func carrierMatches(ruleCarrier, code, name string) bool {
	ruleCarrier = strings.TrimSpace(ruleCarrier)
	if ruleCarrier == "" {
		return false
	}
	return strings.EqualFold(ruleCarrier, strings.TrimSpace(code)) || strings.EqualFold(ruleCarrier, strings.TrimSpace(name))
}

func rangeWidth(rule *models.MarginRule) float64 {
	if rule.MaxAmount == nil {
		return math.Inf(1)
	}
	return *rule.MaxAmount - rule.MinAmount
}

// preferRule reports whether a should win over b
func preferRule(a, b *models.MarginRule) bool {
	wa, wb := rangeWidth(a), rangeWidth(b)
	if wa != wb {
		return wa < wb
	}
	if a.MinAmount != b.MinAmount {
		return a.MinAmount > b.MinAmount
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}
