package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"freight-quote-service/internal/models"
)

// Cache TTL constants for margin data
const (
	MarginRulesCacheTTL   = 10 * time.Minute // rules are edited from the management screens
	PricingPolicyCacheTTL = 5 * time.Minute

	cacheKeyPrefix = "freight:pricing:"
)

// MarginRepository reads customer margin rules and the default pricing policy,
// with an optional Redis cache in front of the database.
type MarginRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewMarginRepository creates a new margin repository. redisClient may be nil.
func NewMarginRepository(db *gorm.DB, redisClient *redis.Client) *MarginRepository {
	return &MarginRepository{db: db, redis: redisClient}
}

func marginRulesCacheKey(customerID string) string {
	return cacheKeyPrefix + "rules:" + customerID
}

func pricingPolicyCacheKey() string {
	return cacheKeyPrefix + "policy:default"
}

// GetMarginRules returns every margin rule of a customer across all carriers
func (r *MarginRepository) GetMarginRules(ctx context.Context, customerID string) ([]models.MarginRule, error) {
	cacheKey := marginRulesCacheKey(customerID)

	// Try to get from cache first
	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var rules []models.MarginRule
			if err := json.Unmarshal([]byte(val), &rules); err == nil {
				return rules, nil
			}
		}
	}

	var rules []models.MarginRule
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("carrier_id ASC, min_amount ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load margin rules: %w", err)
	}

	if r.redis != nil {
		if data, marshalErr := json.Marshal(rules); marshalErr == nil {
			r.redis.Set(ctx, cacheKey, data, MarginRulesCacheTTL)
		}
	}

	return rules, nil
}

// GetDefaultPricingPolicy returns the active default policy, or nil when none is stored
func (r *MarginRepository) GetDefaultPricingPolicy(ctx context.Context) (*models.PricingPolicy, error) {
	cacheKey := pricingPolicyCacheKey()

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var policy models.PricingPolicy
			if err := json.Unmarshal([]byte(val), &policy); err == nil {
				return &policy, nil
			}
		}
	}

	var settings models.PricingSettings
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("updated_at DESC").
		First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load pricing settings: %w", err)
	}

	policy := settings.Policy()
	if r.redis != nil {
		if data, marshalErr := json.Marshal(policy); marshalErr == nil {
			r.redis.Set(ctx, cacheKey, data, PricingPolicyCacheTTL)
		}
	}

	return &policy, nil
}

// CreateMarginRule stores a new margin rule
func (r *MarginRepository) CreateMarginRule(ctx context.Context, rule *models.MarginRule) error {
	if err := validateMarginRange(rule); err != nil {
		return err
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create margin rule: %w", err)
	}
	r.invalidateRules(ctx, rule.CustomerID)
	return nil
}

// UpdateMarginRule rewrites an existing rule of the same customer and reloads it.
// Returns gorm.ErrRecordNotFound when the customer has no rule with that id.
func (r *MarginRepository) UpdateMarginRule(ctx context.Context, rule *models.MarginRule) error {
	if err := validateMarginRange(rule); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.MarginRule{}).
		Where("id = ? AND customer_id = ?", rule.ID, rule.CustomerID).
		Updates(map[string]interface{}{
			"carrier_id": rule.CarrierID,
			"min_amount": rule.MinAmount,
			"max_amount": rule.MaxAmount,
			"percentage": rule.Percentage,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update margin rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateRules(ctx, rule.CustomerID)

	if err := r.db.WithContext(ctx).First(rule, "id = ?", rule.ID).Error; err != nil {
		return fmt.Errorf("failed to reload margin rule: %w", err)
	}
	return nil
}

func validateMarginRange(rule *models.MarginRule) error {
	if rule.MaxAmount != nil && *rule.MaxAmount <= rule.MinAmount {
		return fmt.Errorf("margin rule max amount %.2f must be above min amount %.2f", *rule.MaxAmount, rule.MinAmount)
	}
	return nil
}

// DeleteMarginRule removes a margin rule
func (r *MarginRepository) DeleteMarginRule(ctx context.Context, customerID string, ruleID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", ruleID, customerID).
		Delete(&models.MarginRule{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete margin rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateRules(ctx, customerID)
	return nil
}

// SavePricingSettings replaces the active default policy
func (r *MarginRepository) SavePricingSettings(ctx context.Context, policy models.PricingPolicy) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PricingSettings{}).
			Where("is_active = true").
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&models.PricingSettings{
			ID:            uuid.New(),
			MarkupType:    policy.MarkupType,
			MarkupValue:   policy.MarkupValue,
			MinimumProfit: policy.MinimumProfit,
			IsActive:      true,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save pricing settings: %w", err)
	}

	if r.redis != nil {
		r.redis.Del(ctx, pricingPolicyCacheKey())
	}
	return nil
}

func (r *MarginRepository) invalidateRules(ctx context.Context, customerID string) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, marginRulesCacheKey(customerID)).Err()
}
