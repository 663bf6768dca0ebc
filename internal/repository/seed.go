package repository

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"freight-quote-service/internal/models"
)

// SeedPricingSettings stores the configured default pricing policy when none is active.
// This is idempotent - an existing active policy is left untouched.
func SeedPricingSettings(db *gorm.DB, policy models.PricingPolicy, logger *logrus.Entry) error {
	var count int64
	if err := db.Model(&models.PricingSettings{}).Where("is_active = true").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	settings := models.PricingSettings{
		MarkupType:    policy.MarkupType,
		MarkupValue:   policy.MarkupValue,
		MinimumProfit: policy.MinimumProfit,
		IsActive:      true,
	}
	if err := db.Create(&settings).Error; err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"markup_type":    policy.MarkupType,
		"markup_value":   policy.MarkupValue,
		"minimum_profit": policy.MinimumProfit,
	}).Info("Seeded default pricing settings")
	return nil
}
