package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freight-quote-service/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FREIGHT_ENABLED", "")
	t.Setenv("REEFER_ENABLED", "")
	t.Setenv("BATCH_INTERVAL", "")
	t.Setenv("DEFAULT_MARKUP_TYPE", "")
	t.Setenv("DEFAULT_MARKUP_VALUE", "")
	t.Setenv("RATE_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Quoting.BatchInterval)
	assert.Equal(t, models.MarkupPercentage, cfg.Quoting.DefaultPolicy.MarkupType)
	assert.False(t, cfg.Gateways.Freight.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Gateways.Freight.Timeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("FREIGHT_ENABLED", "true")
	t.Setenv("FREIGHT_CLIENT_ID", "client")
	t.Setenv("FREIGHT_CLIENT_SECRET", "secret")
	t.Setenv("FREIGHT_BASE_URL", "https://rating.example.com")
	t.Setenv("RATE_TIMEOUT", "45")
	t.Setenv("BATCH_INTERVAL", "750ms")
	t.Setenv("DEFAULT_MARKUP_TYPE", "FIXED")
	t.Setenv("DEFAULT_MARKUP_VALUE", "125")
	t.Setenv("DEFAULT_MIN_PROFIT", "40.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Gateways.Freight.Enabled)
	assert.Equal(t, 45*time.Second, cfg.Gateways.Freight.Timeout)
	assert.Equal(t, 45*time.Second, cfg.Gateways.Reefer.Timeout)
	assert.Equal(t, 750*time.Millisecond, cfg.Quoting.BatchInterval)
	assert.Equal(t, models.PricingPolicy{MarkupType: models.MarkupFixed, MarkupValue: 125, MinimumProfit: 40.5}, cfg.Quoting.DefaultPolicy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "enabled gateway without credentials",
			env:     map[string]string{"REEFER_ENABLED": "true", "REEFER_BASE_URL": "https://reefer.example.com"},
			wantErr: "REEFER_CLIENT_ID",
		},
		{
			name:    "enabled gateway without base url",
			env:     map[string]string{"FREIGHT_ENABLED": "true", "FREIGHT_CLIENT_ID": "id", "FREIGHT_CLIENT_SECRET": "secret"},
			wantErr: "FREIGHT_BASE_URL",
		},
		{
			name:    "unknown markup type",
			env:     map[string]string{"DEFAULT_MARKUP_TYPE": "tiered"},
			wantErr: "DEFAULT_MARKUP_TYPE",
		},
		{
			name:    "negative markup",
			env:     map[string]string{"DEFAULT_MARKUP_VALUE": "-5"},
			wantErr: "DEFAULT_MARKUP_VALUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"FREIGHT_ENABLED", "REEFER_ENABLED", "DEFAULT_MARKUP_TYPE", "DEFAULT_MARKUP_VALUE"} {
				t.Setenv(key, "")
			}
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetEnvDurationFallsBack(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvDuration("SOME_DURATION", time.Minute))
}
