package carriers

import (
	"context"
	"time"

	"freight-quote-service/internal/models"
)

// RateGateway defines the interface that all rating providers must implement
type RateGateway interface {
	// Name returns the gateway name
	Name() string

	// GetRates retrieves carrier quotes for a shipment in one mode
	GetRates(ctx context.Context, request RateRequest) ([]models.RawQuote, error)

	// TestConnection discards any cached credential and authenticates again
	TestConnection(ctx context.Context) error
}

// RateRequest is a single rating call
type RateRequest struct {
	Shipment           models.ShipmentRequest
	Mode               models.QuoteMode
	SelectedCarrierIDs []string // empty means no restriction
}

// GatewayConfig holds configuration for a rating gateway
type GatewayConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string // defaults to BaseURL + /oauth2/token
	Scope        string
	Enabled      bool
	IsProduction bool
	Timeout      time.Duration
}

const defaultRequestTimeout = 30 * time.Second

func (c GatewayConfig) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return c.BaseURL + "/oauth2/token"
}

func (c GatewayConfig) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultRequestTimeout
}

// allowList builds a lookup set from a carrier allow-list, nil when unrestricted
func allowList(carrierIDs []string) map[string]bool {
	if len(carrierIDs) == 0 {
		return nil
	}
	set := make(map[string]bool, len(carrierIDs))
	for _, id := range carrierIDs {
		set[normalizeCode(id)] = true
	}
	return set
}
