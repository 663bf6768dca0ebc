package carriers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// GatewayFactory creates rating gateway instances from configuration
type GatewayFactory struct {
	mu       sync.RWMutex
	configs  map[string]GatewayConfig
	gateways map[string]RateGateway // cache of gateway instances
	logger   *logrus.Entry
}

// NewGatewayFactory creates a new gateway factory
func NewGatewayFactory(logger *logrus.Entry) *GatewayFactory {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &GatewayFactory{
		configs:  make(map[string]GatewayConfig),
		gateways: make(map[string]RateGateway),
		logger:   logger,
	}
}

// Register stores the configuration for a gateway and drops any cached instance
func (f *GatewayFactory) Register(name string, config GatewayConfig) {
	f.mu.Lock()
	f.configs[name] = config
	delete(f.gateways, name)
	f.mu.Unlock()
}

// CreateGateway creates a new gateway instance without caching it
func (f *GatewayFactory) CreateGateway(name string, config GatewayConfig) (RateGateway, error) {
	if !config.Enabled {
		return nil, fmt.Errorf("gateway %s is disabled", name)
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("gateway %s has no base URL", name)
	}

	logger := f.logger.WithField("component", "rate_gateway")
	switch name {
	case GatewayFreight:
		return NewFreightGateway(config, logger), nil
	case GatewayReefer:
		return NewReeferGateway(config, logger), nil
	default:
		return nil, fmt.Errorf("unsupported gateway: %s", name)
	}
}

// Get returns the cached gateway for name, creating it from its registered configuration
func (f *GatewayFactory) Get(name string) (RateGateway, error) {
	f.mu.RLock()
	if gateway, exists := f.gateways[name]; exists {
		f.mu.RUnlock()
		return gateway, nil
	}
	config, ok := f.configs[name]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("gateway %s is not configured", name)
	}

	gateway, err := f.CreateGateway(name, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s gateway: %w", name, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// another caller may have won the race
	if existing, exists := f.gateways[name]; exists {
		return existing, nil
	}
	f.gateways[name] = gateway
	return gateway, nil
}

// Available lists the names of enabled gateways
func (f *GatewayFactory) Available() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.configs))
	for name, config := range f.configs {
		if config.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// GatewayDisplayName returns a human-readable name for a gateway
func GatewayDisplayName(name string) string {
	switch name {
	case GatewayFreight:
		return "General Freight Network"
	case GatewayReefer:
		return "Temperature-Controlled Network"
	default:
		return name
	}
}
