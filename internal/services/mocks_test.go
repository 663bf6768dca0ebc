package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"freight-quote-service/internal/carriers"
	"freight-quote-service/internal/models"
)

// MockGateway is a mock implementation of carriers.RateGateway
type MockGateway struct {
	mock.Mock
	name string
}

var _ carriers.RateGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string {
	return m.name
}

func (m *MockGateway) GetRates(ctx context.Context, request carriers.RateRequest) ([]models.RawQuote, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RawQuote), args.Error(1)
}

func (m *MockGateway) TestConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// staticGateways hands out fixed gateways by name
type staticGateways map[string]carriers.RateGateway

func (g staticGateways) Get(name string) (carriers.RateGateway, error) {
	if gateway, ok := g[name]; ok {
		return gateway, nil
	}
	return nil, &carriers.AuthError{Provider: name, Body: "not configured"}
}

// MockMarginStore is a mock implementation of MarginRuleStore
type MockMarginStore struct {
	mock.Mock
}

var _ MarginRuleStore = (*MockMarginStore)(nil)

func (m *MockMarginStore) GetMarginRules(ctx context.Context, customerID string) ([]models.MarginRule, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MarginRule), args.Error(1)
}

func (m *MockMarginStore) GetDefaultPricingPolicy(ctx context.Context) (*models.PricingPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingPolicy), args.Error(1)
}

// MockResultStore is a mock implementation of ResultStore
type MockResultStore struct {
	mock.Mock
}

var _ ResultStore = (*MockResultStore)(nil)

func (m *MockResultStore) SaveResult(ctx context.Context, result *models.ShipmentResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultStore) GetResult(ctx context.Context, id uuid.UUID) (*models.ShipmentResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShipmentResult), args.Error(1)
}

func (m *MockResultStore) ListBatchResults(ctx context.Context, batchID uuid.UUID) ([]*models.ShipmentResult, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ShipmentResult), args.Error(1)
}

// MockPublisher is a mock implementation of EventPublisher
type MockPublisher struct {
	mock.Mock
}

var _ EventPublisher = (*MockPublisher)(nil)

func (m *MockPublisher) PublishQuoteCompleted(ctx context.Context, result *models.ShipmentResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockPublisher) PublishQuoteFailed(ctx context.Context, result *models.ShipmentResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockPublisher) PublishPriceOverridden(ctx context.Context, result *models.ShipmentResult, quote *models.PricedQuote) error {
	args := m.Called(ctx, result, quote)
	return args.Error(0)
}

func modeIs(mode models.QuoteMode) interface{} {
	return mock.MatchedBy(func(r carriers.RateRequest) bool {
		return r.Mode == mode
	})
}
