package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"freight-quote-service/internal/models"
	"freight-quote-service/internal/services"
)

// MockQuoteService is a mock implementation of QuoteService
type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) QuoteShipment(ctx context.Context, input services.QuoteInput) *models.ShipmentResult {
	args := m.Called(ctx, input)
	return args.Get(0).(*models.ShipmentResult)
}

func (m *MockQuoteService) QuoteBatch(ctx context.Context, inputs []services.QuoteInput) (uuid.UUID, []*models.ShipmentResult) {
	args := m.Called(ctx, inputs)
	return args.Get(0).(uuid.UUID), args.Get(1).([]*models.ShipmentResult)
}

func (m *MockQuoteService) OverridePrice(ctx context.Context, resultID, quoteID uuid.UUID, newPrice float64) (*models.ShipmentResult, error) {
	args := m.Called(ctx, resultID, quoteID, newPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShipmentResult), args.Error(1)
}

func (m *MockQuoteService) GetResult(ctx context.Context, id uuid.UUID) (*models.ShipmentResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShipmentResult), args.Error(1)
}

func (m *MockQuoteService) BatchResults(ctx context.Context, batchID uuid.UUID) ([]*models.ShipmentResult, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ShipmentResult), args.Error(1)
}

func (m *MockQuoteService) TestGateway(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MockRequoter is a mock implementation of Requoter
type MockRequoter struct {
	mock.Mock
}

func (m *MockRequoter) Requote(ctx context.Context, id uuid.UUID, carrierIDs []string) (*models.ShipmentResult, error) {
	args := m.Called(ctx, id, carrierIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShipmentResult), args.Error(1)
}

// MockImporter is a mock implementation of HistoricalImporter
type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) CreateHistoricalShipments(ctx context.Context, shipments []models.HistoricalShipment) error {
	args := m.Called(ctx, shipments)
	return args.Error(0)
}

// MockPricingStore is a mock implementation of PricingStore
type MockPricingStore struct {
	mock.Mock
}

func (m *MockPricingStore) GetMarginRules(ctx context.Context, customerID string) ([]models.MarginRule, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MarginRule), args.Error(1)
}

func (m *MockPricingStore) CreateMarginRule(ctx context.Context, rule *models.MarginRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockPricingStore) UpdateMarginRule(ctx context.Context, rule *models.MarginRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockPricingStore) DeleteMarginRule(ctx context.Context, customerID string, ruleID uuid.UUID) error {
	args := m.Called(ctx, customerID, ruleID)
	return args.Error(0)
}

func (m *MockPricingStore) GetDefaultPricingPolicy(ctx context.Context) (*models.PricingPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingPolicy), args.Error(1)
}

func (m *MockPricingStore) SavePricingSettings(ctx context.Context, policy models.PricingPolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}
