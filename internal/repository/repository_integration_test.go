//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"freight-quote-service/internal/models"
)

// RepositoryTestSuite runs the repositories against a real Postgres (and Redis when configured)
type RepositoryTestSuite struct {
	suite.Suite
	db      *gorm.DB
	redis   *redis.Client
	margins *MarginRepository
	results ResultRepository
	history *HistoricalRepository
}

func (s *RepositoryTestSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=freight_quote_test port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		s.T().Fatalf("Failed to connect to database: %v", err)
	}
	s.db = db

	err = s.db.AutoMigrate(
		&models.MarginRule{},
		&models.PricingSettings{},
		&models.ShipmentResultRecord{},
		&models.HistoricalShipment{},
	)
	if err != nil {
		s.T().Fatalf("Failed to run migrations: %v", err)
	}

	if redisURL := os.Getenv("TEST_REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			s.T().Fatalf("Failed to parse redis URL: %v", err)
		}
		s.redis = redis.NewClient(opts)
	}

	s.margins = NewMarginRepository(s.db, s.redis)
	s.results = NewResultRepository(s.db)
	s.history = NewHistoricalRepository(s.db)
}

func (s *RepositoryTestSuite) TearDownSuite() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

func (s *RepositoryTestSuite) TestMarginRulesRoundTrip() {
	ctx := context.Background()
	customerID := "cust-" + uuid.New().String()[:8]
	max := 1000.0

	s.Require().NoError(s.margins.CreateMarginRule(ctx, &models.MarginRule{CustomerID: customerID, CarrierID: "ODFL", MinAmount: 0, MaxAmount: &max, Percentage: 18}))
	s.Require().NoError(s.margins.CreateMarginRule(ctx, &models.MarginRule{CustomerID: customerID, CarrierID: "ODFL", MinAmount: 1000, Percentage: 12}))

	rules, err := s.margins.GetMarginRules(ctx, customerID)
	s.Require().NoError(err)
	s.Len(rules, 2)

	// second read is served from cache when redis is configured
	rules, err = s.margins.GetMarginRules(ctx, customerID)
	s.Require().NoError(err)
	s.Len(rules, 2)

	s.Require().NoError(s.margins.DeleteMarginRule(ctx, customerID, rules[0].ID))
	rules, err = s.margins.GetMarginRules(ctx, customerID)
	s.Require().NoError(err)
	s.Len(rules, 1)
}

func (s *RepositoryTestSuite) TestInvalidMarginRange() {
	max := 50.0
	err := s.margins.CreateMarginRule(context.Background(), &models.MarginRule{CustomerID: "c", CarrierID: "SAIA", MinAmount: 100, MaxAmount: &max})
	s.Error(err)
}

func (s *RepositoryTestSuite) TestUpdateMarginRuleScopedToCustomer() {
	ctx := context.Background()
	owner := "cust-" + uuid.NewString()
	other := "cust-" + uuid.NewString()

	rule := &models.MarginRule{CustomerID: owner, CarrierID: "ODFL", MinAmount: 0, Percentage: 18}
	s.Require().NoError(s.margins.CreateMarginRule(ctx, rule))
	createdAt := rule.CreatedAt

	// warm the owner's cache
	_, err := s.margins.GetMarginRules(ctx, owner)
	s.Require().NoError(err)

	err = s.margins.UpdateMarginRule(ctx, &models.MarginRule{ID: rule.ID, CustomerID: other, CarrierID: "ODFL", Percentage: 50})
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	err = s.margins.UpdateMarginRule(ctx, &models.MarginRule{ID: uuid.New(), CustomerID: owner, CarrierID: "ODFL", Percentage: 50})
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	rules, err := s.margins.GetMarginRules(ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(rules, 1)
	s.Equal(18.0, rules[0].Percentage)

	updated := &models.MarginRule{ID: rule.ID, CustomerID: owner, CarrierID: "SAIA", MinAmount: 100, Percentage: 12}
	s.Require().NoError(s.margins.UpdateMarginRule(ctx, updated))
	s.WithinDuration(createdAt, updated.CreatedAt, time.Second)

	rules, err = s.margins.GetMarginRules(ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(rules, 1)
	s.Equal("SAIA", rules[0].CarrierID)
	s.Equal(12.0, rules[0].Percentage)
}

func (s *RepositoryTestSuite) TestPricingSettings() {
	ctx := context.Background()
	s.Require().NoError(SeedPricingSettings(s.db, models.PricingPolicy{MarkupType: models.MarkupPercentage, MarkupValue: 15, MinimumProfit: 100}, logrus.NewEntry(logrus.New())))

	s.Require().NoError(s.margins.SavePricingSettings(ctx, models.PricingPolicy{MarkupType: models.MarkupFixed, MarkupValue: 200, MinimumProfit: 75}))

	policy, err := s.margins.GetDefaultPricingPolicy(ctx)
	s.Require().NoError(err)
	s.Require().NotNil(policy)
	s.Equal(models.MarkupFixed, policy.MarkupType)
	s.Equal(200.0, policy.MarkupValue)
}

func (s *RepositoryTestSuite) TestResultRoundTrip() {
	ctx := context.Background()
	batchID := uuid.New()
	completed := time.Now().UTC().Truncate(time.Second)
	transit := 3

	result := &models.ShipmentResult{
		ID:         uuid.New(),
		BatchID:    &batchID,
		CustomerID: "cust-1",
		Request:    models.ShipmentRequest{OriginZip: "60607", DestinationZip: "30033", Pallets: 12, GrossWeight: 18000},
		Decision:   models.RoutingDecision{Network: models.NetworkDualFreight, Modes: []models.QuoteMode{models.ModeVolume, models.ModeStandard}},
		Status:     models.ResultStatusProcessing,
		CreatedAt:  completed,
	}
	s.Require().NoError(s.results.SaveResult(ctx, result))

	result.Status = models.ResultStatusSuccess
	result.CompletedAt = &completed
	result.Quotes = []models.PricedQuote{{
		ID: uuid.New(),
		RawQuote: models.RawQuote{
			Provider: "freight", Mode: models.ModeVolume, CarrierCode: "ODFL", ServiceLevelCode: "STD",
			TotalCharge: 1000, Currency: "USD", TransitDays: &transit,
		},
		CarrierBaseRate: 1000,
		CustomerPrice:   1150,
		Profit:          150,
	}}
	s.Require().NoError(s.results.SaveResult(ctx, result))

	loaded, err := s.results.GetResult(ctx, result.ID)
	s.Require().NoError(err)
	s.Equal(models.ResultStatusSuccess, loaded.Status)
	s.Require().Len(loaded.Quotes, 1)
	s.Equal(1150.0, loaded.Quotes[0].CustomerPrice)
	s.Equal(models.ModeVolume, loaded.Quotes[0].Mode)

	batch, err := s.results.ListBatchResults(ctx, batchID)
	s.Require().NoError(err)
	s.Len(batch, 1)

	_, err = s.results.GetResult(ctx, uuid.New())
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *RepositoryTestSuite) TestHistoricalShipments() {
	ctx := context.Background()
	record := models.HistoricalShipment{ID: uuid.New(), CustomerID: "cust-1", OriginZip: "60607", DestinationZip: "30033", Weight: "1,200 lbs"}
	s.Require().NoError(s.history.CreateHistoricalShipments(ctx, []models.HistoricalShipment{record}))

	loaded, err := s.history.GetHistoricalShipment(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal("1,200 lbs", loaded.Weight)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
