package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"freight-quote-service/internal/carriers"
	"freight-quote-service/internal/models"
)

var (
	ErrResultNotFound = errors.New("shipment result not found")
	ErrQuoteNotFound  = errors.New("quote not found")
	ErrResultNotFinal = errors.New("shipment result is still processing")
	ErrInvalidPrice   = errors.New("customer price must not be negative")
)

// DefaultBatchInterval is the pause after each shipment of a batch before the next one starts
const DefaultBatchInterval = 500 * time.Millisecond

// GatewayProvider hands out rating gateways by name
type GatewayProvider interface {
	Get(name string) (carriers.RateGateway, error)
}

// MarginRuleStore is the read side of margin configuration
type MarginRuleStore interface {
	GetMarginRules(ctx context.Context, customerID string) ([]models.MarginRule, error)
	GetDefaultPricingPolicy(ctx context.Context) (*models.PricingPolicy, error)
}

// ResultStore persists shipment results
type ResultStore interface {
	SaveResult(ctx context.Context, result *models.ShipmentResult) error
	GetResult(ctx context.Context, id uuid.UUID) (*models.ShipmentResult, error)
	ListBatchResults(ctx context.Context, batchID uuid.UUID) ([]*models.ShipmentResult, error)
}

// EventPublisher announces quote outcomes
type EventPublisher interface {
	PublishQuoteCompleted(ctx context.Context, result *models.ShipmentResult) error
	PublishQuoteFailed(ctx context.Context, result *models.ShipmentResult) error
	PublishPriceOverridden(ctx context.Context, result *models.ShipmentResult, quote *models.PricedQuote) error
}

// QuoteMetrics records orchestration measurements
type QuoteMetrics interface {
	ObserveGatewayCall(gateway string, mode models.QuoteMode, duration time.Duration, err error)
	ObserveShipment(result *models.ShipmentResult)
	ObservePriceOverride()
}

// ResultObserver receives a snapshot of a result on every change
type ResultObserver func(result models.ShipmentResult)

// QuoteInput is one shipment to quote
type QuoteInput struct {
	CustomerID         string
	Shipment           models.ShipmentRequest
	SelectedCarrierIDs []string
	Mode               models.QuoteMode      // optional, bypasses classification
	Policy             *models.PricingPolicy // optional, replaces the stored default policy
	BatchID            *uuid.UUID
	Notes              []string // carried onto the result's warnings
}

// OrchestratorConfig configures the orchestrator
type OrchestratorConfig struct {
	BatchInterval time.Duration
	DefaultPolicy models.PricingPolicy // used when the store has none
	Logger        *logrus.Entry
	Metrics       QuoteMetrics
	Clock         func() time.Time
}

// QuoteOrchestrator drives a shipment from classification to priced quotes
type QuoteOrchestrator struct {
	gateways      GatewayProvider
	margins       MarginRuleStore
	results       ResultStore
	publisher     EventPublisher
	metrics       QuoteMetrics
	defaultPolicy models.PricingPolicy
	batchInterval time.Duration
	logger        *logrus.Entry
	now           func() time.Time

	mu        sync.RWMutex
	observers []ResultObserver
}

// NewQuoteOrchestrator creates a new quote orchestrator. The result store and publisher may be nil.
func NewQuoteOrchestrator(
	gateways GatewayProvider,
	margins MarginRuleStore,
	results ResultStore,
	publisher EventPublisher,
	config OrchestratorConfig,
) *QuoteOrchestrator {
	logger := config.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	interval := config.BatchInterval
	if interval < 0 {
		interval = 0
	}
	now := config.Clock
	if now == nil {
		now = time.Now
	}
	m := config.Metrics
	if m == nil {
		m = noopMetrics{}
	}

	return &QuoteOrchestrator{
		gateways:      gateways,
		margins:       margins,
		results:       results,
		publisher:     publisher,
		metrics:       m,
		defaultPolicy: config.DefaultPolicy,
		batchInterval: interval,
		logger:        logger.WithField("component", "quote_orchestrator"),
		now:           now,
	}
}

// AddObserver registers a callback for result changes
func (o *QuoteOrchestrator) AddObserver(observer ResultObserver) {
	o.mu.Lock()
	o.observers = append(o.observers, observer)
	o.mu.Unlock()
}

// QuoteShipment classifies, rates and prices one shipment. Failures are recorded on the
// returned result rather than returned as errors.
func (o *QuoteOrchestrator) QuoteShipment(ctx context.Context, input QuoteInput) *models.ShipmentResult {
	result := &models.ShipmentResult{
		ID:         uuid.New(),
		BatchID:    input.BatchID,
		CustomerID: input.CustomerID,
		Request:    input.Shipment,
		Quotes:     []models.PricedQuote{},
		Status:     models.ResultStatusPending,
		Warnings:   append(append([]string(nil), input.Notes...), input.Shipment.Warnings()...),
		CreatedAt:  o.now(),
	}
	o.notify(result)

	logger := o.logger.WithFields(logrus.Fields{
		"result_id":   result.ID,
		"customer_id": input.CustomerID,
	})

	decision := Classify(input.Shipment)
	if input.Mode != "" {
		explicit, err := decisionForMode(input.Mode)
		if err != nil {
			o.fail(ctx, result, err, logger)
			return result
		}
		decision = explicit
	}
	result.Decision = decision
	o.transition(result, models.ResultStatusProcessing)

	logger.WithFields(logrus.Fields{
		"network": decision.Network,
		"modes":   decision.Modes,
	}).Info("Shipment classified")

	raw, warnings, err := o.collectQuotes(ctx, input, decision.Modes, logger)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		o.fail(ctx, result, err, logger)
		return result
	}

	resolver := o.resolverFor(ctx, input, result, logger)
	for _, quote := range Deduplicate(raw) {
		margin := resolver.Resolve(quote.CarrierCode, quote.CarrierName, quote.TotalCharge)
		priced := PriceQuote(quote, margin, resolver.Policy().MinimumProfit)
		priced.ID = uuid.New()
		result.Quotes = append(result.Quotes, priced)
	}
	o.notify(result)

	o.transition(result, models.ResultStatusSuccess)
	logger.WithFields(logrus.Fields{
		"raw_quotes":    len(raw),
		"priced_quotes": len(result.Quotes),
	}).Info("Shipment quoted")

	o.save(ctx, result, logger)
	o.metrics.ObserveShipment(result)
	if o.publisher != nil {
		if err := o.publisher.PublishQuoteCompleted(ctx, result); err != nil {
			logger.WithError(err).Warn("Failed to publish quote completed event")
		}
	}

	return result
}

// QuoteBatch quotes shipments one after another, paced by the batch interval.
// A failed shipment does not stop the rest of the batch.
func (o *QuoteOrchestrator) QuoteBatch(ctx context.Context, inputs []QuoteInput) (uuid.UUID, []*models.ShipmentResult) {
	batchID := uuid.New()
	results := make([]*models.ShipmentResult, 0, len(inputs))

	logger := o.logger.WithFields(logrus.Fields{"batch_id": batchID, "shipments": len(inputs)})
	logger.Info("Batch started")

	var pause time.Duration
	for i := range inputs {
		input := inputs[i]
		input.BatchID = &batchID

		if err := waitFor(ctx, pause); err != nil {
			results = append(results, o.cancelled(ctx, input, err, logger))
			continue
		}
		results = append(results, o.QuoteShipment(ctx, input))
		pause = o.batchInterval
	}

	succeeded := 0
	for _, r := range results {
		if r.Status == models.ResultStatusSuccess {
			succeeded++
		}
	}
	logger.WithFields(logrus.Fields{
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	}).Info("Batch finished")

	return batchID, results
}

// OverridePrice replaces a quote's customer price with a manual value
func (o *QuoteOrchestrator) OverridePrice(ctx context.Context, resultID, quoteID uuid.UUID, newPrice float64) (*models.ShipmentResult, error) {
	if newPrice < 0 {
		return nil, ErrInvalidPrice
	}

	result, err := o.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if !result.Status.IsFinal() {
		return nil, ErrResultNotFinal
	}

	quote, ok := result.FindQuote(quoteID)
	if !ok {
		return nil, ErrQuoteNotFound
	}
	ApplyOverride(quote, newPrice)

	if err := o.results.SaveResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	o.metrics.ObservePriceOverride()
	o.notify(result)
	if o.publisher != nil {
		if err := o.publisher.PublishPriceOverridden(ctx, result, quote); err != nil {
			o.logger.WithError(err).Warn("Failed to publish price override event")
		}
	}

	o.logger.WithFields(logrus.Fields{
		"result_id":      resultID,
		"quote_id":       quoteID,
		"customer_price": quote.CustomerPrice,
		"profit":         quote.Profit,
	}).Info("Customer price overridden")

	return result, nil
}

// GetResult loads a stored result
func (o *QuoteOrchestrator) GetResult(ctx context.Context, id uuid.UUID) (*models.ShipmentResult, error) {
	if o.results == nil {
		return nil, ErrResultNotFound
	}
	result, err := o.results.GetResult(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	return result, nil
}

// BatchResults loads all stored results of a batch
func (o *QuoteOrchestrator) BatchResults(ctx context.Context, batchID uuid.UUID) ([]*models.ShipmentResult, error) {
	if o.results == nil {
		return nil, ErrResultNotFound
	}
	results, err := o.results.ListBatchResults(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch results: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrResultNotFound
	}
	return results, nil
}

// TestGateway verifies a gateway's credentials
func (o *QuoteOrchestrator) TestGateway(ctx context.Context, name string) error {
	gateway, err := o.gateways.Get(name)
	if err != nil {
		return err
	}
	return gateway.TestConnection(ctx)
}

// waitFor blocks for d, returning early with the context's error once it is done
func waitFor(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type modeOutcome struct {
	mode   models.QuoteMode
	quotes []models.RawQuote
	err    error
}

// collectQuotes calls every mode concurrently and waits for all of them. A mode that fails
// while another succeeds becomes a warning; the shipment fails only when every mode fails.
func (o *QuoteOrchestrator) collectQuotes(ctx context.Context, input QuoteInput, modes []models.QuoteMode, logger *logrus.Entry) ([]models.RawQuote, []string, error) {
	outcomes := make([]modeOutcome, len(modes))

	var wg sync.WaitGroup
	for i, mode := range modes {
		wg.Add(1)
		go func(i int, mode models.QuoteMode) {
			defer wg.Done()
			quotes, err := o.callGateway(ctx, input, mode)
			outcomes[i] = modeOutcome{mode: mode, quotes: quotes, err: err}
		}(i, mode)
	}
	wg.Wait()

	var quotes []models.RawQuote
	var warnings []string
	var errs []string
	for _, outcome := range outcomes {
		if outcome.err != nil {
			logger.WithError(outcome.err).WithField("mode", outcome.mode).Warn("Rating call failed")
			errs = append(errs, fmt.Sprintf("%s: %v", outcome.mode.Label(), outcome.err))
			continue
		}
		quotes = append(quotes, outcome.quotes...)
	}

	if len(errs) == len(outcomes) && len(errs) > 0 {
		return nil, nil, errors.New(strings.Join(errs, "; "))
	}
	for _, e := range errs {
		warnings = append(warnings, fmt.Sprintf("%s rates unavailable", e))
	}
	return quotes, warnings, nil
}

func (o *QuoteOrchestrator) callGateway(ctx context.Context, input QuoteInput, mode models.QuoteMode) ([]models.RawQuote, error) {
	name := carriers.GatewayFreight
	if mode == models.ModeReefer {
		name = carriers.GatewayReefer
	}

	gateway, err := o.gateways.Get(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	quotes, err := gateway.GetRates(ctx, carriers.RateRequest{
		Shipment:           input.Shipment,
		Mode:               mode,
		SelectedCarrierIDs: input.SelectedCarrierIDs,
	})
	o.metrics.ObserveGatewayCall(name, mode, time.Since(start), err)
	return quotes, err
}

// resolverFor builds the margin resolver for a shipment. Storage problems fall back to
// the configured default policy and are noted on the result.
func (o *QuoteOrchestrator) resolverFor(ctx context.Context, input QuoteInput, result *models.ShipmentResult, logger *logrus.Entry) *MarginResolver {
	policy := o.defaultPolicy
	var rules []models.MarginRule

	if o.margins != nil {
		if input.Policy == nil {
			stored, err := o.margins.GetDefaultPricingPolicy(ctx)
			switch {
			case err != nil:
				logger.WithError(err).Warn("Failed to load default pricing policy")
			case stored != nil:
				policy = *stored
			}
		}

		if input.CustomerID != "" {
			loaded, err := o.margins.GetMarginRules(ctx, input.CustomerID)
			if err != nil {
				logger.WithError(err).Error("Failed to load customer margin rules")
				result.Warnings = append(result.Warnings, "customer margin rules unavailable, default pricing applied")
			} else {
				rules = loaded
			}
		}
	}

	if input.Policy != nil {
		policy = *input.Policy
	}

	return NewMarginResolver(rules, policy)
}

func (o *QuoteOrchestrator) fail(ctx context.Context, result *models.ShipmentResult, err error, logger *logrus.Entry) {
	result.Error = err.Error()
	o.transition(result, models.ResultStatusError)
	logger.WithError(err).Error("Shipment quote failed")

	o.save(ctx, result, logger)
	o.metrics.ObserveShipment(result)
	if o.publisher != nil {
		if pubErr := o.publisher.PublishQuoteFailed(ctx, result); pubErr != nil {
			logger.WithError(pubErr).Warn("Failed to publish quote failed event")
		}
	}
}

// cancelled records a batch shipment that never started
func (o *QuoteOrchestrator) cancelled(ctx context.Context, input QuoteInput, err error, logger *logrus.Entry) *models.ShipmentResult {
	result := &models.ShipmentResult{
		ID:         uuid.New(),
		BatchID:    input.BatchID,
		CustomerID: input.CustomerID,
		Request:    input.Shipment,
		Decision:   Classify(input.Shipment),
		Quotes:     []models.PricedQuote{},
		Status:     models.ResultStatusPending,
		CreatedAt:  o.now(),
	}
	result.Error = fmt.Sprintf("batch cancelled before this shipment was quoted: %v", err)
	o.transition(result, models.ResultStatusError)
	logger.WithField("result_id", result.ID).Warn("Batch shipment skipped")
	o.metrics.ObserveShipment(result)
	// the caller's context is done, persist without it
	o.save(context.WithoutCancel(ctx), result, logger)
	return result
}

func (o *QuoteOrchestrator) transition(result *models.ShipmentResult, status models.ResultStatus) {
	result.Status = status
	if status.IsFinal() {
		completed := o.now()
		result.CompletedAt = &completed
	}
	o.notify(result)
}

func (o *QuoteOrchestrator) save(ctx context.Context, result *models.ShipmentResult, logger *logrus.Entry) {
	if o.results == nil {
		return
	}
	if err := o.results.SaveResult(ctx, result); err != nil {
		logger.WithError(err).Error("Failed to save shipment result")
	}
}

func (o *QuoteOrchestrator) notify(result *models.ShipmentResult) {
	o.mu.RLock()
	observers := o.observers
	o.mu.RUnlock()
	if len(observers) == 0 {
		return
	}

	snapshot := *result
	snapshot.Quotes = append([]models.PricedQuote(nil), result.Quotes...)
	snapshot.Warnings = append([]string(nil), result.Warnings...)
	for _, observer := range observers {
		observer(snapshot)
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveGatewayCall(string, models.QuoteMode, time.Duration, error) {}
func (noopMetrics) ObserveShipment(*models.ShipmentResult) {}
func (noopMetrics) ObservePriceOverride() {}
