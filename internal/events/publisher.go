package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"

	"freight-quote-service/internal/models"
)

// Freight quote event types
const (
	QuoteCompleted       = "freight.quote.completed"
	QuoteFailed          = "freight.quote.failed"
	QuotePriceOverridden = "freight.quote.price_overridden"
)

// StreamName is the JetStream stream holding quote events
const StreamName = "FREIGHT_QUOTES"

const publishTimeout = 5 * time.Second

// QuoteEvent represents a quote-related event
type QuoteEvent struct {
	EventID     string                `json:"eventId"`
	EventType   string                `json:"eventType"`
	Timestamp   time.Time             `json:"timestamp"`
	ResultID    string                `json:"resultId"`
	BatchID     string                `json:"batchId,omitempty"`
	CustomerID  string                `json:"customerId"`
	Network     models.RoutingNetwork `json:"network,omitempty"`
	Status      models.ResultStatus   `json:"status"`
	Error       string                `json:"error,omitempty"`
	QuoteCount  int                   `json:"quoteCount"`
	LowestPrice float64               `json:"lowestPrice,omitempty"`
	Warnings    []string              `json:"warnings,omitempty"`

	QuoteID       string  `json:"quoteId,omitempty"`
	CarrierCode   string  `json:"carrierCode,omitempty"`
	CustomerPrice float64 `json:"customerPrice,omitempty"`
	Profit        float64 `json:"profit,omitempty"`
}

// streamPublisher is the part of jetstream.JetStream the publisher needs
type streamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher publishes freight quote events to JetStream
type Publisher struct {
	conn   *nats.Conn
	js     streamPublisher
	logger *logrus.Entry
}

// NewPublisher connects to NATS and makes sure the quote stream exists
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	log := logger.WithField("component", "events.publisher")

	nc, err := nats.Connect(natsURL,
		nats.Name("freight-quote-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("Reconnected to NATS")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("Disconnected from NATS")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"freight.quote.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to ensure FREIGHT_QUOTES stream")
	}

	return &Publisher{conn: nc, js: js, logger: log}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// PublishQuoteCompleted publishes a quote completed event
func (p *Publisher) PublishQuoteCompleted(ctx context.Context, result *models.ShipmentResult) error {
	return p.publish(ctx, newResultEvent(QuoteCompleted, result))
}

// PublishQuoteFailed publishes a quote failed event
func (p *Publisher) PublishQuoteFailed(ctx context.Context, result *models.ShipmentResult) error {
	return p.publish(ctx, newResultEvent(QuoteFailed, result))
}

// PublishPriceOverridden publishes a manual price change on one quote
func (p *Publisher) PublishPriceOverridden(ctx context.Context, result *models.ShipmentResult, quote *models.PricedQuote) error {
	event := newResultEvent(QuotePriceOverridden, result)
	event.QuoteID = quote.ID.String()
	event.CarrierCode = quote.CarrierCode
	event.CustomerPrice = quote.CustomerPrice
	event.Profit = quote.Profit
	return p.publish(ctx, event)
}

func newResultEvent(eventType string, result *models.ShipmentResult) *QuoteEvent {
	event := &QuoteEvent{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		Timestamp:  time.Now().UTC(),
		ResultID:   result.ID.String(),
		CustomerID: result.CustomerID,
		Network:    result.Decision.Network,
		Status:     result.Status,
		Error:      result.Error,
		QuoteCount: len(result.Quotes),
		Warnings:   result.Warnings,
	}
	if result.BatchID != nil {
		event.BatchID = result.BatchID.String()
	}
	for i, quote := range result.Quotes {
		if i == 0 || quote.CustomerPrice < event.LowestPrice {
			event.LowestPrice = quote.CustomerPrice
		}
	}
	return event
}

func (p *Publisher) publish(ctx context.Context, event *QuoteEvent) error {
	if p == nil || p.js == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.EventType, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if _, err := p.js.Publish(pubCtx, event.EventType, data, jetstream.WithMsgID(event.EventID)); err != nil {
		p.logger.WithFields(logrus.Fields{
			"eventType": event.EventType,
			"resultID":  event.ResultID,
		}).WithError(err).Error("Failed to publish quote event")
		return fmt.Errorf("failed to publish %s: %w", event.EventType, err)
	}

	p.logger.WithFields(logrus.Fields{
		"eventType":  event.EventType,
		"resultID":   event.ResultID,
		"customerID": event.CustomerID,
	}).Debug("Quote event published")
	return nil
}
