package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"freight-quote-service/internal/ingest"
	"freight-quote-service/internal/models"
)

var ErrHistoricalNotFound = errors.New("historical shipment not found")

// HistoricalStore reads imported shipment records
type HistoricalStore interface {
	GetHistoricalShipment(ctx context.Context, id uuid.UUID) (*models.HistoricalShipment, error)
}

// HistoricalService quotes stored historical shipments again
type HistoricalService struct {
	store        HistoricalStore
	orchestrator *QuoteOrchestrator
	logger       *logrus.Entry
	now          func() time.Time
}

// NewHistoricalService creates a new historical service
func NewHistoricalService(store HistoricalStore, orchestrator *QuoteOrchestrator, logger *logrus.Entry) *HistoricalService {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &HistoricalService{
		store:        store,
		orchestrator: orchestrator,
		logger:       logger.WithField("component", "historical_service"),
		now:          time.Now,
	}
}

// Requote converts a historical record into a shipment request and quotes it.
// Pickup dates in the past are dropped so the provider picks the next available day.
func (s *HistoricalService) Requote(ctx context.Context, id uuid.UUID, carrierIDs []string) (*models.ShipmentResult, error) {
	record, err := s.store.GetHistoricalShipment(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHistoricalNotFound
		}
		return nil, fmt.Errorf("failed to load historical shipment: %w", err)
	}

	request, notes, err := ingest.ToShipmentRequest(*record)
	if err != nil {
		return nil, fmt.Errorf("historical shipment %s cannot be quoted: %w", id, err)
	}

	today := s.now().Truncate(24 * time.Hour)
	if !request.PickupDate.IsZero() && request.PickupDate.Before(today) {
		notes = append(notes, fmt.Sprintf("original pickup date %s is in the past, next available date used",
			request.PickupDate.Format("2006-01-02")))
		request.PickupDate = time.Time{}
	}

	s.logger.WithFields(logrus.Fields{
		"historical_id": id,
		"customer_id":   record.CustomerID,
		"notes":         len(notes),
	}).Info("Re-quoting historical shipment")

	return s.orchestrator.QuoteShipment(ctx, QuoteInput{
		CustomerID:         record.CustomerID,
		Shipment:           request,
		SelectedCarrierIDs: carrierIDs,
		Notes:              notes,
	}), nil
}
