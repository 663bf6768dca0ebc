package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"freight-quote-service/internal/models"
)

// HistoricalRepository reads imported historical shipments
type HistoricalRepository struct {
	db *gorm.DB
}

// NewHistoricalRepository creates a new historical repository
func NewHistoricalRepository(db *gorm.DB) *HistoricalRepository {
	return &HistoricalRepository{db: db}
}

// GetHistoricalShipment gets a historical shipment by ID
func (r *HistoricalRepository) GetHistoricalShipment(ctx context.Context, id uuid.UUID) (*models.HistoricalShipment, error) {
	var shipment models.HistoricalShipment
	if err := r.db.WithContext(ctx).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// CreateHistoricalShipments stores imported records in batches
func (r *HistoricalRepository) CreateHistoricalShipments(ctx context.Context, shipments []models.HistoricalShipment) error {
	if len(shipments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(shipments, 100).Error
}
