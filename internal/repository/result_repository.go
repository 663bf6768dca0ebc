package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"freight-quote-service/internal/models"
)

// ResultRepository handles database operations for shipment quote results
type ResultRepository interface {
	SaveResult(ctx context.Context, result *models.ShipmentResult) error
	GetResult(ctx context.Context, id uuid.UUID) (*models.ShipmentResult, error)
	ListBatchResults(ctx context.Context, batchID uuid.UUID) ([]*models.ShipmentResult, error)
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

// SaveResult inserts a result or overwrites the stored copy
func (r *resultRepository) SaveResult(ctx context.Context, result *models.ShipmentResult) error {
	record, err := models.NewShipmentResultRecord(result)
	if err != nil {
		return err
	}
	record.UpdatedAt = time.Now()

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"error",
				"decision",
				"quotes",
				"warnings",
				"quote_count",
				"updated_at",
				"completed_at",
			}),
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetResult retrieves a result by ID
func (r *resultRepository) GetResult(ctx context.Context, id uuid.UUID) (*models.ShipmentResult, error) {
	var record models.ShipmentResultRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return record.ToResult()
}

// ListBatchResults retrieves the results of a batch in creation order
func (r *resultRepository) ListBatchResults(ctx context.Context, batchID uuid.UUID) ([]*models.ShipmentResult, error) {
	var records []models.ShipmentResultRecord
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	results := make([]*models.ShipmentResult, 0, len(records))
	for i := range records {
		result, err := records[i].ToResult()
		if err != nil {
			return nil, fmt.Errorf("result %s: %w", records[i].ID, err)
		}
		results = append(results, result)
	}
	return results, nil
}
