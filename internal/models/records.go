package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ShipmentResultRecord is the persisted form of a ShipmentResult
type ShipmentResultRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BatchID     *uuid.UUID     `gorm:"type:uuid;index" json:"batchId,omitempty"`
	CustomerID  string         `gorm:"type:varchar(255);index" json:"customerId"`
	Network     RoutingNetwork `gorm:"type:varchar(50)" json:"network"`
	Status      ResultStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	Error       string         `gorm:"type:text" json:"error,omitempty"`
	Request     datatypes.JSON `gorm:"type:jsonb" json:"request"`
	Decision    datatypes.JSON `gorm:"type:jsonb" json:"decision"`
	Quotes      datatypes.JSON `gorm:"type:jsonb" json:"quotes"`
	Warnings    datatypes.JSON `gorm:"type:jsonb" json:"warnings"`
	QuoteCount  int            `gorm:"default:0" json:"quoteCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// TableName specifies the table name for ShipmentResultRecord
func (ShipmentResultRecord) TableName() string {
	return "shipment_quote_results"
}

// NewShipmentResultRecord serializes a result for storage
func NewShipmentResultRecord(result *ShipmentResult) (*ShipmentResultRecord, error) {
	request, err := json.Marshal(result.Request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	decision, err := json.Marshal(result.Decision)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal decision: %w", err)
	}
	quotes, err := json.Marshal(result.Quotes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quotes: %w", err)
	}
	warnings, err := json.Marshal(result.Warnings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal warnings: %w", err)
	}

	return &ShipmentResultRecord{
		ID:          result.ID,
		BatchID:     result.BatchID,
		CustomerID:  result.CustomerID,
		Network:     result.Decision.Network,
		Status:      result.Status,
		Error:       result.Error,
		Request:     datatypes.JSON(request),
		Decision:    datatypes.JSON(decision),
		Quotes:      datatypes.JSON(quotes),
		Warnings:    datatypes.JSON(warnings),
		QuoteCount:  len(result.Quotes),
		CreatedAt:   result.CreatedAt,
		CompletedAt: result.CompletedAt,
	}, nil
}

// ToResult deserializes a stored record
func (r *ShipmentResultRecord) ToResult() (*ShipmentResult, error) {
	result := &ShipmentResult{
		ID:          r.ID,
		BatchID:     r.BatchID,
		CustomerID:  r.CustomerID,
		Status:      r.Status,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}
	if err := unmarshalIfPresent(r.Request, &result.Request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}
	if err := unmarshalIfPresent(r.Decision, &result.Decision); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decision: %w", err)
	}
	if err := unmarshalIfPresent(r.Quotes, &result.Quotes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quotes: %w", err)
	}
	if err := unmarshalIfPresent(r.Warnings, &result.Warnings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
	}
	return result, nil
}

func unmarshalIfPresent(data datatypes.JSON, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// HistoricalShipment is a shipment record imported from older systems.
// Numeric columns are free text ("$1,250.00", "12,000 lbs") and are parsed at ingestion.
type HistoricalShipment struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CustomerID       string    `gorm:"type:varchar(255);index" json:"customerId"`
	ReferenceNumber  string    `gorm:"type:varchar(100)" json:"referenceNumber"`
	OriginZip        string    `gorm:"type:varchar(20)" json:"originZip"`
	OriginCity       string    `gorm:"type:varchar(100)" json:"originCity"`
	OriginState      string    `gorm:"type:varchar(50)" json:"originState"`
	DestinationZip   string    `gorm:"type:varchar(20)" json:"destinationZip"`
	DestinationCity  string    `gorm:"type:varchar(100)" json:"destinationCity"`
	DestinationState string    `gorm:"type:varchar(50)" json:"destinationState"`
	PickupDate       string    `gorm:"type:varchar(50)" json:"pickupDate"`
	Pallets          string    `gorm:"type:varchar(50)" json:"pallets"`
	Weight           string    `gorm:"type:varchar(50)" json:"weight"`
	FreightClass     string    `gorm:"type:varchar(20)" json:"freightClass"`
	Commodity        string    `gorm:"type:text" json:"commodity"`
	Reefer           string    `gorm:"type:varchar(20)" json:"reefer"`
	Temperature      string    `gorm:"type:varchar(20)" json:"temperature"`
	Stackable        string    `gorm:"type:varchar(20)" json:"stackable"`
	CarrierName      string    `gorm:"type:varchar(255)" json:"carrierName"`
	CarrierCost      string    `gorm:"type:varchar(50)" json:"carrierCost"`
	CustomerPrice    string    `gorm:"type:varchar(50)" json:"customerPrice"`
	CreatedAt        time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// TableName specifies the table name for HistoricalShipment
func (HistoricalShipment) TableName() string {
	return "historical_shipments"
}
