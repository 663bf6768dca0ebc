package models

import (
	"time"

	"github.com/google/uuid"
)

// TemperatureBand is the temperature range requested for a reefer shipment
type TemperatureBand string

const (
	TemperatureAmbient TemperatureBand = "ambient"
	TemperatureChilled TemperatureBand = "chilled"
	TemperatureFrozen  TemperatureBand = "frozen"
)

// ShipmentRequest holds the shipment parameters submitted by a broker.
// It is read-only once created.
type ShipmentRequest struct {
	OriginZip        string          `json:"originZip" binding:"required"`
	OriginCity       string          `json:"originCity,omitempty"`
	OriginState      string          `json:"originState,omitempty"`
	DestinationZip   string          `json:"destinationZip" binding:"required"`
	DestinationCity  string          `json:"destinationCity,omitempty"`
	DestinationState string          `json:"destinationState,omitempty"`
	PickupDate       time.Time       `json:"pickupDate"`
	Pallets          int             `json:"pallets" binding:"gte=0"`
	GrossWeight      float64         `json:"grossWeight" binding:"gte=0"` // lbs
	Stackable        bool            `json:"stackable"`
	IsReefer         bool            `json:"isReefer"`
	Temperature      TemperatureBand `json:"temperature,omitempty"`
	FreightClass     string          `json:"freightClass,omitempty"`
	Commodity        string          `json:"commodity,omitempty"`
	LinearFeet       float64         `json:"linearFeet,omitempty"` // explicit value, derived for volume mode when zero
	Accessorials     []string        `json:"accessorials,omitempty"`
	LineItems        []LineItem      `json:"lineItems,omitempty"`
}

// LineItem is one handling unit group in a shipment
type LineItem struct {
	Weight       float64       `json:"weight"` // lbs, total for the line
	Length       float64       `json:"length"` // inches
	Width        float64       `json:"width"`
	Height       float64       `json:"height"`
	FreightClass string        `json:"freightClass,omitempty"`
	PackageType  string        `json:"packageType,omitempty"`
	Quantity     int           `json:"quantity"`
	Description  string        `json:"description,omitempty"`
	Hazmat       *HazmatDetail `json:"hazmat,omitempty"`
}

// HazmatDetail describes hazardous material in a line item
type HazmatDetail struct {
	UNNumber       string `json:"unNumber"`
	HazardClass    string `json:"hazardClass"`
	PackingGroup   string `json:"packingGroup,omitempty"`
	ProperName     string `json:"properShippingName,omitempty"`
	EmergencyPhone string `json:"emergencyPhone,omitempty"`
}

// LineItemWeightTolerance is how far (lbs) the line item total may drift from the gross weight
const LineItemWeightTolerance = 10.0

// Warnings returns advisory validation messages for the request. Nothing here blocks quoting.
func (r ShipmentRequest) Warnings() []string {
	var warnings []string
	if len(r.LineItems) > 0 {
		var total float64
		for _, item := range r.LineItems {
			total += item.Weight
		}
		diff := total - r.GrossWeight
		if diff < 0 {
			diff = -diff
		}
		if diff > LineItemWeightTolerance {
			warnings = append(warnings, "line item weights do not add up to the gross weight")
		}
	}
	if r.IsReefer && r.Temperature == "" {
		warnings = append(warnings, "reefer shipment has no temperature band, chilled assumed")
	}
	return warnings
}

// RoutingNetwork is the rating network a shipment is sent to
type RoutingNetwork string

const (
	NetworkTemperatureControlled RoutingNetwork = "TEMPERATURE_CONTROLLED"
	NetworkStandardFreight       RoutingNetwork = "STANDARD_FREIGHT"
	NetworkVolumeFreight         RoutingNetwork = "VOLUME_FREIGHT"
	NetworkDualFreight           RoutingNetwork = "DUAL_FREIGHT"
	NetworkTruckload             RoutingNetwork = "TRUCKLOAD"
)

// QuoteMode identifies which request mode produced a quote
type QuoteMode string

const (
	ModeStandard  QuoteMode = "STANDARD"
	ModeVolume    QuoteMode = "VOLUME"
	ModeTruckload QuoteMode = "TRUCKLOAD"
	ModeReefer    QuoteMode = "REEFER"
)

// Label returns the display label for a mode
func (m QuoteMode) Label() string {
	switch m {
	case ModeStandard:
		return "Standard LTL"
	case ModeVolume:
		return "Volume LTL"
	case ModeTruckload:
		return "Full Truckload"
	case ModeReefer:
		return "Refrigerated"
	default:
		return string(m)
	}
}

// RoutingDecision says which network(s) and modes to call for a shipment
type RoutingDecision struct {
	Network RoutingNetwork `json:"network"`
	Modes   []QuoteMode    `json:"modes"`
	Reason  string         `json:"reason"`
}

// Charge is a single line on a carrier quote (linehaul, fuel, accessorial, ...)
type Charge struct {
	Code        string  `json:"code,omitempty"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// RawQuote is a normalized carrier quote as returned by a rating gateway.
// Mode is set when the quote is built and never changed afterwards.
type RawQuote struct {
	Provider          string     `json:"provider"`
	Mode              QuoteMode  `json:"mode"`
	ProviderQuoteID   string     `json:"providerQuoteId,omitempty"`
	CarrierCode       string     `json:"carrierCode"`
	CarrierName       string     `json:"carrierName"`
	ServiceLevelCode  string     `json:"serviceLevelCode"`
	ServiceLevelName  string     `json:"serviceLevelName,omitempty"`
	TotalCharge       float64    `json:"totalCharge"`
	Currency          string     `json:"currency"`
	TransitDays       *int       `json:"transitDays,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	Charges           []Charge   `json:"charges,omitempty"`
}

// MarginSource says where the margin applied to a quote came from
type MarginSource string

const (
	MarginSourceCustomer MarginSource = "CUSTOMER_SPECIFIC"
	MarginSourceDefault  MarginSource = "DEFAULT"
)

// PricedQuote is a deduplicated quote with customer pricing applied
type PricedQuote struct {
	ID uuid.UUID `json:"id"`
	RawQuote

	CarrierBaseRate  float64      `json:"carrierBaseRate"`
	MarginValue      float64      `json:"marginValue"`
	MarginType       MarkupType   `json:"marginType"`
	MarginSource     MarginSource `json:"marginSource"`
	CustomerPrice    float64      `json:"customerPrice"`
	Profit           float64      `json:"profit"`
	MarginPercentage float64      `json:"marginPercentage"`
	IsCustomPrice    bool         `json:"isCustomPrice"`
}

// ResultStatus is the lifecycle state of a ShipmentResult
type ResultStatus string

const (
	ResultStatusPending    ResultStatus = "pending"
	ResultStatusProcessing ResultStatus = "processing"
	ResultStatusSuccess    ResultStatus = "success"
	ResultStatusError      ResultStatus = "error"
)

// IsFinal reports whether no further transitions are allowed
func (s ResultStatus) IsFinal() bool {
	return s == ResultStatusSuccess || s == ResultStatusError
}

// ShipmentResult is the outcome of quoting one shipment
type ShipmentResult struct {
	ID          uuid.UUID       `json:"id"`
	BatchID     *uuid.UUID      `json:"batchId,omitempty"`
	CustomerID  string          `json:"customerId"`
	Request     ShipmentRequest `json:"request"`
	Decision    RoutingDecision `json:"decision"`
	Quotes      []PricedQuote   `json:"quotes"`
	Status      ResultStatus    `json:"status"`
	Error       string          `json:"error,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// FindQuote returns the priced quote with the given id
func (r *ShipmentResult) FindQuote(quoteID uuid.UUID) (*PricedQuote, bool) {
	for i := range r.Quotes {
		if r.Quotes[i].ID == quoteID {
			return &r.Quotes[i], true
		}
	}
	return nil, false
}

// QuoteRequest is the API payload for quoting one shipment
type QuoteRequest struct {
	CustomerID         string          `json:"customerId" binding:"required"`
	Shipment           ShipmentRequest `json:"shipment" binding:"required"`
	SelectedCarrierIDs []string        `json:"selectedCarrierIds,omitempty"`
	Mode               QuoteMode       `json:"mode,omitempty"` // explicit mode, bypasses classification
	Policy             *PricingPolicy  `json:"policy,omitempty"`
}

// BatchQuoteRequest is the API payload for quoting many shipments
type BatchQuoteRequest struct {
	Shipments []QuoteRequest `json:"shipments" binding:"required,min=1,max=500,dive"`
}

// PriceOverrideRequest carries a manual customer price edit
type PriceOverrideRequest struct {
	CustomerPrice *float64 `json:"customerPrice" binding:"required"`
}

// RequoteRequest optionally restricts a historical re-quote to some carriers
type RequoteRequest struct {
	SelectedCarrierIDs []string `json:"selectedCarrierIds,omitempty"`
}

// ImportHistoricalResponse reports a spreadsheet import
type ImportHistoricalResponse struct {
	Success   bool             `json:"success"`
	Imported  int              `json:"imported"`
	IDs       []uuid.UUID      `json:"ids"`
	RowErrors []ImportRowError `json:"rowErrors,omitempty"`
}

// ImportRowError describes a spreadsheet row that was skipped
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message *string     `json:"message,omitempty"`
}

// BatchQuoteResponse represents the result of a batch run
type BatchQuoteResponse struct {
	Success   bool              `json:"success"`
	BatchID   uuid.UUID         `json:"batchId"`
	Results   []*ShipmentResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}
