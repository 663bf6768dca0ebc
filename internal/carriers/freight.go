package carriers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"freight-quote-service/internal/models"
)

const (
	// GatewayFreight is the general freight network (standard, volume and truckload)
	GatewayFreight = "freight"

	standardPalletLength = 48.0 // inches
	standardPalletWidth  = 40.0
	standardPalletHeight = 48.0
	defaultFreightClass  = "70"

	defaultWindowOpen  = "08:00"
	defaultWindowClose = "17:00"
)

var freightEndpoints = map[models.QuoteMode]string{
	models.ModeStandard:  "/v2/ltl/quotes/rates",
	models.ModeVolume:    "/v2/vltl/quotes/rates",
	models.ModeTruckload: "/v2/ftl/quotes/rates",
}

// FreightGateway rates shipments on the general freight network
type FreightGateway struct {
	gatewayClient
}

// NewFreightGateway creates a new general freight gateway
func NewFreightGateway(config GatewayConfig, logger *logrus.Entry) *FreightGateway {
	return &FreightGateway{
		gatewayClient: newGatewayClient(GatewayFreight, config, logger),
	}
}

// Name returns the gateway name
func (g *FreightGateway) Name() string {
	return GatewayFreight
}

// SetClock replaces the gateway's time source
func (g *FreightGateway) SetClock(now func() time.Time) {
	g.setClock(now)
}

// TestConnection forces re-authentication to verify credentials
func (g *FreightGateway) TestConnection(ctx context.Context) error {
	g.tokens.Reset()
	_, err := g.tokens.Token(ctx)
	return err
}

type freightLocation struct {
	PostalCode string `json:"postalCode"`
	City       string `json:"city,omitempty"`
	State      string `json:"stateProvince,omitempty"`
	Country    string `json:"country"`
}

type timeWindow struct {
	Date  string `json:"date"`
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

type freightHazmat struct {
	UNNumber       string `json:"unNumber"`
	HazardClass    string `json:"hazardClass"`
	PackingGroup   string `json:"packingGroup,omitempty"`
	ProperName     string `json:"properShippingName,omitempty"`
	EmergencyPhone string `json:"emergencyContactPhone,omitempty"`
}

type freightHandlingUnit struct {
	Quantity     int            `json:"quantity"`
	PackageType  string         `json:"packageType"`
	Weight       float64        `json:"weight"`
	WeightUnit   string         `json:"weightUnit"`
	Length       float64        `json:"length"`
	Width        float64        `json:"width"`
	Height       float64        `json:"height"`
	DimUnit      string         `json:"dimensionUnit"`
	FreightClass string         `json:"freightClass,omitempty"`
	Stackable    bool           `json:"stackable"`
	Description  string         `json:"description,omitempty"`
	Hazmat       *freightHazmat `json:"hazmat,omitempty"`
}

type freightRateRequest struct {
	Origin          freightLocation       `json:"origin"`
	Destination     freightLocation       `json:"destination"`
	PickupWindow    timeWindow            `json:"pickupWindow"`
	DeliveryWindow  *timeWindow           `json:"deliveryWindow,omitempty"`
	HandlingUnits   []freightHandlingUnit `json:"handlingUnits"`
	TotalWeight     float64               `json:"totalWeight"`
	TotalLinearFeet int                   `json:"totalLinearFeet,omitempty"`
	Accessorials    []string              `json:"accessorialCodes,omitempty"`
	EquipmentType   string                `json:"equipmentType,omitempty"`
	CarrierCodes    []string              `json:"carrierCodes,omitempty"`
}

type freightRateResponse struct {
	Quotes []struct {
		QuoteID string `json:"quoteId"`
		Carrier struct {
			SCAC string `json:"scac"`
			Name string `json:"name"`
		} `json:"carrier"`
		ServiceLevel struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"serviceLevel"`
		TotalCharge struct {
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
		} `json:"totalCharge"`
		TransitDays           *int   `json:"transitDays"`
		EstimatedDeliveryDate string `json:"estimatedDeliveryDate"`
		Charges               []struct {
			Code        string  `json:"code"`
			Description string  `json:"description"`
			Amount      float64 `json:"amount"`
		} `json:"charges"`
	} `json:"quotes"`
}

// GetRates retrieves quotes for one mode of the general freight network
func (g *FreightGateway) GetRates(ctx context.Context, request RateRequest) ([]models.RawQuote, error) {
	mode := request.Mode
	if mode == "" {
		mode = models.ModeStandard
	}
	endpoint, ok := freightEndpoints[mode]
	if !ok {
		return nil, fmt.Errorf("%s gateway does not support mode %s", GatewayFreight, mode)
	}

	payload := g.buildRequest(request.Shipment, mode, request.SelectedCarrierIDs)

	var resp freightRateResponse
	if err := g.do(ctx, http.MethodPost, endpoint, mode, payload, &resp); err != nil {
		return nil, err
	}

	allowed := allowList(request.SelectedCarrierIDs)
	quotes := make([]models.RawQuote, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		code := normalizeCode(q.Carrier.SCAC)
		if allowed != nil && !allowed[code] {
			continue
		}

		currency := q.TotalCharge.Currency
		if currency == "" {
			currency = "USD"
		}

		charges := make([]models.Charge, 0, len(q.Charges))
		for _, c := range q.Charges {
			charges = append(charges, models.Charge{Code: c.Code, Description: c.Description, Amount: c.Amount})
		}

		quotes = append(quotes, models.RawQuote{
			Provider:          GatewayFreight,
			Mode:              mode,
			ProviderQuoteID:   q.QuoteID,
			CarrierCode:       code,
			CarrierName:       resolveCarrierName(code, q.Carrier.Name),
			ServiceLevelCode:  q.ServiceLevel.Code,
			ServiceLevelName:  q.ServiceLevel.Description,
			TotalCharge:       q.TotalCharge.Amount,
			Currency:          currency,
			TransitDays:       q.TransitDays,
			EstimatedDelivery: parseProviderDate(q.EstimatedDeliveryDate),
			Charges:           charges,
		})
	}

	g.logger.WithFields(logrus.Fields{
		"mode":     mode,
		"received": len(resp.Quotes),
		"kept":     len(quotes),
	}).Info("Freight rates retrieved")

	return quotes, nil
}

func (g *FreightGateway) buildRequest(shipment models.ShipmentRequest, mode models.QuoteMode, carrierIDs []string) freightRateRequest {
	pickup := g.pickupDay(shipment.PickupDate)

	payload := freightRateRequest{
		Origin: freightLocation{
			PostalCode: strings.TrimSpace(shipment.OriginZip),
			City:       shipment.OriginCity,
			State:      shipment.OriginState,
			Country:    "US",
		},
		Destination: freightLocation{
			PostalCode: strings.TrimSpace(shipment.DestinationZip),
			City:       shipment.DestinationCity,
			State:      shipment.DestinationState,
			Country:    "US",
		},
		PickupWindow: timeWindow{
			Date:  pickup.Format("2006-01-02"),
			Start: defaultWindowOpen,
			End:   defaultWindowClose,
		},
		HandlingUnits: g.handlingUnits(shipment),
		TotalWeight:   shipment.GrossWeight,
		Accessorials:  normalizeAccessorials(shipment.Accessorials),
	}

	switch mode {
	case models.ModeVolume:
		payload.TotalLinearFeet = LinearFeet(shipment)
	case models.ModeTruckload:
		payload.EquipmentType = "DRY_VAN"
		payload.DeliveryWindow = &timeWindow{
			Date:  pickup.AddDate(0, 0, 1).Format("2006-01-02"),
			Start: defaultWindowOpen,
			End:   defaultWindowClose,
		}
	}

	for _, id := range carrierIDs {
		if code := normalizeCode(id); code != "" {
			payload.CarrierCodes = append(payload.CarrierCodes, code)
		}
	}

	return payload
}

// handlingUnits maps line items, or synthesizes one pallet group from the shipment totals
func (g *FreightGateway) handlingUnits(shipment models.ShipmentRequest) []freightHandlingUnit {
	if len(shipment.LineItems) == 0 {
		quantity := shipment.Pallets
		if quantity < 1 {
			quantity = 1
		}
		freightClass := shipment.FreightClass
		if freightClass == "" {
			freightClass = defaultFreightClass
		}
		return []freightHandlingUnit{{
			Quantity:     quantity,
			PackageType:  PackagePallet,
			Weight:       shipment.GrossWeight,
			WeightUnit:   "LB",
			Length:       standardPalletLength,
			Width:        standardPalletWidth,
			Height:       standardPalletHeight,
			DimUnit:      "IN",
			FreightClass: freightClass,
			Stackable:    shipment.Stackable,
			Description:  shipment.Commodity,
		}}
	}

	units := make([]freightHandlingUnit, 0, len(shipment.LineItems))
	for _, item := range shipment.LineItems {
		unit := freightHandlingUnit{
			Quantity:     item.Quantity,
			PackageType:  NormalizePackageType(item.PackageType, g.logger),
			Weight:       item.Weight,
			WeightUnit:   "LB",
			Length:       orDefault(item.Length, standardPalletLength),
			Width:        orDefault(item.Width, standardPalletWidth),
			Height:       orDefault(item.Height, standardPalletHeight),
			DimUnit:      "IN",
			FreightClass: firstNonEmpty(item.FreightClass, shipment.FreightClass, defaultFreightClass),
			Stackable:    shipment.Stackable,
			Description:  firstNonEmpty(item.Description, shipment.Commodity),
		}
		if unit.Quantity < 1 {
			unit.Quantity = 1
		}
		if item.Hazmat != nil {
			unit.Hazmat = &freightHazmat{
				UNNumber:       item.Hazmat.UNNumber,
				HazardClass:    item.Hazmat.HazardClass,
				PackingGroup:   item.Hazmat.PackingGroup,
				ProperName:     item.Hazmat.ProperName,
				EmergencyPhone: item.Hazmat.EmergencyPhone,
			}
		}
		units = append(units, unit)
	}
	return units
}

// LinearFeet returns the explicit linear feet of a shipment, or the pallet count
// laid end to end at standard pallet length, rounded up to whole feet.
func LinearFeet(shipment models.ShipmentRequest) int {
	if shipment.LinearFeet > 0 {
		return int(math.Ceil(shipment.LinearFeet))
	}
	pallets := shipment.Pallets
	if pallets < 1 {
		pallets = 1
	}
	return int(math.Ceil(float64(pallets) * standardPalletLength / 12))
}

func normalizeAccessorials(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = normalizeCode(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

func orDefault(value, fallback float64) float64 {
	if value > 0 {
		return value
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
