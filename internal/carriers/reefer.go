package carriers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"freight-quote-service/internal/models"
)

const (
	// GatewayReefer is the temperature-controlled network
	GatewayReefer = "reefer"

	reeferQuotePath  = "/v1/reefer/quotes"
	carrierGroupPath = "/v1/carrier-groups"
)

// TemperatureRange is a setpoint range in degrees Fahrenheit
type TemperatureRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

var temperatureRanges = map[models.TemperatureBand]TemperatureRange{
	models.TemperatureAmbient: {Min: 55, Max: 70},
	models.TemperatureChilled: {Min: 33, Max: 40},
	models.TemperatureFrozen:  {Min: -10, Max: 0},
}

// TemperatureRangeFor returns the setpoint range for a band, chilled when the band is unset or unknown
func TemperatureRangeFor(band models.TemperatureBand) TemperatureRange {
	if r, ok := temperatureRanges[models.TemperatureBand(strings.ToLower(string(band)))]; ok {
		return r
	}
	return temperatureRanges[models.TemperatureChilled]
}

// ReeferGateway rates shipments on the temperature-controlled network
type ReeferGateway struct {
	gatewayClient

	groupsMu     sync.Mutex
	groupsLoaded bool
	carrierGroup map[string]string // carrier code -> group id
}

// NewReeferGateway creates a new temperature-controlled gateway
func NewReeferGateway(config GatewayConfig, logger *logrus.Entry) *ReeferGateway {
	return &ReeferGateway{
		gatewayClient: newGatewayClient(GatewayReefer, config, logger),
	}
}

// Name returns the gateway name
func (g *ReeferGateway) Name() string {
	return GatewayReefer
}

// SetClock replaces the gateway's time source
func (g *ReeferGateway) SetClock(now func() time.Time) {
	g.setClock(now)
}

// TestConnection forces re-authentication to verify credentials
func (g *ReeferGateway) TestConnection(ctx context.Context) error {
	g.tokens.Reset()
	_, err := g.tokens.Token(ctx)
	return err
}

type reeferStop struct {
	PostalCode  string `json:"postalCode"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Date        string `json:"date"`
	WindowStart string `json:"windowStart"`
	WindowEnd   string `json:"windowEnd"`
}

type reeferTemperature struct {
	Min  int    `json:"min"`
	Max  int    `json:"max"`
	Unit string `json:"unit"`
}

type reeferRateRequest struct {
	Pickup          reeferStop        `json:"pickup"`
	Delivery        reeferStop        `json:"delivery"`
	Temperature     reeferTemperature `json:"temperature"`
	PalletCount     int               `json:"palletCount"`
	Weight          float64           `json:"weight"`
	Commodity       string            `json:"commodity,omitempty"`
	Stackable       bool              `json:"stackable"`
	PackageTypes    []string          `json:"packageTypes,omitempty"`
	Accessorials    []string          `json:"accessorials,omitempty"`
	CarrierGroupIDs []string          `json:"carrierGroupIds,omitempty"`
}

type reeferRateResponse struct {
	Rates []struct {
		ID          string  `json:"id"`
		CarrierCode string  `json:"carrierCode"`
		CarrierName string  `json:"carrierName"`
		GroupID     string  `json:"carrierGroupId"`
		ServiceCode string  `json:"serviceCode"`
		ServiceName string  `json:"serviceName"`
		TotalPrice  float64 `json:"totalPrice"`
		Currency    string  `json:"currency"`
		TransitDays *int    `json:"transitTimeDays"`
		DeliveryBy  string  `json:"deliveryDate"`
		LineItems   []struct {
			Type        string  `json:"type"`
			Description string  `json:"description"`
			Amount      float64 `json:"amount"`
		} `json:"lineItems"`
	} `json:"rates"`
}

// GetRates retrieves refrigerated quotes
func (g *ReeferGateway) GetRates(ctx context.Context, request RateRequest) ([]models.RawQuote, error) {
	if request.Mode != "" && request.Mode != models.ModeReefer {
		return nil, fmt.Errorf("%s gateway does not support mode %s", GatewayReefer, request.Mode)
	}

	payload := g.buildRequest(request.Shipment)

	allowed := allowList(request.SelectedCarrierIDs)
	if allowed != nil {
		groupIDs, err := g.groupIDsFor(ctx, request.SelectedCarrierIDs)
		if err != nil {
			return nil, err
		}
		payload.CarrierGroupIDs = groupIDs
	}

	var resp reeferRateResponse
	if err := g.do(ctx, http.MethodPost, reeferQuotePath, models.ModeReefer, payload, &resp); err != nil {
		return nil, err
	}

	quotes := make([]models.RawQuote, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		code := normalizeCode(r.CarrierCode)
		if allowed != nil && !allowed[code] {
			continue
		}

		currency := r.Currency
		if currency == "" {
			currency = "USD"
		}
		serviceCode := r.ServiceCode
		if serviceCode == "" {
			serviceCode = "REEFER"
		}

		charges := make([]models.Charge, 0, len(r.LineItems))
		for _, item := range r.LineItems {
			charges = append(charges, models.Charge{Code: item.Type, Description: item.Description, Amount: item.Amount})
		}

		quotes = append(quotes, models.RawQuote{
			Provider:          GatewayReefer,
			Mode:              models.ModeReefer,
			ProviderQuoteID:   r.ID,
			CarrierCode:       code,
			CarrierName:       resolveCarrierName(code, r.CarrierName),
			ServiceLevelCode:  serviceCode,
			ServiceLevelName:  r.ServiceName,
			TotalCharge:       r.TotalPrice,
			Currency:          currency,
			TransitDays:       r.TransitDays,
			EstimatedDelivery: parseProviderDate(r.DeliveryBy),
			Charges:           charges,
		})
	}

	g.logger.WithFields(logrus.Fields{
		"received": len(resp.Rates),
		"kept":     len(quotes),
	}).Info("Reefer rates retrieved")

	return quotes, nil
}

func (g *ReeferGateway) buildRequest(shipment models.ShipmentRequest) reeferRateRequest {
	pickup := g.pickupDay(shipment.PickupDate)
	band := TemperatureRangeFor(shipment.Temperature)

	pallets := shipment.Pallets
	if pallets < 1 {
		pallets = 1
	}

	var packageTypes []string
	for _, item := range shipment.LineItems {
		packageTypes = append(packageTypes, NormalizePackageType(item.PackageType, g.logger))
	}

	return reeferRateRequest{
		Pickup: reeferStop{
			PostalCode:  strings.TrimSpace(shipment.OriginZip),
			City:        shipment.OriginCity,
			State:       shipment.OriginState,
			Date:        pickup.Format("2006-01-02"),
			WindowStart: defaultWindowOpen,
			WindowEnd:   defaultWindowClose,
		},
		Delivery: reeferStop{
			PostalCode:  strings.TrimSpace(shipment.DestinationZip),
			City:        shipment.DestinationCity,
			State:       shipment.DestinationState,
			Date:        pickup.AddDate(0, 0, 1).Format("2006-01-02"),
			WindowStart: defaultWindowOpen,
			WindowEnd:   defaultWindowClose,
		},
		Temperature: reeferTemperature{
			Min:  band.Min,
			Max:  band.Max,
			Unit: "F",
		},
		PalletCount:  pallets,
		Weight:       shipment.GrossWeight,
		Commodity:    shipment.Commodity,
		Stackable:    shipment.Stackable,
		PackageTypes: packageTypes,
		Accessorials: normalizeAccessorials(shipment.Accessorials),
	}
}

// groupIDsFor translates a carrier allow-list into carrier group ids
func (g *ReeferGateway) groupIDsFor(ctx context.Context, carrierIDs []string) ([]string, error) {
	groups, err := g.carrierGroups(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, id := range carrierIDs {
		groupID, ok := groups[normalizeCode(id)]
		if !ok {
			g.logger.WithField("carrier", id).Warn("Carrier has no reefer carrier group")
			continue
		}
		if !seen[groupID] {
			seen[groupID] = true
			ids = append(ids, groupID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// carrierGroups loads the carrier group metadata once per gateway instance.
// A failed load is not cached so the next call tries again.
func (g *ReeferGateway) carrierGroups(ctx context.Context) (map[string]string, error) {
	g.groupsMu.Lock()
	defer g.groupsMu.Unlock()

	if g.groupsLoaded {
		return g.carrierGroup, nil
	}

	var resp struct {
		Groups []struct {
			ID       string   `json:"id"`
			Name     string   `json:"name"`
			Carriers []string `json:"carriers"`
		} `json:"groups"`
	}
	if err := g.do(ctx, http.MethodGet, carrierGroupPath, models.ModeReefer, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to load carrier groups: %w", err)
	}

	mapping := make(map[string]string)
	for _, group := range resp.Groups {
		for _, carrier := range group.Carriers {
			mapping[normalizeCode(carrier)] = group.ID
		}
	}

	g.carrierGroup = mapping
	g.groupsLoaded = true
	g.logger.WithField("groups", len(resp.Groups)).Info("Loaded carrier groups")

	return mapping, nil
}
