package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"freight-quote-service/internal/models"
)

// ErrEmpty is returned when a field holds no value at all
var ErrEmpty = errors.New("empty value")

const kgToLbs = 2.20462

// cleanNumber keeps the characters of a plain decimal number.
// Thousands separators, currency symbols and unit suffixes are dropped;
// a value in parentheses is treated as negative.
func cleanNumber(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrEmpty
	}

	negative := strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")")

	var b strings.Builder
	seenDigit := false
	for _, c := range value {
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
			b.WriteRune(c)
		case c == '.':
			b.WriteRune(c)
		case c == '-' && !seenDigit && b.Len() == 0:
			negative = true
		}
	}

	if !seenDigit {
		return "", fmt.Errorf("no digits in %q", value)
	}

	cleaned := b.String()
	if negative {
		cleaned = "-" + cleaned
	}
	return cleaned, nil
}

// ParseAmount parses a money string such as "$1,234.50" or "USD 980" into a value rounded to cents
func ParseAmount(value string) (float64, error) {
	cleaned, err := cleanNumber(value)
	if err != nil {
		return 0, err
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return d.Round(2).InexactFloat64(), nil
}

// ParseWeight parses a weight string such as "1,200 lbs" into pounds. Kilogram values are converted.
func ParseWeight(value string) (float64, error) {
	cleaned, err := cleanNumber(value)
	if err != nil {
		return 0, err
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid weight %q: %w", value, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid weight %q: negative", value)
	}

	lower := strings.ToLower(value)
	if strings.Contains(lower, "kg") || strings.Contains(lower, "kilo") {
		d = d.Mul(decimal.NewFromFloat(kgToLbs))
	}
	return d.Round(2).InexactFloat64(), nil
}

// ParseCount parses a count such as "12 plts" or "12.0" into a whole number
func ParseCount(value string) (int, error) {
	cleaned, err := cleanNumber(value)
	if err != nil {
		return 0, err
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", value, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid count %q: negative", value)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("invalid count %q: not a whole number", value)
	}
	return int(d.IntPart()), nil
}

// ParseFlag reads yes/no style text. Blank is false.
func ParseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes", "true", "1", "x", "reefer", "refrigerated":
		return true
	default:
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
		return false
	}
}

// ParseTemperatureBand accepts a band name or a setpoint in Fahrenheit ("34F", "-5")
func ParseTemperatureBand(value string) models.TemperatureBand {
	lower := strings.ToLower(strings.TrimSpace(value))
	switch {
	case lower == "":
		return ""
	case strings.Contains(lower, "frozen") || strings.Contains(lower, "freeze"):
		return models.TemperatureFrozen
	case strings.Contains(lower, "chill") || strings.Contains(lower, "cold") || strings.Contains(lower, "fresh"):
		return models.TemperatureChilled
	case strings.Contains(lower, "ambient") || strings.Contains(lower, "dry") || strings.Contains(lower, "protect"):
		return models.TemperatureAmbient
	}

	cleaned, err := cleanNumber(lower)
	if err != nil {
		return ""
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return ""
	}
	switch {
	case f <= 10:
		return models.TemperatureFrozen
	case f <= 45:
		return models.TemperatureChilled
	default:
		return models.TemperatureAmbient
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
}

// ParseDate parses the date formats found in imported shipment records
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmpty
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// ToShipmentRequest converts a stored historical record into a request that can be quoted again.
// Malformed numbers are errors; missing optional values are left at their zero value and reported
// as warnings.
func ToShipmentRequest(h models.HistoricalShipment) (models.ShipmentRequest, []string, error) {
	var warnings []string

	request := models.ShipmentRequest{
		OriginZip:        strings.TrimSpace(h.OriginZip),
		OriginCity:       strings.TrimSpace(h.OriginCity),
		OriginState:      strings.TrimSpace(h.OriginState),
		DestinationZip:   strings.TrimSpace(h.DestinationZip),
		DestinationCity:  strings.TrimSpace(h.DestinationCity),
		DestinationState: strings.TrimSpace(h.DestinationState),
		FreightClass:     strings.TrimSpace(h.FreightClass),
		Commodity:        strings.TrimSpace(h.Commodity),
		Stackable:        ParseFlag(h.Stackable),
		IsReefer:         ParseFlag(h.Reefer),
		Temperature:      ParseTemperatureBand(h.Temperature),
	}

	if request.OriginZip == "" || request.DestinationZip == "" {
		return models.ShipmentRequest{}, nil, fmt.Errorf("historical shipment %s is missing a postal code", h.ID)
	}
	if request.Temperature != "" && !request.IsReefer {
		request.IsReefer = true
		warnings = append(warnings, "temperature given without reefer flag, treated as reefer")
	}

	pallets, err := ParseCount(h.Pallets)
	switch {
	case errors.Is(err, ErrEmpty):
		warnings = append(warnings, "pallet count missing")
	case err != nil:
		return models.ShipmentRequest{}, nil, fmt.Errorf("pallets: %w", err)
	default:
		request.Pallets = pallets
	}

	weight, err := ParseWeight(h.Weight)
	switch {
	case errors.Is(err, ErrEmpty):
		warnings = append(warnings, "weight missing")
	case err != nil:
		return models.ShipmentRequest{}, nil, fmt.Errorf("weight: %w", err)
	default:
		request.GrossWeight = weight
	}

	pickup, err := ParseDate(h.PickupDate)
	switch {
	case errors.Is(err, ErrEmpty):
	case err != nil:
		warnings = append(warnings, fmt.Sprintf("pickup date ignored: %v", err))
	default:
		request.PickupDate = pickup
	}

	return request, warnings, nil
}
