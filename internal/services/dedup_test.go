package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"freight-quote-service/internal/models"
)

func rawQuote(carrier, service string, total float64, mode models.QuoteMode) models.RawQuote {
	return models.RawQuote{
		Provider:         "freight",
		Mode:             mode,
		CarrierCode:      carrier,
		CarrierName:      carrier,
		ServiceLevelCode: service,
		TotalCharge:      total,
		Currency:         "USD",
	}
}

func TestDeduplicate_KeepsCheapestPerCarrierService(t *testing.T) {
	quotes := []models.RawQuote{
		rawQuote("A", "X", 100, models.ModeStandard),
		rawQuote("A", "X", 90, models.ModeVolume),
		rawQuote("A", "Y", 50, models.ModeStandard),
	}

	got := Deduplicate(quotes)

	assert.Equal(t, []models.RawQuote{
		rawQuote("A", "X", 90, models.ModeVolume),
		rawQuote("A", "Y", 50, models.ModeStandard),
	}, got)
}

func TestDeduplicate_DropsNonPositiveTotals(t *testing.T) {
	quotes := []models.RawQuote{
		rawQuote("A", "X", 0, models.ModeStandard),
		rawQuote("B", "X", -10, models.ModeStandard),
		rawQuote("C", "X", 10, models.ModeStandard),
	}

	got := Deduplicate(quotes)

	assert.Len(t, got, 1)
	assert.Equal(t, "C", got[0].CarrierCode)
}

func TestDeduplicate_TieKeepsFirstSeen(t *testing.T) {
	first := rawQuote("A", "X", 100, models.ModeVolume)
	first.ProviderQuoteID = "first"
	second := rawQuote("A", "X", 100, models.ModeStandard)
	second.ProviderQuoteID = "second"

	got := Deduplicate([]models.RawQuote{first, second})

	assert.Len(t, got, 1)
	assert.Equal(t, "first", got[0].ProviderQuoteID)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	quotes := []models.RawQuote{
		rawQuote("A", "X", 100, models.ModeStandard),
		rawQuote("B", "X", 80, models.ModeStandard),
		rawQuote("A", "X", 95, models.ModeVolume),
		rawQuote("B", "Y", 120, models.ModeVolume),
		rawQuote("C", "X", 0, models.ModeVolume),
	}

	once := Deduplicate(quotes)
	twice := Deduplicate(once)

	assert.Equal(t, once, twice)
	assert.Len(t, once, 3)
}

func TestDeduplicate_Empty(t *testing.T) {
	assert.Empty(t, Deduplicate(nil))
}
