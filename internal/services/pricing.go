package services

import (
	"github.com/shopspring/decimal"

	"freight-quote-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// PriceQuote applies a resolved margin and minimum profit floor to a carrier quote.
// The customer price never falls below base rate plus minimum profit.
func PriceQuote(quote models.RawQuote, margin ResolvedMargin, minimumProfit float64) models.PricedQuote {
	base := decimal.NewFromFloat(quote.TotalCharge)
	value := decimal.NewFromFloat(margin.Value)

	var markedUp decimal.Decimal
	switch margin.Type {
	case models.MarkupFixed:
		markedUp = base.Add(value)
	default:
		markedUp = base.Mul(decimal.NewFromInt(1).Add(value.Div(hundred)))
	}

	if minimumProfit < 0 {
		minimumProfit = 0
	}
	floor := base.Add(decimal.NewFromFloat(minimumProfit))

	price := decimal.Max(markedUp, floor).Round(2)
	// rounding must not undercut the floor
	if price.LessThan(floor) {
		price = floor.RoundCeil(2)
	}

	marginType := margin.Type
	if marginType == "" {
		marginType = models.MarkupPercentage
	}

	priced := models.PricedQuote{
		RawQuote:        quote,
		CarrierBaseRate: quote.TotalCharge,
		MarginValue:     margin.Value,
		MarginType:      marginType,
		MarginSource:    margin.Source,
	}
	setPrice(&priced, price)
	return priced
}

// ApplyOverride sets a manually edited customer price and recomputes profit and margin
// percentage from it. The resolved margin fields are left as they were; a loss is kept as is.
func ApplyOverride(quote *models.PricedQuote, newPrice float64) {
	setPrice(quote, decimal.NewFromFloat(newPrice).Round(2))
	quote.IsCustomPrice = true
}

func setPrice(quote *models.PricedQuote, price decimal.Decimal) {
	base := decimal.NewFromFloat(quote.CarrierBaseRate)
	profit := price.Sub(base)

	quote.CustomerPrice = price.InexactFloat64()
	quote.Profit = profit.Round(2).InexactFloat64()
	quote.MarginPercentage = marginPercentage(profit, base)
}

// marginPercentage is profit over base rate, 0 when there is no base rate
func marginPercentage(profit, base decimal.Decimal) float64 {
	if base.IsZero() {
		return 0
	}
	return profit.Div(base).Mul(hundred).Round(2).InexactFloat64()
}
