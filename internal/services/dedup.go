package services

import "freight-quote-service/internal/models"

type quoteKey struct {
	carrier string
	service string
}

// Deduplicate keeps the cheapest quote per carrier and service level.
// Quotes without a positive total are dropped. On a price tie the first one seen is kept,
// and output follows the order in which each key was first seen.
func Deduplicate(quotes []models.RawQuote) []models.RawQuote {
	index := make(map[quoteKey]int, len(quotes))
	out := make([]models.RawQuote, 0, len(quotes))

	for _, q := range quotes {
		if q.TotalCharge <= 0 {
			continue
		}
		key := quoteKey{carrier: q.CarrierCode, service: q.ServiceLevelCode}
		if i, ok := index[key]; ok {
			if q.TotalCharge < out[i].TotalCharge {
				out[i] = q
			}
			continue
		}
		index[key] = len(out)
		out = append(out, q)
	}

	return out
}
