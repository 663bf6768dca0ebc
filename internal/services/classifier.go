package services

import (
	"fmt"

	"freight-quote-service/internal/models"
)

// Dual-mode thresholds; meeting either one quotes volume and standard side by side
const (
	VolumePalletThreshold = 10
	VolumeWeightThreshold = 15000.0 // lbs
)

// Classify decides which rating network and modes a shipment is sent to.
// It has no side effects: the same request always gets the same decision.
func Classify(shipment models.ShipmentRequest) models.RoutingDecision {
	if shipment.IsReefer {
		return models.RoutingDecision{
			Network: models.NetworkTemperatureControlled,
			Modes:   []models.QuoteMode{models.ModeReefer},
			Reason:  "reefer flag set, temperature-controlled network",
		}
	}

	if shipment.Pallets >= VolumePalletThreshold || shipment.GrossWeight >= VolumeWeightThreshold {
		return models.RoutingDecision{
			Network: models.NetworkDualFreight,
			Modes:   []models.QuoteMode{models.ModeVolume, models.ModeStandard},
			Reason:  fmt.Sprintf("%d pallets / %.0f lbs meets the volume threshold (%d pallets or %.0f lbs), comparing volume and standard rates",
				shipment.Pallets, shipment.GrossWeight, VolumePalletThreshold, VolumeWeightThreshold),
		}
	}

	return models.RoutingDecision{
		Network: models.NetworkStandardFreight,
		Modes:   []models.QuoteMode{models.ModeStandard},
		Reason:  "below volume thresholds, standard LTL",
	}
}

// decisionForMode builds the decision for an explicitly requested mode
func decisionForMode(mode models.QuoteMode) (models.RoutingDecision, error) {
	switch mode {
	case models.ModeStandard:
		return models.RoutingDecision{Network: models.NetworkStandardFreight, Modes: []models.QuoteMode{mode}, Reason: "standard mode requested"}, nil
	case models.ModeVolume:
		return models.RoutingDecision{Network: models.NetworkVolumeFreight, Modes: []models.QuoteMode{mode}, Reason: "volume mode requested"}, nil
	case models.ModeTruckload:
		return models.RoutingDecision{Network: models.NetworkTruckload, Modes: []models.QuoteMode{mode}, Reason: "full truckload requested"}, nil
	case models.ModeReefer:
		return models.RoutingDecision{Network: models.NetworkTemperatureControlled, Modes: []models.QuoteMode{mode}, Reason: "reefer mode requested"}, nil
	default:
		return models.RoutingDecision{}, fmt.Errorf("unknown quote mode: %s", mode)
	}
}
