package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"freight-quote-service/internal/models"
)

// header aliases, compared after lower-casing and dropping spaces, dashes and underscores
var historicalColumns = map[string]func(*models.HistoricalShipment, string){
	"reference":        func(h *models.HistoricalShipment, v string) { h.ReferenceNumber = v },
	"referencenumber":  func(h *models.HistoricalShipment, v string) { h.ReferenceNumber = v },
	"originzip":        func(h *models.HistoricalShipment, v string) { h.OriginZip = v },
	"originpostalcode": func(h *models.HistoricalShipment, v string) { h.OriginZip = v },
	"origincity":       func(h *models.HistoricalShipment, v string) { h.OriginCity = v },
	"originstate":      func(h *models.HistoricalShipment, v string) { h.OriginState = v },
	"destinationzip":   func(h *models.HistoricalShipment, v string) { h.DestinationZip = v },
	"destzip":          func(h *models.HistoricalShipment, v string) { h.DestinationZip = v },
	"destinationcity":  func(h *models.HistoricalShipment, v string) { h.DestinationCity = v },
	"destinationstate": func(h *models.HistoricalShipment, v string) { h.DestinationState = v },
	"pickupdate":       func(h *models.HistoricalShipment, v string) { h.PickupDate = v },
	"pallets":          func(h *models.HistoricalShipment, v string) { h.Pallets = v },
	"palletcount":      func(h *models.HistoricalShipment, v string) { h.Pallets = v },
	"weight":           func(h *models.HistoricalShipment, v string) { h.Weight = v },
	"grossweight":      func(h *models.HistoricalShipment, v string) { h.Weight = v },
	"freightclass":     func(h *models.HistoricalShipment, v string) { h.FreightClass = v },
	"class":            func(h *models.HistoricalShipment, v string) { h.FreightClass = v },
	"commodity":        func(h *models.HistoricalShipment, v string) { h.Commodity = v },
	"reefer":           func(h *models.HistoricalShipment, v string) { h.Reefer = v },
	"temperature":      func(h *models.HistoricalShipment, v string) { h.Temperature = v },
	"stackable":        func(h *models.HistoricalShipment, v string) { h.Stackable = v },
	"carrier":          func(h *models.HistoricalShipment, v string) { h.CarrierName = v },
	"carriername":      func(h *models.HistoricalShipment, v string) { h.CarrierName = v },
	"carriercost":      func(h *models.HistoricalShipment, v string) { h.CarrierCost = v },
	"cost":             func(h *models.HistoricalShipment, v string) { h.CarrierCost = v },
	"customerprice":    func(h *models.HistoricalShipment, v string) { h.CustomerPrice = v },
	"price":            func(h *models.HistoricalShipment, v string) { h.CustomerPrice = v },
}

func normalizeHeader(value string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(value)))
}

// ReadHistoricalWorkbook reads historical shipments from the first sheet of an xlsx file.
// Cell values are kept as free text; numbers are parsed when a record is re-quoted.
func ReadHistoricalWorkbook(r io.Reader, customerID string) ([]models.HistoricalShipment, []models.ImportRowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("workbook must have a header row and at least one data row")
	}

	setters := make([]func(*models.HistoricalShipment, string), len(rows[0]))
	known := 0
	for i, header := range rows[0] {
		if setter, ok := historicalColumns[normalizeHeader(header)]; ok {
			setters[i] = setter
			known++
		}
	}
	if known == 0 {
		return nil, nil, fmt.Errorf("no recognised columns in header row")
	}

	var shipments []models.HistoricalShipment
	var rowErrors []models.ImportRowError
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}

		record := models.HistoricalShipment{ID: uuid.New(), CustomerID: customerID}
		for col, value := range row {
			if col < len(setters) && setters[col] != nil {
				setters[col](&record, strings.TrimSpace(value))
			}
		}

		if record.OriginZip == "" || record.DestinationZip == "" {
			rowErrors = append(rowErrors, models.ImportRowError{Row: rowNum, Message: "origin and destination zip are required"})
			continue
		}
		shipments = append(shipments, record)
	}

	return shipments, rowErrors, nil
}

func isBlank(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
