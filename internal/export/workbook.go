package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"freight-quote-service/internal/models"
)

const (
	quotesSheet  = "Quotes"
	summarySheet = "Summary"
)

// ContentType is the MIME type of the generated workbooks
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var quoteColumns = []struct {
	title string
	width float64
}{
	{"Shipment ID", 38},
	{"Customer", 16},
	{"Origin", 12},
	{"Destination", 12},
	{"Pallets", 9},
	{"Weight (lbs)", 12},
	{"Network", 24},
	{"Status", 11},
	{"Mode", 14},
	{"Carrier", 28},
	{"Service", 20},
	{"Transit Days", 12},
	{"Carrier Rate", 13},
	{"Margin Source", 18},
	{"Customer Price", 15},
	{"Profit", 12},
	{"Margin %", 10},
	{"Custom Price", 12},
	{"Notes", 50},
}

// WriteBatchWorkbook writes one row per priced quote, and one row per shipment
// without quotes, followed by a summary sheet.
func WriteBatchWorkbook(w io.Writer, batchID uuid.UUID, results []*models.ShipmentResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", quotesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}

	for i, col := range quoteColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(quotesSheet, cell, col.title)
		f.SetCellStyle(quotesSheet, cell, cell, headerStyle)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(quotesSheet, colName, colName, col.width)
	}

	row := 2
	var succeeded, failed, quoteCount int
	var totalProfit float64
	for _, result := range results {
		if result.Status == models.ResultStatusError {
			failed++
		} else {
			succeeded++
		}

		if len(result.Quotes) == 0 {
			writeRow(f, row, rowCells(result, nil, shipmentNotes(result)))
			row++
			continue
		}
		for i := range result.Quotes {
			quote := &result.Quotes[i]
			writeRow(f, row, rowCells(result, quote, strings.Join(result.Warnings, "; ")))
			quoteCount++
			totalProfit += quote.Profit
			row++
		}
	}
	if row > 2 {
		first, _ := excelize.CoordinatesToCellName(13, 2)
		last, _ := excelize.CoordinatesToCellName(16, row-1)
		f.SetCellStyle(quotesSheet, first, last, moneyStyle)
	}
	f.SetPanes(quotesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summary := [][2]interface{}{
		{"Batch ID", batchID.String()},
		{"Shipments", len(results)},
		{"Succeeded", succeeded},
		{"Failed", failed},
		{"Quotes", quoteCount},
		{"Quoted Profit", totalProfit},
	}
	for i, line := range summary {
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), line[0])
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), line[1])
	}
	f.SetColWidth(summarySheet, "A", "A", 16)
	f.SetColWidth(summarySheet, "B", "B", 40)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// rowCells lays out one worksheet row; quote is nil for shipments without quotes
func rowCells(result *models.ShipmentResult, quote *models.PricedQuote, notes string) []interface{} {
	cells := []interface{}{
		result.ID.String(),
		result.CustomerID,
		result.Request.OriginZip,
		result.Request.DestinationZip,
		result.Request.Pallets,
		result.Request.GrossWeight,
		string(result.Decision.Network),
		string(result.Status),
	}
	if quote == nil {
		cells = append(cells, make([]interface{}, 10)...)
	} else {
		var transit interface{}
		if quote.TransitDays != nil {
			transit = *quote.TransitDays
		}
		cells = append(cells,
			quote.Mode.Label(),
			firstNonEmpty(quote.CarrierName, quote.CarrierCode),
			firstNonEmpty(quote.ServiceLevelName, quote.ServiceLevelCode),
			transit,
			quote.CarrierBaseRate,
			string(quote.MarginSource),
			quote.CustomerPrice,
			quote.Profit,
			quote.MarginPercentage,
			quote.IsCustomPrice,
		)
	}
	if notes != "" {
		cells = append(cells, notes)
	}
	return cells
}

func shipmentNotes(result *models.ShipmentResult) string {
	notes := result.Warnings
	if result.Error != "" {
		notes = append([]string{result.Error}, notes...)
	}
	if len(notes) == 0 && result.Status == models.ResultStatusSuccess {
		return "No quotes returned"
	}
	return strings.Join(notes, "; ")
}

func writeRow(f *excelize.File, row int, cells []interface{}) {
	for i, value := range cells {
		if value == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(quotesSheet, cell, value)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
