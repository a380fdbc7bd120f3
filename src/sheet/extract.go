package sheet

import (
	"math"
	"strings"

	"github.com/username/shrinklens/backend/src/models"
)

// zeroVarianceEpsilon: rows whose variance rounds to zero at this precision
// carry no financial signal and are dropped entirely rather than stored as
// zero-impact records.
const zeroVarianceEpsilon = 0.001

// ExtractRecords walks the data rows below the detected header and builds
// partial records (no ID yet). Market must already be humanized and period
// already normalized; extraction itself never touches the canonical store.
func ExtractRecords(grid [][]string, headerRow int, cols ColumnMap, market, period string) []models.ShrinkRecord {
	var records []models.ShrinkRecord

	for r := headerRow + 1; r < len(grid); r++ {
		row := grid[r]

		itemNumber := strings.TrimSpace(cellAt(row, cols.ItemNumber))
		itemName := strings.TrimSpace(cellAt(row, cols.ItemName))
		if itemNumber == "" && itemName == "" {
			continue
		}

		// Sheet footers ("Grand Total", "Summary") are noise, not items.
		lowerName := strings.ToLower(itemName)
		if strings.Contains(lowerName, "total") || strings.Contains(lowerName, "summary") {
			continue
		}

		variance := CoerceFloat(cellAt(row, cols.Variance))
		if math.Abs(variance) < zeroVarianceEpsilon {
			continue
		}

		cost := CoerceFloat(cellAt(row, cols.ItemCost))
		qty := CoerceFloat(cellAt(row, cols.SoldQty))
		price := CoerceFloat(cellAt(row, cols.SalePrice))
		revenue := CoerceFloat(cellAt(row, cols.Revenue))
		if revenue == 0 && price > 0 && qty > 0 {
			revenue = price * qty
		}

		var shrinkLoss, overageGain float64
		if variance < 0 {
			shrinkLoss = math.Abs(variance * cost)
		} else if variance > 0 {
			overageGain = variance * cost
		}

		records = append(records, models.ShrinkRecord{
			ItemNumber:  itemNumber,
			ItemName:    itemName,
			InvVariance: variance,
			Revenue:     revenue,
			SoldQty:     qty,
			SalePrice:   price,
			ItemCost:    cost,
			ShrinkLoss:  shrinkLoss,
			OverageGain: overageGain,
			ItemProfit:  (price - cost) * qty,
			Market:      market,
			Period:      period,
		})
	}

	return records
}

// DetectMarketName looks for a location/market hint in the metadata rows
// above the header (typically rows 3-4 of the raw grid) and humanizes it.
// The sheet name serves as fallback so every sheet gets a non-empty label.
func DetectMarketName(grid [][]string, headerRow int, sheetName string) string {
	for r := 0; r < headerRow && r < len(grid); r++ {
		for _, cell := range grid[r] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if boilerplatePrefixRe.MatchString(cell) {
				return HumanizeMarketName(cell)
			}
		}
	}
	return HumanizeMarketName(sheetName)
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
