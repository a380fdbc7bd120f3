package sheet

import "strings"

// maxHeaderScanRows bounds the search for a header row; real exports bury
// it under a handful of metadata rows, never fifty.
const maxHeaderScanRows = 50

// ColumnMap holds the column index for each canonical field of a sheet.
type ColumnMap struct {
	ItemNumber int
	ItemName   int
	Variance   int
	Revenue    int
	SoldQty    int
	SalePrice  int
	ItemCost   int
}

// defaultColumnMap is the fallback seed applied before header overrides, so
// a sheet with a recognizable header row but unusual column labels still
// gets sane positions for unmapped fields.
func defaultColumnMap() ColumnMap {
	return ColumnMap{
		ItemNumber: 0,
		ItemName:   1,
		Variance:   2,
		Revenue:    3,
		SoldQty:    4,
		SalePrice:  5,
		ItemCost:   7,
	}
}

var itemKeywords = []string{"item", "description", "number", "code"}
var valueKeywords = []string{"variance", "revenue", "qty", "diff"}

// columnRule maps a header cell to a canonical field. Rules are evaluated
// in order and the first match claims the cell (and the first claiming cell
// keeps the field), which keeps mapping deterministic on ambiguous labels.
type columnRule struct {
	field string
	match func(cell string) bool
}

var columnRules = []columnRule{
	{"itemNumber", func(c string) bool {
		return strings.Contains(c, "number") || strings.Contains(c, "code") ||
			c == "item#" || c == "sku" || c == "upc"
	}},
	{"itemName", func(c string) bool {
		return c == "item" || c == "product" || strings.Contains(c, "description") ||
			strings.Contains(c, "item name")
	}},
	{"variance", func(c string) bool {
		if !strings.Contains(c, "variance") && !strings.Contains(c, "diff") {
			return false
		}
		// "Cost Variance $" style columns are currency deltas, not unit
		// counts, unless explicitly qualified as a quantity.
		if strings.Contains(c, "qty") || strings.Contains(c, "count") {
			return true
		}
		return !strings.Contains(c, "cost") && !strings.Contains(c, "$")
	}},
	{"revenue", func(c string) bool {
		return strings.Contains(c, "revenue") || c == "sales" || strings.Contains(c, "sales $")
	}},
	{"soldQty", func(c string) bool {
		return strings.Contains(c, "qty") || strings.Contains(c, "sold") || strings.Contains(c, "units")
	}},
	{"salePrice", func(c string) bool {
		return strings.Contains(c, "price") || strings.Contains(c, "retail")
	}},
	{"itemCost", func(c string) bool {
		return strings.Contains(c, "cost")
	}},
}

// DetectHeader scans the first rows of a sheet for the first plausible
// header row and builds the column map from it. ok is false when no row in
// the scanned window qualifies; such a sheet yields zero records.
func DetectHeader(grid [][]string) (headerRow int, cols ColumnMap, ok bool) {
	limit := len(grid)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}

	for r := 0; r < limit; r++ {
		joined := strings.ToLower(strings.Join(grid[r], " "))
		if !containsAny(joined, itemKeywords) || !containsAny(joined, valueKeywords) {
			continue
		}
		return r, mapColumns(grid[r]), true
	}
	return 0, ColumnMap{}, false
}

func mapColumns(header []string) ColumnMap {
	cols := defaultColumnMap()
	claimed := map[string]bool{}

	for idx, cell := range header {
		cell = strings.ToLower(strings.TrimSpace(cell))
		if cell == "" {
			continue
		}
		for _, rule := range columnRules {
			if !rule.match(cell) {
				continue
			}
			if !claimed[rule.field] {
				claimed[rule.field] = true
				setColumn(&cols, rule.field, idx)
			}
			break // first matching rule claims the cell
		}
	}
	return cols
}

func setColumn(cols *ColumnMap, field string, idx int) {
	switch field {
	case "itemNumber":
		cols.ItemNumber = idx
	case "itemName":
		cols.ItemName = idx
	case "variance":
		cols.Variance = idx
	case "revenue":
		cols.Revenue = idx
	case "soldQty":
		cols.SoldQty = idx
	case "salePrice":
		cols.SalePrice = idx
	case "itemCost":
		cols.ItemCost = idx
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
