package sheet

import "testing"

func TestDetectHeaderSkipsMetadataRows(t *testing.T) {
	grid := [][]string{
		{"Micro Market Variance Export"},
		{""},
		{"Market: Building 4 - ABC"},
		{"Generated 2024-03-02"},
		{"Item Number", "Description", "Inv Variance", "Revenue"},
		{"1001", "Chips", "-2", "12.50"},
	}

	headerRow, cols, ok := DetectHeader(grid)
	if !ok {
		t.Fatal("expected header to be detected")
	}
	if headerRow != 4 {
		t.Errorf("headerRow = %d, want 4", headerRow)
	}
	if cols.ItemNumber != 0 || cols.ItemName != 1 || cols.Variance != 2 || cols.Revenue != 3 {
		t.Errorf("unexpected mapped columns: %+v", cols)
	}
	// Unmapped fields keep the fallback positions.
	if cols.SoldQty != 4 || cols.SalePrice != 5 || cols.ItemCost != 7 {
		t.Errorf("unexpected default columns: %+v", cols)
	}
}

func TestDetectHeaderNoPlausibleRow(t *testing.T) {
	grid := [][]string{
		{"Some title"},
		{"foo", "bar"},
		{"1", "2", "3"},
	}
	if _, _, ok := DetectHeader(grid); ok {
		t.Error("expected no header in a grid without item/value keywords")
	}
}

func TestMapColumnsFirstMatchWins(t *testing.T) {
	// Two variance-like columns: the first claims the field, the second
	// stays unclaimed rather than overwriting it.
	header := []string{"Item#", "Item", "Qty Variance", "Variance Diff", "Revenue"}
	cols := mapColumns(header)

	if cols.Variance != 2 {
		t.Errorf("Variance = %d, want 2 (first matching column)", cols.Variance)
	}
	if cols.ItemNumber != 0 {
		t.Errorf("ItemNumber = %d, want 0", cols.ItemNumber)
	}
	if cols.ItemName != 1 {
		t.Errorf("ItemName = %d, want 1", cols.ItemName)
	}
	if cols.Revenue != 4 {
		t.Errorf("Revenue = %d, want 4", cols.Revenue)
	}
}

func TestMapColumnsCostVarianceExcluded(t *testing.T) {
	header := []string{"Item Number", "Description", "Variance $", "Variance", "Unit Cost"}
	cols := mapColumns(header)

	if cols.Variance != 3 {
		t.Errorf("Variance = %d, want 3 (currency variance column skipped)", cols.Variance)
	}
	if cols.ItemCost != 4 {
		t.Errorf("ItemCost = %d, want 4", cols.ItemCost)
	}
}
