package xlsx

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/username/shrinklens/backend/src/logger"
	"github.com/username/shrinklens/backend/src/models"
	"github.com/username/shrinklens/backend/src/sheet"
)

type WorkbookParser struct{}

func NewParser() *WorkbookParser {
	return &WorkbookParser{}
}

// Parse treats every sheet of the workbook independently: sheets without a
// detectable header row simply contribute zero records and processing
// continues with the rest.
func (p *WorkbookParser) Parse(file io.Reader, period string) (*models.StagedImport, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	normalizedPeriod := sheet.NormalizePeriod(period)
	staged := &models.StagedImport{Period: normalizedPeriod}
	marketSet := map[string]bool{}

	for _, sheetName := range f.GetSheetList() {
		grid, err := filledGrid(f, sheetName)
		if err != nil {
			logger.L.Warn("Skipping unreadable sheet", "sheet", sheetName, "error", err)
			continue
		}
		if len(grid) == 0 {
			continue
		}

		headerRow, cols, ok := sheet.DetectHeader(grid)
		if !ok {
			logger.L.Debug("No header row detected in sheet", "sheet", sheetName)
			continue
		}

		market := sheet.DetectMarketName(grid, headerRow, sheetName)
		records := sheet.ExtractRecords(grid, headerRow, cols, market, normalizedPeriod)
		if len(records) > 0 {
			marketSet[market] = true
		}
		staged.Records = append(staged.Records, records...)

		logger.L.Info("Sheet extracted",
			"sheet", sheetName, "headerRow", headerRow, "market", market, "records", len(records))
	}

	for market := range marketSet {
		staged.Markets = append(staged.Markets, market)
	}
	sort.Strings(staged.Markets)
	return staged, nil
}

// filledGrid reads a sheet into a rectangular, trimmed grid and copies
// merged-cell values into every cell their range covers, so header labels
// spanning columns stay visible to the detector.
func filledGrid(f *excelize.File, sheetName string) ([][]string, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	maxCol := 0
	for _, row := range rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}

	grid := make([][]string, len(rows))
	for i := range grid {
		grid[i] = make([]string, maxCol)
		for j, cell := range rows[i] {
			grid[i][j] = strings.TrimSpace(cell)
		}
	}

	merges, err := f.GetMergeCells(sheetName)
	if err != nil {
		return nil, err
	}
	for _, merge := range merges {
		val := strings.TrimSpace(merge.GetCellValue())
		startCol, startRow, err := excelize.CellNameToCoordinates(merge.GetStartAxis())
		if err != nil {
			continue
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(merge.GetEndAxis())
		if err != nil {
			continue
		}
		for r := startRow - 1; r <= endRow-1; r++ {
			for c := startCol - 1; c <= endCol-1; c++ {
				if r >= 0 && r < len(grid) && c >= 0 && c < len(grid[r]) {
					grid[r][c] = val
				}
			}
		}
	}

	return grid, nil
}
