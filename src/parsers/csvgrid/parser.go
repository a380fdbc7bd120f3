package csvgrid

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/username/shrinklens/backend/src/logger"
	"github.com/username/shrinklens/backend/src/models"
	"github.com/username/shrinklens/backend/src/sheet"
)

// GridParser handles single-sheet CSV exports with the same heuristic
// header detection as workbooks. The sheet label (usually the uploaded
// filename without extension) is the market fallback when the metadata
// rows carry no location hint.
type GridParser struct {
	sheetLabel string
}

func NewParser(sheetLabel string) *GridParser {
	return &GridParser{sheetLabel: sheetLabel}
}

func (p *GridParser) Parse(file io.Reader, period string) (*models.StagedImport, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	grid, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV records: %w", err)
	}

	normalizedPeriod := sheet.NormalizePeriod(period)
	staged := &models.StagedImport{Period: normalizedPeriod}

	headerRow, cols, ok := sheet.DetectHeader(grid)
	if !ok {
		logger.L.Debug("No header row detected in CSV", "label", p.sheetLabel)
		return staged, nil
	}

	market := sheet.DetectMarketName(grid, headerRow, p.sheetLabel)
	records := sheet.ExtractRecords(grid, headerRow, cols, market, normalizedPeriod)
	staged.Records = records
	if len(records) > 0 {
		staged.Markets = []string{market}
	}

	logger.L.Info("CSV extracted", "label", p.sheetLabel, "headerRow", headerRow, "records", len(records))
	return staged, nil
}
