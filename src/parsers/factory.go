package parsers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/username/shrinklens/backend/src/parsers/csvgrid"
	"github.com/username/shrinklens/backend/src/parsers/xlsx"
)

// GetParser picks a parser for the uploaded filename. CSV exports use the
// filename (without extension) as their sheet label.
func GetParser(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".xlsx", ".xlsm":
		return xlsx.NewParser(), nil
	case ".csv":
		base := strings.TrimSuffix(filepath.Base(filename), ext)
		return csvgrid.NewParser(base), nil
	default:
		return nil, fmt.Errorf("no parser available for file type: %q", ext)
	}
}
