package parsers

import (
	"io"

	"github.com/username/shrinklens/backend/src/models"
)

// Parser turns one uploaded export into a staged import for the given
// target period. Implementations normalize the period themselves so that
// staging always carries a canonical period label.
type Parser interface {
	Parse(file io.Reader, period string) (*models.StagedImport, error)
}
