package processors

import (
	"github.com/username/shrinklens/backend/src/models"
)

// VarianceProcessor computes aggregate financial-integrity metrics over a
// record set. Every method is pure: same inputs, same outputs, inputs never
// mutated.
type VarianceProcessor interface {
	Filter(records []models.ShrinkRecord, f models.Filter) []models.ShrinkRecord
	Summarize(records []models.ShrinkRecord, f models.Filter) models.SummaryStats
	Report(records []models.ShrinkRecord, f models.Filter) models.VarianceReport
}
