package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/shrinklens/backend/src/models"
)

var (
	ErrParsingFailed  = errors.New("file parsing failed")
	ErrNoDataDetected = errors.New("no shrink data detected in file")
	ErrNothingStaged  = errors.New("no staged import to act on")
	ErrInsightOffline = errors.New("insight collaborator is offline")
)

// StagePreview is what the user reviews before confirming an import.
type StagePreview struct {
	Period       string                `json:"period"`
	Markets      []string              `json:"markets"`
	RecordCount  int                   `json:"record_count"`
	TotalShrink  float64               `json:"total_shrink"`
	TotalOverage float64               `json:"total_overage"`
	Sample       []models.ShrinkRecord `json:"sample"`
}

// CommitResult reports the outcome of a confirmed import.
type CommitResult struct {
	Period   string `json:"period"`
	Imported int    `json:"imported"`
	Replaced int    `json:"replaced"`
}

// VarianceService owns the canonical record store, the single staging slot
// and the aggregation read path.
type VarianceService interface {
	StageUpload(file io.Reader, filename, period string) (*StagePreview, error)
	CommitImport() (*CommitResult, error)
	DiscardImport() bool
	PurgeRecords() (int, error)
	GetRecords() ([]models.ShrinkRecord, error)
	GetFilteredRecords(f models.Filter) ([]models.ShrinkRecord, error)
	GetReport(f models.Filter) (*models.VarianceReport, error)
}

// InsightStatus is the visible availability state of the collaborator.
type InsightStatus string

const (
	InsightReady   InsightStatus = "ready"
	InsightOffline InsightStatus = "offline"
	InsightReauth  InsightStatus = "reauth_required"
)

// InsightService feeds pre-aggregated data and a question to the language
// model collaborator. Responses are opaque Markdown prose; nothing here
// parses them. Its availability is independent of extraction/aggregation.
type InsightService interface {
	Status() InsightStatus
	QuickQuery(ctx context.Context, f models.Filter, question string, onDelta func(string)) error
	DeepDive(ctx context.Context, f models.Filter) (string, error)
	Reauthorize(apiKey string)
}
