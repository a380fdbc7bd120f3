package services

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/shrinklens/backend/src/database"
	"github.com/username/shrinklens/backend/src/logger"
	"github.com/username/shrinklens/backend/src/models"
	"github.com/username/shrinklens/backend/src/parsers"
	"github.com/username/shrinklens/backend/src/processors"
	"github.com/username/shrinklens/backend/src/utils"
)

const (
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	previewSampleSize = 10
)

type varianceServiceImpl struct {
	processor   processors.VarianceProcessor
	reportCache *cache.Cache

	mu     sync.Mutex
	staged *models.StagedImport
}

func NewVarianceService(processor processors.VarianceProcessor, reportCache *cache.Cache) VarianceService {
	return &varianceServiceImpl{
		processor:   processor,
		reportCache: reportCache,
	}
}

// StageUpload parses the export and holds the result pending confirmation.
// Staging a new upload replaces any previous unconfirmed one.
func (s *varianceServiceImpl) StageUpload(file io.Reader, filename, period string) (*StagePreview, error) {
	startTime := time.Now()
	logger.L.Info("StageUpload START", "filename", filename, "period", period)

	parser, err := parsers.GetParser(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	staged, err := parser.Parse(file, period)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if len(staged.Records) == 0 {
		return nil, ErrNoDataDetected
	}

	s.mu.Lock()
	s.staged = staged
	s.mu.Unlock()

	preview := &StagePreview{
		Period:      staged.Period,
		Markets:     staged.Markets,
		RecordCount: len(staged.Records),
	}
	for _, r := range staged.Records {
		preview.TotalShrink += r.ShrinkLoss
		preview.TotalOverage += r.OverageGain
	}
	preview.Sample = staged.Records[:utils.MinInt(previewSampleSize, len(staged.Records))]

	logger.L.Info("StageUpload END",
		"filename", filename, "period", staged.Period,
		"records", preview.RecordCount, "duration", time.Since(startTime))
	return preview, nil
}

// CommitImport assigns identifiers to the staged records and merges them
// into the canonical store, replacing every existing record for the same
// normalized period. Re-committing the same staging is therefore a no-op in
// effect: always a full-period replace, never an item-level merge.
func (s *varianceServiceImpl) CommitImport() (*CommitResult, error) {
	s.mu.Lock()
	staged := s.staged
	s.mu.Unlock()

	if staged == nil {
		return nil, ErrNothingStaged
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.Exec(`DELETE FROM shrink_records WHERE period = ?`, staged.Period)
	if err != nil {
		return nil, fmt.Errorf("error replacing period %q: %w", staged.Period, err)
	}
	replaced, _ := res.RowsAffected()

	stmt, err := dbTx.Prepare(`INSERT INTO shrink_records
		(id, item_number, item_name, inv_variance, revenue, sold_qty, sale_price, item_cost,
		 shrink_loss, overage_gain, item_profit, market, period)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i := range staged.Records {
		r := &staged.Records[i]
		r.ID = uuid.NewString()
		if _, err := stmt.Exec(r.ID, r.ItemNumber, r.ItemName, r.InvVariance, r.Revenue,
			r.SoldQty, r.SalePrice, r.ItemCost, r.ShrinkLoss, r.OverageGain,
			r.ItemProfit, r.Market, r.Period); err != nil {
			return nil, fmt.Errorf("error inserting record %q: %w", r.ItemName, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing import: %w", err)
	}

	// The slot is only released once the records are durable, so a failed
	// transaction leaves the staging intact for a retry. A newer staging
	// may have replaced it meanwhile; that one stays.
	s.mu.Lock()
	if s.staged == staged {
		s.staged = nil
	}
	s.mu.Unlock()

	s.invalidateReportCache()
	logger.L.Info("Import committed",
		"period", staged.Period, "imported", len(staged.Records), "replaced", replaced)

	return &CommitResult{
		Period:   staged.Period,
		Imported: len(staged.Records),
		Replaced: int(replaced),
	}, nil
}

// DiscardImport drops the staging slot; the canonical store is untouched.
// Returns false when nothing was staged.
func (s *varianceServiceImpl) DiscardImport() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.staged != nil
	s.staged = nil
	if had {
		logger.L.Info("Staged import discarded")
	}
	return had
}

// PurgeRecords clears the entire canonical store. Confirmation is the HTTP
// boundary's job; by the time this runs the action is irreversible.
func (s *varianceServiceImpl) PurgeRecords() (int, error) {
	res, err := database.DB.Exec(`DELETE FROM shrink_records`)
	if err != nil {
		return 0, fmt.Errorf("error purging records: %w", err)
	}
	purged, _ := res.RowsAffected()
	s.invalidateReportCache()
	logger.L.Info("Canonical record store purged", "purged", purged)
	return int(purged), nil
}

func (s *varianceServiceImpl) GetRecords() ([]models.ShrinkRecord, error) {
	return fetchRecords()
}

func (s *varianceServiceImpl) GetFilteredRecords(f models.Filter) ([]models.ShrinkRecord, error) {
	records, err := fetchRecords()
	if err != nil {
		return nil, err
	}
	return s.processor.Filter(records, f), nil
}

// GetReport recomputes (or serves cached) aggregates for one filter slice.
func (s *varianceServiceImpl) GetReport(f models.Filter) (*models.VarianceReport, error) {
	cacheKey := reportCacheKey(f)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for report", "key", cacheKey)
		return cached.(*models.VarianceReport), nil
	}

	records, err := fetchRecords()
	if err != nil {
		return nil, err
	}

	report := s.processor.Report(records, f)
	s.reportCache.Set(cacheKey, &report, DefaultCacheExpiration)
	logger.L.Info("Report computed", "key", cacheKey, "records", len(records))
	return &report, nil
}

func (s *varianceServiceImpl) invalidateReportCache() {
	s.reportCache.Flush()
	logger.L.Debug("Report cache invalidated")
}

func reportCacheKey(f models.Filter) string {
	return fmt.Sprintf("report_%s_%s_%s", strings.Join(f.Months, ","), f.Market, f.Segment)
}

func fetchRecords() ([]models.ShrinkRecord, error) {
	rows, err := database.DB.Query(`SELECT id, item_number, item_name, inv_variance, revenue,
		sold_qty, sale_price, item_cost, shrink_loss, overage_gain, item_profit, market, period
		FROM shrink_records ORDER BY period ASC, market ASC, item_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying shrink records: %w", err)
	}
	defer rows.Close()

	var records []models.ShrinkRecord
	for rows.Next() {
		var r models.ShrinkRecord
		if err := rows.Scan(&r.ID, &r.ItemNumber, &r.ItemName, &r.InvVariance, &r.Revenue,
			&r.SoldQty, &r.SalePrice, &r.ItemCost, &r.ShrinkLoss, &r.OverageGain,
			&r.ItemProfit, &r.Market, &r.Period); err != nil {
			return nil, fmt.Errorf("error scanning shrink record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over shrink records: %w", err)
	}
	return records, nil
}
