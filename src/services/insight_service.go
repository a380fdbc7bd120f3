package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/username/shrinklens/backend/src/llm"
	"github.com/username/shrinklens/backend/src/logger"
	"github.com/username/shrinklens/backend/src/models"
)

const insightSystemPrompt = "You are an inventory-integrity analyst for retail micro-markets. " +
	"Answer in concise Markdown using only the figures provided."

const deepDiveQuestion = "Provide a deep-dive analysis of this data: the biggest loss drivers, " +
	"notable overages, market-level risks, and concrete actions to improve count accuracy."

// promptRecordLimit caps how many raw records ride along with the
// aggregate summary; thousands of lines would drown the model for no gain.
const promptRecordLimit = 40

type insightServiceImpl struct {
	varianceService VarianceService
	buildProvider   func(apiKey string) llm.Provider

	mu          sync.RWMutex
	provider    llm.Provider
	needsReauth bool
}

// NewInsightService wires the collaborator capability in. An empty apiKey
// starts the service offline; the capability is loaded once here and only
// replaced wholesale by Reauthorize.
func NewInsightService(varianceService VarianceService, apiKey, model string) InsightService {
	build := func(key string) llm.Provider {
		return llm.NewOpenAIProvider(key, model)
	}
	s := &insightServiceImpl{
		varianceService: varianceService,
		buildProvider:   build,
	}
	if apiKey != "" {
		s.provider = build(apiKey)
	}
	return s
}

func (s *insightServiceImpl) Status() InsightStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.provider == nil:
		return InsightOffline
	case s.needsReauth:
		return InsightReauth
	default:
		return InsightReady
	}
}

func (s *insightServiceImpl) currentProvider() (llm.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.provider == nil {
		return nil, ErrInsightOffline
	}
	return s.provider, nil
}

// QuickQuery streams an answer about the current filter slice. Partial text
// is appended through onDelta; a newer query may race this one and the
// caller keeps whichever lands.
func (s *insightServiceImpl) QuickQuery(ctx context.Context, f models.Filter, question string, onDelta func(string)) error {
	provider, err := s.currentProvider()
	if err != nil {
		return err
	}

	prompt, err := s.buildPrompt(f, question)
	if err != nil {
		return err
	}

	logger.L.Info("Insight quick query START", "question", question)
	if err := provider.QuickQuery(ctx, insightSystemPrompt, prompt, onDelta); err != nil {
		return s.noteCallError(err)
	}
	logger.L.Info("Insight quick query END")
	return nil
}

func (s *insightServiceImpl) DeepDive(ctx context.Context, f models.Filter) (string, error) {
	provider, err := s.currentProvider()
	if err != nil {
		return "", err
	}

	prompt, err := s.buildPrompt(f, deepDiveQuestion)
	if err != nil {
		return "", err
	}

	logger.L.Info("Insight deep dive START")
	text, err := provider.DeepDive(ctx, insightSystemPrompt, prompt)
	if err != nil {
		return "", s.noteCallError(err)
	}
	logger.L.Info("Insight deep dive END", "responseLength", len(text))
	return text, nil
}

// Reauthorize replaces the collaborator capability wholesale. An empty key
// takes the service offline.
func (s *insightServiceImpl) Reauthorize(apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.needsReauth = false
	if apiKey == "" {
		s.provider = nil
		logger.L.Info("Insight capability cleared, service offline")
		return
	}
	s.provider = s.buildProvider(apiKey)
	logger.L.Info("Insight capability re-established")
}

func (s *insightServiceImpl) noteCallError(err error) error {
	if errors.Is(err, llm.ErrUnauthorized) {
		s.mu.Lock()
		s.needsReauth = true
		s.mu.Unlock()
		logger.L.Warn("Insight collaborator requires re-authorization", "error", err)
		return err
	}
	logger.L.Error("Insight collaborator call failed", "error", err)
	return err
}

// buildPrompt packs the filtered records and their aggregate stats into a
// compact text block followed by the question. The response is treated as
// opaque prose by every consumer.
func (s *insightServiceImpl) buildPrompt(f models.Filter, question string) (string, error) {
	report, err := s.varianceService.GetReport(f)
	if err != nil {
		return "", err
	}
	records, err := s.varianceService.GetFilteredRecords(f)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Filter: months=%v market=%s segment=%s\n\n", f.Months, f.Market, f.Segment)
	fmt.Fprintf(&b, "Summary: revenue=%.2f shrink=%.2f overage=%.2f net=%.2f accuracy=%.2f%% records=%d\n\n",
		report.Summary.TotalRevenue, report.Summary.TotalShrink, report.Summary.TotalOverage,
		report.Summary.NetVariance, report.Summary.Accuracy, report.Summary.RecordCount)

	if len(report.TopShrinkItems) > 0 {
		b.WriteString("Top shrink items:\n")
		for _, item := range report.TopShrinkItems {
			fmt.Fprintf(&b, "- %s: $%.2f (%.1f units)\n", item.ItemName, item.Amount, item.Units)
		}
		b.WriteString("\n")
	}
	if len(report.Markets) > 0 {
		b.WriteString("Markets:\n")
		for _, m := range report.Markets {
			fmt.Fprintf(&b, "- %s: revenue=%.2f shrink=%.2f overage=%.2f accuracy=%.2f%%\n",
				m.Market, m.TotalRevenue, m.TotalShrink, m.TotalOverage, m.Accuracy)
		}
		b.WriteString("\n")
	}

	b.WriteString("Sample records (item, market, period, variance, shrink, overage):\n")
	count := 0
	for _, r := range records {
		if count >= promptRecordLimit {
			fmt.Fprintf(&b, "... and %d more\n", len(records)-count)
			break
		}
		fmt.Fprintf(&b, "- %s | %s | %s | %.2f | %.2f | %.2f\n",
			r.ItemName, r.Market, r.Period, r.InvVariance, r.ShrinkLoss, r.OverageGain)
		count++
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String(), nil
}
