package processors

import (
	"math"
	"sort"

	"github.com/username/shrinklens/backend/src/classify"
	"github.com/username/shrinklens/backend/src/models"
	"github.com/username/shrinklens/backend/src/sheet"
	"github.com/username/shrinklens/backend/src/utils"
)

// varianceProcessorImpl implements the VarianceProcessor interface.
type varianceProcessorImpl struct {
	leaderboardSize int
}

// NewVarianceProcessor creates a processor whose item leaderboards are
// truncated to leaderboardSize entries (a display parameter).
func NewVarianceProcessor(leaderboardSize int) VarianceProcessor {
	if leaderboardSize < 1 {
		leaderboardSize = 5
	}
	return &varianceProcessorImpl{leaderboardSize: leaderboardSize}
}

// Filter returns the records passing all three independent filters: month
// set, market and segment. The filters compose by intersection, so the
// order they are applied in never matters.
func (p *varianceProcessorImpl) Filter(records []models.ShrinkRecord, f models.Filter) []models.ShrinkRecord {
	monthSet := map[string]bool{}
	for _, m := range f.Months {
		monthSet[m] = true
	}

	var out []models.ShrinkRecord
	for _, r := range records {
		if len(monthSet) > 0 && !monthSet[r.Period] {
			continue
		}
		if f.Market != "" && f.Market != models.MarketAll && r.Market != f.Market {
			continue
		}
		if f.Segment == models.SegmentCold && !classify.IsCold(r.ItemNumber, r.ItemName) {
			continue
		}
		if f.Segment == models.SegmentAmbient && classify.IsCold(r.ItemNumber, r.ItemName) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (p *varianceProcessorImpl) Summarize(records []models.ShrinkRecord, f models.Filter) models.SummaryStats {
	return summarize(p.Filter(records, f))
}

func summarize(filtered []models.ShrinkRecord) models.SummaryStats {
	var s models.SummaryStats
	for _, r := range filtered {
		s.TotalRevenue += r.Revenue
		s.TotalShrink += r.ShrinkLoss
		s.TotalOverage += r.OverageGain
	}
	s.NetVariance = s.TotalOverage - s.TotalShrink
	s.Accuracy = accuracy(s.TotalShrink, s.TotalOverage, s.TotalRevenue)
	s.RecordCount = len(filtered)

	s.TotalRevenue = utils.RoundFloat(s.TotalRevenue, 2)
	s.TotalShrink = utils.RoundFloat(s.TotalShrink, 2)
	s.TotalOverage = utils.RoundFloat(s.TotalOverage, 2)
	s.NetVariance = utils.RoundFloat(s.NetVariance, 2)
	return s
}

// accuracy penalizes overage as well as shrink: both are counting errors,
// even though they offset in net variance terms.
func accuracy(shrink, overage, revenue float64) float64 {
	if revenue <= 0 {
		return 100
	}
	return math.Max(0, utils.RoundFloat(100*(1-(shrink+overage)/revenue), 2))
}

func (p *varianceProcessorImpl) Report(records []models.ShrinkRecord, f models.Filter) models.VarianceReport {
	filtered := p.Filter(records, f)
	return models.VarianceReport{
		Summary:         summarize(filtered),
		Monthly:         monthlyBreakdown(filtered),
		Markets:         marketBreakdown(filtered),
		TopShrinkItems:  topItems(filtered, p.leaderboardSize, shrinkAmount),
		TopOverageItems: topItems(filtered, p.leaderboardSize, overageAmount),
		RiskScores:      riskScores(filtered),
	}
}

func monthlyBreakdown(filtered []models.ShrinkRecord) []models.PeriodStats {
	byPeriod := map[string]*models.PeriodStats{}
	for _, r := range filtered {
		ps, ok := byPeriod[r.Period]
		if !ok {
			ps = &models.PeriodStats{Period: r.Period}
			byPeriod[r.Period] = ps
		}
		ps.TotalRevenue += r.Revenue
		ps.TotalShrink += r.ShrinkLoss
		ps.TotalOverage += r.OverageGain
		ps.RecordCount++
	}

	out := make([]models.PeriodStats, 0, len(byPeriod))
	for _, ps := range byPeriod {
		ps.TotalRevenue = utils.RoundFloat(ps.TotalRevenue, 2)
		ps.TotalShrink = utils.RoundFloat(ps.TotalShrink, 2)
		ps.TotalOverage = utils.RoundFloat(ps.TotalOverage, 2)
		ps.NetVariance = utils.RoundFloat(ps.TotalOverage-ps.TotalShrink, 2)
		out = append(out, *ps)
	}

	// Canonical months in calendar order first, unrecognized periods after,
	// alphabetically.
	sort.Slice(out, func(i, j int) bool {
		oi, oj := sheet.MonthOrder(out[i].Period), sheet.MonthOrder(out[j].Period)
		if oi == 0 && oj == 0 {
			return out[i].Period < out[j].Period
		}
		if oi == 0 {
			return false
		}
		if oj == 0 {
			return true
		}
		return oi < oj
	})
	return out
}

func marketBreakdown(filtered []models.ShrinkRecord) []models.MarketStats {
	byMarket := map[string]*models.MarketStats{}
	for _, r := range filtered {
		ms, ok := byMarket[r.Market]
		if !ok {
			ms = &models.MarketStats{Market: r.Market}
			byMarket[r.Market] = ms
		}
		ms.TotalRevenue += r.Revenue
		ms.TotalShrink += r.ShrinkLoss
		ms.TotalOverage += r.OverageGain
		ms.RecordCount++
	}

	out := make([]models.MarketStats, 0, len(byMarket))
	for _, ms := range byMarket {
		ms.Accuracy = accuracy(ms.TotalShrink, ms.TotalOverage, ms.TotalRevenue)
		ms.TotalRevenue = utils.RoundFloat(ms.TotalRevenue, 2)
		ms.TotalShrink = utils.RoundFloat(ms.TotalShrink, 2)
		ms.TotalOverage = utils.RoundFloat(ms.TotalOverage, 2)
		ms.NetVariance = utils.RoundFloat(ms.TotalOverage-ms.TotalShrink, 2)
		out = append(out, *ms)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Market < out[j].Market })
	return out
}

func shrinkAmount(r models.ShrinkRecord) float64  { return r.ShrinkLoss }
func overageAmount(r models.ShrinkRecord) float64 { return r.OverageGain }

func topItems(filtered []models.ShrinkRecord, n int, amount func(models.ShrinkRecord) float64) []models.ItemStat {
	byItem := map[string]*models.ItemStat{}
	for _, r := range filtered {
		a := amount(r)
		if a <= 0 {
			continue
		}
		is, ok := byItem[r.ItemName]
		if !ok {
			is = &models.ItemStat{ItemName: r.ItemName}
			byItem[r.ItemName] = is
		}
		is.Amount += a
		is.Units += math.Abs(r.InvVariance)
	}

	out := make([]models.ItemStat, 0, len(byItem))
	for _, is := range byItem {
		is.Amount = utils.RoundFloat(is.Amount, 2)
		out = append(out, *is)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].ItemName < out[j].ItemName
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// riskScores normalizes per-market shrink rate, overage rate and incident
// share against the worst market in the filtered set, scaled 0-100. A
// market with no revenue has no meaningful rate, so its rate components
// score 0; only its incident count competes.
func riskScores(filtered []models.ShrinkRecord) []models.MarketRiskScore {
	type rawRisk struct {
		shrinkRate  float64
		overageRate float64
		incidents   float64
	}

	byMarket := map[string]*rawRisk{}
	revenue := map[string]float64{}
	for _, r := range filtered {
		rr, ok := byMarket[r.Market]
		if !ok {
			rr = &rawRisk{}
			byMarket[r.Market] = rr
		}
		rr.shrinkRate += r.ShrinkLoss
		rr.overageRate += r.OverageGain
		rr.incidents++
		revenue[r.Market] += r.Revenue
	}

	var maxShrink, maxOverage, maxIncidents float64
	for market, rr := range byMarket {
		if rev := revenue[market]; rev > 0 {
			rr.shrinkRate /= rev
			rr.overageRate /= rev
		} else {
			rr.shrinkRate = 0
			rr.overageRate = 0
		}
		maxShrink = math.Max(maxShrink, rr.shrinkRate)
		maxOverage = math.Max(maxOverage, rr.overageRate)
		maxIncidents = math.Max(maxIncidents, rr.incidents)
	}

	scale := func(v, max float64) float64 {
		if max <= 0 {
			return 0
		}
		return utils.RoundFloat(100*v/max, 1)
	}

	out := make([]models.MarketRiskScore, 0, len(byMarket))
	for market, rr := range byMarket {
		score := models.MarketRiskScore{
			Market:        market,
			ShrinkScore:   scale(rr.shrinkRate, maxShrink),
			OverageScore:  scale(rr.overageRate, maxOverage),
			IncidentScore: scale(rr.incidents, maxIncidents),
		}
		score.Composite = utils.RoundFloat((score.ShrinkScore+score.OverageScore+score.IncidentScore)/3, 1)
		out = append(out, score)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Composite != out[j].Composite {
			return out[i].Composite > out[j].Composite
		}
		return out[i].Market < out[j].Market
	})
	return out
}
