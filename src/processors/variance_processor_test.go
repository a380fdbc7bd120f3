package processors

import (
	"math"
	"testing"

	"github.com/username/shrinklens/backend/src/models"
)

func sampleRecords() []models.ShrinkRecord {
	return []models.ShrinkRecord{
		{ItemNumber: "1001", ItemName: "Chips", InvVariance: -2, Revenue: 20, ItemCost: 3.5, ShrinkLoss: 7, Market: "Building 4", Period: "March"},
		{ItemNumber: "1002", ItemName: "Cola", InvVariance: 3, Revenue: 45, ItemCost: 0.8, OverageGain: 2.4, Market: "Building 4", Period: "March"},
		{ItemNumber: "KF200", ItemName: "Turkey Sandwich", InvVariance: -1, Revenue: 60, ItemCost: 2.5, ShrinkLoss: 2.5, Market: "North Tower", Period: "April"},
		{ItemNumber: "1003", ItemName: "Chips", InvVariance: -4, Revenue: 30, ItemCost: 3.5, ShrinkLoss: 14, Market: "North Tower", Period: "April"},
	}
}

func TestFilterComposition(t *testing.T) {
	p := NewVarianceProcessor(5)
	records := sampleRecords()

	all := p.Filter(records, models.DefaultFilter())
	if len(all) != 4 {
		t.Fatalf("default filter kept %d records, want all 4", len(all))
	}

	march := p.Filter(records, models.Filter{Months: []string{"March"}, Market: models.MarketAll, Segment: models.SegmentAll})
	if len(march) != 2 {
		t.Errorf("month filter kept %d records, want 2", len(march))
	}

	north := p.Filter(records, models.Filter{Market: "North Tower", Segment: models.SegmentAll})
	if len(north) != 2 {
		t.Errorf("market filter kept %d records, want 2", len(north))
	}

	cold := p.Filter(records, models.Filter{Market: models.MarketAll, Segment: models.SegmentCold})
	if len(cold) != 1 || cold[0].ItemNumber != "KF200" {
		t.Errorf("cold filter kept %+v, want only KF200", cold)
	}

	ambient := p.Filter(records, models.Filter{Market: models.MarketAll, Segment: models.SegmentAmbient})
	if len(ambient) != 3 {
		t.Errorf("ambient filter kept %d records, want 3", len(ambient))
	}

	// Filters intersect: month + market + segment together.
	combined := p.Filter(records, models.Filter{
		Months:  []string{"April"},
		Market:  "North Tower",
		Segment: models.SegmentAmbient,
	})
	if len(combined) != 1 || combined[0].ItemNumber != "1003" {
		t.Errorf("combined filter kept %+v, want only 1003", combined)
	}
}

func TestSummarize(t *testing.T) {
	p := NewVarianceProcessor(5)
	s := p.Summarize(sampleRecords(), models.DefaultFilter())

	if math.Abs(s.TotalRevenue-155) > 0.0001 {
		t.Errorf("TotalRevenue = %f, want 155", s.TotalRevenue)
	}
	if math.Abs(s.TotalShrink-23.5) > 0.0001 {
		t.Errorf("TotalShrink = %f, want 23.5", s.TotalShrink)
	}
	if math.Abs(s.TotalOverage-2.4) > 0.0001 {
		t.Errorf("TotalOverage = %f, want 2.4", s.TotalOverage)
	}
	if math.Abs(s.NetVariance-(-21.1)) > 0.0001 {
		t.Errorf("NetVariance = %f, want -21.1", s.NetVariance)
	}
	if s.RecordCount != 4 {
		t.Errorf("RecordCount = %d, want 4", s.RecordCount)
	}

	// Accuracy counts overage against the market too: 100*(1 - 25.9/155).
	want := 100 * (1 - 25.9/155)
	if math.Abs(s.Accuracy-math.Round(want*100)/100) > 0.01 {
		t.Errorf("Accuracy = %f, want about %f", s.Accuracy, want)
	}
}

func TestSummarizeZeroRevenue(t *testing.T) {
	p := NewVarianceProcessor(5)
	records := []models.ShrinkRecord{
		{ItemName: "Chips", InvVariance: -1, ShrinkLoss: 3.5, Period: "March", Market: "A"},
	}
	s := p.Summarize(records, models.DefaultFilter())
	if s.Accuracy != 100 {
		t.Errorf("Accuracy with zero revenue = %f, want 100", s.Accuracy)
	}
}

func TestReportMonthlyOrdering(t *testing.T) {
	p := NewVarianceProcessor(5)
	records := []models.ShrinkRecord{
		{ItemName: "A", InvVariance: -1, ShrinkLoss: 1, Period: "Q1 Summary", Market: "M"},
		{ItemName: "B", InvVariance: -1, ShrinkLoss: 1, Period: "March", Market: "M"},
		{ItemName: "C", InvVariance: -1, ShrinkLoss: 1, Period: "January", Market: "M"},
	}
	rep := p.Report(records, models.DefaultFilter())

	if len(rep.Monthly) != 3 {
		t.Fatalf("Monthly has %d buckets, want 3", len(rep.Monthly))
	}
	want := []string{"January", "March", "Q1 Summary"}
	for i, ps := range rep.Monthly {
		if ps.Period != want[i] {
			t.Errorf("Monthly[%d] = %q, want %q", i, ps.Period, want[i])
		}
	}
}

func TestReportLeaderboards(t *testing.T) {
	p := NewVarianceProcessor(2)
	records := []models.ShrinkRecord{
		{ItemName: "Chips", InvVariance: -2, ShrinkLoss: 7, Period: "March", Market: "A"},
		{ItemName: "Chips", InvVariance: -4, ShrinkLoss: 14, Period: "April", Market: "B"},
		{ItemName: "Cookies", InvVariance: -1, ShrinkLoss: 2, Period: "March", Market: "A"},
		{ItemName: "Candy", InvVariance: -1, ShrinkLoss: 5, Period: "March", Market: "A"},
		{ItemName: "Cola", InvVariance: 3, OverageGain: 2.4, Period: "March", Market: "A"},
	}
	rep := p.Report(records, models.DefaultFilter())

	if len(rep.TopShrinkItems) != 2 {
		t.Fatalf("TopShrinkItems has %d entries, want leaderboard size 2", len(rep.TopShrinkItems))
	}
	// Chips aggregates across markets: 7 + 14 = 21.
	if rep.TopShrinkItems[0].ItemName != "Chips" || math.Abs(rep.TopShrinkItems[0].Amount-21) > 0.0001 {
		t.Errorf("TopShrinkItems[0] = %+v, want Chips with 21", rep.TopShrinkItems[0])
	}
	if rep.TopShrinkItems[0].Units != 6 {
		t.Errorf("TopShrinkItems[0].Units = %f, want 6", rep.TopShrinkItems[0].Units)
	}
	if rep.TopShrinkItems[1].ItemName != "Candy" {
		t.Errorf("TopShrinkItems[1] = %+v, want Candy", rep.TopShrinkItems[1])
	}

	if len(rep.TopOverageItems) != 1 || rep.TopOverageItems[0].ItemName != "Cola" {
		t.Errorf("TopOverageItems = %+v, want only Cola", rep.TopOverageItems)
	}
}

func TestReportRiskScores(t *testing.T) {
	p := NewVarianceProcessor(5)
	rep := p.Report(sampleRecords(), models.DefaultFilter())

	if len(rep.RiskScores) != 2 {
		t.Fatalf("RiskScores has %d markets, want 2", len(rep.RiskScores))
	}
	// North Tower has the worst shrink rate (16.5/90 vs 7/65) so it scores
	// 100 on shrink; Building 4 holds all the overage so it scores 100
	// there. Incident counts are equal, both score 100.
	var building, north models.MarketRiskScore
	for _, rs := range rep.RiskScores {
		switch rs.Market {
		case "Building 4":
			building = rs
		case "North Tower":
			north = rs
		}
	}
	if north.ShrinkScore != 100 {
		t.Errorf("North Tower ShrinkScore = %f, want 100", north.ShrinkScore)
	}
	if north.OverageScore != 0 {
		t.Errorf("North Tower OverageScore = %f, want 0", north.OverageScore)
	}
	if building.OverageScore != 100 {
		t.Errorf("Building 4 OverageScore = %f, want 100", building.OverageScore)
	}
	if building.IncidentScore != 100 || north.IncidentScore != 100 {
		t.Errorf("IncidentScores = %f/%f, want 100/100", building.IncidentScore, north.IncidentScore)
	}
	if rep.RiskScores[0].Composite < rep.RiskScores[1].Composite {
		t.Errorf("RiskScores not sorted by composite: %+v", rep.RiskScores)
	}
	for _, rs := range rep.RiskScores {
		if rs.Composite < 0 || rs.Composite > 100 {
			t.Errorf("Composite out of range: %+v", rs)
		}
	}
}

func TestRiskScoresZeroRevenueMarket(t *testing.T) {
	p := NewVarianceProcessor(5)
	records := []models.ShrinkRecord{
		// Large shrink dollars but no revenue: the rate is undefined, so
		// the market must not outscore a revenue-bearing one on scale alone.
		{ItemName: "A", InvVariance: -10, ShrinkLoss: 500, Revenue: 0, Market: "Ghost", Period: "March"},
		{ItemName: "B", InvVariance: -1, ShrinkLoss: 5, Revenue: 50, Market: "Live", Period: "March"},
	}
	rep := p.Report(records, models.DefaultFilter())

	for _, rs := range rep.RiskScores {
		switch rs.Market {
		case "Ghost":
			if rs.ShrinkScore != 0 || rs.OverageScore != 0 {
				t.Errorf("Ghost rate scores = %f/%f, want 0/0", rs.ShrinkScore, rs.OverageScore)
			}
		case "Live":
			if rs.ShrinkScore != 100 {
				t.Errorf("Live ShrinkScore = %f, want 100", rs.ShrinkScore)
			}
		}
	}
}
