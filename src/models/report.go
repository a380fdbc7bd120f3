package models

// SummaryStats are the headline financial-integrity metrics over a filtered
// record set. Accuracy penalizes overage as well as shrink; NetVariance
// treats them as offsetting.
type SummaryStats struct {
	TotalRevenue float64 `json:"total_revenue"`
	TotalShrink  float64 `json:"total_shrink"`
	TotalOverage float64 `json:"total_overage"`
	NetVariance  float64 `json:"net_variance"`
	Accuracy     float64 `json:"accuracy"` // 0..100
	RecordCount  int     `json:"record_count"`
}

// PeriodStats is one row of the per-month breakdown.
type PeriodStats struct {
	Period       string  `json:"period"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalShrink  float64 `json:"total_shrink"`
	TotalOverage float64 `json:"total_overage"`
	NetVariance  float64 `json:"net_variance"`
	RecordCount  int     `json:"record_count"`
}

// MarketStats is one row of the per-market breakdown.
type MarketStats struct {
	Market       string  `json:"market"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalShrink  float64 `json:"total_shrink"`
	TotalOverage float64 `json:"total_overage"`
	NetVariance  float64 `json:"net_variance"`
	Accuracy     float64 `json:"accuracy"`
	RecordCount  int     `json:"record_count"`
}

// ItemStat is one leaderboard entry, grouped by item name.
type ItemStat struct {
	ItemName string  `json:"item_name"`
	Amount   float64 `json:"amount"` // summed shrink loss or overage gain
	Units    float64 `json:"units"`  // summed absolute variance units
}

// MarketRiskScore holds the normalized radar components for one market,
// each scaled 0-100 against the worst market in the filtered set.
type MarketRiskScore struct {
	Market        string  `json:"market"`
	ShrinkScore   float64 `json:"shrink_score"`
	OverageScore  float64 `json:"overage_score"`
	IncidentScore float64 `json:"incident_score"`
	Composite     float64 `json:"composite"`
}

// VarianceReport is the full aggregation result handed to presentation and
// to the insight collaborator.
type VarianceReport struct {
	Summary         SummaryStats      `json:"summary"`
	Monthly         []PeriodStats     `json:"monthly"`
	Markets         []MarketStats     `json:"markets"`
	TopShrinkItems  []ItemStat        `json:"top_shrink_items"`
	TopOverageItems []ItemStat        `json:"top_overage_items"`
	RiskScores      []MarketRiskScore `json:"risk_scores"`
}
