package models

// ShrinkRecord is the canonical unit: one item's inventory variance
// observation for one market and one period. Records are created by the
// extractor without an ID; the ID is assigned when a staged import is
// committed and is never reused.
type ShrinkRecord struct {
	ID          string  `json:"id"`
	ItemNumber  string  `json:"item_number"`
	ItemName    string  `json:"item_name"`
	InvVariance float64 `json:"inv_variance"` // signed units, positive = surplus
	Revenue     float64 `json:"revenue"`      // total revenue attributed for the period
	SoldQty     float64 `json:"sold_qty"`
	SalePrice   float64 `json:"sale_price"`
	ItemCost    float64 `json:"item_cost"`
	ShrinkLoss  float64 `json:"shrink_loss"`  // >= 0, non-zero only when variance < 0
	OverageGain float64 `json:"overage_gain"` // >= 0, non-zero only when variance > 0
	ItemProfit  float64 `json:"item_profit"`  // (price - cost) * qty
	Market      string  `json:"market"`       // humanized market label
	Period      string  `json:"period"`       // normalized month name or raw fallback
}

// StagedImport is the ephemeral holding area between extraction and user
// confirmation. It owns no record identifiers; those are assigned at commit.
type StagedImport struct {
	Records []ShrinkRecord `json:"records"`
	Markets []string       `json:"markets"`
	Period  string         `json:"period"` // already normalized
}

// Segment filter values.
const (
	SegmentAll     = "all"
	SegmentCold    = "cold"
	SegmentAmbient = "ambient"
)

// Filter is the active aggregation selection. An empty Months set means
// "all months"; MarketAll matches every market.
type Filter struct {
	Months  []string `json:"months"`
	Market  string   `json:"market"`
	Segment string   `json:"segment"`
}

const MarketAll = "All"

// DefaultFilter returns the unrestricted selection.
func DefaultFilter() Filter {
	return Filter{Market: MarketAll, Segment: SegmentAll}
}
