package sheet

import (
	"regexp"
	"strings"
)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var monthAbbrevs = map[string]string{
	"jan": "January", "feb": "February", "mar": "March", "apr": "April",
	"jun": "June", "jul": "July", "aug": "August", "sep": "September",
	"sept": "September", "oct": "October", "nov": "November", "dec": "December",
}

var wordSplitRe = regexp.MustCompile(`[^a-z]+`)

// NormalizePeriod maps a free-text period label to one of the twelve
// canonical month names. Matching on full names is substring-based because
// source labels look like "March 2024 Report". Three-letter abbreviations
// are only honored as standalone words so that e.g. "Q1 Summary" is not
// misread as March. Unrecognized labels pass through trimmed.
func NormalizePeriod(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "Unknown"
	}

	lower := strings.ToLower(trimmed)
	for _, month := range monthNames {
		if strings.Contains(lower, strings.ToLower(month)) {
			return month
		}
	}

	for _, word := range wordSplitRe.Split(lower, -1) {
		if month, ok := monthAbbrevs[word]; ok {
			return month
		}
	}

	return trimmed
}

// MonthOrder returns the 1-based position of a canonical month name, or 0
// when the period is not a recognized month.
func MonthOrder(period string) int {
	for i, month := range monthNames {
		if month == period {
			return i + 1
		}
	}
	return 0
}

var boilerplatePrefixRe = regexp.MustCompile(`(?i)^(market|location|site|store|kiosk)\s*:\s*`)
var separatorRe = regexp.MustCompile(`\s+[-|:/]\s+`)
var numericSegmentRe = regexp.MustCompile(`^\d+$`)
var siteCodeRe = regexp.MustCompile(`^[A-Z0-9]{2,4}$`)

// HumanizeMarketName turns raw sheet metadata ("Market: Building 4 - ABC")
// into a readable label. Site codes and purely numeric segments are dropped
// unless they are all there is; the fallback chain guarantees a non-empty
// label for any non-degenerate input.
func HumanizeMarketName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	name := boilerplatePrefixRe.ReplaceAllString(trimmed, "")
	segments := separatorRe.Split(name, -1)

	var kept []string
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if len(segments) > 1 && (numericSegmentRe.MatchString(seg) || siteCodeRe.MatchString(seg)) {
			continue
		}
		kept = append(kept, seg)
	}

	if len(kept) > 0 {
		return strings.Join(kept, " - ")
	}
	return trimmed
}
