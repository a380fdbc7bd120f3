// Package classify decides which operational segment an item belongs to.
// The cold/fresh convention is a fixed labeling heuristic in the source
// data and must match it exactly, so membership is decided here and
// nowhere else.
package classify

import "regexp"

// coldRules is the ordered rule table for the cold/fresh segment. The
// anchors and the whitespace-after-letter requirement are deliberate: a
// name like "Frozen Burrito" must not match on its leading F.
var coldRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^KF`),
	regexp.MustCompile(`(?i)^F\s`),
	regexp.MustCompile(`(?i)^B\s`),
}

// IsCold reports whether the item belongs to the cold/fresh handling
// segment, based on either its code or its display name.
func IsCold(itemNumber, itemName string) bool {
	for _, rule := range coldRules {
		if rule.MatchString(itemNumber) || rule.MatchString(itemName) {
			return true
		}
	}
	return false
}
