// internal/normalize/currency.go
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// currencyPattern accepts Indian-idiom monetary expressions: an optional
// currency marker, a decimal value, an optional lakh/crore unit (with or
// without a separating space), and an optional trailing "rupees".
var currencyPattern = regexp.MustCompile(
	`(?i)^\s*(?:₹|rs\.?|inr)?\s*([0-9]+(?:\.[0-9]+)?)\s*(lakhs?|lacs?|l|crores?|cr)?\.?\s*(?:rupees?|rupaye|rs\.?|inr)?\s*$`,
)

var unitMultipliers = map[string]float64{
	"l": 100_000, "lakh": 100_000, "lakhs": 100_000, "lac": 100_000, "lacs": 100_000,
	"cr": 10_000_000, "crore": 10_000_000, "crores": 10_000_000,
}

// Currency parses a monetary expression like "50 lakh", "₹2.5 crore", "50L"
// or a plain rupee figure into whole rupees. Indian digit grouping commas are
// tolerated. Unparseable input yields nil.
func Currency(text string) *int64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" {
		return nil
	}

	m := currencyPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return nil
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}

	multiplier := 1.0
	if unit := strings.ToLower(m[2]); unit != "" {
		multiplier = unitMultipliers[unit]
	}

	rupees := int64(math.Round(value * multiplier))
	return &rupees
}
