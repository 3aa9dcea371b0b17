// internal/normalize/engine.go

// Package normalize collapses raw, multilingual extraction output onto the
// canonical MSME taxonomy. Every function is pure and total: unknown input
// degrades to a passthrough or a nil, never an error.
package normalize

import (
	"strings"
	"unicode"
)

// Canonical business-size tiers.
const (
	SizeMicro  = "Micro"
	SizeSmall  = "Small"
	SizeMedium = "Medium"
)

var cityAliasIndex map[string]*cityEntry

func init() {
	cityAliasIndex = make(map[string]*cityEntry)
	for i := range cityTable {
		entry := &cityTable[i]
		for _, alias := range entry.Aliases {
			cityAliasIndex[alias] = entry
		}
	}
}

// Location resolves a raw location string to its canonical city name.
// Unmatched non-empty input passes through trimmed and title-cased; empty or
// whitespace input yields nil.
func Location(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	lowered := strings.ToLower(trimmed)

	if entry, ok := cityAliasIndex[lowered]; ok {
		return strPtr(entry.Canonical)
	}

	// Substring scan for inputs like "mumbai suburbs" or "near dilli".
	// The longest alias wins so "new delhi" beats "delhi".
	var best *cityEntry
	bestLen := 0
	for alias, entry := range cityAliasIndex {
		if len(alias) > bestLen && containsAlias(lowered, alias) {
			best = entry
			bestLen = len(alias)
		}
	}
	if best != nil {
		return strPtr(best.Canonical)
	}

	return strPtr(titleCase(trimmed))
}

// Region maps a canonical city onto its coarse region bucket, used by
// anonymized exports. Unknown locations bucket to "Other".
func Region(canonicalCity string) string {
	lowered := strings.ToLower(strings.TrimSpace(canonicalCity))
	if entry, ok := cityAliasIndex[lowered]; ok {
		return entry.Region
	}
	return "Other"
}

// Industry resolves a raw business description to a canonical industry
// category, or nil when no rule matches (callers may present that as
// "Other").
func Industry(raw string) *string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return nil
	}
	for _, rule := range industryRules {
		for _, trigger := range rule.Triggers {
			if strings.Contains(lowered, trigger) {
				return strPtr(rule.Category)
			}
		}
	}
	return nil
}

// BusinessSize resolves the canonical size tier. Resolution order: explicit
// size keyword, then employee-count thresholds, then turnover thresholds,
// then nil.
func BusinessSize(sizeHint *string, employeeCount *int, turnoverINR *int64) *string {
	if sizeHint != nil {
		if size := sizeFromHint(*sizeHint); size != "" {
			return strPtr(size)
		}
	}
	if employeeCount != nil {
		switch {
		case *employeeCount < microEmployeeMax:
			return strPtr(SizeMicro)
		case *employeeCount < smallEmployeeMax:
			return strPtr(SizeSmall)
		default:
			return strPtr(SizeMedium)
		}
	}
	if turnoverINR != nil {
		switch {
		case *turnoverINR < microTurnoverMax:
			return strPtr(SizeMicro)
		case *turnoverINR < smallTurnoverMax:
			return strPtr(SizeSmall)
		default:
			return strPtr(SizeMedium)
		}
	}
	return nil
}

// sizeFromHint returns the tier of the longest size synonym present in the
// hint, or "" when none match.
func sizeFromHint(hint string) string {
	lowered := strings.ToLower(strings.TrimSpace(hint))
	if lowered == "" {
		return ""
	}
	best := ""
	bestLen := 0
	for _, syn := range sizeSynonyms {
		if len(syn.Trigger) > bestLen && strings.Contains(lowered, syn.Trigger) {
			best = syn.Size
			bestLen = len(syn.Trigger)
		}
	}
	return best
}

// containsAlias checks for alias as a word-bounded substring so that
// "puneet traders" does not normalize to Pune. Devanagari aliases skip the
// boundary check since the inputs rarely use ASCII separators.
func containsAlias(input, alias string) bool {
	idx := strings.Index(input, alias)
	if idx < 0 {
		return false
	}
	if alias != "" && alias[0] >= 0x80 {
		return true
	}
	before := idx - 1
	after := idx + len(alias)
	if before >= 0 && isWordByte(input[before]) {
		return false
	}
	if after < len(input) && isWordByte(input[after]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	startOfWord := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			startOfWord = true
			b.WriteRune(r)
			continue
		}
		if startOfWord {
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func strPtr(s string) *string { return &s }
