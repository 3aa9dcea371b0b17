// internal/normalize/engine_test.go
package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestLocation_AliasLookup(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"canonical passthrough", "Mumbai", "Mumbai"},
		{"colonial name", "Bombay", "Mumbai"},
		{"romanized hindi", "bambai", "Mumbai"},
		{"devanagari", "मुंबई", "Mumbai"},
		{"devanagari delhi", "दिल्ली", "Delhi"},
		{"romanized delhi", "dilli", "Delhi"},
		{"new delhi collapses", "New Delhi", "Delhi"},
		{"misspelling", "banglore", "Bengaluru"},
		{"old name bangalore", "Bangalore", "Bengaluru"},
		{"madras", "MADRAS", "Chennai"},
		{"calcutta", "calcutta", "Kolkata"},
		{"vizag", "vizag", "Visakhapatnam"},
		{"embedded alias", "near dilli border", "Delhi"},
		{"case insensitive", "hYdErAbAd", "Hyderabad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Location(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, *got)
		})
	}
}

func TestLocation_EveryAliasResolvesToItsCanonical(t *testing.T) {
	for _, entry := range cityTable {
		for _, alias := range entry.Aliases {
			got := Location(alias)
			require.NotNil(t, got, "alias %q", alias)
			assert.Equal(t, entry.Canonical, *got, "alias %q", alias)
		}
	}
}

func TestLocation_UnknownPassthrough(t *testing.T) {
	got := Location("  sholapur junction  ")
	require.NotNil(t, got)
	assert.Equal(t, "Sholapur Junction", *got)
}

func TestLocation_WordBoundary(t *testing.T) {
	// "puneet traders" must not match Pune.
	got := Location("puneet traders")
	require.NotNil(t, got)
	assert.Equal(t, "Puneet Traders", *got)
}

func TestLocation_EmptyInput(t *testing.T) {
	assert.Nil(t, Location(""))
	assert.Nil(t, Location("   "))
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "Maharashtra", Region("Mumbai"))
	assert.Equal(t, "Delhi NCR", Region("Delhi"))
	assert.Equal(t, "Other", Region("Springfield"))
}

func TestIndustry_PriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"textiles beats general manufacturing", "textile manufacturing business", "Manufacturing - Textiles"},
		{"kirana", "kirana shop", "Retail - Grocery"},
		{"devanagari grocery", "किराने का सामान", "Retail - Grocery"},
		{"plain shop", "mobile accessories shop", "Retail - General"},
		{"devanagari shop", "छोटी दुकान", "Retail - General"},
		{"dhaba", "roadside dhaba", "Food & Beverage"},
		{"farming", "kheti aur dairy", "Agriculture"},
		{"software", "software development", "Services - IT"},
		{"factory", "plastic moulding factory", "Manufacturing - General"},
		{"wholesale", "wholesale distributor", "Trading"},
		{"salon", "beauty salon", "Services - General"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Industry(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, *got)
		})
	}
}

func TestIndustry_NoMatch(t *testing.T) {
	assert.Nil(t, Industry("quantum flux capacitors"))
	assert.Nil(t, Industry(""))
	assert.Nil(t, Industry("   "))
}

func TestIndustry_RulesStaySorted(t *testing.T) {
	for i := 1; i < len(industryRules); i++ {
		assert.Less(t, industryRules[i-1].Priority, industryRules[i].Priority,
			"rule %q out of order", industryRules[i].Category)
	}
}

func TestBusinessSize_HintWinsOverCounts(t *testing.T) {
	tests := []struct {
		hint     string
		expected string
	}{
		{"chota", SizeMicro},
		{"छोटा", SizeMicro},
		{"छोटी", SizeMicro},
		{"small", SizeMicro},
		{"madhyam", SizeSmall},
		{"small-medium", SizeSmall}, // longest synonym wins over "small"
		{"bada", SizeMedium},
		{"established", SizeMedium},
		{"medium", SizeMedium},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			// Contradictory employee count proves the hint takes precedence.
			got := BusinessSize(&tt.hint, intPtr(500), nil)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, *got)
		})
	}
}

func TestBusinessSize_EmployeeBoundaries(t *testing.T) {
	tests := []struct {
		employees int
		expected  string
	}{
		{9, SizeMicro},
		{10, SizeSmall},
		{49, SizeSmall},
		{50, SizeMedium},
	}
	for _, tt := range tests {
		got := BusinessSize(nil, intPtr(tt.employees), nil)
		require.NotNil(t, got)
		assert.Equal(t, tt.expected, *got, "employees=%d", tt.employees)
	}
}

func TestBusinessSize_TurnoverFallback(t *testing.T) {
	tests := []struct {
		turnover int64
		expected string
	}{
		{9_999_999, SizeMicro},
		{10_000_000, SizeSmall},
		{99_999_999, SizeSmall},
		{100_000_000, SizeMedium},
	}
	for _, tt := range tests {
		got := BusinessSize(nil, nil, int64Ptr(tt.turnover))
		require.NotNil(t, got)
		assert.Equal(t, tt.expected, *got, "turnover=%d", tt.turnover)
	}
}

func TestBusinessSize_NothingKnown(t *testing.T) {
	assert.Nil(t, BusinessSize(nil, nil, nil))

	unknown := "medium-ish maybe?"
	// Unrecognized hint containing "medium" still matches the synonym table.
	got := BusinessSize(&unknown, nil, nil)
	require.NotNil(t, got)
	assert.Equal(t, SizeMedium, *got)

	gibberish := "zzz"
	assert.Nil(t, BusinessSize(&gibberish, nil, nil))
}
