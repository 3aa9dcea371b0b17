// internal/normalize/currency_test.go
package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency_LakhCroreGrammar(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"50 lakh", 5_000_000},
		{"50 lakhs", 5_000_000},
		{"50L", 5_000_000},
		{"50l", 5_000_000},
		{"2 lac", 200_000},
		{"5 crore", 50_000_000},
		{"5 crores", 50_000_000},
		{"5cr", 50_000_000},
		{"₹50 lakh", 5_000_000},
		{"Rs. 50 lakh", 5_000_000},
		{"rs 50 lakh", 5_000_000},
		{"INR 2 crore", 20_000_000},
		{"2 crore rupees", 20_000_000},
		{"2.5 lakh", 250_000},
		{"1.5cr", 15_000_000},
		{"500000", 500_000},
		{"₹500000", 500_000},
		{"2,00,000", 200_000},
		{"  75 lakh  ", 7_500_000},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Currency(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, *got)
		})
	}
}

func TestCurrency_Unparseable(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"a lot of money",
		"lakh",
		"fifty lakh",
		"50 million", // not part of the Indian-idiom grammar
		"50 lakh 20 thousand",
	} {
		assert.Nil(t, Currency(input), "input=%q", input)
	}
}
