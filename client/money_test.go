package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFormatCurrencyDynamicPrecision(t *testing.T) {
	tests := []struct {
		amount string
		suffix string
	}{
		{"12.3", "12.3"},
		{"12", "12"},
		{"0.5", "0.50"},
		{"0.1234", "0.1234"},
	}
	for _, tt := range tests {
		got := FormatCurrency(tt.amount, "USD", language.English)
		assert.True(t, strings.HasSuffix(got, tt.suffix), "FormatCurrency(%q) = %q, want suffix %q", tt.amount, got, tt.suffix)
		assert.NotEqual(t, tt.suffix, got, "expected a currency symbol prefix, got %q", got)
	}
}

func TestFormatCurrencyFallbacks(t *testing.T) {
	assert.Equal(t, "n/a", FormatCurrency("n/a", "USD", language.English))
	assert.Equal(t, "12.3", FormatCurrency("12.3", "???", language.English))
}
