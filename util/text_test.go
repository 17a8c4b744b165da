package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	require.Equal(t, "hello", NormalizeText("  HeLLo "))
	require.Equal(t, "", NormalizeText("   "))
}

func TestSlugify(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test simple name": func(t *testing.T) {
			require.Equal(t, "order-status", Slugify("Order Status"))
		},
		"test punctuation collapses": func(t *testing.T) {
			require.Equal(t, "faq-v2", Slugify("FAQ!! (v2)"))
		},
		"test leading and trailing separators trimmed": func(t *testing.T) {
			require.Equal(t, "promo", Slugify("  --Promo-- "))
		},
	} {
		t.Run(scenario, fn)
	}
}
