package validate

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tests := []struct {
			raw      string
			expected string
		}{
			{"300", "300"},
			{"10.5", "10.5"},
			{"10,50", "10.5"},
			{" 0.01 ", "0.01"},
			{"9999999999.99", "9999999999.99"},
		}

		for _, tt := range tests {
			t.Run(tt.raw, func(t *testing.T) {
				got, err := Amount(tt.raw)

				require.NoError(t, err)
				require.True(t, got.Equal(decimal.RequireFromString(tt.expected)), "got %s, expected %s", got, tt.expected)
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			raw  string
		}{
			{"empty", ""},
			{"spaces", "   "},
			{"not a number", "ten"},
			{"zero", "0"},
			{"negative", "-5"},
			{"three fractional digits", "1.005"},
			{"too large", "10000000000"},
			{"two separators", "1,000.50"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Amount(tt.raw)

				require.Error(t, err)
			})
		}
	})
}

func TestAmount_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("fixed two digit cents parse back to the same value", prop.ForAll(
		func(cents int64) bool {
			want := decimal.New(cents, -2)
			got, err := Amount(want.StringFixed(2))
			return err == nil && got.Equal(want)
		},
		gen.Int64Range(1, 999999999999),
	))

	properties.Property("comma and dot separators are equivalent", prop.ForAll(
		func(cents int64) bool {
			s := decimal.New(cents, -2).StringFixed(2)
			dot, err1 := Amount(s)
			comma, err2 := Amount(strings.Replace(s, ".", ",", 1))
			return err1 == nil && err2 == nil && dot.Equal(comma)
		},
		gen.Int64Range(1, 999999999999),
	))

	properties.Property("non positive amounts are rejected", prop.ForAll(
		func(cents int64) bool {
			_, err := Amount(decimal.New(cents, -2).String())
			return err != nil
		},
		gen.Int64Range(-999999999999, 0),
	))

	properties.TestingRun(t)
}

func TestPromoCode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		code, err := PromoCode("  Welcome10\n")

		require.NoError(t, err)
		require.Equal(t, "Welcome10", code, "casing should be kept, whitespace trimmed")
	})

	t.Run("invalid", func(t *testing.T) {
		for _, raw := range []string{"", "  ", "two words", strings.Repeat("A", MaxCodeLen+1)} {
			_, err := PromoCode(raw)

			require.Error(t, err, "code %q should be rejected", raw)
		}
	})
}

func TestPromoCode_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("normalization is idempotent", prop.ForAll(
		func(code string, pad int) bool {
			padding := strings.Repeat(" ", pad)
			once, err := PromoCode(padding + code + padding)
			if err != nil {
				return false
			}
			twice, err := PromoCode(once)
			return err == nil && once == twice && once == code
		},
		gen.Identifier().SuchThat(func(s string) bool { return len(s) <= MaxCodeLen }),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}
