package bot

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFormatGuarani(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount string
		want   string
	}{
		{amount: "500000", want: "500.000 Gs"},
		{amount: "1200000", want: "1.200.000 Gs"},
		{amount: "150", want: "150 Gs"},
		{amount: "0", want: "0 Gs"},
		{amount: "1000", want: "1.000 Gs"},
		{amount: "500000.00", want: "500.000 Gs"},
		{amount: "1000000.50", want: "1.000.000.50 Gs"},
		{amount: "12.5", want: "12.5 Gs"},
		{amount: "-700000", want: "-700.000 Gs"},
		{amount: "-1234.75", want: "-1.234.75 Gs"},
		{amount: "123456789012", want: "123.456.789.012 Gs"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, FormatGuarani(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestFormatGuarani_Properties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(-1_000_000_000_000, 1_000_000_000_000).Draw(t, "n")
		got := FormatGuarani(decimal.NewFromInt(n))

		require.True(t, strings.HasSuffix(got, " Gs"))
		body := strings.TrimSuffix(got, " Gs")
		body = strings.TrimPrefix(body, "-")

		groups := strings.Split(body, ".")
		require.NotEmpty(t, groups[0])
		require.LessOrEqual(t, len(groups[0]), 3)
		for _, g := range groups[1:] {
			require.Len(t, g, 3)
		}

		back := decimal.RequireFromString(strings.ReplaceAll(strings.TrimSuffix(got, " Gs"), ".", ""))
		require.True(t, back.Equal(decimal.NewFromInt(n)), "round trip of %d gave %s", n, got)
	})
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	t.Run("valid amounts", func(t *testing.T) {
		t.Parallel()
		for in, want := range map[string]string{
			"500000":    "500000",
			" 1200000 ": "1200000",
			"1500.50":   "1500.5",
			"-1":        "-1",
			"0":         "0",
		} {
			got, err := parseAmount(in)
			require.NoError(t, err, in)
			require.True(t, decimal.RequireFromString(want).Equal(got), in)
		}
	})

	t.Run("invalid amounts", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{"", "abc", "12abc", "1,5", "NaN"} {
			_, err := parseAmount(in)
			require.ErrorIs(t, err, errInvalidAmount, in)
		}
	})
}
