package bot

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/cashpilot-bot/internal/models"
)

var errInvalidAmount = errors.New("invalid amount")

// FormatGuarani renders an amount like "1.200.000 Gs". Whole amounts drop
// their decimals; otherwise the fractional digits are kept as given and the
// integer part is still grouped with dots.
func FormatGuarani(amount decimal.Decimal) string {
	var digits string
	if amount.Equal(amount.Truncate(0)) {
		digits = amount.Truncate(0).String()
	} else {
		digits = amount.StringFixed(-amount.Exponent())
	}

	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign = "-"
		digits = digits[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(digits, ".")
	grouped := groupThousands(intPart)
	if hasFrac {
		grouped += "." + fracPart
	}

	return sign + grouped + " " + models.CurrencySuffix
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var sb strings.Builder
	head := len(digits) % 3
	if head > 0 {
		sb.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

// parseAmount parses a command argument as a decimal amount.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errInvalidAmount
	}
	return d, nil
}
