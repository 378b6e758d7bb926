package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney keeps consistent decimal formatting for currency fields.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormatRupees renders an amount as "Rs 12,500.00".
func FormatRupees(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "Rs " + groupThousands(whole) + "." + frac
}

// ParseMoney accepts "1,500", "Rs 1500.50" or "1500".
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.ToLower(s), "rs")
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	return decimal.NewFromString(s)
}

// Amount is a decimal that binds from a JSON number or a form-style string
// such as "Rs 1,500".
type Amount struct {
	decimal.Decimal
}

func NewAmount(s string) Amount {
	return Amount{decimal.RequireFromString(s)}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == `""` {
		a.Decimal = decimal.Zero
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		raw = unquoted
	}
	d, err := ParseMoney(raw)
	if err != nil {
		return fmt.Errorf("amount %q: %w", raw, err)
	}
	a.Decimal = d
	return nil
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var out strings.Builder
	for i, c := range digits {
		if i != 0 && (len(digits)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
