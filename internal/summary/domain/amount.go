package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value that tolerates the loose shapes documents
// arrive in: JSON numbers, numeric strings, thousands separators, null and
// blanks. Anything unparseable decodes to zero.
type Amount struct {
	decimal.Decimal
}

func NewAmount(raw string) Amount {
	return Amount{Decimal: coerce(raw)}
}

func AmountFromInt(v int64) Amount {
	return Amount{Decimal: decimal.NewFromInt(v)}
}

func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func coerce(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"`)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	a.Decimal = coerce(string(b))
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// Scan implements sql.Scanner; NULL scans to zero.
func (a *Amount) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		a.Decimal = decimal.Zero
	case []byte:
		a.Decimal = coerce(string(v))
	case string:
		a.Decimal = coerce(v)
	case int64:
		a.Decimal = decimal.NewFromInt(v)
	case float64:
		a.Decimal = decimal.NewFromFloat(v)
	default:
		return fmt.Errorf("unsupported amount type %T", value)
	}
	return nil
}

func (a Amount) Value() (driver.Value, error) {
	return a.Decimal.String(), nil
}
