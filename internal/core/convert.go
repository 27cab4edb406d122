package core

// convert.go provides conversions between payload text and domain values.
//
// Dates use a single exact layout on input. Money is kept as pgtype.Numeric
// end to end and summed through big.Rat, so no amount ever passes through
// binary floating point.

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	// ImportDateLayout is the exact dd/MM/yyyy layout accepted on import.
	ImportDateLayout = "02/01/2006"
	// ExportDateLayout is the yyyy-MM-dd layout used on export.
	ExportDateLayout = "2006-01-02"

	// MoneyScale is the number of decimal places money is rounded to on export.
	MoneyScale = 2
)

// Money is an exact decimal amount.
type Money = pgtype.Numeric

// numericRegex validates a decimal number with an optional exponent.
var numericRegex = regexp.MustCompile(`^([+-]?(?:\d+(?:\.\d*)?|\.\d+))(?:[eE]([+-]?\d+))?$`)

// maxMoneyExponent bounds the exponent of money written in exponent form.
const maxMoneyExponent = 64

// ErrInvalidMoney is returned for amounts that are not decimal numbers.
var ErrInvalidMoney = errors.New("invalid number format")

// ParseDate parses s with ImportDateLayout. Day and month must be two digits.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(ImportDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t with ExportDateLayout.
func FormatDate(t time.Time) string {
	return t.Format(ExportDateLayout)
}

// ParseMoney converts a decimal string to pgtype.Numeric. Exponent form
// such as 1.5e3 is accepted, as JSON numbers allow it.
func ParseMoney(s string) (pgtype.Numeric, error) {
	m := numericRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return pgtype.Numeric{}, ErrInvalidMoney
	}

	var n pgtype.Numeric
	if err := n.Scan(m[1]); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("%w: %v", ErrInvalidMoney, err)
	}
	if m[2] != "" {
		exp, err := strconv.ParseInt(m[2], 10, 32)
		if err != nil || exp > maxMoneyExponent || exp < -maxMoneyExponent {
			return pgtype.Numeric{}, fmt.Errorf("%w: exponent out of range", ErrInvalidMoney)
		}
		n.Exp += int32(exp)
	}
	return n, nil
}

// MoneyRat returns the exact value of n. Invalid or NaN values count as zero.
func MoneyRat(n pgtype.Numeric) *big.Rat {
	r := new(big.Rat)
	if !n.Valid || n.NaN || n.Int == nil {
		return r
	}
	r.SetInt(n.Int)

	if n.Exp == 0 {
		return r
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs32(n.Exp))), nil)
	if n.Exp > 0 {
		return r.Mul(r, new(big.Rat).SetInt(scale))
	}
	return r.Quo(r, new(big.Rat).SetInt(scale))
}

// SumMoney adds amounts exactly.
func SumMoney(amounts ...pgtype.Numeric) *big.Rat {
	total := new(big.Rat)
	for _, a := range amounts {
		total.Add(total, MoneyRat(a))
	}
	return total
}

// FormatMoney renders r with exactly MoneyScale decimals, rounding halves
// away from zero.
func FormatMoney(r *big.Rat) string {
	return r.FloatString(MoneyScale)
}

// MoneyText renders n without loss of precision, for storage as text.
func MoneyText(n pgtype.Numeric) string {
	if n.Exp >= 0 {
		return MoneyRat(n).FloatString(0)
	}
	return MoneyRat(n).FloatString(int(-n.Exp))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
