package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Number is a numeric value stored as its decimal literal. Two numbers are
// equal when they denote the same rational value, so 1, 1.0 and 1e0 are
// equal even though their literals differ.
type Number string

// Kind implements Value.
func (Number) Kind() Kind { return KindNumber }

// String implements Value.
func (n Number) String() string { return string(n) }

// Int returns a Number for i.
func Int(i int64) Number { return Number(strconv.FormatInt(i, 10)) }

// Float returns a Number for f, which must be finite. Integral floats are
// rendered without a fractional part.
func Float(f float64) Number {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return Int(int64(f))
	}
	return Number(strconv.FormatFloat(f, 'g', -1, 64))
}

// ParseNumber validates s as a JSON number literal.
func ParseNumber(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if !isJSONNumber(s) {
		return "", fmt.Errorf("invalid number literal %q", s)
	}
	if _, ok := new(big.Rat).SetString(s); !ok {
		return "", fmt.Errorf("invalid number literal %q", s)
	}
	return Number(s), nil
}

// isJSONNumber matches -?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?.
func isJSONNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	switch {
	case i < len(s) && s[i] == '0':
		i++
	case i < len(s) && s[i] >= '1' && s[i] <= '9':
		i = skipDigits(s, i)
	default:
		return false
	}
	if i < len(s) && s[i] == '.' {
		j := skipDigits(s, i+1)
		if j == i+1 {
			return false
		}
		i = j
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		j := skipDigits(s, i)
		if j == i {
			return false
		}
		i = j
	}
	return i == len(s)
}

func skipDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

// maxFractionDigits bounds the digits after the point when a quotient has
// no finite decimal expansion and no float64 approximation.
const maxFractionDigits = 17

// FromRat returns a Number for r. Integers and terminating decimals are
// rendered exactly. Other quotients use the nearest float64, or a rounded
// decimal when they are beyond float64 range.
func FromRat(r *big.Rat) Number {
	if r.IsInt() {
		return Number(r.Num().String())
	}
	if digits, ok := decimalDigits(r.Denom()); ok {
		return Number(r.FloatString(digits))
	}
	if f, _ := r.Float64(); !math.IsInf(f, 0) && f != 0 {
		return Float(f)
	}
	s := strings.TrimRight(r.FloatString(maxFractionDigits), "0")
	return Number(strings.TrimSuffix(s, "."))
}

// decimalDigits reports the number of fraction digits of 1/d when it has a
// finite decimal expansion, which holds when d has no prime factors other
// than 2 and 5.
func decimalDigits(d *big.Int) (int, bool) {
	var twos, fives int
	n := new(big.Int).Set(d)
	for n.Bit(0) == 0 {
		n.Rsh(n, 1)
		twos++
	}
	five, rem := big.NewInt(5), new(big.Int)
	for {
		q, m := new(big.Int).QuoRem(n, five, rem)
		if m.Sign() != 0 {
			break
		}
		n = q
		fives++
	}
	if n.Cmp(big.NewInt(1)) != 0 {
		return 0, false
	}
	return max(twos, fives), true
}

// Int64 returns the value as an int64 if it is integral and in range.
func (n Number) Int64() (int64, bool) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, true
	}
	r, ok := n.Rat()
	if !ok || !r.IsInt() || !r.Num().IsInt64() {
		return 0, false
	}
	return r.Num().Int64(), true
}

// Int returns the value as an int if it is integral and in range.
func (n Number) Int() (int, bool) {
	i, ok := n.Int64()
	if !ok || i > math.MaxInt || i < math.MinInt {
		return 0, false
	}
	return int(i), true
}

// Float64 returns the nearest float64.
func (n Number) Float64() (float64, bool) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err == nil {
		return f, true
	}
	r, ok := n.Rat()
	if !ok {
		return 0, false
	}
	f, _ = r.Float64()
	return f, true
}

// Rat returns the exact rational value.
func (n Number) Rat() (*big.Rat, bool) {
	return new(big.Rat).SetString(string(n))
}

// IsInteger reports whether n is integral.
func (n Number) IsInteger() bool {
	if _, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return true
	}
	r, ok := n.Rat()
	return ok && r.IsInt()
}

func compareNumbers(a, b Number) int {
	if a == b {
		return 0
	}
	ai, aerr := strconv.ParseInt(string(a), 10, 64)
	bi, berr := strconv.ParseInt(string(b), 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	ar, aok := a.Rat()
	br, bok := b.Rat()
	switch {
	case aok && bok:
		return ar.Cmp(br)
	case aok:
		return 1
	case bok:
		return -1
	}
	return strings.Compare(string(a), string(b))
}
