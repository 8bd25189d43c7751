// Package exponent implements the exact exponents used in dimension vectors.
// An Exponent is a normalized rational p/q with q > 0; integer exponents are
// the special case q == 1.
package exponent

import (
	"errors"
	"fmt"
	"math"
)

// Exponent is an exact rational number. The zero value is 0.
type Exponent struct {
	num int64
	den int64 // 0 in the zero value, treated as 1
}

// ErrOverflow is returned when an exact result does not fit in int64.
var ErrOverflow = errors.New("exponent out of range")

// ErrDivisionByZero is returned by Make for a zero denominator and by Div
// for a zero divisor.
var ErrDivisionByZero = errors.New("exponent division by zero")

// Int returns the integer exponent n. It panics if n is math.MinInt64.
func Int(n int64) Exponent {
	if n == math.MinInt64 {
		panic(ErrOverflow)
	}
	return Exponent{num: n, den: 1}
}

// Make returns the normalized rational num/den. math.MinInt64 is outside
// the representable range for both parts.
func Make(num, den int64) (Exponent, error) {
	if den == 0 {
		return Exponent{}, ErrDivisionByZero
	}
	if num == math.MinInt64 || den == math.MinInt64 {
		return Exponent{}, ErrOverflow
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	if g > 1 {
		num /= g
		den /= g
	}
	return Exponent{num: num, den: den}, nil
}

// New is like Make but panics on error. It is meant for constants.
func New(num, den int64) Exponent {
	e, err := Make(num, den)
	if err != nil {
		panic(fmt.Sprintf("exponent: %d/%d: %v", num, den, err))
	}
	return e
}

// Num returns the numerator.
func (e Exponent) Num() int64 { return e.num }

// Den returns the denominator (always positive).
func (e Exponent) Den() int64 {
	if e.den == 0 {
		return 1
	}
	return e.den
}

// IsZero reports whether e == 0.
func (e Exponent) IsZero() bool { return e.num == 0 }

// IsInt reports whether e is an integer.
func (e Exponent) IsInt() bool { return e.Den() == 1 }

// Add returns e + o, or ErrOverflow.
func (e Exponent) Add(o Exponent) (Exponent, error) {
	if e.Den() == 1 && o.Den() == 1 {
		sum, ok := add(e.num, o.num)
		if !ok {
			return Exponent{}, ErrOverflow
		}
		return Make(sum, 1)
	}
	a, ok1 := mul(e.num, o.Den())
	b, ok2 := mul(o.num, e.Den())
	num, ok3 := add(a, b)
	den, ok4 := mul(e.Den(), o.Den())
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Exponent{}, ErrOverflow
	}
	return Make(num, den)
}

// Sub returns e - o, or ErrOverflow.
func (e Exponent) Sub(o Exponent) (Exponent, error) {
	return e.Add(o.Neg())
}

// Neg returns -e. Exponents never hold math.MinInt64, so negation is exact.
func (e Exponent) Neg() Exponent {
	return Exponent{num: -e.num, den: e.Den()}
}

// Mul returns e * o, or ErrOverflow.
func (e Exponent) Mul(o Exponent) (Exponent, error) {
	num, ok1 := mul(e.num, o.num)
	den, ok2 := mul(e.Den(), o.Den())
	if !ok1 || !ok2 {
		return Exponent{}, ErrOverflow
	}
	return Make(num, den)
}

// Div returns e / o, or ErrDivisionByZero or ErrOverflow.
func (e Exponent) Div(o Exponent) (Exponent, error) {
	if o.num == 0 {
		return Exponent{}, ErrDivisionByZero
	}
	return e.Mul(Exponent{num: o.Den(), den: o.num})
}

// Equal reports whether e and o denote the same rational.
func (e Exponent) Equal(o Exponent) bool {
	return e.num == o.num && e.Den() == o.Den()
}

// Float returns e as a float64, used for magnitude powers.
func (e Exponent) Float() float64 {
	return float64(e.num) / float64(e.Den())
}

// String renders integers as "n" and fractions as "p/q".
func (e Exponent) String() string {
	if e.IsInt() {
		return fmt.Sprintf("%d", e.num)
	}
	return fmt.Sprintf("%d/%d", e.num, e.Den())
}

// MarshalText implements encoding.TextMarshaler so resolved tables render
// exponents the same way in JSON and YAML output.
func (e Exponent) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Pow raises a float magnitude to this exponent. Square and cube roots go
// through math.Sqrt and math.Cbrt so that exact roots stay exact.
func (e Exponent) Pow(x float64) float64 {
	switch {
	case e.IsInt():
		return math.Pow(x, float64(e.num))
	case e.Equal(New(1, 2)):
		return math.Sqrt(x)
	case e.Equal(New(1, 3)):
		return math.Cbrt(x)
	default:
		return math.Pow(x, e.Float())
	}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// add returns a + b and whether it did not overflow.
func add(a, b int64) (int64, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}

// mul returns a * b and whether it did not overflow.
func mul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return c, true
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
