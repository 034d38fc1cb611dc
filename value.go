package tutordb

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindInt
	KindReal
	KindText
	KindBool
)

// Value is a tagged SQL scalar. Coercion rules live in explicit methods
// instead of interface{} assertions scattered through the executors.
type Value struct {
	Kind ValueKind
	I    int64
	F    float64
	S    string
	B    bool
}

func NullValue() Value          { return Value{Kind: KindNull} }
func IntValue(n int64) Value    { return Value{Kind: KindInt, I: n} }
func RealValue(f float64) Value { return Value{Kind: KindReal, F: f} }
func TextValue(s string) Value  { return Value{Kind: KindText, S: s} }
func BoolValue(b bool) Value    { return Value{Kind: KindBool, B: b} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Num coerces v to a float64. Non-numeric text and NULL yield NaN, so range
// checks against them are always false.
func (v Value) Num() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.I)
	case KindReal:
		return v.F
	case KindBool:
		if v.B {
			return 1
		}
		return 0
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.S), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// IsNumeric reports whether v coerces to a real number.
func (v Value) IsNumeric() bool {
	return !math.IsNaN(v.Num())
}

// Truthy applies boolean coercion: zero, empty string and NULL are false.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.B
	case KindInt:
		return v.I != 0
	case KindReal:
		return v.F != 0 && !math.IsNaN(v.F)
	case KindText:
		return v.S != ""
	}
	return false
}

// Text returns the plain string form used for concatenation and casting.
// NULL becomes the empty string.
func (v Value) Text() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindReal:
		return strconv.FormatFloat(v.F, 'f', -1, 64)
	case KindText:
		return v.S
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	}
	return ""
}

// String is the display form; NULL renders as the SQL keyword.
func (v Value) String() string {
	if v.Kind == KindNull {
		return "NULL"
	}
	return v.Text()
}

// ToAny converts v to its natural Go value for JSON serialization.
func (v Value) ToAny() interface{} {
	switch v.Kind {
	case KindInt:
		return v.I
	case KindReal:
		return v.F
	case KindText:
		return v.S
	case KindBool:
		return v.B
	}
	return nil
}

// Equal compares two values loosely: numeric forms compare numerically,
// everything else by string form. Two NULLs are equal so that composite key
// tuples and DISTINCT dedupe behave structurally.
func Equal(a, b Value) bool {
	if a.Kind == KindNull || b.Kind == KindNull {
		return a.Kind == b.Kind
	}
	an, bn := a.Num(), b.Num()
	if !math.IsNaN(an) && !math.IsNaN(bn) {
		return an == bn
	}
	if a.Kind == KindText && b.Kind == KindText {
		return a.S == b.S
	}
	return a.Text() == b.Text()
}

// Compare orders two values for ORDER BY and MIN/MAX. Numbers compare
// numerically; mixed or non-numeric operands fall back to their string
// forms, which preserves the loose ordering of the source system.
func Compare(a, b Value) int {
	an, bn := a.Num(), b.Num()
	if !math.IsNaN(an) && !math.IsNaN(bn) {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	as, bs := a.Text(), b.Text()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

// tupleKey serializes an ordered list of values into a stable string, used
// to compare composite keys and group-by tuples for equality.
func tupleKey(vals []Value) string {
	parts := make([]interface{}, len(vals))
	for i, v := range vals {
		parts[i] = v.ToAny()
	}
	b, _ := json.Marshal(parts)
	return string(b)
}
