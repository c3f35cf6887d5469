package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// Type is the declared logical type of a column.
type Type int

const (
	TypeInt Type = iota
	TypeFloat
	TypeText
	TypeBool
	TypeDate
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeText:
		return "text"
	case TypeBool:
		return "boolean"
	case TypeDate:
		return "date"
	}
	return "unknown"
}

// ParseType maps a config-file type name to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer", "bigint":
		return TypeInt, nil
	case "float", "double", "numeric", "decimal":
		return TypeFloat, nil
	case "text", "string", "varchar":
		return TypeText, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "date", "datetime", "timestamp":
		return TypeDate, nil
	}
	return TypeText, errors.Newf("unknown column type %q", s)
}

// Kind is the runtime shape of a single cell. It can disagree with the
// column's declared Type, e.g. when a CSV cell failed numeric parsing and
// was kept as raw text; the data type check reports such cells.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	}
	return "unknown"
}

// Value is one nullable cell.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	t    time.Time
}

func Null() Value               { return Value{kind: KindNull} }
func NewInt(v int64) Value      { return Value{kind: KindInt, i: v} }
func NewFloat(v float64) Value  { return Value{kind: KindFloat, f: v} }
func NewText(s string) Value    { return Value{kind: KindText, s: s} }
func NewBool(b bool) Value      { return Value{kind: KindBool, b: b} }
func NewDate(t time.Time) Value { return Value{kind: KindDate, t: t} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Float returns the cell as a float64. Integer cells convert.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.t, true
}

// DateLayouts are the accepted textual date formats, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// String renders the cell canonically: shortest round-trip form for floats,
// ISO dates, NULL for null. The rendering is what reports and CSV previews
// show, and what duplicate keys are built from.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 {
			return v.t.Format("2006-01-02")
		}
		return v.t.Format("2006-01-02 15:04:05")
	}
	return "unknown"
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	}
	return false
}

// Decimal returns the cell as an exact decimal for numeric comparisons.
// Floats go through their shortest string form so 0.1 stays 0.1 rather
// than its binary expansion. Non-numeric cells, NaN and infinities
// report false.
func (v Value) Decimal() (*apd.Decimal, bool) {
	switch v.kind {
	case KindInt:
		return apd.New(v.i, 0), true
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		d, _, err := apd.NewFromString(s)
		if err != nil || d.Form != apd.Finite {
			return nil, false
		}
		return d, true
	}
	return nil, false
}

// ParseAs parses raw text into a typed value. Empty input is not handled
// here; callers decide whether empty means null.
func ParseAs(s string, t Type) (Value, error) {
	trimmed := strings.TrimSpace(s)
	switch t {
	case TypeInt:
		i, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return Null(), errors.Newf("cannot parse %q as integer", s)
		}
		return NewInt(i), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return Null(), errors.Newf("cannot parse %q as float", s)
		}
		return NewFloat(f), nil
	case TypeText:
		return NewText(s), nil
	case TypeBool:
		b, err := strconv.ParseBool(strings.ToLower(trimmed))
		if err != nil {
			return Null(), errors.Newf("cannot parse %q as boolean", s)
		}
		return NewBool(b), nil
	case TypeDate:
		for _, layout := range DateLayouts {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return NewDate(ts), nil
			}
		}
		return Null(), errors.Newf("cannot parse %q as date", s)
	}
	return Null(), errors.AssertionFailedf("unknown type %d", t)
}

// Convert attempts a lossless conversion of the cell to the given logical
// type. Integers widen to float; floats narrow to integer only when they
// have no fractional part; text converts when it parses; anything renders
// as text. Nulls convert to every type.
func (v Value) Convert(t Type) (Value, bool) {
	if v.kind == KindNull {
		return v, true
	}
	switch t {
	case TypeText:
		if v.kind == KindText {
			return v, true
		}
		return NewText(v.String()), true
	case TypeInt:
		switch v.kind {
		case KindInt:
			return v, true
		case KindFloat:
			if v.f == float64(int64(v.f)) {
				return NewInt(int64(v.f)), true
			}
			return Null(), false
		case KindText:
			parsed, err := ParseAs(v.s, TypeInt)
			if err != nil {
				return Null(), false
			}
			return parsed, true
		}
	case TypeFloat:
		switch v.kind {
		case KindInt:
			return NewFloat(float64(v.i)), true
		case KindFloat:
			return v, true
		case KindText:
			parsed, err := ParseAs(v.s, TypeFloat)
			if err != nil {
				return Null(), false
			}
			return parsed, true
		}
	case TypeBool:
		switch v.kind {
		case KindBool:
			return v, true
		case KindText:
			parsed, err := ParseAs(v.s, TypeBool)
			if err != nil {
				return Null(), false
			}
			return parsed, true
		}
	case TypeDate:
		switch v.kind {
		case KindDate:
			return v, true
		case KindText:
			parsed, err := ParseAs(v.s, TypeDate)
			if err != nil {
				return Null(), false
			}
			return parsed, true
		}
	}
	return Null(), false
}

// ConvertibleTo reports whether Convert would succeed.
func (v Value) ConvertibleTo(t Type) bool {
	_, ok := v.Convert(t)
	return ok
}
