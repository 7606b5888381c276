package sql

import (
	"bytes"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/sqlkit"
)

// Kind identifies the active variant of a Value.
type Kind uint8

// Value variants.
const (
	KindNull Kind = iota
	KindInt32
	KindInt64
	KindFloat64
	KindString
	KindBlob
	KindTime
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Value is a typed SQL value: a closed union of null, 32/64-bit integers,
// doubles, strings, blobs and temporal values. The zero Value is NULL.
//
// Blob bytes are always copied on construction, so a Value never aliases
// memory owned by a driver or a statement.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
	t    Time
}

// NullValue returns the NULL value.
func NullValue() Value { return Value{} }

// Int32Value returns a 32-bit integer value.
func Int32Value(v int32) Value { return Value{kind: KindInt32, i: int64(v)} }

// Int64Value returns a 64-bit integer value.
func Int64Value(v int64) Value { return Value{kind: KindInt64, i: v} }

// Float64Value returns a double value.
func Float64Value(v float64) Value { return Value{kind: KindFloat64, f: v} }

// StringValue returns a string value.
func StringValue(v string) Value { return Value{kind: KindString, s: v} }

// BlobValue returns a blob value holding a copy of v.
func BlobValue(v []byte) Value {
	return Value{kind: KindBlob, b: bytes.Clone(v)}
}

// TimeValue returns a temporal value.
func TimeValue(v Time) Value { return Value{kind: KindTime, t: v} }

// ValueOf converts a Go value into a Value.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return x, nil
	case *Value:
		if x == nil {
			return NullValue(), nil
		}
		return *x, nil
	case int:
		return Int64Value(int64(x)), nil
	case int8:
		return Int32Value(int32(x)), nil
	case int16:
		return Int32Value(int32(x)), nil
	case int32:
		return Int32Value(x), nil
	case int64:
		return Int64Value(x), nil
	case uint8:
		return Int32Value(int32(x)), nil
	case uint16:
		return Int32Value(int32(x)), nil
	case uint32:
		return Int64Value(int64(x)), nil
	case uint:
		return uintValue(uint64(x))
	case uint64:
		return uintValue(x)
	case float32:
		return Float64Value(float64(x)), nil
	case float64:
		return Float64Value(x), nil
	case bool:
		if x {
			return Int32Value(1), nil
		}
		return Int32Value(0), nil
	case string:
		return StringValue(x), nil
	case []byte:
		if x == nil {
			return NullValue(), nil
		}
		return BlobValue(x), nil
	case time.Time:
		return TimeValue(NewTime(x, FormatTimestamp)), nil
	case Time:
		return TimeValue(x), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return Value{}, &sqlkit.ValueConversionError{From: fmt.Sprintf("%T", v), To: "value", Err: err}
		}
		return ValueOf(dv)
	default:
		return Value{}, &sqlkit.ValueConversionError{From: fmt.Sprintf("%T", v), To: "value", Input: fmt.Sprint(v)}
	}
}

func uintValue(x uint64) (Value, error) {
	if x > math.MaxInt64 {
		return Value{}, &sqlkit.ValueConversionError{From: "uint64", To: KindInt64.String(), Input: strconv.FormatUint(x, 10)}
	}
	return Int64Value(int64(x)), nil
}

// MustValueOf is like ValueOf but panics on error.
func MustValueOf(v any) Value {
	val, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return val
}

// ParseValue parses the canonical text of a value back into the given variant.
// Blob text is hex encoded, as produced by String. Temporal text follows
// ParseTime, so a TIMESTAMP renders as YYYY-MM-DD HH:MM:SS and parses back
// as the same instant in DATETIME format.
func ParseValue(kind Kind, text string) (Value, error) {
	switch kind {
	case KindNull:
		if text != "NULL" {
			return Value{}, conversionError(StringValue(text), KindNull.String(), nil)
		}
		return NullValue(), nil
	case KindString:
		return StringValue(text), nil
	case KindBlob:
		b, err := hex.DecodeString(text)
		if err != nil {
			return Value{}, conversionError(StringValue(text), KindBlob.String(), err)
		}
		return Value{kind: KindBlob, b: b}, nil
	}
	src := StringValue(text)
	switch kind {
	case KindInt32:
		n, err := src.Int32()
		return Int32Value(n), err
	case KindInt64:
		n, err := src.Int64()
		return Int64Value(n), err
	case KindFloat64:
		f, err := src.Float64()
		return Float64Value(f), err
	case KindTime:
		t, err := src.Time()
		return TimeValue(t), err
	default:
		return Value{}, conversionError(src, kind.String(), nil)
	}
}

// Kind returns the active variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) numeric() bool {
	return v.kind == KindInt32 || v.kind == KindInt64 || v.kind == KindFloat64
}

// String returns the canonical text of v, used for display and equality.
func (v Value) String() string {
	switch v.kind {
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBlob:
		return hex.EncodeToString(v.b)
	case KindTime:
		return v.t.String()
	default:
		return "NULL"
	}
}

// Int64 converts v to a 64-bit integer.
func (v Value) Int64() (int64, error) {
	switch v.kind {
	case KindInt32, KindInt64:
		return v.i, nil
	case KindFloat64:
		if v.f != math.Trunc(v.f) || v.f < math.MinInt64 || v.f >= math.MaxInt64 {
			return 0, conversionError(v, KindInt64.String(), nil)
		}
		return int64(v.f), nil
	case KindString:
		s := strings.TrimSpace(v.s)
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n, nil
		}
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return Float64Value(f).Int64()
		}
		return 0, conversionError(v, KindInt64.String(), err)
	case KindTime:
		return v.t.Unix, nil
	default:
		return 0, conversionError(v, KindInt64.String(), nil)
	}
}

// Int32 converts v to a 32-bit integer. Values outside the int32 range fail.
func (v Value) Int32() (int32, error) {
	n, err := v.Int64()
	if err != nil {
		return 0, conversionError(v, KindInt32.String(), unwrapParse(err))
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, conversionError(v, KindInt32.String(), nil)
	}
	return int32(n), nil
}

// Float64 converts v to a double.
func (v Value) Float64() (float64, error) {
	switch v.kind {
	case KindInt32, KindInt64:
		return float64(v.i), nil
	case KindFloat64:
		return v.f, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, conversionError(v, KindFloat64.String(), err)
		}
		return f, nil
	case KindTime:
		return float64(v.t.Unix), nil
	default:
		return 0, conversionError(v, KindFloat64.String(), nil)
	}
}

// Bool converts v to a boolean. Numbers are true when non-zero; strings
// accept the forms understood by strconv.ParseBool.
func (v Value) Bool() (bool, error) {
	switch v.kind {
	case KindInt32, KindInt64:
		return v.i != 0, nil
	case KindFloat64:
		return v.f != 0, nil
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(v.s))
		if err != nil {
			return false, conversionError(v, "bool", err)
		}
		return b, nil
	default:
		return false, conversionError(v, "bool", nil)
	}
}

// Bytes returns the raw bytes of a blob, or the text of any other non-null
// value. The result is a copy.
func (v Value) Bytes() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return nil, conversionError(v, KindBlob.String(), nil)
	case KindBlob:
		return bytes.Clone(v.b), nil
	case KindString:
		return []byte(v.s), nil
	default:
		return []byte(v.String()), nil
	}
}

// Time converts v to a temporal value. Integers are epoch seconds.
func (v Value) Time() (Time, error) {
	switch v.kind {
	case KindTime:
		return v.t, nil
	case KindInt32, KindInt64:
		return Time{Unix: v.i, Format: FormatTimestamp}, nil
	case KindFloat64:
		n, err := v.Int64()
		if err != nil {
			return Time{}, conversionError(v, KindTime.String(), nil)
		}
		return Time{Unix: n, Format: FormatTimestamp}, nil
	case KindString:
		t, err := ParseTime(v.s)
		if err != nil {
			return Time{}, conversionError(v, KindTime.String(), nil)
		}
		return t, nil
	default:
		return Time{}, conversionError(v, KindTime.String(), nil)
	}
}

// Equal compares two values. NULL equals only NULL, numeric variants compare
// numerically, blobs compare raw bytes and everything else compares the
// canonical strings.
func (v Value) Equal(o Value) bool {
	if v.kind == KindNull || o.kind == KindNull {
		return v.kind == o.kind
	}
	if v.numeric() && o.numeric() {
		if v.kind != KindFloat64 && o.kind != KindFloat64 {
			return v.i == o.i
		}
		a, _ := v.Float64()
		b, _ := o.Float64()
		return a == b
	}
	if v.kind == KindBlob && o.kind == KindBlob {
		return bytes.Equal(v.b, o.b)
	}
	return v.String() == o.String()
}

// Interface returns the Go representation of v: nil, int32, int64, float64,
// string, []byte or Time.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt32:
		return int32(v.i)
	case KindInt64:
		return v.i
	case KindFloat64:
		return v.f
	case KindString:
		return v.s
	case KindBlob:
		return bytes.Clone(v.b)
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// Value implements the driver.Valuer interface. Temporal values are sent as
// their formatted text.
func (v Value) Value() (driver.Value, error) {
	switch v.kind {
	case KindInt32, KindInt64:
		return v.i, nil
	case KindFloat64:
		return v.f, nil
	case KindString:
		return v.s, nil
	case KindBlob:
		return bytes.Clone(v.b), nil
	case KindTime:
		return v.t.String(), nil
	default:
		return nil, nil
	}
}

// Scan implements the sql.Scanner interface.
func (v *Value) Scan(src any) error {
	val, err := nativeValue(src, "")
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// Bindable is implemented by statements accepting typed parameters.
// Indexes are 1-based.
type Bindable interface {
	BindNull(index int) error
	BindInt32(index int, v int32) error
	BindInt64(index int, v int64) error
	BindFloat64(index int, v float64) error
	BindString(index int, v string) error
	BindBlob(index int, v []byte) error
	BindTime(index int, v Time) error
}

// BindTo binds v at index using the bind call matching its variant.
func (v Value) BindTo(b Bindable, index int) error {
	switch v.kind {
	case KindInt32:
		return b.BindInt32(index, int32(v.i))
	case KindInt64:
		return b.BindInt64(index, v.i)
	case KindFloat64:
		return b.BindFloat64(index, v.f)
	case KindString:
		return b.BindString(index, v.s)
	case KindBlob:
		return b.BindBlob(index, v.b)
	case KindTime:
		return b.BindTime(index, v.t)
	default:
		return b.BindNull(index)
	}
}

// Scalar lists the Go types a Value converts to with As.
type Scalar interface {
	int | int32 | int64 | float64 | bool | string | []byte | Time | time.Time
}

// As converts v to T.
//
//	n, err := sql.As[int64](v)
func As[T Scalar](v Value) (T, error) {
	var (
		zero T
		out  any
		err  error
	)
	switch any(zero).(type) {
	case int:
		var n int64
		n, err = v.Int64()
		if err == nil && (n < math.MinInt || n > math.MaxInt) {
			err = conversionError(v, "int", nil)
		}
		out = int(n)
	case int32:
		out, err = v.Int32()
	case int64:
		out, err = v.Int64()
	case float64:
		out, err = v.Float64()
	case bool:
		out, err = v.Bool()
	case string:
		out = v.String()
	case []byte:
		out, err = v.Bytes()
	case Time:
		out, err = v.Time()
	case time.Time:
		var t Time
		t, err = v.Time()
		out = t.GoTime()
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

func conversionError(v Value, to string, err error) error {
	return &sqlkit.ValueConversionError{From: v.kind.String(), To: to, Input: v.String(), Err: unwrapParse(err)}
}

// unwrapParse strips a nested ValueConversionError so messages name the outer target.
func unwrapParse(err error) error {
	if e, ok := err.(*sqlkit.ValueConversionError); ok {
		return e.Err
	}
	return err
}
