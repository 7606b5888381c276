package sql

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// nativeValue converts a value scanned from a driver into a Value, using the
// column's native type name to pick the variant. Text that does not parse as
// its declared type is kept as a string rather than dropped.
func nativeValue(src any, dbType string) (Value, error) {
	typ := baseType(dbType)
	switch x := src.(type) {
	case nil:
		return NullValue(), nil
	case int64:
		if isInt32Type(typ) && x >= math.MinInt32 && x <= math.MaxInt32 {
			return Int32Value(int32(x)), nil
		}
		return Int64Value(x), nil
	case int32:
		return Int32Value(x), nil
	case int:
		return Int64Value(int64(x)), nil
	case float64:
		return Float64Value(x), nil
	case float32:
		return Float64Value(float64(x)), nil
	case bool:
		return ValueOf(x)
	case time.Time:
		return TimeValue(NewTime(x, timeFormatOf(typ))), nil
	case string:
		return textValue(x, typ), nil
	case []byte:
		if isBlobType(typ) {
			return BlobValue(x), nil
		}
		return textValue(string(x), typ), nil
	default:
		return ValueOf(src)
	}
}

func textValue(s, typ string) Value {
	switch {
	case isTemporalType(typ):
		if t, err := ParseTimeFormat(s, timeFormatOf(typ)); err == nil {
			return TimeValue(t)
		}
	case isIntegerType(typ):
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			if isInt32Type(typ) && n >= math.MinInt32 && n <= math.MaxInt32 {
				return Int32Value(int32(n))
			}
			return Int64Value(n)
		}
	case isFloatType(typ):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Float64Value(f)
		}
	}
	return StringValue(s)
}

// baseType normalizes a native type name: upper case, no size or
// precision suffix and no UNSIGNED prefix.
func baseType(dbType string) string {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.TrimPrefix(t, "UNSIGNED ")
	return strings.TrimSuffix(t, " UNSIGNED")
}

func isInt32Type(t string) bool {
	switch t {
	case "INT", "INT2", "INT4", "INTEGER", "MEDIUMINT", "SMALLINT", "TINYINT", "SERIAL", "SMALLSERIAL":
		return true
	}
	return false
}

func isIntegerType(t string) bool {
	switch t {
	case "BIGINT", "INT8", "BIGSERIAL", "YEAR":
		return true
	}
	return isInt32Type(t)
}

func isFloatType(t string) bool {
	switch t {
	case "REAL", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION":
		return true
	}
	return false
}

func isBlobType(t string) bool {
	switch t {
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BYTEA", "BINARY", "VARBINARY", "BIT":
		return true
	}
	return false
}

func isTemporalType(t string) bool {
	switch t {
	case "DATE", "TIME", "TIMETZ", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ",
		"TIME WITH TIME ZONE", "TIME WITHOUT TIME ZONE",
		"TIMESTAMP WITH TIME ZONE", "TIMESTAMP WITHOUT TIME ZONE":
		return true
	}
	return false
}

func timeFormatOf(t string) TimeFormat {
	switch {
	case t == "DATE":
		return FormatDate
	case strings.HasPrefix(t, "TIMESTAMP"):
		return FormatTimestamp
	case strings.HasPrefix(t, "TIME"):
		return FormatTime
	default:
		return FormatDateTime
	}
}
