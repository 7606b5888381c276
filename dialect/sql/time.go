package sql

import (
	"strconv"
	"strings"
	"time"

	"github.com/syssam/sqlkit"
)

// TimeFormat discriminates how a temporal value is rendered.
type TimeFormat uint8

// Temporal formats.
const (
	FormatDateTime TimeFormat = iota
	FormatDate
	FormatTime
	FormatTimestamp
)

// Layouts used for parsing and rendering temporal values.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// String returns the SQL name of the format.
func (f TimeFormat) String() string {
	switch f {
	case FormatDate:
		return "DATE"
	case FormatTime:
		return "TIME"
	case FormatTimestamp:
		return "TIMESTAMP"
	default:
		return "DATETIME"
	}
}

func (f TimeFormat) layout() string {
	switch f {
	case FormatDate:
		return DateLayout
	case FormatTime:
		return TimeLayout
	default:
		return DateTimeLayout
	}
}

// Time is a temporal SQL value: seconds since the Unix epoch (UTC) and the
// format it was captured with. A FormatTime value holds seconds since midnight.
type Time struct {
	Unix   int64
	Format TimeFormat
}

// NewTime captures t with the given format.
func NewTime(t time.Time, f TimeFormat) Time {
	t = t.UTC()
	if f == FormatTime {
		return Time{Unix: int64(t.Hour()*3600 + t.Minute()*60 + t.Second()), Format: f}
	}
	return Time{Unix: t.Unix(), Format: f}
}

// GoTime returns the value as a UTC time.Time.
func (t Time) GoTime() time.Time {
	return time.Unix(t.Unix, 0).UTC()
}

// String renders the value with its own format.
func (t Time) String() string {
	return t.FormatAs(t.Format)
}

// FormatAs renders the value with the given format.
func (t Time) FormatAs(f TimeFormat) string {
	return t.GoTime().Format(f.layout())
}

// ParseTime parses YYYY-MM-DD, HH:MM:SS or YYYY-MM-DD HH:MM:SS and sets the
// format accordingly. RFC 3339 text and integer epoch seconds are accepted as
// TIMESTAMP values. The text of a TIMESTAMP is indistinguishable from a
// DATETIME and parses as one; use ParseTimeFormat to keep the format.
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	switch len(s) {
	case len(DateTimeLayout):
		if t, err := time.Parse(DateTimeLayout, s); err == nil {
			return NewTime(t, FormatDateTime), nil
		}
	case len(DateLayout):
		if t, err := time.Parse(DateLayout, s); err == nil {
			return NewTime(t, FormatDate), nil
		}
	case len(TimeLayout):
		if t, err := time.Parse(TimeLayout, s); err == nil {
			return NewTime(t, FormatTime), nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewTime(t, FormatTimestamp), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Time{Unix: n, Format: FormatTimestamp}, nil
	}
	return Time{}, &sqlkit.ValueConversionError{From: KindString.String(), To: KindTime.String(), Input: s}
}

// ParseTimeFormat parses s like ParseTime and interprets it with format f.
func ParseTimeFormat(s string, f TimeFormat) (Time, error) {
	t, err := ParseTime(s)
	if err != nil {
		return Time{}, err
	}
	if f == FormatTime && t.Format != FormatTime {
		return NewTime(t.GoTime(), FormatTime), nil
	}
	t.Format = f
	return t, nil
}
