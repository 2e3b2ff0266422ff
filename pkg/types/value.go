package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the canonical text form of timestamp columns.
const TimestampLayout = "2006-01-02 15:04:05"

// ValueKind discriminates the variants a Value can hold.
type ValueKind int

// Value kinds.
const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindTime
	KindIDs
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	case KindIDs:
		return "ids"
	default:
		return "null"
	}
}

// Value is the container for one declared field value of a content record.
// The zero Value is null.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	tm   time.Time
	ids  []int64
}

// NullValue returns the null Value.
func NullValue() Value { return Value{} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps a number.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// TimeValue wraps a timestamp. Sub-second precision is dropped.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, tm: t.Truncate(time.Second)} }

// IDsValue wraps a set of record IDs.
func IDsValue(ids ...int64) Value {
	cp := make([]int64, len(ids))
	copy(cp, ids)
	return Value{kind: KindIDs, ids: cp}
}

// Kind reports which variant v holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v holds no value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string form of v. Numbers use the shortest decimal
// representation, timestamps use TimestampLayout and ID sets are
// comma-separated.
func (v Value) Str() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.tm.Format(TimestampLayout)
	case KindIDs:
		parts := make([]string, len(v.ids))
		for i, id := range v.ids {
			parts[i] = strconv.FormatInt(id, 10)
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// Num returns the numeric form of v. Strings are parsed; unparseable
// strings and other kinds yield 0 and false.
func (v Value) Num() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Time returns the timestamp held by v. Strings in TimestampLayout or
// RFC 3339 are parsed.
func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindTime:
		return v.tm, true
	case KindString:
		return ParseTimestamp(v.str)
	default:
		return time.Time{}, false
	}
}

// IDs returns a copy of the ID set held by v.
func (v Value) IDs() []int64 {
	if v.kind != KindIDs {
		return nil
	}
	cp := make([]int64, len(v.ids))
	copy(cp, v.ids)
	return cp
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.Str() }

// Equal reports whether two values hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindTime:
		return v.tm.Equal(o.tm)
	case KindIDs:
		if len(v.ids) != len(o.ids) {
			return false
		}
		for i := range v.ids {
			if v.ids[i] != o.ids[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// MarshalJSON encodes strings and timestamps as JSON strings, numbers as
// JSON numbers, ID sets as arrays and null as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString, KindTime:
		return json.Marshal(v.Str())
	case KindNumber:
		return json.Marshal(v.num)
	case KindIDs:
		if v.ids == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.ids)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes the inverse of MarshalJSON. Timestamps arrive as
// strings and stay strings until a field type hydrates them.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = NullValue()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case '[':
		var ids []int64
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("decoding id set: %w", err)
		}
		*v = IDsValue(ids...)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		if b {
			*v = NumberValue(1)
		} else {
			*v = NumberValue(0)
		}
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("decoding number: %w", err)
		}
		*v = NumberValue(f)
	}
	return nil
}

// timestampLayouts lists the layouts ParseTimestamp accepts, most specific first.
var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses the textual timestamp forms that databases and
// callers produce. Empty input reports false.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
