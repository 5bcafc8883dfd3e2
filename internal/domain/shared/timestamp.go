package shared

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Timestamp is the canonical time representation used on documents and wire
// messages. Decoding accepts RFC3339 strings, epoch milliseconds, and native
// BSON datetimes; encoding always renders RFC3339 in UTC. Values are stored
// at millisecond precision so they round-trip through MongoDB unchanged.
type Timestamp struct {
	t time.Time
}

// NewTimestamp builds a Timestamp from a time.Time, normalizing to UTC at
// millisecond precision.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: t.UTC().Truncate(time.Millisecond)}
}

// TimestampNow returns the current moment as a Timestamp.
func TimestampNow() Timestamp {
	return NewTimestamp(time.Now())
}

// ParseTimestamp is the single conversion point for every representation a
// timestamp may arrive in: time.Time, RFC3339 string, epoch milliseconds
// (integer or float), or a BSON datetime. Numeric strings are treated as
// epoch milliseconds.
func ParseTimestamp(v any) (Timestamp, error) {
	switch x := v.(type) {
	case nil:
		return Timestamp{}, nil
	case Timestamp:
		return x, nil
	case time.Time:
		return NewTimestamp(x), nil
	case primitive.DateTime:
		return NewTimestamp(x.Time()), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return Timestamp{}, nil
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return NewTimestamp(parsed), nil
		}
		if millis, err := strconv.ParseInt(s, 10, 64); err == nil {
			return NewTimestamp(time.UnixMilli(millis)), nil
		}
		return Timestamp{}, fmt.Errorf("unparseable timestamp %q", s)
	case int64:
		return NewTimestamp(time.UnixMilli(x)), nil
	case int:
		return NewTimestamp(time.UnixMilli(int64(x))), nil
	case float64:
		return NewTimestamp(time.UnixMilli(int64(x))), nil
	default:
		return Timestamp{}, fmt.Errorf("unsupported timestamp value of type %T", v)
	}
}

// Time returns the underlying time.Time in UTC.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// IsZero reports whether the timestamp carries no value.
func (ts Timestamp) IsZero() bool {
	return ts.t.IsZero()
}

// Equal compares two timestamps at millisecond precision.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.t.Equal(other.t)
}

// UnixMilli returns the timestamp as epoch milliseconds.
func (ts Timestamp) UnixMilli() int64 {
	if ts.t.IsZero() {
		return 0
	}
	return ts.t.UnixMilli()
}

// String renders the canonical outward form: RFC3339 in UTC. Zero values
// render as the empty string.
func (ts Timestamp) String() string {
	if ts.t.IsZero() {
		return ""
	}
	return ts.t.UTC().Format(time.RFC3339Nano)
}

// MarshalJSON renders the timestamp as an RFC3339 UTC string, or null when
// zero.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

// UnmarshalJSON accepts RFC3339 strings and epoch-millisecond numbers.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*ts = Timestamp{}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		*ts = parsed
		return nil
	}
	millis, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fmt.Errorf("unparseable timestamp %s: %w", trimmed, err)
	}
	parsed, err := ParseTimestamp(millis)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// MarshalBSONValue stores the timestamp as a native BSON datetime, or null
// when zero.
func (ts Timestamp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if ts.t.IsZero() {
		return bsontype.Null, nil, nil
	}
	return bson.MarshalValue(primitive.NewDateTimeFromTime(ts.t))
}

// UnmarshalBSONValue accepts BSON datetimes plus the legacy string and
// numeric forms still present in older documents.
func (ts *Timestamp) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*ts = Timestamp{}
		return nil
	case bsontype.DateTime:
		when, ok := rv.TimeOK()
		if !ok {
			return fmt.Errorf("corrupt BSON datetime for timestamp")
		}
		*ts = NewTimestamp(when)
		return nil
	case bsontype.String:
		s, ok := rv.StringValueOK()
		if !ok {
			return fmt.Errorf("corrupt BSON string for timestamp")
		}
		parsed, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		*ts = parsed
		return nil
	case bsontype.Int64:
		millis, ok := rv.Int64OK()
		if !ok {
			return fmt.Errorf("corrupt BSON int64 for timestamp")
		}
		*ts = NewTimestamp(time.UnixMilli(millis))
		return nil
	case bsontype.Int32:
		millis, ok := rv.Int32OK()
		if !ok {
			return fmt.Errorf("corrupt BSON int32 for timestamp")
		}
		*ts = NewTimestamp(time.UnixMilli(int64(millis)))
		return nil
	case bsontype.Double:
		millis, ok := rv.DoubleOK()
		if !ok {
			return fmt.Errorf("corrupt BSON double for timestamp")
		}
		*ts = NewTimestamp(time.UnixMilli(int64(millis)))
		return nil
	default:
		return fmt.Errorf("cannot decode BSON type %s into timestamp", t)
	}
}
