package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/carlosatFroom/learning-system/internal/errs"
)

// timeLayouts are tried in order when a DateTime column arrives as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Normalize converts a driver value into the canonical Go type of the column:
// int64, string, bool, time.Time (UTC, microsecond precision) or float64.
// nil stays nil.
func (c Column) Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	var (
		out any
		ok  bool
	)
	switch c.Type {
	case Integer:
		out, ok = toInt(v)
	case String, Text:
		out, ok = toString(v), true
	case Boolean:
		out, ok = toBool(v)
	case DateTime:
		out, ok = toTime(v)
	case Float:
		out, ok = toFloat(v)
	}
	if !ok {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "column %s: cannot convert %T to %s", c.Name, v, c.Type)
	}
	return out, nil
}

// NormalizeRow normalizes every column of row. Columns missing from row are
// set to nil; keys that are not columns are dropped.
func (e Entity) NormalizeRow(row map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(e.Columns))
	for _, c := range e.Columns {
		v, err := c.Normalize(row[c.Name])
		if err != nil {
			return nil, errs.Wrap(errs.KindOf(err), e.Table, err)
		}
		out[c.Name] = v
	}
	return out, nil
}

// Checksum hashes a normalized row in column order. Two rows with the same
// checksum carry the same content.
func (e Entity) Checksum(row map[string]any) string {
	h := sha256.New()
	for _, c := range e.Columns {
		h.Write([]byte(c.Name))
		h.Write([]byte{0x1f})
		h.Write([]byte(canonical(row[c.Name])))
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func canonical(v any) string {
	switch v := v.(type) {
	case nil:
		return "\x00"
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// --- conversions ---

func toInt(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case float32:
		return toInt(float64(v))
	case []byte:
		return toInt(string(v))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func toBool(v any) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case []byte:
		return toBool(string(v))
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	}
	if n, ok := toInt(v); ok {
		return n != 0, true
	}
	return false, false
}

func toTime(v any) (time.Time, bool) {
	switch v := v.(type) {
	case time.Time:
		return v.UTC().Truncate(time.Microsecond), true
	case []byte:
		return toTime(string(v))
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Truncate(time.Microsecond), true
			}
		}
	}
	return time.Time{}, false
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case []byte:
		return toFloat(string(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	if n, ok := toInt(v); ok {
		return float64(n), true
	}
	return 0, false
}
