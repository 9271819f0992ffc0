package extract

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"timeline/internal/models"
)

// Raw records are decoded JSON, so nested objects may arrive as either map type
func object(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case models.RawRecord:
		return m
	default:
		return nil
	}
}

func list(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	if l, ok := v.([]map[string]any); ok {
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out
	}
	return nil
}

// str renders scalar values as strings; anything else is empty
func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

// firstString returns the first key whose value is a non-blank string
func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// truthy mirrors loose JSON truthiness: null, false, 0, "" and empty collections are false
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// isOne reports whether v is the JSON number 1 or boolean true
func isOne(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t == 1
	case int:
		return t == 1
	case int64:
		return t == 1
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 1
	case string:
		return t == "1"
	default:
		return false
	}
}

// timestamp picks timestamp, date, createdAt in that order, falling back to now.
// Parseable values are normalized to UTC RFC 3339; others are kept verbatim.
func timestamp(raw map[string]any, now func() time.Time) string {
	for _, key := range []string{"timestamp", "date", "createdAt"} {
		v, ok := raw[key]
		if !ok || !truthy(v) {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) == "" {
				continue
			}
			return normalizeTime(t)
		case float64:
			return epoch(t)
		case json.Number:
			if f, err := t.Float64(); err == nil {
				return epoch(f)
			}
			return t.String()
		}
	}
	return now().UTC().Format(time.RFC3339)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

func normalizeTime(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339Nano)
		}
	}
	return s
}

// epoch treats values above 1e12 as milliseconds, otherwise seconds
func epoch(f float64) string {
	var t time.Time
	if f > 1e12 {
		t = time.UnixMilli(int64(f))
	} else {
		t = time.Unix(int64(f), 0)
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// truncate keeps at most n characters
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// lastRunes returns the last n characters of s
func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// String renders a scalar JSON value as a string; objects, arrays and null give ""
func String(v any) string {
	return str(v)
}
