package dblite

import (
	"encoding/json"
	"reflect"
	"regexp"
	"time"
)

// isoDatetimeRe matches ISO-8601-looking strings inside decoded JSON, so the
// built-in converter can round-trip time.Time values nested arbitrarily
// deep, mirroring the original's json_loads(convert_recursive).
var isoDatetimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(\.\d+)?(([+-]\d{2}:?\d{2})|Z)?$`)

// registerBuiltinJSON installs the JSON adapter/converter pair every
// registry starts with: map[string]any and []any values marshal to JSON
// text on the way out, and JSON/json/jsonb-tagged cells unmarshal back,
// recursively coercing ISO-8601 strings to time.Time on the way in.
func registerBuiltinJSON(r *registry) {
	jsonAdapter := func(value any) (any, error) {
		return json.Marshal(jsonEncode(value))
	}
	r.adapters[reflect.TypeOf(map[string]any{})] = jsonAdapter
	r.adapters[reflect.TypeOf([]any{})] = jsonAdapter

	jsonConverter := func(value any) (any, error) {
		var raw []byte
		switch v := value.(type) {
		case []byte:
			raw = v
		case string:
			raw = []byte(v)
		default:
			return value, nil
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return value, nil
		}
		return jsonDecode(decoded), nil
	}
	for _, tag := range []string{"JSON", "JSONB"} {
		r.converters[tag] = jsonConverter
	}
}

func jsonEncode(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = jsonEncode(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = jsonEncode(val)
		}
		return out
	default:
		return v
	}
}

func jsonDecode(v any) any {
	switch x := v.(type) {
	case string:
		if len(x) > 18 && isoDatetimeRe.MatchString(x) {
			if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
				return t
			}
			if t, err := time.Parse("2006-01-02T15:04:05", x); err == nil {
				return t
			}
		}
		return x
	case map[string]any:
		for k, val := range x {
			x[k] = jsonDecode(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = jsonDecode(val)
		}
		return x
	default:
		return v
	}
}
