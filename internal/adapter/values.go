// Package adapter converts loosely-typed upstream JSON (Jira issues, GitHub
// commits, pull requests, reviews and comments) into typed records. It is the
// only place in the module that inspects raw map shapes; anything it cannot
// read becomes a models.Diagnostic instead of a silent drop.
package adapter

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rohankatakam/devai/internal/models"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp formats GitHub and Jira emit. Values without
// a zone are read as UTC; every result is normalized to UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// lookup walks nested maps along path and returns the leaf value
func lookup(m map[string]any, path ...string) (any, bool) {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// str returns the string at path, or "" when absent or not a string
func str(m map[string]any, path ...string) string {
	v, ok := lookup(m, path...)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		if s == math.Trunc(s) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	default:
		return ""
	}
}

// firstStr returns the first non-empty string among the candidate paths
func firstStr(m map[string]any, paths ...[]string) string {
	for _, p := range paths {
		if s := str(m, p...); s != "" {
			return s
		}
	}
	return ""
}

// named reads a field that is either a plain string or an object carrying
// one of the usual Jira/GitHub name keys.
func named(m map[string]any, key string) string {
	v, ok := lookup(m, key)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, k := range []string{"displayName", "name", "login"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// integer returns the integer at path. JSON numbers decode as float64 so
// both float and integer kinds are accepted.
func integer(m map[string]any, path ...string) (int, bool) {
	v, ok := lookup(m, path...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

// objects returns the list at path, keeping only object elements
func objects(m map[string]any, path ...string) []map[string]any {
	v, ok := lookup(m, path...)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	default:
		return nil
	}
}

// timeAt parses the timestamp at path; ok is false when the field is absent
func timeAt(m map[string]any, path ...string) (t time.Time, present bool, err error) {
	s := str(m, path...)
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err = ParseTime(s)
	return t, true, err
}

func diag(record, format string, args ...any) models.Diagnostic {
	return models.Diagnostic{Record: record, Reason: fmt.Sprintf(format, args...)}
}
