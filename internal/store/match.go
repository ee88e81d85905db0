package store

import (
	"cmp"
	"reflect"
	"slices"
	"strings"
	"time"
)

// Match reports whether doc satisfies every filter of q. The collection is
// not checked.
func Match(q Query, doc Document) bool {
	for _, eq := range q.Where {
		if !equalValues(lookup(doc, eq.Field), eq.Value) {
			return false
		}
	}
	if q.AnyOf != nil {
		return matchAny(lookup(doc, q.AnyOf.Field), q.AnyOf.Values)
	}
	return true
}

// Apply filters, orders and limits docs according to q. The input slice is
// not modified. Documents missing the order field sort last in input order.
func Apply(q Query, docs []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if Match(q, doc) {
			out = append(out, doc)
		}
	}
	if q.OrderBy != "" {
		slices.SortStableFunc(out, func(a, b Document) int {
			av, aok := orderValue(lookup(a, q.OrderBy))
			bv, bok := orderValue(lookup(b, q.OrderBy))
			switch {
			case !aok && !bok:
				return 0
			case !aok:
				return 1
			case !bok:
				return -1
			}
			c := compareOrdered(av, bv)
			if q.Desc {
				c = -c
			}
			return c
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// lookup resolves a dotted path inside doc.
func lookup(doc Document, field string) any {
	var current any = map[string]any(doc)
	for _, part := range strings.Split(field, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return m, true
	}
	return nil, false
}

func matchAny(value any, candidates []any) bool {
	if list, ok := asList(value); ok {
		for _, item := range list {
			for _, c := range candidates {
				if equalValues(item, c) {
					return true
				}
			}
		}
		return false
	}
	for _, c := range candidates {
		if equalValues(value, c) {
			return true
		}
	}
	return false
}

func asList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			return at.Equal(bt)
		}
	}
	return reflect.DeepEqual(a, b)
}

type ordered struct {
	num  float64
	str  string
	tm   time.Time
	kind int
}

const (
	kindNumber = iota
	kindTime
	kindString
	kindBool
)

func orderValue(v any) (ordered, bool) {
	if v == nil {
		return ordered{}, false
	}
	if f, ok := toFloat(v); ok {
		return ordered{num: f, kind: kindNumber}, true
	}
	if t, ok := toTime(v); ok {
		return ordered{tm: t, kind: kindTime}, true
	}
	switch val := v.(type) {
	case string:
		return ordered{str: val, kind: kindString}, true
	case bool:
		n := 0.0
		if val {
			n = 1
		}
		return ordered{num: n, kind: kindBool}, true
	}
	return ordered{}, false
}

func compareOrdered(a, b ordered) int {
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}
	switch a.kind {
	case kindTime:
		return a.tm.Compare(b.tm)
	case kindString:
		return cmp.Compare(a.str, b.str)
	default:
		return cmp.Compare(a.num, b.num)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if len(t) < len("2006-01-02T15:04:05Z") {
			return time.Time{}, false
		}
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
