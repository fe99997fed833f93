// Package stats counts raw column values into typed buckets. The counts seed
// the candidate list of enumerated-value filters.
package stats

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/razeghi71/esqlchain/value"
)

// Statistics holds per-value counts for one column. Strings and numbers
// keep the order in which they were first seen.
type Statistics struct {
	Total int
	Null  int
	True  int
	False int

	Strings map[string]int
	Numbers map[float64]int

	stringOrder []string
	numberOrder []float64
}

// ValueCount is a pre-aggregated raw value and its count.
type ValueCount struct {
	Value any
	Count int
}

// Entry is a value (or sentinel) and its count.
type Entry struct {
	Value value.Value
	Count int
}

func newStatistics() *Statistics {
	return &Statistics{
		Strings: make(map[string]int),
		Numbers: make(map[float64]int),
	}
}

// CountValues tallies a sequence of raw values. Slices are flattened so a
// multi-valued field counts each of its elements.
func CountValues(raw []any) *Statistics {
	s := newStatistics()
	for _, v := range raw {
		s.add(v, 1)
	}
	return s
}

// CountValuesWithCounts builds statistics from (value, count) pairs, e.g.
// the buckets of a remote aggregation.
func CountValuesWithCounts(pairs []ValueCount) *Statistics {
	s := newStatistics()
	for _, p := range pairs {
		s.add(p.Value, p.Count)
	}
	return s
}

func (s *Statistics) add(raw any, n int) {
	switch v := raw.(type) {
	case nil:
		s.Null += n
	case bool:
		if v {
			s.True += n
		} else {
			s.False += n
		}
	case string:
		if _, ok := s.Strings[v]; !ok {
			s.stringOrder = append(s.stringOrder, v)
		}
		s.Strings[v] += n
	case []byte:
		s.add(string(v), n)
		return
	case value.Value:
		s.addValue(v, n)
		return
	case []any:
		for _, elem := range v {
			s.add(elem, n)
		}
		return
	default:
		if f, ok := toFloat(raw); ok {
			// ES|QL has no NaN or infinite doubles; they read as null
			if math.IsNaN(f) || math.IsInf(f, 0) {
				s.add(nil, n)
				return
			}
			if _, seen := s.Numbers[f]; !seen {
				s.numberOrder = append(s.numberOrder, f)
			}
			s.Numbers[f] += n
			break
		}
		rv := reflect.ValueOf(raw)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				s.add(rv.Index(i).Interface(), n)
			}
			return
		}
		s.add(fmt.Sprint(raw), n)
		return
	}
	s.Total += n
}

func (s *Statistics) addValue(v value.Value, n int) {
	switch v.Kind {
	case value.KindString:
		s.add(v.Str, n)
	case value.KindNumber:
		s.add(v.Num, n)
	case value.KindTrue:
		s.add(true, n)
	case value.KindFalse:
		s.add(false, n)
	case value.KindNull:
		s.add(nil, n)
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

// Entries flattens s into (value, count) pairs: strings, then true, false
// and null when their counts are positive, then numbers.
func Entries(s *Statistics) []Entry {
	if s == nil {
		return nil
	}
	entries := make([]Entry, 0, len(s.stringOrder)+len(s.numberOrder)+3)
	for _, str := range s.stringOrder {
		entries = append(entries, Entry{Value: value.String(str), Count: s.Strings[str]})
	}
	if s.True > 0 {
		entries = append(entries, Entry{Value: value.Bool(true), Count: s.True})
	}
	if s.False > 0 {
		entries = append(entries, Entry{Value: value.Bool(false), Count: s.False})
	}
	if s.Null > 0 {
		entries = append(entries, Entry{Value: value.Null(), Count: s.Null})
	}
	for _, num := range s.numberOrder {
		entries = append(entries, Entry{Value: value.Number(num), Count: s.Numbers[num]})
	}
	return entries
}

// ByCount sorts entries by descending count, keeping the Entries order
// between equal counts.
func ByCount(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	return sorted
}

// GetCount returns how often v was seen, or 0.
func GetCount(v value.Value, s *Statistics) int {
	if s == nil {
		return 0
	}
	switch v.Kind {
	case value.KindString:
		return s.Strings[v.Str]
	case value.KindNumber:
		return s.Numbers[v.Num]
	case value.KindTrue:
		return s.True
	case value.KindFalse:
		return s.False
	case value.KindNull:
		return s.Null
	default:
		return 0
	}
}
