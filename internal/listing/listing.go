// Package listing filters and sorts already-fetched collections.
package listing

import (
	"slices"
	"strings"
	"time"
)

// Predicate selects items of a list.
type Predicate[T any] func(T) bool

// Contains matches a case-insensitive substring. An empty needle matches everything.
func Contains[T any](field func(T) string, needle string) Predicate[T] {
	needle = strings.ToLower(strings.TrimSpace(needle))
	return func(item T) bool {
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(field(item)), needle)
	}
}

// ContainsAny matches when any of the fields contains the needle.
func ContainsAny[T any](needle string, fields ...func(T) string) Predicate[T] {
	needle = strings.ToLower(strings.TrimSpace(needle))
	return func(item T) bool {
		if needle == "" {
			return true
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f(item)), needle) {
				return true
			}
		}
		return false
	}
}

// Equals matches an enumerated field exactly, ignoring case. An empty value matches everything.
func Equals[T any](field func(T) string, value string) Predicate[T] {
	value = strings.TrimSpace(value)
	return func(item T) bool {
		return value == "" || strings.EqualFold(field(item), value)
	}
}

// SameDay matches items whose timestamp falls on day's calendar date in day's
// location. A zero day matches everything.
func SameDay[T any](field func(T) time.Time, day time.Time) Predicate[T] {
	return func(item T) bool {
		if day.IsZero() {
			return true
		}
		y1, m1, d1 := field(item).In(day.Location()).Date()
		y2, m2, d2 := day.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
}

// All is the conjunction of predicates; nil entries are skipped.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(item T) bool {
		for _, p := range preds {
			if p != nil && !p(item) {
				return false
			}
		}
		return true
	}
}

// Comparator returns <0, 0 or >0 like cmp.Compare.
type Comparator[T any] func(a, b T) int

// Keys maps sort key names to comparators.
type Keys[T any] map[string]Comparator[T]

// Sorter is the current sort key and direction.
type Sorter struct {
	Key  string
	Desc bool
}

// Toggle selects key: the same key flips direction, a new key resets to ascending.
func (s *Sorter) Toggle(key string) {
	if s.Key == key {
		s.Desc = !s.Desc
		return
	}
	s.Key = key
	s.Desc = false
}

// ParseSorter reads sort/dir query values. dir is "asc" or "desc".
func ParseSorter(key, dir string) Sorter {
	return Sorter{Key: strings.TrimSpace(key), Desc: strings.EqualFold(strings.TrimSpace(dir), "desc")}
}

// Apply filters items and stable-sorts them by s. The input slice is not modified.
// Unknown or empty keys keep the filtered input order.
func Apply[T any](items []T, filter Predicate[T], s Sorter, keys Keys[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if filter == nil || filter(item) {
			out = append(out, item)
		}
	}

	cmpFn, ok := keys[s.Key]
	if !ok || cmpFn == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		if s.Desc {
			return cmpFn(b, a)
		}
		return cmpFn(a, b)
	})
	return out
}
