// Package views computes derived projections of store state: filter
// conjunctions, single-key sorts, and chart aggregates. Everything here is a
// pure function over slices the store already cloned; nothing mutates its
// input. Projections are recomputed on demand, which is fine at the
// collection sizes produced by manual data entry.
package views

import (
	"sort"
	"strings"
	"time"
)

// Predicate reports whether an item belongs in a filtered projection.
type Predicate[T any] func(T) bool

// Filter returns the items satisfying every predicate. Predicates are ANDed;
// there is no OR combination.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Matches(item, preds) {
			out = append(out, item)
		}
	}
	return out
}

// Matches reports whether item satisfies all predicates.
func Matches[T any](item T, preds []Predicate[T]) bool {
	for _, pred := range preds {
		if pred == nil {
			continue
		}
		if !pred(item) {
			return false
		}
	}
	return true
}

// TextSearch builds a case-insensitive substring predicate over the
// searchable fields of an item. An empty or whitespace query matches all.
func TextSearch[T any](query string, fields func(T) []string) Predicate[T] {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return func(T) bool { return true }
	}
	return func(item T) bool {
		for _, field := range fields(item) {
			if strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
		return false
	}
}

// Category builds an exact-match predicate on a categorical field. An empty
// want value matches all, so inactive dropdown filters cost nothing.
func Category[T any](want string, field func(T) string) Predicate[T] {
	if want == "" {
		return func(T) bool { return true }
	}
	return func(item T) bool { return field(item) == want }
}

// Flag builds a predicate on a boolean field. A nil want matches all.
func Flag[T any](want *bool, field func(T) bool) Predicate[T] {
	if want == nil {
		return func(T) bool { return true }
	}
	return func(item T) bool { return field(item) == *want }
}

// DateRange builds an inclusive-on-both-ends predicate against a designated
// date field. Nil bounds are open; items without a date never match a bounded
// range.
func DateRange[T any](from, to *time.Time, field func(T) *time.Time) Predicate[T] {
	if from == nil && to == nil {
		return func(T) bool { return true }
	}
	return func(item T) bool {
		at := field(item)
		if at == nil {
			return false
		}
		if from != nil && at.Before(*from) {
			return false
		}
		if to != nil && at.After(*to) {
			return false
		}
		return true
	}
}

// Direction selects sort order.
type Direction int

// Sort directions.
const (
	Ascending Direction = iota
	Descending
)

// SortBy returns a sorted copy of items using the comparator and direction.
// The underlying sort is stable, so re-applying the same key and direction
// reproduces the order exactly.
func SortBy[T any](items []T, cmp func(a, b T) int, dir Direction) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if dir == Descending {
			return c > 0
		}
		return c < 0
	})
	return out
}

// ByString compares a string field case-insensitively, falling back to the
// raw form on a fold tie so the order stays total.
func ByString[T any](field func(T) string) func(a, b T) int {
	return func(a, b T) int {
		av, bv := field(a), field(b)
		if c := strings.Compare(strings.ToLower(av), strings.ToLower(bv)); c != 0 {
			return c
		}
		return strings.Compare(av, bv)
	}
}

// ByNumber compares a numeric field.
func ByNumber[T any](field func(T) int64) func(a, b T) int {
	return func(a, b T) int {
		av, bv := field(a), field(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}
}

// ByTime compares a required timestamp field as instants.
func ByTime[T any](field func(T) time.Time) func(a, b T) int {
	return func(a, b T) int {
		av, bv := field(a), field(b)
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		default:
			return 0
		}
	}
}

// ByOptionalTime compares a nullable date field. Absent dates compare lower
// than any present date, so they lead ascending output and trail descending
// output, consistently per direction.
func ByOptionalTime[T any](field func(T) *time.Time) func(a, b T) int {
	return func(a, b T) int {
		av, bv := field(a), field(b)
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return -1
		case bv == nil:
			return 1
		case av.Before(*bv):
			return -1
		case av.After(*bv):
			return 1
		default:
			return 0
		}
	}
}

// ByStrings compares an array field by its comma-joined form.
func ByStrings[T any](field func(T) []string) func(a, b T) int {
	joined := func(item T) string { return strings.Join(field(item), ",") }
	return ByString(joined)
}

// CountBy tallies items per categorical key.
func CountBy[T any](items []T, key func(T) string) map[string]int {
	out := make(map[string]int)
	for _, item := range items {
		out[key(item)]++
	}
	return out
}

// Sum totals a numeric field over the items.
func Sum[T any](items []T, field func(T) int64) int64 {
	var total int64
	for _, item := range items {
		total += field(item)
	}
	return total
}

// Average returns the mean of a numeric field, or zero for no items.
func Average[T any](items []T, field func(T) int64) float64 {
	if len(items) == 0 {
		return 0
	}
	return float64(Sum(items, field)) / float64(len(items))
}

// TimeBucket is one bar of a trailing-window chart series.
type TimeBucket struct {
	Label string
	Start time.Time
	Count int
}

// DailyBuckets counts items per day over the trailing window ending at now,
// oldest bucket first. Items outside the window are ignored.
func DailyBuckets[T any](items []T, at func(T) time.Time, days int, now time.Time) []TimeBucket {
	if days <= 0 {
		return nil
	}
	end := now.UTC().Truncate(24 * time.Hour)
	buckets := make([]TimeBucket, days)
	for i := range buckets {
		start := end.AddDate(0, 0, i-days+1)
		buckets[i] = TimeBucket{Label: start.Format("2006-01-02"), Start: start}
	}
	first := buckets[0].Start
	for _, item := range items {
		day := at(item).UTC().Truncate(24 * time.Hour)
		if day.Before(first) || day.After(end) {
			continue
		}
		idx := int(day.Sub(first).Hours() / 24)
		buckets[idx].Count++
	}
	return buckets
}

// MonthlyBuckets counts items per calendar month over the trailing window
// ending at now's month, oldest bucket first.
func MonthlyBuckets[T any](items []T, at func(T) time.Time, months int, now time.Time) []TimeBucket {
	if months <= 0 {
		return nil
	}
	now = now.UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	buckets := make([]TimeBucket, months)
	index := make(map[string]int, months)
	for i := range buckets {
		start := firstOfMonth.AddDate(0, i-months+1, 0)
		label := start.Format("2006-01")
		buckets[i] = TimeBucket{Label: label, Start: start}
		index[label] = i
	}
	for _, item := range items {
		label := at(item).UTC().Format("2006-01")
		if idx, ok := index[label]; ok {
			buckets[idx].Count++
		}
	}
	return buckets
}
