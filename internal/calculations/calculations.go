// Package calculations computes the per-column footer aggregates of a table
// view.
package calculations

import (
	"fmt"
	"math"
	"sort"
	"time"

	"cardview/internal/kanban/format"
	"cardview/internal/kanban/models"
)

// Names of the supported calculations, as stored in Board.ColumnCalculations.
const (
	Count            = "count"
	CountEmpty       = "countEmpty"
	CountNotEmpty    = "countNotEmpty"
	PercentEmpty     = "percentEmpty"
	PercentNotEmpty  = "percentNotEmpty"
	CountValue       = "countValue"
	CountUniqueValue = "countUniqueValue"
	CountChecked     = "countChecked"
	CountUnchecked   = "countUnchecked"
	PercentChecked   = "percentChecked"
	Sum              = "sum"
	Average          = "average"
	Median           = "median"
	Min              = "min"
	Max              = "max"
	Range            = "range"
	Earliest         = "earliest"
	Latest           = "latest"
	DateRange        = "dateRange"
)

type calcFunc func(cards []models.Card, p models.PropertyTemplate) string

var calculations = map[string]calcFunc{
	Count:            count,
	CountEmpty:       countEmpty,
	CountNotEmpty:    countNotEmpty,
	PercentEmpty:     percentEmpty,
	PercentNotEmpty:  percentNotEmpty,
	CountValue:       countValue,
	CountUniqueValue: countUniqueValue,
	CountChecked:     countChecked,
	CountUnchecked:   countUnchecked,
	PercentChecked:   percentChecked,
	Sum:              numeric(sum),
	Average:          numeric(average),
	Median:           numeric(median),
	Min:              numeric(minimum),
	Max:              numeric(maximum),
	Range:            numeric(spread),
	Earliest:         earliest,
	Latest:           latest,
	DateRange:        dateRange,
}

// Calculate runs a named calculation over cards for one property.
func Calculate(name string, cards []models.Card, p models.PropertyTemplate) (string, error) {
	fn, ok := calculations[name]
	if !ok {
		return "", fmt.Errorf("unknown calculation %q", name)
	}
	if !Applies(name, p.Type) {
		return "", fmt.Errorf("calculation %q does not apply to %s properties", name, p.Type)
	}
	return fn(cards, p), nil
}

// Applies reports whether a calculation makes sense for a property type.
func Applies(name string, t models.PropertyType) bool {
	for _, n := range For(t) {
		if n == name {
			return true
		}
	}
	return false
}

// For lists the calculations offered for a property type.
func For(t models.PropertyType) []string {
	common := []string{Count, CountEmpty, CountNotEmpty, PercentEmpty, PercentNotEmpty, CountValue, CountUniqueValue}
	switch {
	case t == models.PropertyTypeCheckbox:
		return []string{Count, CountChecked, CountUnchecked, PercentChecked}
	case t == models.PropertyTypeNumber:
		return append(common, Sum, Average, Median, Min, Max, Range)
	case t.IsDate():
		return append(common, Earliest, Latest, DateRange)
	}
	return common
}

func count(cards []models.Card, _ models.PropertyTemplate) string {
	return fmt.Sprint(len(cards))
}

func emptyCount(cards []models.Card, p models.PropertyTemplate) int {
	n := 0
	for _, c := range cards {
		if c.MetaValue(p).IsEmpty() {
			n++
		}
	}
	return n
}

func countEmpty(cards []models.Card, p models.PropertyTemplate) string {
	return fmt.Sprint(emptyCount(cards, p))
}

func countNotEmpty(cards []models.Card, p models.PropertyTemplate) string {
	return fmt.Sprint(len(cards) - emptyCount(cards, p))
}

func percent(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(part)/float64(total)*100)
}

func percentEmpty(cards []models.Card, p models.PropertyTemplate) string {
	return percent(emptyCount(cards, p), len(cards))
}

func percentNotEmpty(cards []models.Card, p models.PropertyTemplate) string {
	return percent(len(cards)-emptyCount(cards, p), len(cards))
}

// countValue counts values, so a multi-select card with two tags counts twice.
func countValue(cards []models.Card, p models.PropertyTemplate) string {
	n := 0
	for _, c := range cards {
		n += len(c.MetaValue(p).Strings())
	}
	return fmt.Sprint(n)
}

func countUniqueValue(cards []models.Card, p models.PropertyTemplate) string {
	seen := make(map[string]bool)
	for _, c := range cards {
		for _, s := range c.MetaValue(p).Strings() {
			seen[s] = true
		}
	}
	return fmt.Sprint(len(seen))
}

func checkedCount(cards []models.Card, p models.PropertyTemplate) int {
	n := 0
	for _, c := range cards {
		if c.Value(p.ID).Bool() {
			n++
		}
	}
	return n
}

func countChecked(cards []models.Card, p models.PropertyTemplate) string {
	return fmt.Sprint(checkedCount(cards, p))
}

func countUnchecked(cards []models.Card, p models.PropertyTemplate) string {
	return fmt.Sprint(len(cards) - checkedCount(cards, p))
}

func percentChecked(cards []models.Card, p models.PropertyTemplate) string {
	return percent(checkedCount(cards, p), len(cards))
}

// numeric adapts an aggregate over the parseable numbers of a column.
// Cards without a number are left out.
func numeric(agg func([]float64) float64) calcFunc {
	return func(cards []models.Card, p models.PropertyTemplate) string {
		var nums []float64
		for _, c := range cards {
			if n, ok := c.Value(p.ID).Number(); ok {
				nums = append(nums, n)
			}
		}
		if len(nums) == 0 {
			return "0"
		}
		return format.Number(math.Round(agg(nums)*100) / 100)
	}
}

func sum(nums []float64) float64 {
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total
}

func average(nums []float64) float64 {
	return sum(nums) / float64(len(nums))
}

func median(nums []float64) float64 {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func minimum(nums []float64) float64 {
	m := nums[0]
	for _, n := range nums[1:] {
		m = math.Min(m, n)
	}
	return m
}

func maximum(nums []float64) float64 {
	m := nums[0]
	for _, n := range nums[1:] {
		m = math.Max(m, n)
	}
	return m
}

func spread(nums []float64) float64 {
	return maximum(nums) - minimum(nums)
}

func dates(cards []models.Card, p models.PropertyTemplate) []time.Time {
	var out []time.Time
	for _, c := range cards {
		if d, ok := c.MetaValue(p).Date(); ok {
			out = append(out, d.From)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func earliest(cards []models.Card, p models.PropertyTemplate) string {
	ds := dates(cards, p)
	if len(ds) == 0 {
		return ""
	}
	return ds[0].Format(format.DateLayout)
}

func latest(cards []models.Card, p models.PropertyTemplate) string {
	ds := dates(cards, p)
	if len(ds) == 0 {
		return ""
	}
	return ds[len(ds)-1].Format(format.DateLayout)
}

func dateRange(cards []models.Card, p models.PropertyTemplate) string {
	ds := dates(cards, p)
	if len(ds) == 0 {
		return ""
	}
	days := int(ds[len(ds)-1].Sub(ds[0]).Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
