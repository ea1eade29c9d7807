package domain

import (
	"sort"
	"strings"
)

// MatchedItem is a menu item inferred from the user's description.
type MatchedItem struct {
	Name  string   `json:"name" validate:"required"`
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

// MatchResult maps a category name to the items matched in it.
type MatchResult map[string][]MatchedItem

// SummaryLine is one non-empty category of a match result.
type SummaryLine struct {
	Category string
	Items    []string
}

// Total sums the prices of all matched items. Missing prices count as zero.
func (r MatchResult) Total() float64 {
	var total float64
	for _, items := range r {
		for _, item := range items {
			if item.Price != nil {
				total += *item.Price
			}
		}
	}
	return total
}

// Count returns the number of matched items across all categories.
func (r MatchResult) Count() int {
	count := 0
	for _, items := range r {
		count += len(items)
	}
	return count
}

// Lines returns the non-empty categories, known categories first in their
// fixed order and unknown ones alphabetically after them.
func (r MatchResult) Lines() []SummaryLine {
	categories := make([]string, 0, len(r))
	for category, items := range r {
		if len(items) == 0 {
			continue
		}
		categories = append(categories, category)
	}

	sort.Slice(categories, func(i, j int) bool {
		ri, knownI := categoryRank(categories[i])
		rj, knownJ := categoryRank(categories[j])
		switch {
		case knownI && knownJ:
			return ri < rj
		case knownI != knownJ:
			return knownI
		default:
			return categories[i] < categories[j]
		}
	})

	lines := make([]SummaryLine, 0, len(categories))
	for _, category := range categories {
		names := make([]string, 0, len(r[category]))
		for _, item := range r[category] {
			names = append(names, item.Name)
		}
		lines = append(lines, SummaryLine{Category: category, Items: names})
	}

	return lines
}

// PlainLine renders a summary line as "category: item1, item2".
func PlainLine(line SummaryLine) string {
	return line.Category + ": " + strings.Join(line.Items, ", ")
}

// Summary renders every line with format, one per row. A nil format
// renders plain lines.
func (r MatchResult) Summary(format func(SummaryLine) string) string {
	if format == nil {
		format = PlainLine
	}

	lines := r.Lines()
	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		rendered = append(rendered, format(line))
	}
	return strings.Join(rendered, "\n")
}
