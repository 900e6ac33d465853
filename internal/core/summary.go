package core

import (
	"math"
	"strconv"
)

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   float64
}

// Summary is the derived view of an entry list: grand total and per-category
// sums in the order each category first appears.
type Summary struct {
	Total      float64
	ByCategory []CategoryAmount
}

// Segment is one coloured region of the distribution bar.
type Segment struct {
	Category Category
	Amount   float64
	Percent  float64 // share of the total, 0..100 for non-negative ledgers
	Color    string
}

// Summarize computes the total and category distribution of expenses.
// Categories that do not occur are absent from ByCategory.
func Summarize(expenses []Expense) Summary {
	var s Summary
	index := make(map[Category]int, len(expenses))
	for _, e := range expenses {
		s.Total += e.Amount
		if i, ok := index[e.Category]; ok {
			s.ByCategory[i].Amount += e.Amount
			continue
		}
		index[e.Category] = len(s.ByCategory)
		s.ByCategory = append(s.ByCategory, CategoryAmount{Category: e.Category, Amount: e.Amount})
	}
	return s
}

// Amount returns the summed amount for c and whether c is present.
func (s Summary) Amount(c Category) (float64, bool) {
	for _, ca := range s.ByCategory {
		if ca.Category == c {
			return ca.Amount, true
		}
	}
	return 0, false
}

// Empty reports whether the summary has no categories.
func (s Summary) Empty() bool {
	return len(s.ByCategory) == 0
}

// Segments returns the bar segments for s. When the total is zero or not a
// finite number the bar is hidden and nil is returned.
func (s Summary) Segments() []Segment {
	if s.Total == 0 || math.IsNaN(s.Total) || math.IsInf(s.Total, 0) {
		return nil
	}
	out := make([]Segment, 0, len(s.ByCategory))
	for _, ca := range s.ByCategory {
		out = append(out, Segment{
			Category: ca.Category,
			Amount:   ca.Amount,
			Percent:  ca.Amount / s.Total * 100,
			Color:    ca.Category.Color(),
		})
	}
	return out
}

// Visible reports whether the segment can be drawn with a real width.
func (sg Segment) Visible() bool {
	return !math.IsNaN(sg.Percent) && !math.IsInf(sg.Percent, 0)
}

// Width is the CSS width of the segment, e.g. "40%". Undrawable segments
// collapse to "0%".
func (sg Segment) Width() string {
	if !sg.Visible() {
		return "0%"
	}
	return strconv.FormatFloat(sg.Percent, 'f', -1, 64) + "%"
}

// RoundedPercent is the percent rounded half up, as shown in the label.
func (sg Segment) RoundedPercent() int {
	if !sg.Visible() {
		return 0
	}
	return int(math.Floor(sg.Percent + 0.5))
}

// Label is the text drawn inside the segment, e.g. "Car (40%)". Undrawable
// segments show the category name only.
func (sg Segment) Label() string {
	if !sg.Visible() {
		return sg.Category.String()
	}
	return sg.Category.String() + " (" + strconv.Itoa(sg.RoundedPercent()) + "%)"
}
