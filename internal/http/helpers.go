package http

import (
	"strings"

	"expenses/internal/core"
	"expenses/internal/services"
)

// sanitizeInput removes control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, s)
}

type entryView struct {
	ID       int64
	Name     string
	Amount   string
	Category string
	Color    string
	Other    bool
}

type segmentView struct {
	Width string
	Color string
	Label string
	Other bool
}

type ledgerView struct {
	Entries  []entryView
	Total    string
	Count    int
	Segments []segmentView
	Version  uint64
	Currency string
}

type categoryOption struct {
	Value    string
	Selected bool
}

type pageView struct {
	Ledger     ledgerView
	Draft      core.Draft
	Categories []categoryOption
}

// newLedgerView turns a snapshot into display strings. Amounts print the way
// the list shows them, followed by the currency suffix.
func newLedgerView(snap services.Snapshot, currency string) ledgerView {
	v := ledgerView{
		Entries:  make([]entryView, 0, len(snap.Expenses)),
		Total:    withCurrency(core.FormatAmount(snap.Summary.Total), currency),
		Count:    len(snap.Expenses),
		Version:  snap.Version,
		Currency: currency,
	}
	for _, e := range snap.Expenses {
		v.Entries = append(v.Entries, entryView{
			ID:       e.ID,
			Name:     e.Name,
			Amount:   withCurrency(core.FormatAmount(e.Amount), currency),
			Category: e.Category.String(),
			Color:    e.Category.Color(),
			Other:    !e.Category.Known(),
		})
	}
	for _, sg := range snap.Segments {
		v.Segments = append(v.Segments, segmentView{
			Width: sg.Width(),
			Color: sg.Color,
			Label: sg.Label(),
			Other: !sg.Category.Known(),
		})
	}
	return v
}

func newPageView(snap services.Snapshot, currency string) pageView {
	p := pageView{
		Ledger: newLedgerView(snap, currency),
		Draft:  snap.Draft,
	}
	for _, c := range core.Categories() {
		p.Categories = append(p.Categories, categoryOption{
			Value:    c.String(),
			Selected: c == snap.Draft.Category,
		})
	}
	return p
}

func withCurrency(amount, currency string) string {
	if currency == "" {
		return amount
	}
	return amount + " " + currency
}
