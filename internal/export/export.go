package export

import (
	"fmt"
	"io"
	"math"

	"expenses/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SheetExpenses   = "Expenses"
	SheetCategories = "By category"
)

// WriteWorkbook writes entries and their distribution as an xlsx workbook.
// The first sheet lists entries in ledger order with a total row, the second
// holds per-category sums and shares.
func WriteWorkbook(w io.Writer, entries []core.Expense, summary core.Summary, currency string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetExpenses); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetCategories); err != nil {
		return fmt.Errorf("create category sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borders(),
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	summaryStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: borders(),
	})
	if err != nil {
		return fmt.Errorf("summary style: %w", err)
	}

	_ = f.SetColWidth(SheetExpenses, "A", "A", 16)
	_ = f.SetColWidth(SheetExpenses, "B", "B", 30)
	_ = f.SetColWidth(SheetExpenses, "C", "D", 14)
	_ = f.SetColWidth(SheetCategories, "A", "C", 16)

	amountHeader := "Amount"
	if currency != "" {
		amountHeader += " (" + currency + ")"
	}

	if err := writeHeader(f, SheetExpenses, headerStyle, "ID", "Name", amountHeader, "Category"); err != nil {
		return err
	}
	for i, e := range entries {
		row := i + 2
		_ = f.SetCellValue(SheetExpenses, fmt.Sprintf("A%d", row), e.ID)
		_ = f.SetCellValue(SheetExpenses, fmt.Sprintf("B%d", row), e.Name)
		_ = f.SetCellValue(SheetExpenses, fmt.Sprintf("C%d", row), amountCell(e.Amount))
		_ = f.SetCellValue(SheetExpenses, fmt.Sprintf("D%d", row), e.Category.String())
	}

	totalRow := len(entries) + 2
	_ = f.SetCellValue(SheetExpenses, fmt.Sprintf("A%d", totalRow), "Total")
	_ = f.SetCellValue(SheetExpenses, fmt.Sprintf("C%d", totalRow), amountCell(summary.Total))
	_ = f.SetCellValue(SheetExpenses, fmt.Sprintf("D%d", totalRow), fmt.Sprintf("%d entries", len(entries)))
	_ = f.SetCellStyle(SheetExpenses, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("D%d", totalRow), summaryStyle)

	if err := writeHeader(f, SheetCategories, headerStyle, "Category", amountHeader, "Share (%)"); err != nil {
		return err
	}
	shares := make(map[core.Category]core.Segment, len(summary.ByCategory))
	for _, sg := range summary.Segments() {
		shares[sg.Category] = sg
	}
	for i, ca := range summary.ByCategory {
		row := i + 2
		_ = f.SetCellValue(SheetCategories, fmt.Sprintf("A%d", row), ca.Category.String())
		_ = f.SetCellValue(SheetCategories, fmt.Sprintf("B%d", row), amountCell(ca.Amount))
		if sg, ok := shares[ca.Category]; ok && sg.Visible() {
			_ = f.SetCellValue(SheetCategories, fmt.Sprintf("C%d", row), sg.RoundedPercent())
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, style int, headers ...string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

// Spreadsheets have no NaN or infinity; those are written as text.
func amountCell(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return core.FormatAmount(v)
	}
	return v
}

func borders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}
