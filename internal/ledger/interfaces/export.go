package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"restobill/internal/ledger/application"
)

// BuildDayReportPDF renders a day report as a PDF.
func BuildDayReportPDF(report application.DayReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Daily Shift Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", report.Date))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Timezone: %s", report.Timezone))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Shift", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Opening", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Revenue", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Expenses", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Profit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Closing", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, shift := range report.Shifts {
		pdf.CellFormat(30, 6, shift.Window.ShiftName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(28, 6, shift.OpeningBalance.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, shift.RevenueTotal.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, shift.ExpenseTotal.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, shift.Profit.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, shift.ClosingBalance.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Orders: %d", report.Totals.OrderCount))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Avg Order Value: %s", report.Totals.AvgOrderValue.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Revenue: %s", report.Totals.RevenueTotal.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Expenses: %s", report.Totals.ExpenseTotal.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Profit: %s", report.Totals.Profit.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Closing Balance: %s", report.Totals.ClosingBalance.StringFixed(2)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildDayReportXLSX renders a day report as an XLSX workbook with a summary
// sheet and one shifts sheet.
func BuildDayReportXLSX(report application.DayReport) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	shiftsSheet := "shifts"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(shiftsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Daily Shift Report")
	_ = f.SetCellValue(summarySheet, "A3", "Date")
	_ = f.SetCellValue(summarySheet, "B3", report.Date)
	_ = f.SetCellValue(summarySheet, "A4", "Timezone")
	_ = f.SetCellValue(summarySheet, "B4", report.Timezone)
	_ = f.SetCellValue(summarySheet, "A5", "Orders")
	_ = f.SetCellValue(summarySheet, "B5", report.Totals.OrderCount)
	_ = f.SetCellValue(summarySheet, "A6", "Avg Order Value")
	_ = f.SetCellValue(summarySheet, "B6", report.Totals.AvgOrderValue.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A7", "Total Revenue")
	_ = f.SetCellValue(summarySheet, "B7", report.Totals.RevenueTotal.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A8", "Total Expenses")
	_ = f.SetCellValue(summarySheet, "B8", report.Totals.ExpenseTotal.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A9", "Profit")
	_ = f.SetCellValue(summarySheet, "B9", report.Totals.Profit.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A10", "Opening Balance")
	_ = f.SetCellValue(summarySheet, "B10", report.Totals.OpeningBalance.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A11", "Closing Balance")
	_ = f.SetCellValue(summarySheet, "B11", report.Totals.ClosingBalance.StringFixed(2))

	headers := []string{"Shift", "Opening", "Revenue", "Expenses", "Profit", "Closing", "Orders"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(shiftsSheet, cell, header)
	}
	for i, shift := range report.Shifts {
		row := i + 2
		values := []any{
			shift.Window.ShiftName,
			shift.OpeningBalance.StringFixed(2),
			shift.RevenueTotal.StringFixed(2),
			shift.ExpenseTotal.StringFixed(2),
			shift.Profit.StringFixed(2),
			shift.ClosingBalance.StringFixed(2),
			shift.OrderCount,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(shiftsSheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildDayReportCSV renders a day report as CSV, one row per shift plus a
// totals row.
func BuildDayReportCSV(report application.DayReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "shift", "opening", "revenue", "expenses", "profit", "closing", "orders"}); err != nil {
		return nil, err
	}
	for _, shift := range report.Shifts {
		record := []string{
			report.Date,
			shift.Window.ShiftName,
			shift.OpeningBalance.StringFixed(2),
			shift.RevenueTotal.StringFixed(2),
			shift.ExpenseTotal.StringFixed(2),
			shift.Profit.StringFixed(2),
			shift.ClosingBalance.StringFixed(2),
			fmt.Sprintf("%d", shift.OrderCount),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	totals := []string{
		report.Date,
		"total",
		report.Totals.OpeningBalance.StringFixed(2),
		report.Totals.RevenueTotal.StringFixed(2),
		report.Totals.ExpenseTotal.StringFixed(2),
		report.Totals.Profit.StringFixed(2),
		report.Totals.ClosingBalance.StringFixed(2),
		fmt.Sprintf("%d", report.Totals.OrderCount),
	}
	if err := w.Write(totals); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
