package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	billing "gd-invoice/internal/billing/domain"
)

type exportLine struct {
	label string
	value float64
}

func componentLines(c billing.InvoiceComponents) []exportLine {
	return []exportLine{
		{"Price alert surcharge", c.PriceAlert},
		{"Network usage (TUSD)", c.NetworkUsage},
		{"Energy (TE)", c.Energy},
		{"SCEE compensation", c.Compensation},
		{"Demand", c.Demand},
		{"Other charges", c.Other},
		{"Taxes (PIS/COFINS/ICMS)", c.Taxes},
	}
}

func balanceLines(b billing.BalanceResult) []exportLine {
	return []exportLine{
		{"Consumption from grid (kWh)", b.ConsumptionFromGrid},
		{"Own credits (kWh)", b.OwnCredits},
		{"Remote credits (kWh)", b.RemoteCredits},
		{"Compensated (kWh)", b.CompensatedConsumption},
		{"Uncompensated (kWh)", b.UncompensatedConsumption},
		{"Surplus credits (kWh)", b.SurplusCredits},
	}
}

// money formats a value in reais with cent rounding.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func kwh(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(3)
}

func moneyValue(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// BuildInvoicePDF renders a closed cycle as a PDF.
func BuildInvoicePDF(rec *billing.CycleRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Energy Invoice Reconciliation")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Consumer unit: %s", rec.UnitID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Month: %s", rec.ReferenceMonth.Format("2006-01")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Version: %d", rec.Version))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Regime: %s (non-compensable %.0f%%)", rec.Classification.Regime, rec.Classification.NonCompensableFraction*100))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Closed: %s by %s", rec.ClosedAt.Format(time.RFC3339), rec.ClosedBy))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 6, "Category", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 6, "Amount (R$)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range componentLines(rec.Components) {
		pdf.CellFormat(90, 6, line.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, money(line.value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 6, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 6, money(rec.Components.Total), "1", 0, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, line := range balanceLines(rec.Balance) {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %s", line.label, kwh(line.value)))
		pdf.Ln(5)
	}
	pdf.Ln(3)
	v := rec.Validation
	pdf.Cell(0, 6, fmt.Sprintf("Validation: %s (declared %s, difference %s%%)", v.Status, money(v.Declared), money(v.DifferencePercent)))
	pdf.Ln(8)

	if len(rec.Alerts) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Alerts")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		for _, alert := range rec.Alerts {
			pdf.MultiCell(0, 5, fmt.Sprintf("[%s] %s", alert.Severity, alert.Message), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildInvoiceXLSX renders a closed cycle as a workbook with a summary and an alerts sheet.
func BuildInvoiceXLSX(rec *billing.CycleRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	summarySheet := "summary"
	alertsSheet := "alerts"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(alertsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Energy Invoice Reconciliation")
	header := [][2]any{
		{"Consumer unit", rec.UnitID},
		{"Month", rec.ReferenceMonth.Format("2006-01")},
		{"Version", rec.Version},
		{"Regime", string(rec.Classification.Regime)},
		{"Closed by", rec.ClosedBy},
		{"Closed at", rec.ClosedAt.Format(time.RFC3339)},
		{"Snapshot", rec.SnapshotHash},
	}
	row := 3
	for _, kv := range header {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), kv[1])
		row++
	}

	row++
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Category")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), "Amount (R$)")
	row++
	for _, line := range append(componentLines(rec.Components), exportLine{"Total", rec.Components.Total}) {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), line.label)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), moneyValue(line.value))
		row++
	}

	row++
	for _, line := range balanceLines(rec.Balance) {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), line.label)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), line.value)
		row++
	}

	row++
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Validation")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), string(rec.Validation.Status))
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row+1), "Declared total")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row+1), moneyValue(rec.Validation.Declared))
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row+2), "Difference (%)")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row+2), rec.Validation.DifferencePercent)

	_ = f.SetCellValue(alertsSheet, "A1", "Severity")
	_ = f.SetCellValue(alertsSheet, "B1", "Kind")
	_ = f.SetCellValue(alertsSheet, "C1", "Message")
	for i, alert := range rec.Alerts {
		r := i + 2
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("A%d", r), string(alert.Severity))
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("B%d", r), string(alert.Kind))
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("C%d", r), alert.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
