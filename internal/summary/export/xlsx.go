// Package export renders summary reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultSheet = "Sheet1"

	labelOtherBranchPay   = "Paid by other branch"
	labelPayToOtherBranch = "Paid to other branch"
	labelGrandTotal       = "Grand total"
)

// fixed columns before the date keys: title, attribution, payment type.
const leadingColumns = 3

// WriteXLSX writes the report as a single-sheet workbook: a header row, one
// row per report row and a grand total row. Section rows are bold.
func WriteXLSX(w io.Writer, report *domain.Report) error {
	if report == nil {
		return fmt.Errorf("export: nil report")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(report)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	number, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}
	boldNumber, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})
	if err != nil {
		return err
	}

	width := leadingColumns + len(report.Columns) + 1
	lastCol, err := excelize.ColumnNumberToName(width)
	if err != nil {
		return err
	}

	header := make([]any, 0, width)
	header = append(header, "Title", "Attribution", "Type")
	for _, key := range report.Columns {
		header = append(header, key)
	}
	header = append(header, "Total")
	if err := writeRow(f, sheet, 1, header, bold, bold, lastCol); err != nil {
		return err
	}

	line := 2
	for _, row := range report.Rows {
		values := make([]any, 0, width)
		values = append(values, row.Title, attributionLabel(row.Attribution), row.Attribution.Type)
		for _, cell := range row.Cells {
			values = append(values, cellValue(cell))
		}
		values = append(values, row.Total.InexactFloat64())

		textStyle, numStyle := 0, number
		if row.IsSection {
			textStyle, numStyle = bold, boldNumber
		}
		if err := writeRow(f, sheet, line, values, textStyle, numStyle, lastCol); err != nil {
			return err
		}
		line++
	}

	totals := make([]any, 0, width)
	totals = append(totals, labelGrandTotal, "", "")
	for i := range report.Columns {
		v := decimal.Zero
		if i < len(report.Summary.Columns) {
			v = report.Summary.Columns[i]
		}
		totals = append(totals, v.InexactFloat64())
	}
	totals = append(totals, report.Summary.Total.InexactFloat64())
	if err := writeRow(f, sheet, line, totals, bold, boldNumber, lastCol); err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "C", 20); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return err
	}

	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, line int, values []any, textStyle, numStyle int, lastCol string) error {
	start, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return err
	}
	if textStyle != 0 {
		end, _ := excelize.CoordinatesToCellName(leadingColumns, line)
		if err := f.SetCellStyle(sheet, start, end, textStyle); err != nil {
			return err
		}
	}
	if numStyle != 0 && len(values) > leadingColumns {
		from, _ := excelize.CoordinatesToCellName(leadingColumns+1, line)
		if err := f.SetCellStyle(sheet, from, fmt.Sprintf("%s%d", lastCol, line), numStyle); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(cell decimal.NullDecimal) any {
	if !cell.Valid {
		return nil
	}
	return cell.Decimal.InexactFloat64()
}

func attributionLabel(a domain.Attribution) string {
	switch {
	case a.OtherBranchPay:
		return labelOtherBranchPay
	case a.PayToOtherBranch:
		return labelPayToOtherBranch
	default:
		return ""
	}
}

// SheetName is "<Kind> <branch>", trimmed to Excel's 31 character limit.
func SheetName(report *domain.Report) string {
	kind := string(report.Kind)
	if kind != "" {
		kind = strings.ToUpper(kind[:1]) + kind[1:]
	}
	name := strings.TrimSpace(kind + " " + report.Branch)
	if name == "" {
		name = defaultSheet
	}
	name = strings.NewReplacer(":", "", "\\", "", "/", "", "?", "", "*", "", "[", "", "]", "").Replace(name)
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

// FileName builds the download name of a report workbook.
func FileName(report *domain.Report) string {
	// Branch codes may be Thai; slug transliterates them to ASCII.
	branch := slug.Make(report.Branch)
	if branch == "" {
		branch = "branch"
	}
	parts := []string{string(report.Kind), "summary", branch}
	switch {
	case report.Period.Month != "":
		parts = append(parts, report.Period.Month)
	case report.Period.Start != "":
		parts = append(parts, report.Period.Start+"_"+report.Period.End)
	}
	return strings.Join(parts, "-") + ".xlsx"
}
