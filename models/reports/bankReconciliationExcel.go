package reports

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary      = "Summary"
	sheetDebits       = "Debits"
	sheetCredits      = "Credits"
	sheetUnreconciled = "Unpresented"

	// first summary row holding an amount
	summaryAmountsRow = 6
)

// summary rows, in sheet order
var summaryLabels = []string{
	"Opening balance (GL)",
	"Period debits",
	"Period credits",
	"Closing balance (GL)",
	"Unpresented checks",
	"Unpresented lodgements",
	"Bank statement balance",
	"Variance",
}

func summaryAmounts(r *BankReconciliationReport) []decimal.Decimal {
	return []decimal.Decimal{
		r.OpeningBalance,
		r.PeriodDebit,
		r.PeriodCredit,
		r.ClosingBalance,
		r.UnpresentedChecks,
		r.UnpresentedLodgements,
		r.BankBalance,
		r.Variance,
	}
}

// WriteBankReconciliationExcel renders report as an xlsx workbook onto w.
func WriteBankReconciliationExcel(report *BankReconciliationReport, w io.Writer) error {
	f, err := BuildBankReconciliationWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// BuildBankReconciliationWorkbook returns an open workbook; the caller closes it.
func BuildBankReconciliationWorkbook(report *BankReconciliationReport) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}
	f := excelize.NewFile()
	if err := fillBankReconciliationWorkbook(f, report); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func fillBankReconciliationWorkbook(f *excelize.File, report *BankReconciliationReport) error {
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}

	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: amountFormat(report)})
	if err != nil {
		return err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeSummarySheet(f, report, amountStyle, boldStyle); err != nil {
		return err
	}
	if !report.ShowDetails {
		return nil
	}

	if err := writeDetailSheet(f, sheetDebits, report.DebitLines(), amountStyle, boldStyle); err != nil {
		return err
	}
	if err := writeDetailSheet(f, sheetCredits, report.CreditLines(), amountStyle, boldStyle); err != nil {
		return err
	}
	return writeUnreconciledSheet(f, report.UnreconciledLines, amountStyle, boldStyle)
}

func amountFormat(report *BankReconciliationReport) *string {
	places := int32(2)
	if report.Currency != nil {
		places = report.Currency.DecimalPlaces
	}
	format := "#,##0"
	if places > 0 {
		format += "." + strings.Repeat("0", int(places))
	}
	return &format
}

func writeSummarySheet(f *excelize.File, r *BankReconciliationReport, amountStyle int, boldStyle int) error {
	currency := ""
	if r.Currency != nil {
		currency = r.Currency.Symbol
	}
	header := [][]interface{}{
		{"Bank Reconciliation Report"},
		{"Journal", r.JournalName},
		{"Period", r.DateFrom.String() + " - " + r.DateTo.String()},
		{"Currency", currency},
	}
	for i, row := range header {
		if err := setRow(f, sheetSummary, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A1", "A1", boldStyle); err != nil {
		return err
	}

	amounts := summaryAmounts(r)
	for i, label := range summaryLabels {
		row := summaryAmountsRow + i
		if err := setRow(f, sheetSummary, row, []interface{}{label, amounts[i].InexactFloat64()}); err != nil {
			return err
		}
	}
	last := summaryAmountsRow + len(summaryLabels) - 1
	if err := f.SetCellStyle(sheetSummary, cell("B", summaryAmountsRow), cell("B", last), amountStyle); err != nil {
		return err
	}
	status := "Not reconciled"
	if r.IsReconciled {
		status = "Reconciled"
	}
	if err := setRow(f, sheetSummary, last+2, []interface{}{"Status", status}); err != nil {
		return err
	}
	return f.SetColWidth(sheetSummary, "A", "A", 28)
}

func writeDetailSheet(f *excelize.File, sheet string, lines []*DetailLine, amountStyle int, boldStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, []interface{}{"Date", "Reference", "Partner", "Label", "Debit", "Credit"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", boldStyle); err != nil {
		return err
	}
	for i, l := range lines {
		row := []interface{}{l.Date.String(), l.MoveReference, l.PartnerName, l.Label, l.Debit.InexactFloat64(), l.Credit.InexactFloat64()}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return f.SetCellStyle(sheet, "E2", cell("F", len(lines)+1), amountStyle)
}

func writeUnreconciledSheet(f *excelize.File, lines []*UnreconciledLine, amountStyle int, boldStyle int) error {
	if _, err := f.NewSheet(sheetUnreconciled); err != nil {
		return err
	}
	if err := setRow(f, sheetUnreconciled, 1, []interface{}{"Date", "Reference", "Partner", "Debit", "Credit", "Amount"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetUnreconciled, "A1", "F1", boldStyle); err != nil {
		return err
	}
	for i, l := range lines {
		row := []interface{}{l.Date.String(), l.Ref, l.PartnerName, l.Debit.InexactFloat64(), l.Credit.InexactFloat64(), l.Amount.InexactFloat64()}
		if err := setRow(f, sheetUnreconciled, i+2, row); err != nil {
			return err
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return f.SetCellStyle(sheetUnreconciled, "D2", cell("F", len(lines)+1), amountStyle)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	return f.SetSheetRow(sheet, cell("A", row), &values)
}

func cell(col string, row int) string {
	return col + fmt.Sprint(row)
}
