package reports

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
	"github.com/xuri/excelize/v2"
)

func TestWriteBankReconciliationExcel(t *testing.T) {
	ledger, journal := seedScenario()
	b := NewReconciliationReportBuilder(ledger, quietLogger())
	r, err := b.ComputeReport(context.Background(), ReportContext{CompanyId: testCompany}, januaryInput(journal, "1200"))
	if err != nil {
		t.Fatalf("ComputeReport: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteBankReconciliationExcel(r, &buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{sheetSummary, sheetDebits, sheetCredits, sheetUnreconciled}
	if len(sheets) != len(want) {
		t.Fatalf("expected sheets %v, got %v", want, sheets)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("expected sheets %v, got %v", want, sheets)
		}
	}

	raw := excelize.Options{RawCellValue: true}
	cells := map[string]string{
		"B2":  "Main Bank",
		"B3":  "2024-01-01 - 2024-01-31",
		"A6":  "Opening balance (GL)",
		"B6":  "1000",
		"B9":  "1300",
		"B13": "100",
		"B15": "Not reconciled",
	}
	for c, v := range cells {
		got, err := f.GetCellValue(sheetSummary, c, raw)
		if err != nil {
			t.Fatalf("read %s: %v", c, err)
		}
		if got != v {
			t.Fatalf("%s: expected %q, got %q", c, v, got)
		}
	}

	rows, err := f.GetRows(sheetCredits)
	if err != nil {
		t.Fatalf("read credits: %v", err)
	}
	// header + two lines
	if len(rows) != 3 || rows[2][3] != "CHK 881" {
		t.Fatalf("unexpected credit rows %v", rows)
	}
	ref, _ := f.GetCellValue(sheetUnreconciled, "B3", raw)
	if ref != "CHK 881" {
		t.Fatalf("expected CHK 881 on the unpresented sheet, got %q", ref)
	}
}

func TestWriteBankReconciliationExcel_SummaryOnly(t *testing.T) {
	ledger, journal := seedScenario()
	b := NewReconciliationReportBuilder(ledger, quietLogger())
	input := januaryInput(journal, "1300")
	input.ShowDetails = utils.NewFalse()
	r, err := b.ComputeReport(context.Background(), ReportContext{CompanyId: testCompany}, input)
	if err != nil {
		t.Fatalf("ComputeReport: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteBankReconciliationExcel(r, &buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != sheetSummary {
		t.Fatalf("expected only the summary sheet, got %v", sheets)
	}
	status, _ := f.GetCellValue(sheetSummary, "B15")
	if status != "Reconciled" {
		t.Fatalf("expected Reconciled, got %q", status)
	}
}

func TestAmountFormatFollowsCurrency(t *testing.T) {
	r := &BankReconciliationReport{Currency: &ReportCurrency{DecimalPlaces: 0}}
	if got := *amountFormat(r); got != "#,##0" {
		t.Fatalf("expected #,##0, got %s", got)
	}
	r.Currency.DecimalPlaces = 3
	if got := *amountFormat(r); got != "#,##0.000" {
		t.Fatalf("expected #,##0.000, got %s", got)
	}
	if got := *amountFormat(&BankReconciliationReport{}); got != "#,##0.00" {
		t.Fatalf("expected #,##0.00 default, got %s", got)
	}
}

func TestBuildBankReconciliationWorkbook_Errors(t *testing.T) {
	if f, err := BuildBankReconciliationWorkbook(nil); err == nil || f != nil {
		t.Fatalf("expected an error and no workbook for a nil report, got %v, %v", f, err)
	}

	// without the default sheet there is no summary sheet to write into
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "Other"); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	err := fillBankReconciliationWorkbook(f, &BankReconciliationReport{ShowDetails: true})
	var notExist excelize.ErrSheetNotExist
	if !errors.As(err, &notExist) {
		t.Fatalf("expected ErrSheetNotExist, got %v", err)
	}
}
