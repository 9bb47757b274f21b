// bank-recon-report prints a bank reconciliation report as JSON, optionally writing the xlsx too.
//
// Usage (from repo root):
//
//	go run ./cmd/bank-recon-report -company-id 1 -journal-id 1 -from 2024-01-01 -to 2024-01-31 -bank-balance 1250
//	go run ./cmd/bank-recon-report -fixture ledger.json -company-id 1 -journal-id 1 -xlsx out.xlsx
//
// Without -fixture the report reads the database configured by DB_* env vars.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/bank_recon_report/config"
	"bitbucket.org/mmdatafocus/bank_recon_report/models"
	"bitbucket.org/mmdatafocus/bank_recon_report/models/reports"
	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
	"github.com/shopspring/decimal"
)

func main() {
	var (
		companyID   = flag.Int("company-id", 0, "company id (required)")
		journalID   = flag.Int("journal-id", 0, "bank journal id (required)")
		from        = flag.String("from", "", "period start, YYYY-MM-DD")
		to          = flag.String("to", "", "period end, YYYY-MM-DD")
		bankBalance = flag.String("bank-balance", "", "balance on the bank statement")
		showDetails = flag.Bool("show-details", true, "include detail and unpresented lines")
		fixture     = flag.String("fixture", "", "read the ledger from a JSON fixture instead of the database")
		xlsxPath    = flag.String("xlsx", "", "also write the report workbook to this path")
	)
	flag.Parse()

	if *companyID <= 0 || *journalID <= 0 {
		fmt.Fprintln(os.Stderr, "-company-id and -journal-id are required")
		flag.Usage()
		os.Exit(2)
	}

	input := reports.BankReconciliationInput{ShowDetails: showDetails}
	var err error
	if input.DateFrom, err = parseDateFlag("from", *from); err != nil {
		fail(2, err)
	}
	if input.DateTo, err = parseDateFlag("to", *to); err != nil {
		fail(2, err)
	}
	if s := strings.TrimSpace(*bankBalance); s != "" {
		v, err := decimal.NewFromString(s)
		if err != nil {
			fail(2, fmt.Errorf("-bank-balance: %w", err))
		}
		input.BankBalance = &v
	}

	ledger, err := openLedger(*fixture)
	if err != nil {
		fail(1, err)
	}

	ctx := context.Background()
	journal, err := ledger.GetJournal(ctx, *companyID, *journalID)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			fail(1, fmt.Errorf("journal %d not found in company %d", *journalID, *companyID))
		}
		fail(1, err)
	}
	input.Journal = journal

	builder := reports.NewReconciliationReportBuilder(ledger, config.GetLogger())
	report, err := builder.ComputeReport(ctx, reports.ReportContext{CompanyId: *companyID}, input)
	if err != nil {
		if utils.IsValidationError(err) {
			fail(2, err)
		}
		fail(1, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fail(1, err)
	}

	if *xlsxPath != "" {
		f, err := os.Create(*xlsxPath)
		if err != nil {
			fail(1, err)
		}
		if err := reports.WriteBankReconciliationExcel(report, f); err != nil {
			_ = f.Close()
			fail(1, err)
		}
		if err := f.Close(); err != nil {
			fail(1, err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", *xlsxPath)
	}
}

func openLedger(fixture string) (models.Ledger, error) {
	if fixture != "" {
		f, err := os.Open(fixture)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		mem, err := models.LoadMemoryLedger(f)
		if err != nil {
			return nil, err
		}
		return mem, nil
	}
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("database not initialized (config.GetDB returned nil). Set DB_* env vars")
	}
	return models.NewGormLedger(db), nil
}

func parseDateFlag(name, value string) (*models.MyDate, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := models.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("-%s: %w", name, err)
	}
	return &d, nil
}

func fail(code int, err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}
