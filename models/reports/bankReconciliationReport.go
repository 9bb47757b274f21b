package reports

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/bank_recon_report/config"
	"bitbucket.org/mmdatafocus/bank_recon_report/models"
	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ReportContext carries the host session state a report depends on.
type ReportContext struct {
	CompanyId int
}

type BankReconciliationInput struct {
	Journal     *models.AccountJournal
	DateFrom    *models.MyDate
	DateTo      *models.MyDate
	BankBalance *decimal.Decimal
	// nil means true
	ShowDetails *bool
}

type PeriodTotals struct {
	Debit                 decimal.Decimal `json:"period_debit"`
	Credit                decimal.Decimal `json:"period_credit"`
	UnpresentedChecks     decimal.Decimal `json:"unpresented_checks"`
	UnpresentedLodgements decimal.Decimal `json:"unpresented_lodgements"`
}

type ReportCurrency struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	DecimalPlaces int32  `json:"decimal_places"`
}

type DetailLine struct {
	Kind          models.LineKind `json:"kind"`
	Date          models.MyDate   `json:"date"`
	MoveReference string          `json:"move_reference"`
	PartnerName   string          `json:"partner_name"`
	Label         string          `json:"label"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

// UnreconciledLine is a payment posted to the bank journal that no statement line covers yet.
type UnreconciledLine struct {
	Date        models.MyDate   `json:"date"`
	Ref         string          `json:"ref"`
	PartnerName string          `json:"partner_name"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Amount      decimal.Decimal `json:"amount"`
}

type BankReconciliationReport struct {
	JournalId             int                 `json:"journal_id"`
	JournalName           string              `json:"journal_name"`
	Currency              *ReportCurrency     `json:"currency,omitempty"`
	DateFrom              models.MyDate       `json:"date_from"`
	DateTo                models.MyDate       `json:"date_to"`
	OpeningBalance        decimal.Decimal     `json:"opening_balance"`
	PeriodDebit           decimal.Decimal     `json:"period_debit"`
	PeriodCredit          decimal.Decimal     `json:"period_credit"`
	UnpresentedChecks     decimal.Decimal     `json:"unpresented_checks"`
	UnpresentedLodgements decimal.Decimal     `json:"unpresented_lodgements"`
	ClosingBalance        decimal.Decimal     `json:"closing_balance"`
	BankBalance           decimal.Decimal     `json:"bank_balance"`
	Variance              decimal.Decimal     `json:"variance"`
	IsReconciled          bool                `json:"is_reconciled"`
	ShowDetails           bool                `json:"show_details"`
	DetailLines           []*DetailLine       `json:"detail_lines,omitempty"`
	UnreconciledLines     []*UnreconciledLine `json:"unreconciled_lines,omitempty"`
}

// DebitLines returns the debit-kind detail lines, in report order.
func (r *BankReconciliationReport) DebitLines() []*DetailLine {
	return r.linesOfKind(models.LineKindDebit)
}

// CreditLines returns the credit-kind detail lines, in report order.
func (r *BankReconciliationReport) CreditLines() []*DetailLine {
	return r.linesOfKind(models.LineKindCredit)
}

func (r *BankReconciliationReport) linesOfKind(kind models.LineKind) []*DetailLine {
	out := make([]*DetailLine, 0)
	for _, l := range r.DetailLines {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

// ReconciliationReportBuilder derives bank reconciliation reports from a Ledger.
// It holds no per-request state and is safe for concurrent use.
type ReconciliationReportBuilder struct {
	ledger        models.Ledger
	logger        *logrus.Logger
	tracer        trace.Tracer
	cacheEnabled  bool
	cacheTTL      time.Duration
	slowThreshold time.Duration
}

func NewReconciliationReportBuilder(ledger models.Ledger, logger *logrus.Logger) *ReconciliationReportBuilder {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &ReconciliationReportBuilder{
		ledger:        ledger,
		logger:        logger,
		tracer:        otel.Tracer("bank-recon-report"),
		cacheEnabled:  config.ReportCacheEnabled(),
		cacheTTL:      config.ReportCacheTTL(),
		slowThreshold: config.ReportSlowThreshold(),
	}
}

// ComputeOpeningBalance is the journal's posted GL balance at the end of the day before dateFrom.
func (b *ReconciliationReportBuilder) ComputeOpeningBalance(ctx context.Context, journal *models.AccountJournal, dateFrom models.MyDate) (decimal.Decimal, error) {
	if journal == nil {
		return decimal.Zero, utils.NewValidationError("journal_id", "journal is required")
	}
	// nothing can be dated before the first calendar day
	if !dateFrom.After(models.MyDate{}) {
		return decimal.Zero, nil
	}
	totals, err := b.ledger.AggregateLines(ctx,
		models.OnJournal(journal.ID),
		models.PostedOnly(),
		models.DatedOnOrBefore(dateFrom.AddDays(-1)),
	)
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Balance, nil
}

// ComputePeriodTotals covers posted lines on the journal dated within [dateFrom, dateTo].
func (b *ReconciliationReportBuilder) ComputePeriodTotals(ctx context.Context, journal *models.AccountJournal, dateFrom models.MyDate, dateTo models.MyDate) (PeriodTotals, error) {
	if journal == nil {
		return PeriodTotals{}, utils.NewValidationError("journal_id", "journal is required")
	}
	inPeriod := []models.LinePredicate{
		models.OnJournal(journal.ID),
		models.PostedOnly(),
		models.DatedBetween(dateFrom, dateTo),
	}

	movements, err := b.ledger.AggregateLines(ctx, inPeriod...)
	if err != nil {
		return PeriodTotals{}, err
	}

	// outgoing payments not on any statement
	checks, err := b.ledger.AggregateLines(ctx, append(inPeriod,
		models.HasPayment(),
		models.CreditSide(),
		models.NotOnStatement(),
	)...)
	if err != nil {
		return PeriodTotals{}, err
	}

	// incoming payments not on any statement
	lodgements, err := b.ledger.AggregateLines(ctx, append(inPeriod,
		models.HasPayment(),
		models.DebitSide(),
		models.NotOnStatement(),
	)...)
	if err != nil {
		return PeriodTotals{}, err
	}

	return PeriodTotals{
		Debit:                 movements.Debit,
		Credit:                movements.Credit,
		UnpresentedChecks:     checks.Balance.Abs(),
		UnpresentedLodgements: lodgements.Balance,
	}, nil
}

// ComputeReport validates input, then derives the report. Validation failures are
// returned as *utils.ValidationError before the ledger is touched.
func (b *ReconciliationReportBuilder) ComputeReport(ctx context.Context, rc ReportContext, input BankReconciliationInput) (*BankReconciliationReport, error) {
	if err := validateInput(rc, input); err != nil {
		return nil, err
	}

	ctx, span := b.tracer.Start(ctx, "BankReconciliation.ComputeReport", trace.WithAttributes(
		attribute.Int("company_id", rc.CompanyId),
		attribute.Int("journal_id", input.Journal.ID),
		attribute.String("date_from", input.DateFrom.String()),
		attribute.String("date_to", input.DateTo.String()),
	))
	defer span.End()

	started := time.Now()
	defer b.logSlowReport(ctx, rc, input, started)

	if !b.cacheEnabled {
		return b.buildReport(ctx, rc, input)
	}

	key := reportCacheKey(rc, input)
	if report, ok := b.cachedReport(ctx, key); ok {
		return report, nil
	}
	release := obtainReportLock(ctx, b.logger, key)
	defer release()
	// another request may have filled the cache while we waited for the lock
	if report, ok := b.cachedReport(ctx, key); ok {
		return report, nil
	}

	report, err := b.buildReport(ctx, rc, input)
	if err != nil {
		return nil, err
	}
	if err := cacheSet(ctx, key, report, b.cacheTTL); err != nil {
		config.LogError(b.logger, "reports", "ComputeReport", "cacheSet", key, err)
	}
	return report, nil
}

func (b *ReconciliationReportBuilder) buildReport(ctx context.Context, rc ReportContext, input BankReconciliationInput) (*BankReconciliationReport, error) {
	journal := input.Journal
	dateFrom, dateTo := *input.DateFrom, *input.DateTo
	bankBalance := *input.BankBalance
	showDetails := utils.DereferencePtr(input.ShowDetails, true)

	opening, err := b.ComputeOpeningBalance(ctx, journal, dateFrom)
	if err != nil {
		return nil, err
	}
	period, err := b.ComputePeriodTotals(ctx, journal, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	closing := opening.Add(period.Debit).Sub(period.Credit)
	variance := closing.Sub(bankBalance)

	report := &BankReconciliationReport{
		JournalId:             journal.ID,
		JournalName:           journal.Name,
		DateFrom:              dateFrom,
		DateTo:                dateTo,
		OpeningBalance:        opening,
		PeriodDebit:           period.Debit,
		PeriodCredit:          period.Credit,
		UnpresentedChecks:     period.UnpresentedChecks,
		UnpresentedLodgements: period.UnpresentedLodgements,
		ClosingBalance:        closing,
		BankBalance:           bankBalance,
		Variance:              variance,
		IsReconciled:          variance.IsZero(),
		ShowDetails:           showDetails,
	}

	currency, err := b.ledger.GetCompanyCurrency(ctx, rc.CompanyId)
	switch {
	case err == nil:
		report.Currency = &ReportCurrency{Symbol: currency.Symbol, Name: currency.Name, DecimalPlaces: currency.DecimalPlaces}
	case errors.Is(err, utils.ErrorRecordNotFound):
		// display only; the report stands without it
	default:
		return nil, err
	}

	if !showDetails {
		return report, nil
	}

	debitLines, err := b.GetGLLines(ctx, journal, dateFrom, dateTo, models.LineKindDebit)
	if err != nil {
		return nil, err
	}
	creditLines, err := b.GetGLLines(ctx, journal, dateFrom, dateTo, models.LineKindCredit)
	if err != nil {
		return nil, err
	}
	report.DetailLines = append(debitLines, creditLines...)

	report.UnreconciledLines, err = b.GetUnreconciledLines(ctx, journal, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	b.logger.WithFields(logrus.Fields{
		"module":       "reports",
		"journal_id":   journal.ID,
		"detail_lines": len(report.DetailLines),
		"unreconciled": len(report.UnreconciledLines),
	}).Debug("bank reconciliation details loaded")

	return report, nil
}

func validateInput(rc ReportContext, input BankReconciliationInput) error {
	if input.Journal == nil {
		return utils.NewValidationError("journal_id", "journal is required")
	}
	if input.Journal.Type != models.JournalTypeBank {
		return utils.NewValidationError("journal_id", "journal must be of type bank")
	}
	if rc.CompanyId > 0 && input.Journal.CompanyId != rc.CompanyId {
		return utils.NewValidationError("journal_id", "journal does not belong to the company")
	}
	if input.DateFrom == nil {
		return utils.NewValidationError("date_from", "date_from is required")
	}
	if input.DateTo == nil {
		return utils.NewValidationError("date_to", "date_to is required")
	}
	if input.DateFrom.After(*input.DateTo) {
		return utils.NewValidationError("date_from", "date_from must not be after date_to")
	}
	if input.BankBalance == nil {
		return utils.NewValidationError("bank_balance", "bank_balance is required")
	}
	return nil
}

func (b *ReconciliationReportBuilder) logSlowReport(ctx context.Context, rc ReportContext, input BankReconciliationInput, started time.Time) {
	d := time.Since(started)
	if d < b.slowThreshold {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	uid, _ := utils.GetUserIdFromContext(ctx)
	b.logger.WithFields(logrus.Fields{
		"module":         "reports",
		"name":           "bank_reconciliation",
		"ms":             d.Milliseconds(),
		"company_id":     rc.CompanyId,
		"user_id":        uid,
		"journal_id":     input.Journal.ID,
		"correlation_id": cid,
	}).Warn("slow_report")
}
