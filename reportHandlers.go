package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"bitbucket.org/mmdatafocus/bank_recon_report/middlewares"
	"bitbucket.org/mmdatafocus/bank_recon_report/models"
	"bitbucket.org/mmdatafocus/bank_recon_report/models/reports"
	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// concurrent report computations per batch request
	batchParallelism = 4
)

type reportHandler struct {
	ledger  models.Ledger
	builder *reports.ReconciliationReportBuilder
	logger  *logrus.Logger
}

func newReportHandler(ledger models.Ledger, logger *logrus.Logger) *reportHandler {
	return &reportHandler{
		ledger:  ledger,
		builder: reports.NewReconciliationReportBuilder(ledger, logger),
		logger:  logger,
	}
}

type bankReconciliationRequest struct {
	JournalId   int              `json:"journal_id" binding:"required"`
	DateFrom    *models.MyDate   `json:"date_from"`
	DateTo      *models.MyDate   `json:"date_to"`
	BankBalance *decimal.Decimal `json:"bank_balance"`
	ShowDetails *bool            `json:"show_details"`
}

type batchJournalRequest struct {
	JournalId   int              `json:"journal_id" binding:"required"`
	BankBalance *decimal.Decimal `json:"bank_balance"`
}

type batchReconciliationRequest struct {
	DateFrom    *models.MyDate        `json:"date_from"`
	DateTo      *models.MyDate        `json:"date_to"`
	ShowDetails *bool                 `json:"show_details"`
	Journals    []batchJournalRequest `json:"journals" binding:"required,min=1,max=50,dive"`
}

type batchReconciliationResult struct {
	JournalId int                               `json:"journal_id"`
	Report    *reports.BankReconciliationReport `json:"report,omitempty"`
	Error     string                            `json:"error,omitempty"`
	Field     string                            `json:"field,omitempty"`
}

func (h *reportHandler) listJournals(c *gin.Context) {
	ctx := c.Request.Context()
	companyId, _ := utils.GetCompanyIdFromContext(ctx)
	journals, err := h.ledger.ListBankJournals(ctx, companyId)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"journals": journals})
}

func (h *reportHandler) bankReconciliation(c *gin.Context) {
	report, ok := h.computeFromRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportHandler) bankReconciliationXlsx(c *gin.Context) {
	report, ok := h.computeFromRequest(c)
	if !ok {
		return
	}
	filename := fmt.Sprintf("bank_reconciliation_%d_%s_%s.xlsx", report.JournalId, report.DateFrom, report.DateTo)
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := reports.WriteBankReconciliationExcel(report, c.Writer); err != nil {
		// headers are already out
		_ = c.Error(err)
	}
}

func (h *reportHandler) bankReconciliationBatch(c *gin.Context) {
	var req batchReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	ctx := c.Request.Context()
	rc := reportContextFrom(ctx)

	ids := make([]int, len(req.Journals))
	for i, j := range req.Journals {
		ids[i] = j.JournalId
	}
	thunks := middlewares.LoadJournals(ctx, ids...)

	results := make([]batchReconciliationResult, len(req.Journals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelism)
	for i := range req.Journals {
		i := i
		g.Go(func() error {
			results[i].JournalId = ids[i]
			journal, err := thunks[i]()
			if err != nil {
				return results[i].record(err)
			}
			report, err := h.builder.ComputeReport(gctx, rc, reports.BankReconciliationInput{
				Journal:     journal,
				DateFrom:    req.DateFrom,
				DateTo:      req.DateTo,
				BankBalance: req.Journals[i].BankBalance,
				ShowDetails: req.ShowDetails,
			})
			if err != nil {
				return results[i].record(err)
			}
			results[i].Report = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": results})
}

// record keeps per-journal failures on the result and passes anything else up.
func (r *batchReconciliationResult) record(err error) error {
	var ve *utils.ValidationError
	switch {
	case errors.As(err, &ve):
		r.Error, r.Field = ve.Message, ve.Field
		return nil
	case errors.Is(err, utils.ErrorRecordNotFound):
		r.Error = "journal not found"
		return nil
	}
	return err
}

func (h *reportHandler) computeFromRequest(c *gin.Context) (*reports.BankReconciliationReport, bool) {
	var req bankReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return nil, false
	}
	ctx := c.Request.Context()

	journal, err := middlewares.GetJournal(ctx, req.JournalId)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	report, err := h.builder.ComputeReport(ctx, reportContextFrom(ctx), reports.BankReconciliationInput{
		Journal:     journal,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		BankBalance: req.BankBalance,
		ShowDetails: req.ShowDetails,
	})
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return report, true
}

func (h *reportHandler) respondError(c *gin.Context, err error) {
	var ve *utils.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "journal not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func reportContextFrom(ctx context.Context) reports.ReportContext {
	companyId, _ := utils.GetCompanyIdFromContext(ctx)
	return reports.ReportContext{CompanyId: companyId}
}
