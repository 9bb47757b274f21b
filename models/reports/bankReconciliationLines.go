package reports

import (
	"context"

	"bitbucket.org/mmdatafocus/bank_recon_report/models"
	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
)

// GetGLLines lists posted lines on the journal's default bank account for one side.
// A journal without a default account, or a kind other than debit/credit, yields no lines.
func (b *ReconciliationReportBuilder) GetGLLines(ctx context.Context, journal *models.AccountJournal, dateFrom models.MyDate, dateTo models.MyDate, kind models.LineKind) ([]*DetailLine, error) {
	var side models.LinePredicate
	switch kind {
	case models.LineKindDebit:
		side = models.DebitSide()
	case models.LineKindCredit:
		side = models.CreditSide()
	default:
		return []*DetailLine{}, nil
	}
	if journal == nil || journal.DefaultAccountId == nil {
		return []*DetailLine{}, nil
	}

	lines, err := b.ledger.FindLines(ctx,
		models.OnAccount(*journal.DefaultAccountId),
		models.DatedBetween(dateFrom, dateTo),
		models.PostedOnly(),
		side,
	)
	if err != nil {
		return nil, err
	}

	out := make([]*DetailLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, &DetailLine{
			Kind:          kind,
			Date:          l.Date,
			MoveReference: utils.FirstNonEmpty(l.MoveName, l.MoveRef),
			PartnerName:   l.PartnerName,
			Label:         utils.FirstNonEmpty(l.Name, l.Ref),
			Debit:         l.Debit,
			Credit:        l.Credit,
		})
	}
	return out, nil
}

// GetUnreconciledLines lists posted payment lines on the journal in the period that are
// not matched to any statement line. These are the items behind the unpresented totals.
func (b *ReconciliationReportBuilder) GetUnreconciledLines(ctx context.Context, journal *models.AccountJournal, dateFrom models.MyDate, dateTo models.MyDate) ([]*UnreconciledLine, error) {
	if journal == nil {
		return []*UnreconciledLine{}, nil
	}
	lines, err := b.ledger.FindLines(ctx,
		models.OnJournal(journal.ID),
		models.DatedBetween(dateFrom, dateTo),
		models.PostedOnly(),
		models.HasPayment(),
		models.NotOnStatement(),
	)
	if err != nil {
		return nil, err
	}

	out := make([]*UnreconciledLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, &UnreconciledLine{
			Date:        l.Date,
			Ref:         l.Name,
			PartnerName: l.PartnerName,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Amount:      l.Balance.Abs(),
		})
	}
	return out, nil
}
