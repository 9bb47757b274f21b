package main

import (
	"context"
	"errors"
	"sync/atomic"

	"bitbucket.org/mmdatafocus/bank_recon_report/models"
)

var errLedgerNotReady = errors.New("ledger is not connected yet")

type ledgerHolder struct {
	models.Ledger
}

// lazyLedger lets the router be built before the database is reachable.
type lazyLedger struct {
	current atomic.Pointer[ledgerHolder]
}

func (l *lazyLedger) bind(ledger models.Ledger) {
	l.current.Store(&ledgerHolder{Ledger: ledger})
}

func (l *lazyLedger) ready() bool {
	return l.current.Load() != nil
}

func (l *lazyLedger) get() (models.Ledger, error) {
	h := l.current.Load()
	if h == nil {
		return nil, errLedgerNotReady
	}
	return h.Ledger, nil
}

func (l *lazyLedger) GetJournal(ctx context.Context, companyId int, journalId int) (*models.AccountJournal, error) {
	ledger, err := l.get()
	if err != nil {
		return nil, err
	}
	return ledger.GetJournal(ctx, companyId, journalId)
}

func (l *lazyLedger) GetJournals(ctx context.Context, companyId int, journalIds []int) ([]*models.AccountJournal, error) {
	ledger, err := l.get()
	if err != nil {
		return nil, err
	}
	return ledger.GetJournals(ctx, companyId, journalIds)
}

func (l *lazyLedger) ListBankJournals(ctx context.Context, companyId int) ([]*models.AccountJournal, error) {
	ledger, err := l.get()
	if err != nil {
		return nil, err
	}
	return ledger.ListBankJournals(ctx, companyId)
}

func (l *lazyLedger) GetCompanyCurrency(ctx context.Context, companyId int) (*models.Currency, error) {
	ledger, err := l.get()
	if err != nil {
		return nil, err
	}
	return ledger.GetCompanyCurrency(ctx, companyId)
}

func (l *lazyLedger) AggregateLines(ctx context.Context, predicates ...models.LinePredicate) (models.LineTotals, error) {
	ledger, err := l.get()
	if err != nil {
		return models.LineTotals{}, err
	}
	return ledger.AggregateLines(ctx, predicates...)
}

func (l *lazyLedger) FindLines(ctx context.Context, predicates ...models.LinePredicate) ([]*models.LedgerLine, error) {
	ledger, err := l.get()
	if err != nil {
		return nil, err
	}
	return ledger.FindLines(ctx, predicates...)
}
