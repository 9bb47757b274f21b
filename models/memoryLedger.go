package models

import (
	"context"
	"io"
	"sort"
	"sync"

	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
	"github.com/shopspring/decimal"
)

// MemoryLedger is an in-process Ledger. It evaluates the same named predicates as
// GormLedger and is used for fixtures and tests.
type MemoryLedger struct {
	mu         sync.RWMutex
	currencies map[int]*Currency // by company id
	journals   map[int]*AccountJournal
	lines      []*LedgerLine
	nextLineId int
	queries    int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		currencies: map[int]*Currency{},
		journals:   map[int]*AccountJournal{},
	}
}

func (m *MemoryLedger) SetCompanyCurrency(companyId int, currency Currency) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currencies[companyId] = &currency
}

func (m *MemoryLedger) AddJournal(journal AccountJournal) *AccountJournal {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := journal
	m.journals[j.ID] = &j
	return &j
}

// AddLine stores a copy of line. A zero ID is assigned the next free id and Balance is
// always recomputed as Debit - Credit.
func (m *MemoryLedger) AddLine(line LedgerLine) *LedgerLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := line
	if l.ID == 0 {
		m.nextLineId++
		l.ID = m.nextLineId
	} else if l.ID > m.nextLineId {
		m.nextLineId = l.ID
	}
	l.Balance = l.Debit.Sub(l.Credit)
	m.lines = append(m.lines, &l)
	return &l
}

// QueryCount is the number of AggregateLines/FindLines calls served so far.
func (m *MemoryLedger) QueryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queries
}

func (m *MemoryLedger) GetJournal(_ context.Context, companyId int, journalId int) (*AccountJournal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.journals[journalId]
	if !ok || j.CompanyId != companyId {
		return nil, utils.ErrorRecordNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *MemoryLedger) GetJournals(_ context.Context, companyId int, journalIds []int) ([]*AccountJournal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*AccountJournal, 0, len(journalIds))
	for _, id := range journalIds {
		if j, ok := m.journals[id]; ok && j.CompanyId == companyId {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryLedger) ListBankJournals(_ context.Context, companyId int) ([]*AccountJournal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*AccountJournal, 0)
	for _, j := range m.journals {
		if j.CompanyId == companyId && j.Type == JournalTypeBank {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Name != out[b].Name {
			return out[a].Name < out[b].Name
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func (m *MemoryLedger) GetCompanyCurrency(_ context.Context, companyId int) (*Currency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.currencies[companyId]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryLedger) AggregateLines(_ context.Context, predicates ...LinePredicate) (LineTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++

	totals := LineTotals{Debit: decimal.Zero, Credit: decimal.Zero, Balance: decimal.Zero}
	for _, l := range m.lines {
		if !MatchAll(l, predicates) {
			continue
		}
		totals.Debit = totals.Debit.Add(l.Debit)
		totals.Credit = totals.Credit.Add(l.Credit)
		totals.Balance = totals.Balance.Add(l.Balance)
		totals.LineCount++
	}
	return totals, nil
}

func (m *MemoryLedger) FindLines(_ context.Context, predicates ...LinePredicate) ([]*LedgerLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++

	out := make([]*LedgerLine, 0)
	for _, l := range m.lines {
		if MatchAll(l, predicates) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date) {
			return out[a].Date.Before(out[b].Date)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

// LoadMemoryLedger reads a ledger fixture (see decodeLedgerFixture) into a new MemoryLedger.
func LoadMemoryLedger(r io.Reader) (*MemoryLedger, error) {
	fx, err := decodeLedgerFixture(r)
	if err != nil {
		return nil, err
	}
	m := NewMemoryLedger()
	for _, c := range fx.Companies {
		if c.Currency != nil {
			m.SetCompanyCurrency(c.ID, *c.Currency)
		}
	}
	for _, j := range fx.Journals {
		m.AddJournal(j)
	}
	for _, l := range fx.Lines {
		m.AddLine(l)
	}
	return m, nil
}
