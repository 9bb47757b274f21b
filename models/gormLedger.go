package models

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
	"gorm.io/gorm"
)

const (
	joinMoves    = "JOIN account_moves ON account_moves.id = account_move_lines.move_id"
	joinPartners = "LEFT JOIN partners ON partners.id = account_move_lines.partner_id"

	aggregateSelect = `COALESCE(SUM(account_move_lines.debit), 0) AS debit,
		COALESCE(SUM(account_move_lines.credit), 0) AS credit,
		COALESCE(SUM(account_move_lines.balance), 0) AS balance,
		COUNT(account_move_lines.id) AS line_count`

	linesSelect = `account_move_lines.id,
		account_move_lines.date,
		account_move_lines.company_id,
		account_move_lines.journal_id,
		account_move_lines.account_id,
		account_move_lines.move_id,
		COALESCE(account_moves.name, '') AS move_name,
		COALESCE(account_moves.ref, '') AS move_ref,
		account_moves.state AS move_state,
		account_move_lines.payment_id,
		account_move_lines.statement_line_id,
		COALESCE(partners.name, '') AS partner_name,
		COALESCE(account_move_lines.name, '') AS name,
		COALESCE(account_move_lines.ref, '') AS ref,
		account_move_lines.debit,
		account_move_lines.credit,
		account_move_lines.balance`

	linesOrder = "account_move_lines.date ASC, account_move_lines.id ASC"
)

// GormLedger reads the host ledger tables through gorm.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (s *GormLedger) GetJournal(ctx context.Context, companyId int, journalId int) (*AccountJournal, error) {
	var journal AccountJournal
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyId, journalId).
		First(&journal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &journal, nil
}

func (s *GormLedger) GetJournals(ctx context.Context, companyId int, journalIds []int) ([]*AccountJournal, error) {
	var journals []*AccountJournal
	if len(journalIds) == 0 {
		return journals, nil
	}
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND id IN ?", companyId, journalIds).
		Find(&journals).Error
	if err != nil {
		return nil, err
	}
	return journals, nil
}

func (s *GormLedger) ListBankJournals(ctx context.Context, companyId int) ([]*AccountJournal, error) {
	var journals []*AccountJournal
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND type = ?", companyId, string(JournalTypeBank)).
		Order("name ASC, id ASC").
		Find(&journals).Error
	if err != nil {
		return nil, err
	}
	return journals, nil
}

func (s *GormLedger) GetCompanyCurrency(ctx context.Context, companyId int) (*Currency, error) {
	var currency Currency
	err := s.db.WithContext(ctx).
		Joins("JOIN companies ON companies.currency_id = currencies.id").
		Where("companies.id = ?", companyId).
		First(&currency).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &currency, nil
}

func (s *GormLedger) AggregateLines(ctx context.Context, predicates ...LinePredicate) (LineTotals, error) {
	var totals LineTotals
	if err := aggregateQuery(s.db.WithContext(ctx), predicates).Scan(&totals).Error; err != nil {
		return LineTotals{}, err
	}
	return totals, nil
}

func (s *GormLedger) FindLines(ctx context.Context, predicates ...LinePredicate) ([]*LedgerLine, error) {
	var lines []*LedgerLine
	if err := linesQuery(s.db.WithContext(ctx), predicates).Scan(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func aggregateQuery(tx *gorm.DB, predicates []LinePredicate) *gorm.DB {
	q := tx.Model(&AccountMoveLine{}).
		Select(aggregateSelect).
		Joins(joinMoves)
	return applyPredicates(q, predicates)
}

func linesQuery(tx *gorm.DB, predicates []LinePredicate) *gorm.DB {
	q := tx.Model(&AccountMoveLine{}).
		Select(linesSelect).
		Joins(joinMoves).
		Joins(joinPartners)
	return applyPredicates(q, predicates).Order(linesOrder)
}

func applyPredicates(q *gorm.DB, predicates []LinePredicate) *gorm.DB {
	for _, p := range predicates {
		query, args := p.SQL()
		q = q.Where(query, args...)
	}
	return q
}
