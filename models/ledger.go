package models

import (
	"context"

	"github.com/shopspring/decimal"
)

// Mirror of the host ledger tables. This module only ever reads them.

type Company struct {
	ID         int    `gorm:"primary_key" json:"id"`
	Name       string `gorm:"size:255;not null" json:"name"`
	CurrencyId int    `gorm:"index;not null" json:"currency_id"`
}

type Currency struct {
	ID            int    `gorm:"primary_key" json:"id"`
	Symbol        string `gorm:"size:10;not null" json:"symbol"`
	Name          string `gorm:"size:100;not null" json:"name"`
	DecimalPlaces int32  `gorm:"not null;default:2" json:"decimal_places"`
}

type AccountJournal struct {
	ID               int         `gorm:"primary_key" json:"id"`
	CompanyId        int         `gorm:"index;not null" json:"company_id"`
	Name             string      `gorm:"size:255;not null" json:"name"`
	Code             string      `gorm:"size:10" json:"code"`
	Type             JournalType `gorm:"type:enum('bank','cash','sale','purchase','general');index;not null" json:"type"`
	DefaultAccountId *int        `gorm:"index" json:"default_account_id"`
}

type Account struct {
	ID        int    `gorm:"primary_key" json:"id"`
	CompanyId int    `gorm:"index;not null" json:"company_id"`
	Code      string `gorm:"size:64;not null" json:"code"`
	Name      string `gorm:"size:255;not null" json:"name"`
}

type Partner struct {
	ID   int    `gorm:"primary_key" json:"id"`
	Name string `gorm:"size:255" json:"name"`
}

type AccountMove struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId int       `gorm:"index;not null" json:"company_id"`
	JournalId int       `gorm:"index;not null" json:"journal_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Ref       string    `gorm:"size:255" json:"ref"`
	Date      MyDate    `gorm:"type:date;index;not null" json:"date"`
	State     MoveState `gorm:"type:enum('draft','posted','cancel');default:'draft';index;not null" json:"state"`
}

// AccountMoveLine keeps Balance = Debit - Credit, as the host posting layer does.
type AccountMoveLine struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CompanyId       int             `gorm:"index;not null" json:"company_id"`
	MoveId          int             `gorm:"index;not null" json:"move_id"`
	JournalId       int             `gorm:"index:idx_aml_journal_date,priority:1;not null" json:"journal_id"`
	AccountId       int             `gorm:"index:idx_aml_account_date,priority:1;not null" json:"account_id"`
	PartnerId       *int            `gorm:"index" json:"partner_id"`
	PaymentId       *int            `gorm:"index" json:"payment_id"`
	StatementLineId *int            `gorm:"index" json:"statement_line_id"`
	Date            MyDate          `gorm:"type:date;not null;index:idx_aml_journal_date,priority:2;index:idx_aml_account_date,priority:2" json:"date"`
	Name            string          `gorm:"size:255" json:"name"`
	Ref             string          `gorm:"size:255" json:"ref"`
	Debit           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
	Balance         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
}

// LedgerLine is a move line joined with its move and partner.
type LedgerLine struct {
	ID              int             `json:"id"`
	Date            MyDate          `json:"date"`
	CompanyId       int             `json:"company_id"`
	JournalId       int             `json:"journal_id"`
	AccountId       int             `json:"account_id"`
	MoveId          int             `json:"move_id"`
	MoveName        string          `json:"move_name"`
	MoveRef         string          `json:"move_ref"`
	MoveState       MoveState       `json:"move_state"`
	PaymentId       *int            `json:"payment_id"`
	StatementLineId *int            `json:"statement_line_id"`
	PartnerName     string          `json:"partner_name"`
	Name            string          `json:"name"`
	Ref             string          `json:"ref"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Balance         decimal.Decimal `json:"balance"`
}

// LineTotals is the aggregate over a set of ledger lines. Empty sets sum to zero.
type LineTotals struct {
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Balance   decimal.Decimal `json:"balance"`
	LineCount int64           `json:"line_count"`
}

// Ledger is the read-only contract required from the host general ledger.
type Ledger interface {
	// GetJournal returns utils.ErrorRecordNotFound when the journal is not in the company.
	GetJournal(ctx context.Context, companyId int, journalId int) (*AccountJournal, error)
	// GetJournals skips ids that are not in the company; order is unspecified.
	GetJournals(ctx context.Context, companyId int, journalIds []int) ([]*AccountJournal, error)
	ListBankJournals(ctx context.Context, companyId int) ([]*AccountJournal, error)
	// GetCompanyCurrency returns utils.ErrorRecordNotFound when the company has no currency.
	GetCompanyCurrency(ctx context.Context, companyId int) (*Currency, error)
	AggregateLines(ctx context.Context, predicates ...LinePredicate) (LineTotals, error)
	// FindLines orders by (date, id) ascending.
	FindLines(ctx context.Context, predicates ...LinePredicate) ([]*LedgerLine, error)
}
