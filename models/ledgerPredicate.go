package models

import "strings"

// LinePredicate is a named filter over ledger lines with an SQL form (for GormLedger)
// and an equivalent in-memory form (for MemoryLedger). Both forms must agree.
type LinePredicate struct {
	Name  string
	query string
	args  []interface{}
	match func(l *LedgerLine) bool
}

func (p LinePredicate) SQL() (string, []interface{}) {
	return p.query, p.args
}

func (p LinePredicate) Match(l *LedgerLine) bool {
	if l == nil || p.match == nil {
		return false
	}
	return p.match(l)
}

func (p LinePredicate) String() string {
	return p.Name
}

func MatchAll(l *LedgerLine, predicates []LinePredicate) bool {
	for _, p := range predicates {
		if !p.Match(l) {
			return false
		}
	}
	return true
}

func DescribePredicates(predicates []LinePredicate) string {
	names := make([]string, 0, len(predicates))
	for _, p := range predicates {
		names = append(names, p.Name)
	}
	return strings.Join(names, ",")
}

// PostedOnly keeps lines whose move is posted; draft and cancelled moves never count.
func PostedOnly() LinePredicate {
	return LinePredicate{
		Name:  "posted_only",
		query: "account_moves.state = ?",
		args:  []interface{}{string(MoveStatePosted)},
		match: func(l *LedgerLine) bool { return l.MoveState == MoveStatePosted },
	}
}

func OnCompany(companyId int) LinePredicate {
	return LinePredicate{
		Name:  "on_company",
		query: "account_move_lines.company_id = ?",
		args:  []interface{}{companyId},
		match: func(l *LedgerLine) bool { return l.CompanyId == companyId },
	}
}

func OnJournal(journalId int) LinePredicate {
	return LinePredicate{
		Name:  "on_journal",
		query: "account_move_lines.journal_id = ?",
		args:  []interface{}{journalId},
		match: func(l *LedgerLine) bool { return l.JournalId == journalId },
	}
}

func OnAccount(accountId int) LinePredicate {
	return LinePredicate{
		Name:  "on_account",
		query: "account_move_lines.account_id = ?",
		args:  []interface{}{accountId},
		match: func(l *LedgerLine) bool { return l.AccountId == accountId },
	}
}

// DatedOnOrBefore is inclusive of d.
func DatedOnOrBefore(d MyDate) LinePredicate {
	return LinePredicate{
		Name:  "dated_on_or_before",
		query: "account_move_lines.date <= ?",
		args:  []interface{}{d.String()},
		match: func(l *LedgerLine) bool { return !l.Date.After(d) },
	}
}

// DatedBetween is inclusive of both bounds.
func DatedBetween(from MyDate, to MyDate) LinePredicate {
	return LinePredicate{
		Name:  "dated_between",
		query: "account_move_lines.date BETWEEN ? AND ?",
		args:  []interface{}{from.String(), to.String()},
		match: func(l *LedgerLine) bool { return !l.Date.Before(from) && !l.Date.After(to) },
	}
}

// HasPayment keeps lines generated by a payment.
func HasPayment() LinePredicate {
	return LinePredicate{
		Name:  "has_payment",
		query: "account_move_lines.payment_id IS NOT NULL",
		match: func(l *LedgerLine) bool { return l.PaymentId != nil },
	}
}

// NotOnStatement keeps lines not yet matched to any bank statement line.
func NotOnStatement() LinePredicate {
	return LinePredicate{
		Name:  "not_on_statement",
		query: "account_move_lines.statement_line_id IS NULL",
		match: func(l *LedgerLine) bool { return l.StatementLineId == nil },
	}
}

func DebitSide() LinePredicate {
	return LinePredicate{
		Name:  "debit_side",
		query: "account_move_lines.debit > 0",
		match: func(l *LedgerLine) bool { return l.Debit.IsPositive() },
	}
}

func CreditSide() LinePredicate {
	return LinePredicate{
		Name:  "credit_side",
		query: "account_move_lines.credit > 0",
		match: func(l *LedgerLine) bool { return l.Credit.IsPositive() },
	}
}
