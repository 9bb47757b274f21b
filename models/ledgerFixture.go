package models

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type fixtureCompany struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Currency *Currency `json:"currency"`
}

type ledgerFixture struct {
	Companies []fixtureCompany `json:"companies"`
	Journals  []AccountJournal `json:"journals"`
	Lines     []LedgerLine     `json:"lines"`
}

// decodeLedgerFixture reads
// {"companies":[{"id":1,"name":"...","currency":{...}}],"journals":[...],"lines":[...]}.
// Lines without a move_state are taken as posted.
func decodeLedgerFixture(r io.Reader) (*ledgerFixture, error) {
	var fx ledgerFixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode ledger fixture: %w", err)
	}
	for _, j := range fx.Journals {
		if !j.Type.IsValid() {
			return nil, fmt.Errorf("journal %d: invalid type %q", j.ID, j.Type)
		}
	}
	for i := range fx.Lines {
		l := &fx.Lines[i]
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return nil, fmt.Errorf("line %d: debit and credit must not be negative", l.ID)
		}
		if l.MoveState == "" {
			l.MoveState = MoveStatePosted
		}
	}
	return &fx, nil
}

// SeedLedgerFixture writes a fixture into the ledger mirror tables, upserting by id.
// Partners are matched by name. Lines sharing a move_id share one move; a zero
// move_id gets a move of its own.
func SeedLedgerFixture(ctx context.Context, db *gorm.DB, r io.Reader) error {
	fx, err := decodeLedgerFixture(r)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := func(v interface{}) error {
			return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(v).Error
		}

		for _, c := range fx.Companies {
			company := Company{ID: c.ID, Name: utils.FirstNonEmpty(c.Name, fmt.Sprintf("Company %d", c.ID))}
			if c.Currency != nil {
				currency := *c.Currency
				if currency.ID == 0 {
					currency.ID = c.ID
				}
				if err := upsert(&currency); err != nil {
					return err
				}
				company.CurrencyId = currency.ID
			}
			if err := upsert(&company); err != nil {
				return err
			}
		}

		for i := range fx.Journals {
			if err := upsert(&fx.Journals[i]); err != nil {
				return err
			}
		}

		partners := map[string]int{}
		seenMoves := map[int]bool{}
		for _, l := range fx.Lines {
			var partnerId *int
			if l.PartnerName != "" {
				id, ok := partners[l.PartnerName]
				if !ok {
					var partner Partner
					if err := tx.Where(Partner{Name: l.PartnerName}).FirstOrCreate(&partner).Error; err != nil {
						return err
					}
					id = partner.ID
					partners[l.PartnerName] = id
				}
				partnerId = &id
			}

			moveId := l.MoveId
			if moveId == 0 || !seenMoves[moveId] {
				move := AccountMove{
					ID:        moveId,
					CompanyId: l.CompanyId,
					JournalId: l.JournalId,
					Name:      l.MoveName,
					Ref:       l.MoveRef,
					Date:      l.Date,
					State:     l.MoveState,
				}
				if err := upsert(&move); err != nil {
					return err
				}
				moveId = move.ID
				seenMoves[moveId] = true
			}

			line := AccountMoveLine{
				ID:              l.ID,
				CompanyId:       l.CompanyId,
				MoveId:          moveId,
				JournalId:       l.JournalId,
				AccountId:       l.AccountId,
				PartnerId:       partnerId,
				PaymentId:       l.PaymentId,
				StatementLineId: l.StatementLineId,
				Date:            l.Date,
				Name:            l.Name,
				Ref:             l.Ref,
				Debit:           l.Debit,
				Credit:          l.Credit,
				Balance:         l.Debit.Sub(l.Credit),
			}
			if err := upsert(&line); err != nil {
				return err
			}
		}
		return nil
	})
}
