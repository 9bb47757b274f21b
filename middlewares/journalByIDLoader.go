package middlewares

import (
	"context"

	"bitbucket.org/mmdatafocus/bank_recon_report/models"
	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
	"github.com/graph-gophers/dataloader/v7"
)

type journalByIDReader struct {
	ledger    models.Ledger
	companyId int
}

func (r *journalByIDReader) getJournalsByID(ctx context.Context, ids []int) []*dataloader.Result[*models.AccountJournal] {
	results, err := r.ledger.GetJournals(ctx, r.companyId, ids)
	if err != nil {
		return handleError[*models.AccountJournal](len(ids), err)
	}

	resultMap := make(map[int]*models.AccountJournal, len(results))
	for _, j := range results {
		resultMap[j.ID] = j
	}

	loaderResults := make([]*dataloader.Result[*models.AccountJournal], 0, len(ids))
	for _, id := range ids {
		if v, ok := resultMap[id]; ok {
			loaderResults = append(loaderResults, &dataloader.Result[*models.AccountJournal]{Data: v})
		} else {
			loaderResults = append(loaderResults, &dataloader.Result[*models.AccountJournal]{Error: utils.ErrorRecordNotFound})
		}
	}
	return loaderResults
}

// GetJournal resolves a journal of the session company, batched with any concurrent lookups.
func GetJournal(ctx context.Context, id int) (*models.AccountJournal, error) {
	return LoadJournals(ctx, id)[0]()
}

// LoadJournals queues every id before returning, so all of them share one ledger query.
func LoadJournals(ctx context.Context, ids ...int) []dataloader.Thunk[*models.AccountJournal] {
	loaders := For(ctx)
	thunks := make([]dataloader.Thunk[*models.AccountJournal], len(ids))
	for i, id := range ids {
		thunks[i] = loaders.journalByIDLoader.Load(ctx, id)
	}
	return thunks
}
