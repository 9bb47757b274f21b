package middlewares

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/bank_recon_report/models"
	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	journalByIDLoader *dataloader.Loader[int, *models.AccountJournal]
}

// NewLoaders instantiates data loaders scoped to one company
func NewLoaders(ledger models.Ledger, companyId int) *Loaders {
	journalByIDReader := &journalByIDReader{ledger: ledger, companyId: companyId}

	return &Loaders{
		journalByIDLoader: dataloader.NewBatchedLoader(journalByIDReader.getJournalsByID, dataloader.WithWait[int, *models.AccountJournal](time.Millisecond)),
	}
}

// LoaderMiddleware must run after AuthMiddleware.
func LoaderMiddleware(ledger models.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyId, _ := utils.GetCompanyIdFromContext(c.Request.Context())
		loader := NewLoaders(ledger, companyId)
		c.Request = c.Request.WithContext(WithLoaders(c.Request.Context(), loader))
		c.Next()
	}
}

func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}
