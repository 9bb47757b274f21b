package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/bank_recon_report/config"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

const (
	reportCachePrefix = "bank_recon:v1"
	reportLockTTL     = 30 * time.Second
)

func reportCacheKey(rc ReportContext, input BankReconciliationInput) string {
	showDetails := input.ShowDetails == nil || *input.ShowDetails
	return fmt.Sprintf("%s:%d:%d:%s:%s:%s:%t",
		reportCachePrefix,
		rc.CompanyId,
		input.Journal.ID,
		input.DateFrom.String(),
		input.DateTo.String(),
		input.BankBalance.String(),
		showDetails,
	)
}

func cacheGet[T any](ctx context.Context, key string, dest *T) (bool, error) {
	return config.GetRedisObject(ctx, key, dest)
}

func cacheSet(ctx context.Context, key string, obj any, ttl time.Duration) error {
	return config.SetRedisObject(ctx, key, obj, ttl)
}

func (b *ReconciliationReportBuilder) cachedReport(ctx context.Context, key string) (*BankReconciliationReport, bool) {
	var cached BankReconciliationReport
	hit, err := cacheGet(ctx, key, &cached)
	if err != nil {
		config.LogError(b.logger, "reports", "cachedReport", "cacheGet", key, err)
		// an entry that no longer decodes is dropped so the recompute can replace it
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			if delErr := config.RemoveRedisKey(ctx, key); delErr != nil {
				config.LogError(b.logger, "reports", "cachedReport", "RemoveRedisKey", key, delErr)
			}
		}
		return nil, false
	}
	if !hit {
		return nil, false
	}
	return &cached, true
}

// obtainReportLock serializes cache fills for one key. It is best-effort: when redis is
// unavailable or the lock is held elsewhere the caller computes the report anyway.
func obtainReportLock(ctx context.Context, logger *logrus.Logger, key string) (release func()) {
	noop := func() {}
	redisLock := config.GetRedisLock()
	if redisLock == nil {
		return noop
	}
	lock, err := redisLock.Obtain(ctx, "lock:"+key, reportLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if err != nil {
		if !errors.Is(err, redislock.ErrNotObtained) {
			logger.WithFields(logrus.Fields{
				"module": "reports",
				"key":    key,
			}).Warn("error obtaining report lock; computing without it: " + err.Error())
		}
		return noop
	}
	return func() {
		// the caller's ctx may already be done
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			logger.WithFields(logrus.Fields{
				"module": "reports",
				"key":    key,
			}).Warn("failed to release report lock: " + releaseErr.Error())
		}
	}
}
