// Package retry re-runs operations that failed with a transient error,
// backing off exponentially between attempts.
//
//	cfg := retry.FromConfig(appCfg.Retry, log)
//	posts, err := retry.DoWithResult(ctx, func() ([]models.Post, error) {
//		return agg.FetchMore(ctx)
//	}, cfg)
//
// Only errors accepted by Config.RetryIf are retried; DefaultRetryIf defers
// to errors.IsRetryable, so extraction failures and 4xx statuses fail fast.
package retry
