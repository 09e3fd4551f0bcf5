package enumerate

import (
	"context"
	"errors"
	"fmt"

	ytdata "google.golang.org/api/youtube/v3"

	"ytanalyzer/internal/credpool"
	"ytanalyzer/internal/retry"
	"ytanalyzer/internal/youtube"
)

// issue makes exactly one remote call on the active credential, throttled,
// and records its outcome in the counters. Cancellation is honored before the
// call starts. A call already sent runs to completion, bounded by the
// client's request timeout.
func (e *Engine) issue(ctx context.Context, fn func(context.Context, youtube.API) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	api, err := e.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	if err := e.pool.Throttle(ctx); err != nil {
		return err
	}

	err = fn(context.WithoutCancel(ctx), api)
	if err == nil {
		e.quotaStreak = 0
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	e.mu.Lock()
	e.counters.LastError = err.Error()
	if youtube.IsQuotaError(err) {
		e.counters.QuotaErrors++
		e.quotaStreak++
	} else {
		e.counters.OtherErrors++
	}
	e.mu.Unlock()
	return err
}

// rotateAfterQuota switches to the next credential after a quota error. It
// reports false once every credential has failed in a row or no other
// credential exists, and marks the run exhausted.
func (e *Engine) rotateAfterQuota() bool {
	if e.quotaStreak >= e.pool.Size() || !e.pool.Rotate() {
		e.exhausted = true
		e.logger.Warn().Int("keys", e.pool.Size()).Msg("quota exhausted on every key")
		e.emit("quota", "quota exhausted on all API keys")
		return false
	}
	e.emit("quota", "quota exhausted, switching API key")
	return true
}

// call issues fn, retrying it on the next credential after each quota error
// with a pause in between. It gives up with ErrQuotaExhausted once no
// credential is left. Other errors are returned as is.
func (e *Engine) call(ctx context.Context, fn func(context.Context, youtube.API) error) error {
	for {
		if e.exhausted {
			return ErrQuotaExhausted
		}
		err := e.issue(ctx, fn)
		if err == nil || !youtube.IsQuotaError(err) {
			return err
		}
		if !e.rotateAfterQuota() {
			return fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
		}
		if err := e.sleep(ctx, e.tuning.RotationPause); err != nil {
			return err
		}
	}
}

// fetchDetails looks up the uncached identifiers among ids in batches of
// youtube.PageSize and ingests the results. A batch that keeps failing is
// dropped and its identifiers are forgotten, so a later walk that meets them
// requests them again. ErrQuotaExhausted aborts the remaining batches.
func (e *Engine) fetchDetails(ctx context.Context, ids []string) error {
	ids = e.cache.Unknown(ids)
	cfg := retry.Fixed(e.tuning.DetailAttempts, e.tuning.RotationPause)

	for start := 0; start < len(ids); start += youtube.PageSize {
		end := min(start+youtube.PageSize, len(ids))
		batch := ids[start:end]

		var items []*ytdata.Video
		err := retry.Do(ctx, cfg, retry.IsRetryable, func(ctx context.Context) error {
			if e.exhausted {
				return retry.Permanent(ErrQuotaExhausted)
			}
			err := e.issue(ctx, func(ctx context.Context, api youtube.API) error {
				v, err := api.VideoDetails(ctx, batch)
				items = v
				return err
			})
			switch {
			case err == nil:
				return nil
			case errors.Is(err, credpool.ErrNoCredentials):
				return retry.Permanent(err)
			case youtube.IsQuotaError(err):
				if !e.rotateAfterQuota() {
					return retry.Permanent(fmt.Errorf("%w: %v", ErrQuotaExhausted, err))
				}
			}
			return err
		})
		if err != nil {
			e.unmarkSeen(batch)
			if errors.Is(err, ErrQuotaExhausted) || ctx.Err() != nil {
				return err
			}
			e.logger.Warn().Err(err).Int("ids", len(batch)).Msg("giving up on details batch")
			continue
		}

		stats := e.cache.IngestBatch(items)
		e.mu.Lock()
		e.counters.DetailBatches++
		e.counters.MalformedRecords += stats.Skipped
		e.mu.Unlock()
	}
	return nil
}
