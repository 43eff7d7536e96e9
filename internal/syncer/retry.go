package syncer

import (
	"context"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/pkg/log"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

// RetryPolicy bounds the exponential backoff applied to transient failures.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxElapsedTime  time.Duration
	MaxRetries      uint64
}

// DefaultRetryPolicy mirrors the CIMON_SYNC* defaults.
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: 2 * time.Second,
	MaxElapsedTime:  2 * time.Minute,
	MaxRetries:      4,
}

// Retrying wraps a Syncer for the scheduled path: providers that fail with a
// rate limit or transport error are retried with exponential backoff.
// Authentication and missing credential failures are returned as they are.
type Retrying struct {
	next   Syncer
	policy RetryPolicy
}

// NewRetrying builds a retrying syncer over next.
func NewRetrying(next Syncer, policy RetryPolicy) *Retrying {
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	if policy.MaxElapsedTime <= 0 {
		policy.MaxElapsedTime = DefaultRetryPolicy.MaxElapsedTime
	}
	return &Retrying{next: next, policy: policy}
}

func (r *Retrying) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.policy.InitialInterval
	exp.MaxElapsedTime = r.policy.MaxElapsedTime

	var b backoff.BackOff = exp
	if r.policy.MaxRetries > 0 {
		b = backoff.WithMaxRetries(b, r.policy.MaxRetries)
	}
	return backoff.WithContext(b, ctx)
}

// SyncOne syncs p, retrying transient failures.
func (r *Retrying) SyncOne(ctx context.Context, p models.Provider) ProviderResult {
	return r.retry(ctx, r.next.SyncOne(ctx, p))
}

// SyncAll syncs every registered provider, then retries the transient
// failures concurrently.
func (r *Retrying) SyncAll(ctx context.Context) Result {
	result := r.next.SyncAll(ctx)

	var g errgroup.Group
	for i := range result.Providers {
		if result.Providers[i].OK() || !provider.Retryable(result.Providers[i].Err) {
			continue
		}
		g.Go(func() error {
			result.Providers[i] = r.retry(ctx, result.Providers[i])
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func (r *Retrying) retry(ctx context.Context, first ProviderResult) ProviderResult {
	if first.OK() || !provider.Retryable(first.Err) {
		return first
	}

	var (
		last    = first
		attempt int
	)
	// the first call replays the failure already observed
	operation := func() error {
		attempt++
		if attempt > 1 {
			last = r.next.SyncOne(ctx, first.Provider)
		}
		if last.OK() {
			return nil
		}
		if !provider.Retryable(last.Err) {
			return backoff.Permanent(last.Err)
		}
		return last.Err
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("retrying provider sync", "provider", first.Provider, "error", err, "wait", wait)
	}

	_ = backoff.RetryNotify(operation, r.backOff(ctx), notify)

	return last
}
