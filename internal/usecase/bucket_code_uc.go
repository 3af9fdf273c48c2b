// File: internal/usecase/bucket_code_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"cgn-operator-search/internal/domain"
	"cgn-operator-search/internal/domain/model"
	"cgn-operator-search/internal/domain/ports/repository"
	"cgn-operator-search/internal/infra/metrics"
	"cgn-operator-search/internal/infra/worker"
)

// Compile-time check
var _ BucketCodeUseCase = (*bucketCodeUC)(nil)

type BucketCodeUseCase interface {
	// Allocate hands out one unused code of the discount. It returns
	// domain.ErrNotFound once the bucket is exhausted.
	Allocate(ctx context.Context, discountID string) (string, error)
	// FetchAndLockBatch marks up to size unused codes as used in one
	// transaction and returns them. An exhausted bucket yields no rows and no error.
	FetchAndLockBatch(ctx context.Context, discountID string, size int) ([]*model.BucketCode, error)
}

// TaskSubmitter runs background work; *worker.Pool satisfies it.
type TaskSubmitter interface {
	Submit(task worker.Task) error
}

type BucketCodeOptions struct {
	// LockLimit is how many codes one store round trip reserves when a cache is in front.
	LockLimit int
	// PushTimeout bounds each attempt to stash surplus codes in the cache.
	PushTimeout time.Duration
}

type bucketCodeUC struct {
	codes       repository.BucketCodeRepository
	pool        repository.CodePool
	tm          repository.TransactionManager
	refill      TaskSubmitter
	lockLimit   int
	pushTimeout time.Duration
	log         *zerolog.Logger
}

// errEmptyBatch aborts the transaction when nothing is left to lock.
var errEmptyBatch = errors.New("no unused bucket codes")

// NewBucketCodeUseCase wires the allocation engine. A nil pool runs without a
// cache and reserves one code per request; a nil refill pushes surplus codes
// inline instead of in the background.
func NewBucketCodeUseCase(
	codes repository.BucketCodeRepository,
	pool repository.CodePool,
	tm repository.TransactionManager,
	refill TaskSubmitter,
	opts BucketCodeOptions,
	logger *zerolog.Logger,
) *bucketCodeUC {
	if opts.LockLimit <= 0 {
		opts.LockLimit = 100
	}
	if opts.PushTimeout <= 0 {
		opts.PushTimeout = 2 * time.Second
	}
	l := logger.With().Str("component", "BucketCodeUC").Logger()
	return &bucketCodeUC{
		codes:       codes,
		pool:        pool,
		tm:          tm,
		refill:      refill,
		lockLimit:   opts.LockLimit,
		pushTimeout: opts.PushTimeout,
		log:         &l,
	}
}

func (u *bucketCodeUC) Allocate(ctx context.Context, discountID string) (string, error) {
	discountID = strings.TrimSpace(discountID)
	if discountID == "" {
		return "", domain.ErrInvalidArgument
	}
	log := u.log.With().Str("discount_id", discountID).Logger()

	size := 1
	if u.pool != nil {
		size = u.lockLimit
		code, ok, err := u.pool.PopOne(ctx, discountID)
		switch {
		case err != nil:
			// A cache outage degrades to the store path.
			log.Warn().Err(err).Msg("code pool unavailable, falling back to store")
		case ok:
			metrics.IncBucketCodeAllocation("cache", "ok")
			log.Debug().Msg("bucket code served from cache")
			return code, nil
		default:
			log.Debug().Msg("code pool empty")
		}
	}

	batch, err := u.FetchAndLockBatch(ctx, discountID, size)
	if err != nil {
		metrics.IncBucketCodeAllocation("store", "error")
		log.Error().Err(err).Int("size", size).Msg("bucket code fetch failed")
		return "", err
	}
	if len(batch) == 0 {
		metrics.IncBucketCodeAllocation("store", "not_found")
		return "", domain.ErrNotFound
	}

	if rest := batch[1:]; len(rest) > 0 {
		surplus := make([]string, len(rest))
		for i, c := range rest {
			surplus[i] = c.Code
		}
		u.stash(ctx, discountID, surplus)
	}
	metrics.IncBucketCodeAllocation("store", "ok")
	log.Debug().Int("batch", len(batch)).Msg("bucket code served from store")
	return batch[0].Code, nil
}

func (u *bucketCodeUC) FetchAndLockBatch(ctx context.Context, discountID string, size int) ([]*model.BucketCode, error) {
	if size <= 0 {
		size = 1
	}

	var batch []*model.BucketCode
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		codes, err := u.codes.SelectUnusedForUpdate(ctx, tx, discountID, size)
		if err != nil {
			return err
		}
		if len(codes) == 0 {
			return errEmptyBatch
		}

		keys := make([]int64, len(codes))
		for i, c := range codes {
			keys[i] = c.Key
		}
		n, err := u.codes.MarkUsed(ctx, tx, keys)
		if err != nil {
			return err
		}
		if n != int64(len(keys)) {
			return fmt.Errorf("%w: updated %d of %d", domain.ErrCodeUpdateMismatch, n, len(keys))
		}
		batch = codes
		return nil
	})

	switch {
	case err == nil:
		metrics.ObserveBucketCodeBatch(len(batch))
		return batch, nil
	case errors.Is(err, errEmptyBatch) && !errors.Is(err, domain.ErrRollbackFailed):
		metrics.IncTxRollback("empty")
		return nil, nil
	case errors.Is(err, domain.ErrCodeUpdateMismatch):
		metrics.IncTxRollback("mismatch")
	default:
		metrics.IncTxRollback("error")
	}
	return nil, fmt.Errorf("fetch bucket codes: %w", err)
}

// stash parks surplus codes in the cache. They are already used in the store,
// so a failed push burns them; the caller's code is unaffected.
func (u *bucketCodeUC) stash(ctx context.Context, discountID string, codes []string) {
	push := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.pushTimeout)
		defer cancel()
		ok, err := u.pool.PushMany(ctx, discountID, codes)
		if err != nil || !ok {
			metrics.AddBucketCodesBurned(len(codes))
			u.log.Warn().Err(err).Str("discount_id", discountID).Int("burned", len(codes)).Msg("could not stash surplus bucket codes")
		}
		return nil // burned codes are logged above, keep the pool quiet
	}

	if u.refill != nil {
		err := u.refill.Submit(push)
		if err == nil {
			return
		}
		u.log.Debug().Err(err).Msg("refill queue unavailable, pushing inline")
	}
	_ = push(ctx)
}
