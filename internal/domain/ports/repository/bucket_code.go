package repository

import (
	"context"

	"cgn-operator-search/internal/domain/model"
)

// BucketCodeRepository is the port over the durable discount_bucket_code table.
type BucketCodeRepository interface {
	// SelectUnusedForUpdate locks up to limit unused codes of a discount, in key
	// order, skipping rows already locked by concurrent transactions.
	// It must run inside a transaction.
	SelectUnusedForUpdate(ctx context.Context, tx Tx, discountID string, limit int) ([]*model.BucketCode, error)
	// MarkUsed flags the given keys as used and reports how many rows changed.
	MarkUsed(ctx context.Context, tx Tx, keys []int64) (int64, error)
}
