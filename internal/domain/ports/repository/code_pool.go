package repository

import "context"

// CodePool is the volatile per-discount reserve of codes already marked used
// in the store. Transport failures are reported as errors wrapping
// domain.ErrCacheUnavailable; an empty or missing list is not an error.
type CodePool interface {
	// PopOne removes the head of the reserve. ok is false when the reserve is empty.
	PopOne(ctx context.Context, discountID string) (code string, ok bool, err error)
	// PushMany appends codes to the reserve, keeping their order.
	PushMany(ctx context.Context, discountID string, codes []string) (bool, error)
}
