package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cgn-operator-search/internal/domain"
	"cgn-operator-search/internal/domain/model"
	"cgn-operator-search/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.BucketCodeRepository = (*bucketCodeRepo)(nil)

type bucketCodeRepo struct {
	pool *pgxpool.Pool
}

func NewBucketCodeRepo(pool *pgxpool.Pool) repository.BucketCodeRepository {
	return &bucketCodeRepo{pool: pool}
}

const selectUnusedBucketCodes = `
SELECT bucket_code_k, discount_fk, code, used, bucket_code_load_id
  FROM discount_bucket_code
 WHERE discount_fk = $1
   AND NOT used
 ORDER BY bucket_code_k ASC
 LIMIT $2
   FOR UPDATE
  SKIP LOCKED;`

const markBucketCodesUsed = `
UPDATE discount_bucket_code
   SET used = true
 WHERE bucket_code_k = ANY($1);`

// SelectUnusedForUpdate only makes sense under a transaction: the row locks
// are what keep concurrent callers on disjoint codes.
func (r *bucketCodeRepo) SelectUnusedForUpdate(ctx context.Context, tx repository.Tx, discountID string, limit int) ([]*model.BucketCode, error) {
	if _, ok := tx.(pgx.Tx); !ok {
		return nil, domain.ErrInvalidExecContext
	}
	discountFK, err := strconv.ParseInt(strings.TrimSpace(discountID), 10, 64)
	if err != nil || limit <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	rows, err := queryRows(ctx, r.pool, tx, selectUnusedBucketCodes, discountFK, limit)
	if err != nil {
		return nil, fmt.Errorf("select bucket codes: %w", err)
	}
	defer rows.Close()

	codes := make([]*model.BucketCode, 0, limit)
	for rows.Next() {
		var (
			c  model.BucketCode
			fk int64
		)
		if err := rows.Scan(&c.Key, &fk, &c.Code, &c.Used, &c.LoadID); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		c.DiscountID = strconv.FormatInt(fk, 10)
		codes = append(codes, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select bucket codes: %w", err)
	}
	return codes, nil
}

func (r *bucketCodeRepo) MarkUsed(ctx context.Context, tx repository.Tx, keys []int64) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	tag, err := execSQL(ctx, r.pool, tx, markBucketCodesUsed, keys)
	if err != nil {
		return 0, fmt.Errorf("mark bucket codes used: %w", err)
	}
	return tag.RowsAffected(), nil
}
