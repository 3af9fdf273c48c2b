//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"cgn-operator-search/internal/domain"
	"cgn-operator-search/internal/domain/model"
	"cgn-operator-search/internal/domain/ports/repository"
	"cgn-operator-search/internal/infra/worker"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- In-memory transactional code store ----

// memTx is the tx handle handed to repository calls by MockTxManager.
type memTx struct {
	locked  []int64
	pending []int64
}

// MockCodeStore keeps bucket codes in memory with row locks that mimic
// FOR UPDATE SKIP LOCKED: locked rows are invisible to other transactions
// until commit or rollback.
type MockCodeStore struct {
	mu       sync.Mutex
	rows     []*model.BucketCode
	lockedBy map[int64]*memTx
	nextKey  int64

	Selects int

	SelectErr   error
	MarkErr     error
	ShortUpdate int64 // MarkUsed under-reports by this many rows
}

var _ repository.BucketCodeRepository = (*MockCodeStore)(nil)

func NewMockCodeStore() *MockCodeStore {
	return &MockCodeStore{lockedBy: map[int64]*memTx{}}
}

func (s *MockCodeStore) Seed(discountID string, codes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range codes {
		s.nextKey++
		s.rows = append(s.rows, &model.BucketCode{Key: s.nextKey, DiscountID: discountID, Code: c, LoadID: 1})
	}
}

func (s *MockCodeStore) SelectUnusedForUpdate(ctx context.Context, tx repository.Tx, discountID string, limit int) ([]*model.BucketCode, error) {
	t, ok := tx.(*memTx)
	if !ok {
		return nil, domain.ErrInvalidExecContext
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Selects++
	if s.SelectErr != nil {
		return nil, s.SelectErr
	}

	var out []*model.BucketCode
	for _, r := range s.rows {
		if len(out) == limit {
			break
		}
		if r.DiscountID != discountID || r.Used || s.lockedBy[r.Key] != nil {
			continue
		}
		s.lockedBy[r.Key] = t
		t.locked = append(t.locked, r.Key)
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MockCodeStore) MarkUsed(ctx context.Context, tx repository.Tx, keys []int64) (int64, error) {
	t, ok := tx.(*memTx)
	if !ok {
		return 0, domain.ErrInvalidExecContext
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MarkErr != nil {
		return 0, s.MarkErr
	}
	t.pending = append(t.pending, keys...)
	return int64(len(keys)) - s.ShortUpdate, nil
}

func (s *MockCodeStore) finish(t *memTx, commit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if commit {
		used := map[int64]bool{}
		for _, k := range t.pending {
			used[k] = true
		}
		for _, r := range s.rows {
			if used[r.Key] {
				r.Used = true
			}
		}
	}
	for _, k := range t.locked {
		delete(s.lockedBy, k)
	}
}

func (s *MockCodeStore) UsedCount(discountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rows {
		if r.DiscountID == discountID && r.Used {
			n++
		}
	}
	return n
}

// ---- Mock TransactionManager over MockCodeStore ----

type MockTxManager struct {
	store *MockCodeStore

	mu        sync.Mutex
	open      int
	Commits   int
	Rollbacks int

	RollbackErr error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager(store *MockCodeStore) *MockTxManager {
	return &MockTxManager{store: store}
}

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	t := &memTx{}
	m.mu.Lock()
	m.open++
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.open--
		m.mu.Unlock()
	}()

	if err := fn(ctx, t); err != nil {
		m.store.finish(t, false)
		m.mu.Lock()
		m.Rollbacks++
		m.mu.Unlock()
		if m.RollbackErr != nil {
			return errors.Join(err, fmt.Errorf("%w: %w", domain.ErrRollbackFailed, m.RollbackErr))
		}
		return err
	}
	m.store.finish(t, true)
	m.mu.Lock()
	m.Commits++
	m.mu.Unlock()
	return nil
}

func (m *MockTxManager) Open() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// ---- In-memory CodePool ----

type MockCodePool struct {
	mu    sync.Mutex
	lists map[string][]string

	Pops   int
	Pushes int

	PopErr  error
	PushErr error
}

var _ repository.CodePool = (*MockCodePool)(nil)

func NewMockCodePool() *MockCodePool {
	return &MockCodePool{lists: map[string][]string{}}
}

func (p *MockCodePool) PopOne(ctx context.Context, discountID string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Pops++
	if p.PopErr != nil {
		return "", false, fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, p.PopErr)
	}
	l := p.lists[discountID]
	if len(l) == 0 {
		return "", false, nil
	}
	p.lists[discountID] = l[1:]
	return l[0], true, nil
}

func (p *MockCodePool) PushMany(ctx context.Context, discountID string, codes []string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Pushes++
	if p.PushErr != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, p.PushErr)
	}
	p.lists[discountID] = append(p.lists[discountID], codes...)
	return len(codes) > 0, nil
}

func (p *MockCodePool) Reserve(discountID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := append([]string(nil), p.lists[discountID]...)
	sort.Strings(out)
	return out
}

// ---- Task submitter ----

// MockSubmitter queues tasks until RunAll, or rejects them with Err.
type MockSubmitter struct {
	mu    sync.Mutex
	tasks []worker.Task
	Err   error
}

func (s *MockSubmitter) Submit(task worker.Task) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	return nil
}

func (s *MockSubmitter) RunAll(ctx context.Context) {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	for _, t := range tasks {
		_ = t(ctx)
	}
}
