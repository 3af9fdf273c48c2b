//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cgn-operator-search/internal/domain"

	"github.com/go-redis/redis/v8"
)

// memList is an in-memory RedisClient holding lists only.
type memList struct {
	mu    sync.Mutex
	lists map[string][]string
	err   error
}

func newMemList() *memList { return &memList{lists: map[string][]string{}} }

func (m *memList) Ping(ctx context.Context) error { return m.err }
func (m *memList) Close() error                   { return nil }

func (m *memList) LPop(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	l := m.lists[key]
	if len(l) == 0 {
		return "", redis.Nil
	}
	m.lists[key] = l[1:]
	return l[0], nil
}

func (m *memList) RPush(ctx context.Context, key string, values ...interface{}) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	for _, v := range values {
		m.lists[key] = append(m.lists[key], v.(string))
	}
	return int64(len(m.lists[key])), nil
}

func TestCodePool(t *testing.T) {
	ctx := context.Background()

	t.Run("should report an empty reserve without error", func(t *testing.T) {
		pool := NewCodePool(newMemList())
		code, ok, err := pool.PopOne(ctx, "1")
		if err != nil || ok || code != "" {
			t.Fatalf("expected empty, got %q %v %v", code, ok, err)
		}
	})

	t.Run("should pop pushed codes in push order", func(t *testing.T) {
		pool := NewCodePool(newMemList())
		ok, err := pool.PushMany(ctx, "1", []string{"B", "C"})
		if err != nil || !ok {
			t.Fatalf("push: %v %v", ok, err)
		}
		for _, want := range []string{"B", "C"} {
			got, ok, err := pool.PopOne(ctx, "1")
			if err != nil || !ok || got != want {
				t.Fatalf("expected %s, got %q %v %v", want, got, ok, err)
			}
		}
		if _, ok, _ := pool.PopOne(ctx, "1"); ok {
			t.Error("expected reserve to be drained")
		}
	})

	t.Run("should keep discounts apart", func(t *testing.T) {
		pool := NewCodePool(newMemList())
		_, _ = pool.PushMany(ctx, "1", []string{"X"})
		if _, ok, _ := pool.PopOne(ctx, "2"); ok {
			t.Error("discount 2 must not see discount 1 codes")
		}
	})

	t.Run("should treat an empty push as a no-op", func(t *testing.T) {
		mem := newMemList()
		mem.err = errors.New("must not be called")
		ok, err := NewCodePool(mem).PushMany(ctx, "1", nil)
		if err != nil || ok {
			t.Fatalf("expected false, nil; got %v %v", ok, err)
		}
	})

	t.Run("should flag transport failures as cache unavailable", func(t *testing.T) {
		mem := newMemList()
		mem.err = errors.New("dial tcp: connection refused")
		pool := NewCodePool(mem)

		if _, _, err := pool.PopOne(ctx, "1"); !errors.Is(err, domain.ErrCacheUnavailable) {
			t.Errorf("pop: expected ErrCacheUnavailable, got %v", err)
		}
		if _, err := pool.PushMany(ctx, "1", []string{"A"}); !errors.Is(err, domain.ErrCacheUnavailable) {
			t.Errorf("push: expected ErrCacheUnavailable, got %v", err)
		}
	})
}
