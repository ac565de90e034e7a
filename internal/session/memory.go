package session

import (
	"context"
	"maps"
	"sync"
	"time"
)

type memoryRecord struct {
	values    map[string]any
	expiresAt time.Time
}

// MemoryBackend はプロセス内メモリに保存する Backend です。開発環境とテスト用です。
type MemoryBackend struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

// NewMemoryBackend は MemoryBackend を作成します。
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
}

func (b *MemoryBackend) Get(ctx context.Context, id string) (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !b.now().Before(rec.expiresAt) {
		delete(b.records, id)
		return nil, ErrNotFound
	}
	return maps.Clone(rec.values), nil
}

func (b *MemoryBackend) Set(ctx context.Context, id string, values map[string]any, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[id] = memoryRecord{
		values:    maps.Clone(values),
		expiresAt: b.now().Add(ttl),
	}
	return nil
}

func (b *MemoryBackend) Destroy(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.records, id)
	return nil
}

// Len は保存中のセッション数を返します（期限切れを含む）。
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}
