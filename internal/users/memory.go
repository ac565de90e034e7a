package users

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemoryRepository はプロセス内にユーザーを保持する Repository 実装です。
// 開発環境とテストで使用します。
type MemoryRepository struct {
	mu      sync.RWMutex
	seq     int
	byID    map[string]*User
	failErr error
}

// NewMemoryRepository は空の MemoryRepository を作成します。
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*User)}
}

// FailWith は以降のすべての操作を err で失敗させます。バックエンド障害の再現に使います。
func (r *MemoryRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failErr = err
}

func (r *MemoryRepository) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.failErr
}

func (r *MemoryRepository) Insert(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, fmt.Errorf("user is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	r.seq++
	stored := *user
	stored.ID = strconv.Itoa(r.seq)
	if stored.UserType == "" {
		stored.UserType = TypeUser
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.byID[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	var found []*User
	for _, u := range r.sorted() {
		if u.Email == email {
			cp := *u
			found = append(found, &cp)
		}
	}
	return found, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	all := r.sorted()
	out := make([]*User, len(all))
	for i, u := range all {
		cp := *u
		out[i] = &cp
	}
	return out, nil
}

func (r *MemoryRepository) SetType(ctx context.Context, email string, userType Type) (int64, error) {
	if !userType.Valid() {
		return 0, ErrInvalidType
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return 0, err
	}

	var n int64
	for _, u := range r.byID {
		if u.Email == email {
			u.UserType = userType
			n++
		}
	}
	return n, nil
}

// sorted は挿入順（ID順）に並べたレコードを返します。呼び出し側でロックを保持してください。
func (r *MemoryRepository) sorted() []*User {
	all := make([]*User, 0, len(r.byID))
	for _, u := range r.byID {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		a, _ := strconv.Atoi(all[i].ID)
		b, _ := strconv.Atoi(all[j].ID)
		return a < b
	})
	return all
}
