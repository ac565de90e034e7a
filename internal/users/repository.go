package users

import (
	"context"
	"fmt"
)

// Repository はユーザーコレクションへのアクセスを抽象化します。
//
// email は一意制約を持たないため、FindByEmail は一致したすべてのレコードを返します。
type Repository interface {
	Insert(ctx context.Context, user *User) (*User, error)
	FindByEmail(ctx context.Context, email string) ([]*User, error)
	List(ctx context.Context) ([]*User, error)
	// SetType は email に一致するすべてのレコードの userType を更新し、更新件数を返します。
	SetType(ctx context.Context, email string, userType Type) (int64, error)
}

// FindOne は email に一致するユーザーがちょうど1件の場合だけそのユーザーを返します。
// 0件なら ErrNotFound、複数件なら ErrAmbiguous を返します。
func FindOne(ctx context.Context, repo Repository, email string) (*User, error) {
	found, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %d records", ErrAmbiguous, len(found))
	}
}
