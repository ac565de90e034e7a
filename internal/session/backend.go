// Package session はサーバー側に保存するセッションストアを提供します。
//
// クッキーには署名済みのセッションIDだけを載せ、値そのものは Backend に保存します。
// Store は gorilla/sessions と gin-contrib/sessions の Store インターフェースを実装するため、
// ハンドラーからは sessions.Default(c) でこれまで通り扱えます。
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound はセッションが存在しない、または期限切れであることを示します。
var ErrNotFound = errors.New("session not found")

// Backend はセッションレコードの保存先です。
// セッションの更新は Get → 変更 → Set の読み込み・変更・書き込みで行います。
type Backend interface {
	// Get は id のセッション値を返します。存在しない場合は ErrNotFound を返します。
	Get(ctx context.Context, id string) (map[string]any, error)
	// Set は id のセッション値を丸ごと置き換え、ttl 後に失効させます。
	Set(ctx context.Context, id string, values map[string]any, ttl time.Duration) error
	// Destroy は id のセッションを削除します。存在しなくてもエラーにはしません。
	Destroy(ctx context.Context, id string) error
}
