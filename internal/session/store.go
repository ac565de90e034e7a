package session

import (
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	ginsessions "github.com/gin-contrib/sessions"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// Store は Backend にセッション値を保存し、クッキーには署名済みのIDだけを書き込みます。
type Store struct {
	backend Backend
	codecs  []securecookie.Codec
	options *sessions.Options
}

var _ ginsessions.Store = (*Store)(nil)

// NewStore は Store を作成します。keyPairs は securecookie.CodecsFromPairs と同じ形式です。
func NewStore(backend Backend, keyPairs ...[]byte) *Store {
	s := &Store{
		backend: backend,
		codecs:  securecookie.CodecsFromPairs(keyPairs...),
		options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(time.Hour.Seconds()),
			HttpOnly: true,
		},
	}
	s.setCodecMaxAge(s.options.MaxAge)
	return s
}

// Options は以降に作成されるセッションのクッキー属性を設定します。
func (s *Store) Options(opts ginsessions.Options) {
	s.options = opts.ToGorillaOptions()
	s.setCodecMaxAge(s.options.MaxAge)
}

func (s *Store) setCodecMaxAge(age int) {
	if age <= 0 {
		return
	}
	for _, codec := range s.codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

// Get はリクエスト単位のレジストリからセッションを返します。
// 同じリクエスト内で2回目以降に呼ぶと、初回の読み込みエラーも含めて同じ結果を返します。
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New はクッキーのIDから Backend のセッションを読み込みます。
// クッキーが無い・署名が不正・期限切れの場合は新しい空のセッションを返します。
// Backend の障害だけはエラーとして返します。
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return session, nil
	}

	values, err := s.backend.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return session, nil
		}
		return session, fmt.Errorf("failed to load session: %w", err)
	}

	session.ID = id
	for k, v := range values {
		session.Values[k] = v
	}
	session.IsNew = false
	return session, nil
}

// Save はセッションを Backend に書き込み、IDクッキーを発行します。
// MaxAge が0以下の場合はセッションを破棄してクッキーを失効させます。
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge <= 0 {
		if session.ID != "" {
			if err := s.backend.Destroy(r.Context(), session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		id, err := newSessionID()
		if err != nil {
			return err
		}
		session.ID = id
	}

	values := make(map[string]any, len(session.Values))
	for k, v := range session.Values {
		key, ok := k.(string)
		if !ok {
			return fmt.Errorf("session key %v is not a string", k)
		}
		values[key] = v
	}

	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.backend.Set(r.Context(), session.ID, values, ttl); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func newSessionID() (string, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", errors.New("failed to generate session id")
	}
	return strings.TrimRight(base32.StdEncoding.EncodeToString(key), "="), nil
}
