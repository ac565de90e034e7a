package session

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// Regenerate は現在のセッションレコードを破棄し、次回の Save で新しいIDを発行させます。
// ログイン成功時に呼び出し、ログイン前のIDを引き継がないようにします。
func (s *Store) Regenerate(r *http.Request, name string) (*sessions.Session, error) {
	session, err := s.Get(r, name)
	if err != nil {
		return nil, err
	}
	if session.ID != "" {
		if err := s.backend.Destroy(r.Context(), session.ID); err != nil {
			return nil, err
		}
	}
	session.ID = ""
	session.IsNew = true
	for k := range session.Values {
		delete(session.Values, k)
	}
	return session, nil
}
