package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/klotz/summarizer-service/internal/session"
)

type sessionKey struct{}

// sessions resolves the signed session cookie, issuing a new session id when
// the cookie is missing, expired or forged.
func (s *Server) sessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(session.CookieName); err == nil {
			if decoded, err := s.codec.Decode(cookie.Value); err == nil {
				id = decoded
			}
		}
		if id == "" {
			id = uuid.NewString()
			cookie, err := s.codec.Cookie(id)
			if err != nil {
				s.log.Error().Err(err).Msg("sign session cookie")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, cookie)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
