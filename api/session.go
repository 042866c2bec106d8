package api

import (
	ctx "context"
	"net/http"

	"github.com/tunevault/library-services/constants"
)

// Session identifies an authenticated caller. The authentication layer
// itself lives outside this service; we only consume its verdict.
type Session struct {
	ID     string
	UserID string
	Role   string
}

func (s *Session) IsAdmin() bool {
	return s.Role == constants.RoleAdmin
}

// SessionVerifier resolves a request to an authenticated session.
// Implementations should return an error for missing, expired, or
// otherwise invalid credentials.
type SessionVerifier interface {
	Verify(r *http.Request) (*Session, error)
}

type contextKey int

const sessionKey contextKey = 0

// SessionFromRequest returns the session the auth middleware attached,
// or nil on routes that skipped authentication.
func SessionFromRequest(r *http.Request) *Session {
	session, _ := r.Context().Value(sessionKey).(*Session)
	return session
}

// requireAdmin authenticates the request and rejects non-admins.
// 401 means no valid session at all; 403 means a real user without
// the admin role. The distinction matters to the UI, which sends
// 401s to the login page and shows 403s as-is.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.Sessions.Verify(r)
		if err != nil || session == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !session.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx.WithValue(r.Context(), sessionKey, session)))
	})
}
