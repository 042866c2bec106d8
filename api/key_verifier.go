package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/tunevault/library-services/constants"
)

// APIKeyVerifier is the stand-in for the external session layer in
// deployments where the admin API sits behind a gateway that has
// already authenticated the user. The gateway forwards a shared key
// plus the user and session ids it resolved.
type APIKeyVerifier struct {
	Key string
}

func NewAPIKeyVerifier(key string) *APIKeyVerifier {
	return &APIKeyVerifier{Key: key}
}

// Verify checks the X-Admin-API-Key header against the configured key.
// X-Admin-User carries the acting user's id and X-Session-ID the
// gateway session, which keys the scan snapshot cache.
func (v *APIKeyVerifier) Verify(r *http.Request) (*Session, error) {
	if v.Key == "" {
		return nil, fmt.Errorf("no admin API key is configured")
	}
	supplied := r.Header.Get("X-Admin-API-Key")
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(v.Key)) != 1 {
		return nil, fmt.Errorf("invalid admin API key")
	}
	userID := r.Header.Get("X-Admin-User")
	if userID == "" {
		return nil, fmt.Errorf("missing X-Admin-User header")
	}
	sessionID := r.Header.Get("X-Session-ID")
	if sessionID == "" {
		sessionID = userID
	}
	return &Session{
		ID:     sessionID,
		UserID: userID,
		Role:   constants.RoleAdmin,
	}, nil
}
