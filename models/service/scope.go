package service

import (
	"fmt"

	"github.com/tunevault/library-services/constants"
)

// Scope controls which catalog records a reconciliation pass considers:
// every record, or only those belonging to one user. The choice is
// always explicit; handlers decide, the engine just obeys.
type Scope struct {
	Kind   string `json:"kind"`
	UserID string `json:"user_id,omitempty"`
}

func GlobalScope() Scope {
	return Scope{Kind: constants.ScopeGlobal}
}

func UserScope(userID string) Scope {
	return Scope{Kind: constants.ScopeUser, UserID: userID}
}

func (s Scope) IsGlobal() bool {
	return s.Kind == constants.ScopeGlobal
}

// Validate returns an error if the scope is malformed. A user scope
// without a user id would silently degrade to an empty record set, so
// we reject it up front.
func (s Scope) Validate() error {
	switch s.Kind {
	case constants.ScopeGlobal:
		return nil
	case constants.ScopeUser:
		if s.UserID == "" {
			return fmt.Errorf("user scope requires a user id")
		}
		return nil
	}
	return fmt.Errorf("unknown scope kind %q", s.Kind)
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return constants.ScopeGlobal
	}
	return fmt.Sprintf("%s:%s", s.Kind, s.UserID)
}
