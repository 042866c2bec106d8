package service

import (
	"encoding/json"
	"time"
)

// ReconciliationSnapshot captures one scan's divergence sets along with
// when they were computed. The UI pattern of "scan now, act minutes
// later" means any snapshot may be stale by the time a repair runs, so
// the engine re-validates snapshot entries against fresh listings
// before acting on them. Snapshots are cached in Redis per session;
// nothing else is persisted between reconciliation runs.
type ReconciliationSnapshot struct {
	SessionID       string    `json:"session_id"`
	Scope           Scope     `json:"scope"`
	TakenAt         time.Time `json:"taken_at"`
	OrphanKeys      []string  `json:"orphan_keys,omitempty"`
	BrokenRecordIDs []int64   `json:"broken_record_ids,omitempty"`
}

func NewReconciliationSnapshot(sessionID string, scope Scope) *ReconciliationSnapshot {
	return &ReconciliationSnapshot{
		SessionID: sessionID,
		Scope:     scope,
		TakenAt:   time.Now().UTC(),
	}
}

func ReconciliationSnapshotFromJSON(jsonData []byte) (*ReconciliationSnapshot, error) {
	snap := &ReconciliationSnapshot{}
	err := json.Unmarshal(jsonData, snap)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (snap *ReconciliationSnapshot) ToJSON() ([]byte, error) {
	return json.Marshal(snap)
}

// Age returns how long ago this snapshot was taken.
func (snap *ReconciliationSnapshot) Age() time.Duration {
	return time.Since(snap.TakenAt)
}
