package reconcile

import (
	ctx "context"
	"fmt"
	"time"

	"github.com/tunevault/library-services/models/catalog"
	"github.com/tunevault/library-services/models/service"
)

// SnapshotStore caches the most recent scan result per admin session.
// The network.RedisClient satisfies this.
type SnapshotStore interface {
	SnapshotSave(snap *service.ReconciliationSnapshot, maxAge time.Duration) error
	SnapshotGet(sessionID string) (*service.ReconciliationSnapshot, error)
	SnapshotDelete(sessionID string) error
}

// DefaultSnapshotMaxAge applies when SNAPSHOT_MAX_AGE is not set. The
// admin UI shows scan results in a modal and lets the user act on them
// later; anything older than this is too stale to trust even after
// revalidation.
const DefaultSnapshotMaxAge = 30 * time.Minute

func (e *Engine) snapshotMaxAge() time.Duration {
	if e.SnapshotMaxAge > 0 {
		return e.SnapshotMaxAge
	}
	return DefaultSnapshotMaxAge
}

// SaveOrphanSnapshot caches an orphan scan result for later
// revalidation under the given session id.
func (e *Engine) SaveOrphanSnapshot(sessionID string, result *service.OrphanScanResult) error {
	snap := service.NewReconciliationSnapshot(sessionID, result.Scope)
	snap.OrphanKeys = result.OrphanKeys
	return e.Snapshots.SnapshotSave(snap, e.snapshotMaxAge())
}

// SaveBrokenSnapshot caches a broken-record scan result for later
// revalidation under the given session id.
func (e *Engine) SaveBrokenSnapshot(sessionID string, result *service.BrokenLinkScanResult) error {
	snap := service.NewReconciliationSnapshot(sessionID, result.Scope)
	snap.BrokenRecordIDs = make([]int64, 0, len(result.BrokenRecords))
	for _, song := range result.BrokenRecords {
		snap.BrokenRecordIDs = append(snap.BrokenRecordIDs, song.ID)
	}
	return e.Snapshots.SnapshotSave(snap, e.snapshotMaxAge())
}

// RevalidateOrphans loads a session's cached orphan set, re-scans, and
// returns only the keys still orphaned right now. A snapshot is a
// claim about the past; acting on it without this check would delete
// objects that may have gained catalog records since the scan.
func (e *Engine) RevalidateOrphans(c ctx.Context, sessionID string) ([]string, error) {
	snap, err := e.Snapshots.SnapshotGet(sessionID)
	if err != nil {
		return nil, err
	}
	if snap.Age() > e.snapshotMaxAge() {
		return nil, fmt.Errorf("snapshot for session %s is %s old; re-scan required", sessionID, snap.Age())
	}
	fresh, err := e.FindOrphans(c, snap.Scope)
	if err != nil {
		return nil, err
	}
	stillOrphaned := make(map[string]bool, len(fresh.OrphanKeys))
	for _, key := range fresh.OrphanKeys {
		stillOrphaned[key] = true
	}
	confirmed := make([]string, 0, len(snap.OrphanKeys))
	dropped := 0
	for _, key := range snap.OrphanKeys {
		if stillOrphaned[key] {
			confirmed = append(confirmed, key)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		e.Logger.Warningf("Snapshot %s: %d of %d orphan keys no longer orphaned; skipping them",
			sessionID, dropped, len(snap.OrphanKeys))
	}
	return confirmed, nil
}

// RevalidateBrokenRecords loads a session's cached broken-record ids,
// re-scans, and returns only the records still broken right now.
func (e *Engine) RevalidateBrokenRecords(c ctx.Context, sessionID string) ([]*catalog.Song, error) {
	snap, err := e.Snapshots.SnapshotGet(sessionID)
	if err != nil {
		return nil, err
	}
	if snap.Age() > e.snapshotMaxAge() {
		return nil, fmt.Errorf("snapshot for session %s is %s old; re-scan required", sessionID, snap.Age())
	}
	fresh, err := e.FindBrokenRecords(c, snap.Scope)
	if err != nil {
		return nil, err
	}
	snapshotIDs := make(map[int64]bool, len(snap.BrokenRecordIDs))
	for _, id := range snap.BrokenRecordIDs {
		snapshotIDs[id] = true
	}
	confirmed := make([]*catalog.Song, 0, len(snap.BrokenRecordIDs))
	for _, song := range fresh.BrokenRecords {
		if snapshotIDs[song.ID] {
			confirmed = append(confirmed, song)
		}
	}
	return confirmed, nil
}

// ClearSnapshot removes a session's cached scan after its repair
// action has run, so the same snapshot can't be replayed.
func (e *Engine) ClearSnapshot(sessionID string) error {
	return e.Snapshots.SnapshotDelete(sessionID)
}
