package reconcile_test

import (
	ctx "context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunevault/library-services/models/catalog"
	"github.com/tunevault/library-services/models/service"
)

func TestRevalidateOrphans(t *testing.T) {
	store := &fakeStore{objects: []*service.StorageObject{
		storedObject("orphan-a.mp3", 1),
		storedObject("orphan-b.mp3", 1),
	}}
	engine := newEngine(store, &fakeCatalog{})

	scan, err := engine.FindOrphans(ctx.Background(), service.GlobalScope())
	require.Nil(t, err)
	require.Equal(t, 2, len(scan.OrphanKeys))
	require.Nil(t, engine.SaveOrphanSnapshot("session-1", scan))

	// Between scan and act, orphan-b gains a catalog record. The
	// snapshot still lists it, but revalidation must drop it.
	_, err = engine.Catalog.InsertSong(linkedSong(0, "user-a", "orphan-b.mp3"))
	require.Nil(t, err)

	confirmed, err := engine.RevalidateOrphans(ctx.Background(), "session-1")
	require.Nil(t, err)
	assert.Equal(t, []string{"orphan-a.mp3"}, confirmed)
}

func TestRevalidateOrphansUnknownSession(t *testing.T) {
	engine := newEngine(&fakeStore{}, &fakeCatalog{})
	_, err := engine.RevalidateOrphans(ctx.Background(), "no-such-session")
	assert.NotNil(t, err)
}

func TestRevalidateOrphansRejectsStaleSnapshot(t *testing.T) {
	engine := newEngine(&fakeStore{}, &fakeCatalog{})
	snap := service.NewReconciliationSnapshot("session-1", service.GlobalScope())
	snap.TakenAt = time.Now().UTC().Add(-2 * time.Hour)
	snap.OrphanKeys = []string{"ancient.mp3"}
	require.Nil(t, engine.Snapshots.SnapshotSave(snap, 0))

	_, err := engine.RevalidateOrphans(ctx.Background(), "session-1")
	assert.NotNil(t, err)
}

func TestSnapshotMaxAgeIsConfigurable(t *testing.T) {
	engine := newEngine(&fakeStore{}, &fakeCatalog{})
	snap := service.NewReconciliationSnapshot("session-1", service.GlobalScope())
	snap.TakenAt = time.Now().UTC().Add(-5 * time.Minute)
	require.Nil(t, engine.Snapshots.SnapshotSave(snap, 0))

	// Five minutes old: fine under the default limit.
	_, err := engine.RevalidateOrphans(ctx.Background(), "session-1")
	require.Nil(t, err)

	// A tighter configured limit rejects the same snapshot.
	engine.SnapshotMaxAge = time.Minute
	_, err = engine.RevalidateOrphans(ctx.Background(), "session-1")
	assert.NotNil(t, err)
}

func TestRevalidateBrokenRecords(t *testing.T) {
	store := &fakeStore{objects: []*service.StorageObject{}}
	cat := &fakeCatalog{
		songs: []*catalog.Song{
			linkedSong(1, "user-a", "gone-a.mp3"),
			linkedSong(2, "user-a", "gone-b.mp3"),
		},
		nextID: 2,
	}
	engine := newEngine(store, cat)

	scan, err := engine.FindBrokenRecords(ctx.Background(), service.UserScope("user-a"))
	require.Nil(t, err)
	require.Equal(t, 2, len(scan.BrokenRecords))
	require.Nil(t, engine.SaveBrokenSnapshot("session-1", scan))

	// gone-b's object reappears before the admin clicks purge.
	store.objects = append(store.objects, storedObject("gone-b.mp3", 1))

	confirmed, err := engine.RevalidateBrokenRecords(ctx.Background(), "session-1")
	require.Nil(t, err)
	require.Equal(t, 1, len(confirmed))
	assert.Equal(t, int64(1), confirmed[0].ID)
}

func TestClearSnapshot(t *testing.T) {
	engine := newEngine(&fakeStore{}, &fakeCatalog{})
	snap := service.NewReconciliationSnapshot("session-1", service.GlobalScope())
	require.Nil(t, engine.Snapshots.SnapshotSave(snap, 0))

	require.Nil(t, engine.ClearSnapshot("session-1"))
	_, err := engine.Snapshots.SnapshotGet("session-1")
	assert.NotNil(t, err)
}
