package api_test

import (
	ctx "context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunevault/library-services/api"
	"github.com/tunevault/library-services/constants"
	"github.com/tunevault/library-services/models/catalog"
	"github.com/tunevault/library-services/models/common"
	"github.com/tunevault/library-services/models/service"
	"github.com/tunevault/library-services/reconcile"
)

type fakeStore struct {
	objects []*service.StorageObject
}

func (f *fakeStore) AllObjects(c ctx.Context) ([]*service.StorageObject, error) {
	return f.objects, nil
}

func (f *fakeStore) DeleteKeys(c ctx.Context, keys []string) (int, []*service.ProcessingError) {
	doomed := make(map[string]bool, len(keys))
	for _, key := range keys {
		doomed[key] = true
	}
	remaining := make([]*service.StorageObject, 0, len(f.objects))
	for _, obj := range f.objects {
		if !doomed[obj.Key] {
			remaining = append(remaining, obj)
		}
	}
	f.objects = remaining
	return len(keys), nil
}

type fakeCatalog struct {
	songs []*catalog.Song
}

func (f *fakeCatalog) AllSongs(scope service.Scope) ([]*catalog.Song, error) {
	return f.songs, nil
}

func (f *fakeCatalog) InsertSong(song *catalog.Song) (*catalog.Song, error) {
	f.songs = append(f.songs, song)
	return song, nil
}

func (f *fakeCatalog) DeleteSongsByIDs(ids []int64) error {
	return nil
}

type fakeSnapshots struct {
	snapshots map[string]*service.ReconciliationSnapshot
}

func (f *fakeSnapshots) SnapshotSave(snap *service.ReconciliationSnapshot, maxAge time.Duration) error {
	f.snapshots[snap.SessionID] = snap
	return nil
}

func (f *fakeSnapshots) SnapshotGet(sessionID string) (*service.ReconciliationSnapshot, error) {
	snap, found := f.snapshots[sessionID]
	if !found {
		return nil, fmt.Errorf("no snapshot for session %s", sessionID)
	}
	return snap, nil
}

func (f *fakeSnapshots) SnapshotDelete(sessionID string) error {
	delete(f.snapshots, sessionID)
	return nil
}

// fakeVerifier returns a fixed session, or an error when session is nil.
type fakeVerifier struct {
	session *api.Session
}

func (v *fakeVerifier) Verify(r *http.Request) (*api.Session, error) {
	if v.session == nil {
		return nil, fmt.Errorf("no session")
	}
	return v.session, nil
}

func newTestServer(store *fakeStore, verifier *fakeVerifier) *api.Server {
	logger := logging.MustGetLogger("test")
	engine := &reconcile.Engine{
		Store:     store,
		Catalog:   &fakeCatalog{},
		Snapshots: &fakeSnapshots{snapshots: make(map[string]*service.ReconciliationSnapshot)},
		Buckets: []*service.StorageBucket{
			{AccountNumber: 1, Bucket: "tunevault-primary", PublicBaseURL: "https://media-1.tunevault.net"},
		},
		Logger: logger,
	}
	return &api.Server{
		Engine:   engine,
		Sessions: verifier,
		Config:   &common.Config{},
		Logger:   logger,
	}
}

func adminSession() *api.Session {
	return &api.Session{ID: "session-1", UserID: "user-a", Role: constants.RoleAdmin}
}

func doRequest(server *api.Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)
	return recorder
}

func doRequestWithBody(server *api.Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)
	return recorder
}

func TestRoutesRequireSession(t *testing.T) {
	server := newTestServer(&fakeStore{}, &fakeVerifier{})
	for _, route := range []struct{ method, path string }{
		{"GET", "/cleanup"},
		{"DELETE", "/cleanup"},
		{"GET", "/cleanup/broken-links"},
		{"DELETE", "/cleanup/broken-links"},
		{"POST", "/rectify-orphans"},
		{"DELETE", "/cleanup/object"},
	} {
		recorder := doRequest(server, route.method, route.path)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, "%s %s", route.method, route.path)
	}
}

func TestRoutesRequireAdminRole(t *testing.T) {
	verifier := &fakeVerifier{session: &api.Session{
		ID: "session-1", UserID: "user-a", Role: constants.RoleListener,
	}}
	server := newTestServer(&fakeStore{}, verifier)
	recorder := doRequest(server, "GET", "/cleanup")
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestOrphanScan(t *testing.T) {
	store := &fakeStore{objects: []*service.StorageObject{
		{Key: "orphan.mp3", Size: 100, AccountNumber: 1},
	}}
	server := newTestServer(store, &fakeVerifier{session: adminSession()})

	recorder := doRequest(server, "GET", "/cleanup")
	require.Equal(t, http.StatusOK, recorder.Code)

	result := service.OrphanScanResult{}
	require.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	assert.Equal(t, []string{"orphan.mp3"}, result.OrphanKeys)
	assert.Equal(t, 1, result.TotalStoreObjects)
}

func TestOrphanPurge(t *testing.T) {
	store := &fakeStore{objects: []*service.StorageObject{
		{Key: "orphan.mp3", Size: 100, AccountNumber: 1},
	}}
	server := newTestServer(store, &fakeVerifier{session: adminSession()})

	recorder := doRequest(server, "DELETE", "/cleanup")
	require.Equal(t, http.StatusOK, recorder.Code)

	result := service.PurgeResult{}
	require.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	assert.Equal(t, 1, result.DeletedCount)
	assert.Empty(t, store.objects)
}

func TestBrokenScan(t *testing.T) {
	server := newTestServer(&fakeStore{}, &fakeVerifier{session: adminSession()})
	recorder := doRequest(server, "GET", "/cleanup/broken-links")
	require.Equal(t, http.StatusOK, recorder.Code)

	result := service.BrokenLinkScanResult{}
	require.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	assert.Empty(t, result.BrokenRecords)
}

func TestRectifyBodyHandling(t *testing.T) {
	server := newTestServer(&fakeStore{}, &fakeVerifier{session: adminSession()})

	// No body means no default genre, not an error.
	recorder := doRequest(server, "POST", "/rectify-orphans")
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = doRequestWithBody(server, "POST", "/rectify-orphans", `{"genreId": 7}`)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// A body that's present but doesn't parse must be rejected, not
	// silently treated as "no default genre".
	recorder = doRequestWithBody(server, "POST", "/rectify-orphans", `{"genreId": oops`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestObjectDeleteRequiresLocator(t *testing.T) {
	server := newTestServer(&fakeStore{}, &fakeVerifier{session: adminSession()})
	recorder := doRequest(server, "DELETE", "/cleanup/object")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
