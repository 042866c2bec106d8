// Package reconcile keeps the object store and the song catalog
// mutually consistent. Writes to the two systems are independent and
// non-transactional, so they drift: objects with no catalog record
// (orphans) and records whose objects are gone (broken records). The
// engine detects both and repairs them through idempotent actions that
// never corrupt the catalog or leak storage bytes.
package reconcile

import (
	ctx "context"
	"time"

	"github.com/op/go-logging"
	"github.com/tunevault/library-services/keycodec"
	"github.com/tunevault/library-services/models/catalog"
	"github.com/tunevault/library-services/models/common"
	"github.com/tunevault/library-services/models/service"
)

// ObjectStore is the slice of store behavior the engine consumes:
// complete listings and batch deletes. The network.StoreClient
// satisfies this; tests use an in-memory fake.
type ObjectStore interface {
	AllObjects(c ctx.Context) ([]*service.StorageObject, error)
	DeleteKeys(c ctx.Context, keys []string) (int, []*service.ProcessingError)
}

// CatalogSource is the slice of catalog behavior the engine consumes.
// The network.CatalogClient satisfies this.
type CatalogSource interface {
	AllSongs(scope service.Scope) ([]*catalog.Song, error)
	InsertSong(song *catalog.Song) (*catalog.Song, error)
	DeleteSongsByIDs(ids []int64) error
}

// Engine runs reconciliation passes. It holds no state between calls:
// every scan enumerates both systems from scratch. Object counts here
// are small enough (tens of thousands) that full rescans are cheap
// relative to the risk of a stale incremental index drifting from
// reality.
type Engine struct {
	Store     ObjectStore
	Catalog   CatalogSource
	Snapshots SnapshotStore
	Buckets   []*service.StorageBucket
	Logger    *logging.Logger

	// SnapshotMaxAge bounds how long a cached scan result may be
	// replayed. Zero means DefaultSnapshotMaxAge.
	SnapshotMaxAge time.Duration
}

// NewEngine creates an engine wired to the real store, catalog, and
// snapshot cache from the given context.
func NewEngine(context *common.Context) *Engine {
	return &Engine{
		Store:          context.StoreClient,
		Catalog:        context.CatalogClient,
		Snapshots:      context.RedisClient,
		Buckets:        context.Config.StorageBuckets,
		Logger:         context.Logger,
		SnapshotMaxAge: context.Config.SnapshotMaxAge,
	}
}

// normalizeLocator maps a song's locator URL into key space using the
// first configured bucket whose public base URL matches. Returns
// ok == false for missing or foreign locators; those records are
// broken, never orphan-related.
func (e *Engine) normalizeLocator(song *catalog.Song) (key string, ok bool) {
	if !song.HasLocator() {
		return "", false
	}
	for _, bucket := range e.Buckets {
		if key, ok = keycodec.NormalizeLocator(song.Locator, bucket.PublicBaseURL); ok {
			return key, true
		}
	}
	return "", false
}

// FindOrphans lists every object across all configured buckets and
// every catalog record in scope, then returns the keys no record's
// locator resolves to. Both listings are drained to completion before
// the comparison; a partial store listing would misclassify unseen
// valid objects as orphans.
//
// A record whose locator fails to normalize contributes nothing to the
// matched set. Such records are separately broken and are surfaced by
// FindBrokenRecords, not silently dropped here.
func (e *Engine) FindOrphans(c ctx.Context, scope service.Scope) (*service.OrphanScanResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	objects, err := e.Store.AllObjects(c)
	if err != nil {
		return nil, err
	}
	songs, err := e.Catalog.AllSongs(scope)
	if err != nil {
		return nil, err
	}

	linkedKeys := make(map[string]bool)
	totalLinked := 0
	for _, song := range songs {
		key, ok := e.normalizeLocator(song)
		if !ok {
			continue
		}
		totalLinked++
		for _, variant := range keycodec.KeyVariants(key) {
			linkedKeys[variant] = true
		}
	}

	orphanKeys := make([]string, 0)
	for _, obj := range objects {
		if !matchesAnyVariant(linkedKeys, obj.Key) {
			orphanKeys = append(orphanKeys, obj.Key)
		}
	}

	e.Logger.Infof("Orphan scan (%s): %d store objects, %d linked records, %d orphans",
		scope, len(objects), totalLinked, len(orphanKeys))
	return &service.OrphanScanResult{
		Scope:              scope,
		OrphanKeys:         orphanKeys,
		TotalStoreObjects:  len(objects),
		TotalCatalogLinked: totalLinked,
	}, nil
}

// FindBrokenRecords is the symmetric scan: it returns every catalog
// record in scope whose locator is missing, malformed, foreign to all
// configured buckets, or normalizes to a key absent from the full
// store listing.
func (e *Engine) FindBrokenRecords(c ctx.Context, scope service.Scope) (*service.BrokenLinkScanResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	objects, err := e.Store.AllObjects(c)
	if err != nil {
		return nil, err
	}
	songs, err := e.Catalog.AllSongs(scope)
	if err != nil {
		return nil, err
	}

	storeKeys := make(map[string]bool, len(objects))
	for _, obj := range objects {
		for _, variant := range keycodec.KeyVariants(obj.Key) {
			storeKeys[variant] = true
		}
	}

	brokenRecords := make([]*catalog.Song, 0)
	for _, song := range songs {
		key, ok := e.normalizeLocator(song)
		if !ok || !matchesAnyVariant(storeKeys, key) {
			brokenRecords = append(brokenRecords, song)
		}
	}

	e.Logger.Infof("Broken-record scan (%s): %d store objects, %d catalog records, %d broken",
		scope, len(objects), len(songs), len(brokenRecords))
	return &service.BrokenLinkScanResult{
		Scope:               scope,
		BrokenRecords:       brokenRecords,
		TotalStoreObjects:   len(objects),
		TotalCatalogRecords: len(songs),
	}, nil
}

// PurgeOrphans deletes the given orphaned objects from storage.
// It touches storage only; catalog state is never modified here.
// Deletes go out in bounded concurrent batches, and per-object
// failures are collected alongside the count of successes, so one bad
// key never aborts its siblings. Re-running with the same keys is a
// no-op: deleting an absent key is not an error.
func (e *Engine) PurgeOrphans(c ctx.Context, orphanKeys []string) *service.PurgeResult {
	deleted, errors := e.Store.DeleteKeys(c, orphanKeys)
	e.Logger.Infof("Purged %d of %d orphan objects (%d errors)",
		deleted, len(orphanKeys), len(errors))
	return &service.PurgeResult{
		DeletedCount: deleted,
		Errors:       errors,
	}
}

// PurgeBrokenRecords deletes the given catalog records using the
// catalog's bulk delete-by-id-set operation. It must not touch
// storage: the objects are already confirmed absent. Catalog delete is
// idempotent per id, so a partial failure simply leaves a smaller
// remainder for the next pass to find and retry.
func (e *Engine) PurgeBrokenRecords(brokenRecords []*catalog.Song) (*service.PurgeResult, error) {
	ids := make([]int64, 0, len(brokenRecords))
	for _, song := range brokenRecords {
		ids = append(ids, song.ID)
	}
	if err := e.Catalog.DeleteSongsByIDs(ids); err != nil {
		return nil, err
	}
	e.Logger.Infof("Purged %d broken catalog records", len(ids))
	return &service.PurgeResult{DeletedCount: len(ids)}, nil
}

// RectifyOrphans is the inverse repair: instead of deleting orphaned
// objects, it synthesizes a catalog record for each one from its key.
// Duration is recorded as zero (unknown without downloading and
// decoding the object) and genre is the supplied default, which may be
// nil; an uncategorized record is valid.
//
// Keys are processed independently: one failing insert is collected as
// a per-key error and the rest proceed. Keys no longer present in the
// store, which happens when the caller's orphan set has gone stale,
// are reported as errors rather than inserted blind.
func (e *Engine) RectifyOrphans(c ctx.Context, orphanKeys []string, ownerID string, defaultGenreID *int64) *service.RectifyResult {
	result := &service.RectifyResult{
		TotalOrphansFound: len(orphanKeys),
	}

	objects, err := e.Store.AllObjects(c)
	if err != nil {
		for _, key := range orphanKeys {
			result.Errors = append(result.Errors, service.NewProcessingError(
				key, "could not list store to locate orphan: "+err.Error(), false))
		}
		return result
	}
	accountByKey := make(map[string]int, len(objects))
	for _, obj := range objects {
		for _, variant := range keycodec.KeyVariants(obj.Key) {
			accountByKey[variant] = obj.AccountNumber
		}
	}

	for _, key := range orphanKeys {
		bucket := e.bucketHolding(accountByKey, key)
		if bucket == nil {
			result.Errors = append(result.Errors, service.NewProcessingError(
				key, "object no longer present in any bucket", false))
			continue
		}
		meta := keycodec.InferMetadata(key)
		song := &catalog.Song{
			UserID:   ownerID,
			Title:    meta.Title,
			Artist:   meta.Artist,
			GenreID:  defaultGenreID,
			Duration: 0,
			Locator:  bucket.URLFor(key),
		}
		if _, err := e.Catalog.InsertSong(song); err != nil {
			result.Errors = append(result.Errors, service.NewProcessingError(
				key, err.Error(), false))
			continue
		}
		result.RectifiedCount++
	}

	e.Logger.Infof("Rectified %d of %d orphans (%d errors)",
		result.RectifiedCount, result.TotalOrphansFound, len(result.Errors))
	return result
}

func (e *Engine) bucketHolding(accountByKey map[string]int, key string) *service.StorageBucket {
	for _, variant := range keycodec.KeyVariants(key) {
		if account, found := accountByKey[variant]; found {
			for _, bucket := range e.Buckets {
				if bucket.AccountNumber == account {
					return bucket
				}
			}
		}
	}
	return nil
}

// matchesAnyVariant reports whether the key, in any of its encoded or
// decoded forms, is present in the set.
func matchesAnyVariant(set map[string]bool, key string) bool {
	for _, variant := range keycodec.KeyVariants(key) {
		if set[variant] {
			return true
		}
	}
	return false
}
