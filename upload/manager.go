// Package upload handles the write path: placing a new audio file into
// a backing bucket and creating its catalog record. The two writes are
// not transactional, so the manager compensates on partial failure by
// deleting the object it just stored. A crash between the two writes
// leaves an orphan for the reconciliation engine to find later; that
// is the designed recovery path, not a bug.
package upload

import (
	"bytes"
	ctx "context"
	"errors"
	"fmt"
	"io"

	"github.com/op/go-logging"
	"github.com/tunevault/library-services/keycodec"
	"github.com/tunevault/library-services/models/catalog"
	"github.com/tunevault/library-services/models/common"
	"github.com/tunevault/library-services/models/service"
	"github.com/tunevault/library-services/network"
	"github.com/tunevault/library-services/placement"
)

// ErrDuplicateSong indicates the catalog rejected the new record
// because the user already has this song.
var ErrDuplicateSong = errors.New("song already exists in this user's library")

// ErrTooLarge indicates the upload exceeds the configured size limit.
var ErrTooLarge = errors.New("file exceeds the maximum upload size")

// headSize is how much of the upload we buffer for signature-based
// format identification. Audio signatures live in the first few KB;
// half a megabyte covers ID3v2 tags of any realistic size.
const headSize = 512 * 1024

// SongUpload describes one incoming file and the metadata the user
// supplied for it.
type SongUpload struct {
	UserID   string
	Title    string
	Artist   string
	GenreID  *int64
	Duration int64
	Filename string
	Size     int64
	Content  io.Reader
}

// Manager coordinates the store write, the catalog write, and the
// usage counter update for uploads and deletes.
type Manager struct {
	Store         *network.StoreClient
	Catalog       *network.CatalogClient
	Selector      *placement.Selector
	FmtIdentifier *FormatIdentifier
	Config        *common.Config
	Logger        *logging.Logger
}

// NewManager creates a Manager wired to the real store, catalog, and
// bucket selector from the given context.
func NewManager(context *common.Context) *Manager {
	return &Manager{
		Store: context.StoreClient,
		Catalog: context.CatalogClient,
		Selector: placement.NewSelector(
			context.Config.StorageBuckets,
			context.CatalogClient,
			context.Logger),
		FmtIdentifier: NewFormatIdentifier(context.Config.SiegfriedSigFile, context.Logger),
		Config:        context.Config,
		Logger:        context.Logger,
	}
}

// UploadSong stores the file in the selected bucket and creates its
// catalog record, in that order. The order matters: a record pointing
// at a missing object breaks playback immediately, while an object
// without a record is invisible until reconciliation cleans it up.
// If the catalog rejects the record, the stored object is deleted
// before this returns.
func (m *Manager) UploadSong(c ctx.Context, up *SongUpload) (*catalog.Song, error) {
	if up.Filename == "" {
		return nil, fmt.Errorf("upload has no filename")
	}
	if m.Config.UploadMaxBytes > 0 && up.Size > m.Config.UploadMaxBytes {
		return nil, ErrTooLarge
	}
	if up.GenreID != nil {
		genreResp := m.Catalog.GenreByID(*up.GenreID)
		if genreResp.Error != nil {
			if genreResp.ObjectNotFound() {
				return nil, fmt.Errorf("no such genre: %d", *up.GenreID)
			}
			return nil, genreResp.Error
		}
	}

	head := make([]byte, headSize)
	n, err := io.ReadFull(up.Content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("reading upload %s: %v", up.Filename, err)
	}
	head = head[:n]
	contentType := m.FmtIdentifier.Identify(bytes.NewReader(head), up.Filename)

	choice := m.Selector.SelectBucket()
	if choice.Bucket == nil {
		return nil, fmt.Errorf("no storage buckets are configured")
	}
	if choice.CapacityExhausted {
		m.Logger.Warningf("Accepting upload %s into overflowing account %d",
			up.Filename, choice.Bucket.AccountNumber)
	}

	key := keycodec.DeriveKey(up.Filename)
	content := io.MultiReader(bytes.NewReader(head), up.Content)
	if err = m.Store.PutObject(c, choice.Bucket, key, content, up.Size, contentType); err != nil {
		return nil, err
	}

	song := &catalog.Song{
		UserID:   up.UserID,
		Title:    up.Title,
		Artist:   up.Artist,
		GenreID:  up.GenreID,
		Duration: up.Duration,
		Locator:  choice.Bucket.URLFor(key),
	}
	if song.Title == "" {
		meta := keycodec.InferMetadata(key)
		song.Title = meta.Title
		if song.Artist == "" {
			song.Artist = meta.Artist
		}
	}

	resp := m.Catalog.SongSave(song)
	if resp.Error != nil {
		m.cleanupStoredObject(c, choice.Bucket, key)
		if resp.IsUniqueViolation() {
			return nil, ErrDuplicateSong
		}
		return nil, resp.Error
	}

	if err = m.Selector.RecordUsageDelta(choice.Bucket.AccountNumber, up.Size); err != nil {
		// The counter is advisory; a failed update skews placement a
		// little but must not fail an upload that already succeeded.
		m.Logger.Warningf("Could not record %d byte usage delta for account %d: %v",
			up.Size, choice.Bucket.AccountNumber, err)
	}
	return resp.Song(), nil
}

// DeleteSong removes a song's catalog record and its backing object.
// The record goes first so listeners stop seeing a song whose object
// is about to vanish. If the object delete then fails, the leftover
// object is an orphan the reconciliation engine will collect.
func (m *Manager) DeleteSong(c ctx.Context, song *catalog.Song) error {
	resp := m.Catalog.SongDelete(song.ID)
	if resp.Error != nil {
		return resp.Error
	}
	if !song.HasLocator() {
		return nil
	}
	bucket, key, err := m.Config.BucketAndKeyFor(song.Locator)
	if err != nil {
		m.Logger.Warningf("Deleted record %d but its locator is foreign: %v", song.ID, err)
		return nil
	}
	size, sizeErr := m.Store.ObjectSize(c, bucket, key)
	if err = m.Store.DeleteObject(c, bucket, key); err != nil {
		return fmt.Errorf("record %d deleted but object %s remains: %v", song.ID, key, err)
	}
	if sizeErr == nil {
		if err = m.Selector.RecordUsageDelta(bucket.AccountNumber, -size); err != nil {
			m.Logger.Warningf("Could not record -%d byte usage delta for account %d: %v",
				size, bucket.AccountNumber, err)
		}
	}
	return nil
}

// DeletePlaylist removes a playlist and, when deleteSongs is set, every
// song it references along with their backing objects. Song deletes are
// independent; one failure is collected and the rest proceed, so a
// partial cascade leaves fewer songs for a retry rather than aborting.
func (m *Manager) DeletePlaylist(c ctx.Context, playlistID int64, deleteSongs bool) []*service.ProcessingError {
	var errors []*service.ProcessingError
	resp := m.Catalog.PlaylistByID(playlistID)
	if resp.Error != nil {
		return append(errors, service.NewProcessingError(
			fmt.Sprintf("playlist:%d", playlistID), resp.Error.Error(), false))
	}
	playlist := resp.Playlist()

	if deleteSongs {
		for _, songID := range playlist.SongIDs {
			songResp := m.Catalog.SongByID(songID)
			if songResp.Error != nil {
				if songResp.ObjectNotFound() {
					continue
				}
				errors = append(errors, service.NewProcessingError(
					fmt.Sprintf("song:%d", songID), songResp.Error.Error(), false))
				continue
			}
			if err := m.DeleteSong(c, songResp.Song()); err != nil {
				errors = append(errors, service.NewProcessingError(
					fmt.Sprintf("song:%d", songID), err.Error(), false))
			}
		}
	}

	if delResp := m.Catalog.PlaylistDelete(playlistID); delResp.Error != nil {
		errors = append(errors, service.NewProcessingError(
			fmt.Sprintf("playlist:%d", playlistID), delResp.Error.Error(), false))
	}
	return errors
}

// cleanupStoredObject is the compensating delete for a failed catalog
// write. Failure here is logged and swallowed: the object becomes an
// orphan, which reconciliation will find.
func (m *Manager) cleanupStoredObject(c ctx.Context, bucket *service.StorageBucket, key string) {
	if err := m.Store.DeleteObject(c, bucket, key); err != nil {
		m.Logger.Errorf("Could not clean up object %s after failed catalog write: %v", key, err)
	}
}
