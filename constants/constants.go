package constants

const (
	// MaxDeleteBatchSize is the largest number of keys we'll send in a
	// single batch delete to the object store. 1000 is the portable upper
	// bound across S3-compatible backends.
	MaxDeleteBatchSize = 1000

	// CatalogPageSize is the page size we request when listing catalog
	// records. The catalog silently caps unbounded queries at 1000 rows,
	// so every listing must paginate explicitly.
	CatalogPageSize = 500

	// UnknownArtist is the sentinel artist assigned when metadata
	// inference cannot confidently split artist from title.
	UnknownArtist = "Unknown Artist"

	// KeyPrefixSegments is the number of dash-delimited segments in the
	// unique prefix that DeriveKey prepends to a filename.
	KeyPrefixSegments = 5

	S3ClientPrimary  = "Primary"
	S3ClientOverflow = "Overflow"

	RoleAdmin    = "admin"
	RoleListener = "listener"

	ScopeGlobal = "global"
	ScopeUser   = "user"

	ContentTypeBinary = "application/octet-stream"
)

// AudioMimeTypes maps common audio file extensions to mime types.
// Used as a fallback when signature-based identification is unavailable.
var AudioMimeTypes = map[string]string{
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
}
