// Package keycodec joins the two namespaces this system lives across:
// catalog locator URLs and object store keys. DeriveKey and
// InferMetadata are approximate inverses of each other; both are pure
// functions with no I/O.
package keycodec

import (
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/tunevault/library-services/constants"
)

// SongMetadata is what InferMetadata can recover from a storage key
// when no catalog record exists to supply the real metadata.
type SongMetadata struct {
	Title  string
	Artist string
}

// DeriveKey produces a unique storage key for an uploaded file by
// prefixing the original filename with a UUID. The UUID is exactly
// five dash-delimited segments and contains no other delimiter
// patterns, which is what lets InferMetadata strip it back off.
func DeriveKey(originalFilename string) string {
	return uuid.New().String() + "-" + originalFilename
}

// InferMetadata recovers a best-effort (artist, title) pair from a
// storage key. It's used only when rectifying an orphan, where the
// key is all we have. Ambiguous inputs degrade to the unknown-artist
// sentinel; this never fails, whatever the input.
func InferMetadata(key string) SongMetadata {
	filename := stripUniquePrefix(key)
	candidate := stripExtension(filename)

	// "Artist - Title.mp3" is the dominant naming convention.
	if strings.Contains(candidate, " - ") {
		parts := strings.Split(candidate, " - ")
		return SongMetadata{
			Artist: parts[0],
			Title:  strings.Join(parts[1:], " - "),
		}
	}

	// Path-style keys: top-level folder names the artist.
	if strings.Contains(filename, "/") {
		segments := strings.Split(filename, "/")
		artist := segments[0]
		if artist == "" {
			artist = constants.UnknownArtist
		}
		return SongMetadata{
			Artist: artist,
			Title:  stripExtension(segments[len(segments)-1]),
		}
	}

	return SongMetadata{
		Artist: constants.UnknownArtist,
		Title:  candidate,
	}
}

// stripUniquePrefix removes the UUID prefix DeriveKey added. A UUID is
// five dash-delimited segments, so when the key splits into more than
// five we drop the first five and rejoin the rest, preserving any
// dashes the original filename contained. Keys that don't fit that
// shape lose only their first segment as a fallback.
func stripUniquePrefix(key string) string {
	parts := strings.Split(key, "-")
	if len(parts) > constants.KeyPrefixSegments {
		return strings.Join(parts[constants.KeyPrefixSegments:], "-")
	}
	if len(parts) > 1 {
		return strings.Join(parts[1:], "-")
	}
	return key
}

func stripExtension(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext)
}

// NormalizeLocator maps a catalog locator URL into object-key space by
// stripping the bucket's public base URL and any single leading slash.
// Returns ok == false if the locator does not belong to the given base
// URL; such records are broken, never orphan-related.
func NormalizeLocator(locator, publicBaseURL string) (key string, ok bool) {
	if locator == "" || publicBaseURL == "" {
		return "", false
	}
	base := strings.TrimSuffix(publicBaseURL, "/")
	if !strings.HasPrefix(locator, base) {
		return "", false
	}
	key = strings.TrimPrefix(locator, base)
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", false
	}
	return key, true
}

// KeyVariants returns the forms of a key that should be treated as
// equivalent when comparing store listings to normalized locators.
// Store backends are inconsistent about returning percent-encoded vs
// decoded keys, so both forms participate in set membership before we
// declare a true divergence.
func KeyVariants(key string) []string {
	variants := []string{key}
	if decoded, err := url.PathUnescape(key); err == nil && decoded != key {
		variants = append(variants, decoded)
	}
	return variants
}
