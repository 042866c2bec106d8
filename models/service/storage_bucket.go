package service

import (
	"fmt"
	"strings"
)

// StorageBucket describes one backing bucket for audio content.
// AccountNumber doubles as upload priority: the selector tries
// account 1 first, then 2, and so on.
type StorageBucket struct {
	AccountNumber int
	Bucket        string
	Description   string
	Host          string
	Provider      string

	// PublicBaseURL is the base of the public URLs we store as song
	// locators. Locator-to-key normalization strips this prefix.
	PublicBaseURL string

	// ThresholdBytes is the usage level at which this bucket stops
	// receiving new uploads.
	ThresholdBytes int64
}

// URLFor returns the public locator URL for the specified key.
// For example, bucket.URLFor(key) returns something like
// https://media.tunevault.net/key for the primary account.
func (b *StorageBucket) URLFor(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(b.PublicBaseURL, "/"), key)
}

// HostsURL returns true if the given locator URL belongs to this bucket.
func (b *StorageBucket) HostsURL(url string) bool {
	return strings.HasPrefix(url, strings.TrimSuffix(b.PublicBaseURL, "/")+"/")
}
