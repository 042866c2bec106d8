package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tunevault/library-services/models/service"
)

func TestStorageBucketURLFor(t *testing.T) {
	bucket := &service.StorageBucket{
		AccountNumber: 1,
		Bucket:        "tunevault-primary",
		PublicBaseURL: "https://media.tunevault.net",
	}
	assert.Equal(t, "https://media.tunevault.net/abc-song.mp3", bucket.URLFor("abc-song.mp3"))

	// A trailing slash on the configured base must not double up.
	bucket.PublicBaseURL = "https://media.tunevault.net/"
	assert.Equal(t, "https://media.tunevault.net/abc-song.mp3", bucket.URLFor("abc-song.mp3"))
}

func TestStorageBucketHostsURL(t *testing.T) {
	bucket := &service.StorageBucket{PublicBaseURL: "https://media.tunevault.net"}
	assert.True(t, bucket.HostsURL("https://media.tunevault.net/abc-song.mp3"))
	assert.False(t, bucket.HostsURL("https://elsewhere.example.com/abc-song.mp3"))
	assert.False(t, bucket.HostsURL(""))
}
