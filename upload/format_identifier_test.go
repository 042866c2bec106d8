package upload_test

import (
	"bytes"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/tunevault/library-services/upload"
)

// Without a signature file, identification falls back to extension
// mapping. Signature-based identification requires a PRONOM signature
// file on disk and is covered by integration tests.
func TestIdentifyByExtension(t *testing.T) {
	fi := upload.NewFormatIdentifier("", logging.MustGetLogger("test"))

	cases := map[string]string{
		"Marc Anthony - Vivir.mp3": "audio/mpeg",
		"track.FLAC":               "audio/flac",
		"track.ogg":                "audio/ogg",
		"track.m4a":                "audio/mp4",
		"track.wav":                "audio/wav",
		"README":                   "application/octet-stream",
		"archive.zip":              "application/octet-stream",
	}
	for filename, expected := range cases {
		contentType := fi.Identify(bytes.NewReader([]byte("data")), filename)
		assert.Equal(t, expected, contentType, filename)
	}
}

func TestIdentifyBadSignatureFile(t *testing.T) {
	// A missing signature file degrades to extension mapping instead
	// of failing.
	fi := upload.NewFormatIdentifier("/nonexistent/default.sig", logging.MustGetLogger("test"))
	contentType := fi.Identify(bytes.NewReader([]byte("data")), "track.mp3")
	assert.Equal(t, "audio/mpeg", contentType)
}
