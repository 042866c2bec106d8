package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunevault/library-services/models/catalog"
)

func TestSongJSON(t *testing.T) {
	genreID := int64(3)
	song := &catalog.Song{
		ID:       17,
		UserID:   "user-a",
		Title:    "Vivir",
		Artist:   "Marc Anthony",
		GenreID:  &genreID,
		Duration: 214,
		Locator:  "https://media.tunevault.net/abc-Vivir.mp3",
	}
	jsonData, err := song.ToJSON()
	require.Nil(t, err)

	restored, err := catalog.SongFromJSON(jsonData)
	require.Nil(t, err)
	assert.Equal(t, song.ID, restored.ID)
	assert.Equal(t, song.Title, restored.Title)
	assert.Equal(t, song.Locator, restored.Locator)
	require.NotNil(t, restored.GenreID)
	assert.Equal(t, genreID, *restored.GenreID)
}

func TestSongHasLocator(t *testing.T) {
	song := &catalog.Song{Title: "Vivir"}
	assert.False(t, song.HasLocator())
	song.Locator = "https://media.tunevault.net/abc-Vivir.mp3"
	assert.True(t, song.HasLocator())
}

func TestBucketUsageStatHasCapacity(t *testing.T) {
	stat := &catalog.BucketUsageStat{AccountNumber: 1, UsageBytes: 99, ThresholdBytes: 100}
	assert.True(t, stat.HasCapacity())
	stat.UsageBytes = 100
	assert.False(t, stat.HasCapacity())
}
