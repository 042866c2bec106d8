package catalog

import (
	"encoding/json"
	"time"
)

// Song is one catalog record. Locator, when set, is the fully-qualified
// public URL of the backing object in one of our storage buckets. The
// object itself lives and dies independently of this record; the
// reconciliation engine exists to detect and repair the cases where
// the two fall out of step.
type Song struct {
	ID        int64     `json:"id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist,omitempty"`
	GenreID   *int64    `json:"genre_id,omitempty"`
	Duration  int64     `json:"duration"`
	Locator   string    `json:"locator,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func SongFromJSON(jsonData []byte) (*Song, error) {
	s := &Song{}
	err := json.Unmarshal(jsonData, s)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Song) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// HasLocator returns true if this record claims a backing object.
// A record without a locator can never resolve to a storage object,
// so the engine classifies it as broken.
func (s *Song) HasLocator() bool {
	return s.Locator != ""
}
