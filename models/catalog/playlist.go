package catalog

import (
	"encoding/json"
	"time"
)

type Playlist struct {
	ID        int64     `json:"id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	SongIDs   []int64   `json:"song_ids,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func PlaylistFromJSON(jsonData []byte) (*Playlist, error) {
	p := &Playlist{}
	err := json.Unmarshal(jsonData, p)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Playlist) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}
