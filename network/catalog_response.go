package network

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tunevault/library-services/models/catalog"
)

type CatalogResponse struct {
	// Count is the total number of items matching the
	// specified filters. This is useful for List requests.
	// Note that the number of items returned in the response
	// may be fewer than Count. The catalog caps list responses
	// at its page size, so callers must drain all pages.
	Count int

	// The URL of the next page of results.
	Next *string

	// The URL of the previous page of results.
	Previous *string

	// The HTTP request that was (or would have been) sent to
	// the catalog REST server. This is useful for logging and
	// debugging.
	Request *http.Request

	// The HTTP Response from the server. You can get the
	// HTTP status code, headers, etc. through this.
	//
	// Do not try to read Response.Body, since it's already been read
	// and the stream has been closed. Use the RawResponseData()
	// method instead.
	Response *http.Response

	// The error, if any, that occurred while processing this
	// request. Errors may come from the server (4xx or 5xx
	// responses) or from the client (e.g. if it could not
	// parse the JSON response).
	Error error

	// The type of object(s) this response contains.
	objectType CatalogObjectType

	// A slice of Song pointers. Will be nil if objectType is
	// not Song.
	songs []*catalog.Song

	// A slice of Genre pointers. Will be nil if objectType is
	// not Genre.
	genres []*catalog.Genre

	// A slice of Playlist pointers. Will be nil if objectType is
	// not Playlist.
	playlists []*catalog.Playlist

	// A slice of BucketUsageStat pointers. Will be nil if
	// objectType is not UsageStat.
	usageStats []*catalog.BucketUsageStat

	// Indicates whether the HTTP response body has been
	// read (and closed).
	hasBeenRead bool

	listHasBeenParsed bool

	// The raw data contained in the body of the HTTP
	// response.
	data []byte
}

type CatalogObjectType string

const (
	CatalogSong      CatalogObjectType = "Song"
	CatalogGenre     CatalogObjectType = "Genre"
	CatalogPlaylist  CatalogObjectType = "Playlist"
	CatalogUsageStat CatalogObjectType = "UsageStat"
)

// Creates a new CatalogResponse and returns a pointer to it.
func NewCatalogResponse(objType CatalogObjectType) *CatalogResponse {
	return &CatalogResponse{
		Count:             0,
		Next:              nil,
		Previous:          nil,
		objectType:        objType,
		hasBeenRead:       false,
		listHasBeenParsed: false,
	}
}

// Returns the raw body of the HTTP response as a byte slice.
// The return value may be nil.
func (resp *CatalogResponse) RawResponseData() ([]byte, error) {
	if !resp.hasBeenRead {
		resp.readResponse()
	}
	return resp.data, resp.Error
}

// Reads the body of an HTTP response object, closes the stream, and
// returns a byte array. The body MUST be closed, or you'll wind up
// with a lot of open network connections.
func (resp *CatalogResponse) readResponse() {
	if !resp.hasBeenRead && resp.Response != nil && resp.Response.Body != nil {
		resp.data, resp.Error = io.ReadAll(resp.Response.Body)
		resp.Response.Body.Close()
		resp.hasBeenRead = true
	}
}

// ObjectNotFound returns true if the catalog replied with 404/Not Found.
// This is a common expected case, and we want to handle it specially.
func (resp *CatalogResponse) ObjectNotFound() bool {
	return resp.Response != nil && resp.Response.StatusCode == http.StatusNotFound
}

// IsUniqueViolation returns true if the catalog rejected a write
// because it would violate a unique constraint. The upload flow maps
// this to a duplicate-upload error.
func (resp *CatalogResponse) IsUniqueViolation() bool {
	return resp.Response != nil && resp.Response.StatusCode == http.StatusConflict
}

// Returns the type of object(s) contained in this response.
func (resp *CatalogResponse) ObjectType() CatalogObjectType {
	return resp.objectType
}

// Returns true if the response includes a link to the next page
// of results.
func (resp *CatalogResponse) HasNextPage() bool {
	return resp.Next != nil && *resp.Next != ""
}

// Returns the URL parameters to request the next page of results,
// or nil if there is no next page.
func (resp *CatalogResponse) ParamsForNextPage() url.Values {
	if resp.HasNextPage() {
		nextURL, _ := url.Parse(*resp.Next)
		if nextURL != nil {
			return nextURL.Query()
		}
	}
	return nil
}

// Returns the Song parsed from the HTTP response body, or nil.
func (resp *CatalogResponse) Song() *catalog.Song {
	if len(resp.songs) > 0 {
		return resp.songs[0]
	}
	return nil
}

// Returns a list of Songs parsed from the HTTP response body.
func (resp *CatalogResponse) Songs() []*catalog.Song {
	if resp.songs == nil {
		return make([]*catalog.Song, 0)
	}
	return resp.songs
}

// Returns the Genre parsed from the HTTP response body, or nil.
func (resp *CatalogResponse) Genre() *catalog.Genre {
	if len(resp.genres) > 0 {
		return resp.genres[0]
	}
	return nil
}

// Returns a list of Genres parsed from the HTTP response body.
func (resp *CatalogResponse) Genres() []*catalog.Genre {
	if resp.genres == nil {
		return make([]*catalog.Genre, 0)
	}
	return resp.genres
}

// Returns the Playlist parsed from the HTTP response body, or nil.
func (resp *CatalogResponse) Playlist() *catalog.Playlist {
	if len(resp.playlists) > 0 {
		return resp.playlists[0]
	}
	return nil
}

// Returns a list of Playlists parsed from the HTTP response body.
func (resp *CatalogResponse) Playlists() []*catalog.Playlist {
	if resp.playlists == nil {
		return make([]*catalog.Playlist, 0)
	}
	return resp.playlists
}

// Returns a list of BucketUsageStats parsed from the HTTP response body.
func (resp *CatalogResponse) UsageStats() []*catalog.BucketUsageStat {
	if resp.usageStats == nil {
		return make([]*catalog.BucketUsageStat, 0)
	}
	return resp.usageStats
}

// UnmarshalJSONList converts a JSON list response from the catalog
// server into a list of usable objects. The catalog list response has
// this structure:
//
// {
//   "count": 500
//   "next": "https://example.com/songs?per_page=20&page=11"
//   "previous": "https://example.com/songs?per_page=20&page=9"
//   "results": [... array of arbitrary objects ...]
// }
func (resp *CatalogResponse) UnmarshalJSONList() error {
	switch resp.objectType {
	case CatalogSong:
		return resp.decodeAsSongList()
	case CatalogGenre:
		return resp.decodeAsGenreList()
	case CatalogPlaylist:
		return resp.decodeAsPlaylistList()
	case CatalogUsageStat:
		return resp.decodeAsUsageStatList()
	default:
		return fmt.Errorf("CatalogObjectType %v not supported", resp.objectType)
	}
}

func (resp *CatalogResponse) decodeAsSongList() error {
	if resp.listHasBeenParsed {
		return nil
	}
	temp := struct {
		Count    int             `json:"count"`
		Next     *string         `json:"next"`
		Previous *string         `json:"previous"`
		Results  []*catalog.Song `json:"results"`
	}{0, nil, nil, nil}
	data, err := resp.RawResponseData()
	if err != nil {
		resp.Error = err
		return err
	}
	resp.Error = json.Unmarshal(data, &temp)
	resp.Count = temp.Count
	resp.Next = temp.Next
	resp.Previous = temp.Previous
	resp.songs = temp.Results
	resp.listHasBeenParsed = true
	return resp.Error
}

func (resp *CatalogResponse) decodeAsGenreList() error {
	if resp.listHasBeenParsed {
		return nil
	}
	temp := struct {
		Count    int              `json:"count"`
		Next     *string          `json:"next"`
		Previous *string          `json:"previous"`
		Results  []*catalog.Genre `json:"results"`
	}{0, nil, nil, nil}
	data, err := resp.RawResponseData()
	if err != nil {
		resp.Error = err
		return err
	}
	resp.Error = json.Unmarshal(data, &temp)
	resp.Count = temp.Count
	resp.Next = temp.Next
	resp.Previous = temp.Previous
	resp.genres = temp.Results
	resp.listHasBeenParsed = true
	return resp.Error
}

func (resp *CatalogResponse) decodeAsPlaylistList() error {
	if resp.listHasBeenParsed {
		return nil
	}
	temp := struct {
		Count    int                 `json:"count"`
		Next     *string             `json:"next"`
		Previous *string             `json:"previous"`
		Results  []*catalog.Playlist `json:"results"`
	}{0, nil, nil, nil}
	data, err := resp.RawResponseData()
	if err != nil {
		resp.Error = err
		return err
	}
	resp.Error = json.Unmarshal(data, &temp)
	resp.Count = temp.Count
	resp.Next = temp.Next
	resp.Previous = temp.Previous
	resp.playlists = temp.Results
	resp.listHasBeenParsed = true
	return resp.Error
}

func (resp *CatalogResponse) decodeAsUsageStatList() error {
	if resp.listHasBeenParsed {
		return nil
	}
	temp := struct {
		Count    int                        `json:"count"`
		Next     *string                    `json:"next"`
		Previous *string                    `json:"previous"`
		Results  []*catalog.BucketUsageStat `json:"results"`
	}{0, nil, nil, nil}
	data, err := resp.RawResponseData()
	if err != nil {
		resp.Error = err
		return err
	}
	resp.Error = json.Unmarshal(data, &temp)
	resp.Count = temp.Count
	resp.Next = temp.Next
	resp.Previous = temp.Previous
	resp.usageStats = temp.Results
	resp.listHasBeenParsed = true
	return resp.Error
}
