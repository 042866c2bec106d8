package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/op/go-logging"
	"github.com/tunevault/library-services/constants"
	"github.com/tunevault/library-services/models/catalog"
	"github.com/tunevault/library-services/models/service"
	"github.com/tunevault/library-services/util"
)

// CatalogClient supports basic calls to the catalog REST API: songs,
// genres, and bucket usage stats. The catalog's query and transaction
// engine is not ours; this client is a narrow I/O wrapper over it.
type CatalogClient struct {
	HostURL    string
	APIVersion string
	APIKey     string
	httpClient *http.Client
	logger     *logging.Logger
	transport  *http.Transport
}

// NewCatalogClient creates a new catalog client. Param HostURL should
// come from the config file.
func NewCatalogClient(HostURL, APIVersion, APIKey string, logger *logging.Logger) (*CatalogClient, error) {
	if !util.TestsAreRunning() && APIKey == "" {
		panic("Env var CATALOG_API_KEY cannot be empty.")
	}
	// see security warning on nil PublicSuffixList here:
	// http://gotour.golang.org/src/pkg/net/http/cookiejar/jar.go?s=1011:1492#L24
	cookieJar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("Can't create cookie jar for HTTP client: %v", err)
	}

	transport := &http.Transport{
		DisableKeepAlives: false,
		ForceAttemptHTTP2: true,
	}

	// This is a workaround for a bug in the Go net/http transport,
	// which never refreshes DNS lookups, even when TTL says to refresh
	// every minute. See https://github.com/golang/go/issues/23427
	go func(tr *http.Transport) {
		for {
			time.Sleep(5 * time.Second)
			tr.CloseIdleConnections()
		}
	}(transport)

	httpClient := &http.Client{Jar: cookieJar, Transport: transport}
	return &CatalogClient{
		HostURL:    HostURL,
		APIVersion: APIVersion,
		APIKey:     APIKey,
		logger:     logger,
		httpClient: httpClient,
		transport:  transport}, nil
}

// SongByID returns the song with the specified id, if it exists.
func (client *CatalogClient) SongByID(id int64) *CatalogResponse {
	resp := NewCatalogResponse(CatalogSong)
	resp.songs = make([]*catalog.Song, 1)

	relativeURL := fmt.Sprintf("/api/%s/songs/show/%d", client.APIVersion, id)
	absoluteURL := client.BuildURL(relativeURL)

	client.DoRequest(resp, "GET", absoluteURL, nil)
	if resp.Error != nil {
		return resp
	}

	song := &catalog.Song{}
	resp.Error = json.Unmarshal(resp.data, song)
	if resp.Error == nil {
		resp.songs[0] = song
	}
	return resp
}

// SongList returns one page of songs matching the filter criteria
// specified in params. Params include:
//
// user_id
// genre_id
// artist
// created_at__lteq
// created_at__gteq
// page
// per_page
//
// The catalog caps per_page at 1000; callers that need a complete
// listing must follow ParamsForNextPage until HasNextPage is false.
// AllSongs does that for you.
func (client *CatalogClient) SongList(params url.Values) *CatalogResponse {
	resp := NewCatalogResponse(CatalogSong)
	resp.songs = make([]*catalog.Song, 0)

	relativeURL := fmt.Sprintf("/api/%s/songs?%s", client.APIVersion, encodeParams(params))
	absoluteURL := client.BuildURL(relativeURL)

	client.DoRequest(resp, "GET", absoluteURL, nil)
	if resp.Error != nil {
		return resp
	}

	resp.UnmarshalJSONList()
	return resp
}

// SongSave saves a song record to the catalog. If the song's ID is
// zero, this performs a POST to create a new record. For non-zero IDs,
// this performs a PUT to update the existing record. The response
// object will include a new copy of the song if it was saved
// successfully. A unique-constraint rejection (duplicate locator)
// comes back with IsUniqueViolation() == true.
func (client *CatalogClient) SongSave(song *catalog.Song) *CatalogResponse {
	resp := NewCatalogResponse(CatalogSong)
	resp.songs = make([]*catalog.Song, 1)

	relativeURL := fmt.Sprintf("/api/%s/songs/create", client.APIVersion)
	httpMethod := "POST"
	if song.ID > 0 {
		relativeURL = fmt.Sprintf("/api/%s/songs/update/%d", client.APIVersion, song.ID)
		httpMethod = "PUT"
	}
	absoluteURL := client.BuildURL(relativeURL)

	postData, err := song.ToJSON()
	if err != nil {
		resp.Error = err
	}

	client.DoRequest(resp, httpMethod, absoluteURL, bytes.NewBuffer(postData))
	if resp.Error != nil {
		return resp
	}

	savedSong := &catalog.Song{}
	resp.Error = json.Unmarshal(resp.data, savedSong)
	if resp.Error == nil {
		resp.songs[0] = savedSong
	}
	return resp
}

// SongDelete deletes the song with the specified id. Deleting a song
// that's already gone is not an error; the catalog treats delete as
// idempotent and so do we.
func (client *CatalogClient) SongDelete(id int64) *CatalogResponse {
	resp := NewCatalogResponse(CatalogSong)

	relativeURL := fmt.Sprintf("/api/%s/songs/delete/%d", client.APIVersion, id)
	absoluteURL := client.BuildURL(relativeURL)

	client.DoRequest(resp, "DELETE", absoluteURL, nil)
	if resp.Error != nil && resp.ObjectNotFound() {
		resp.Error = nil
	}
	return resp
}

// SongDeleteBatch deletes the songs with the specified ids in a single
// request, using the catalog's bulk delete-by-id-set operation.
func (client *CatalogClient) SongDeleteBatch(ids []int64) *CatalogResponse {
	resp := NewCatalogResponse(CatalogSong)

	relativeURL := fmt.Sprintf("/api/%s/songs/delete_batch", client.APIVersion)
	absoluteURL := client.BuildURL(relativeURL)

	postData, err := json.Marshal(map[string][]int64{"ids": ids})
	if err != nil {
		resp.Error = err
		return resp
	}

	client.DoRequest(resp, "POST", absoluteURL, bytes.NewBuffer(postData))
	return resp
}

// GenreByID returns the genre with the specified id, if it exists.
func (client *CatalogClient) GenreByID(id int64) *CatalogResponse {
	resp := NewCatalogResponse(CatalogGenre)
	resp.genres = make([]*catalog.Genre, 1)

	relativeURL := fmt.Sprintf("/api/%s/genres/show/%d", client.APIVersion, id)
	absoluteURL := client.BuildURL(relativeURL)

	client.DoRequest(resp, "GET", absoluteURL, nil)
	if resp.Error != nil {
		return resp
	}

	genre := &catalog.Genre{}
	resp.Error = json.Unmarshal(resp.data, genre)
	if resp.Error == nil {
		resp.genres[0] = genre
	}
	return resp
}

// GenreList returns a list of genres matching the filter criteria
// specified in params.
func (client *CatalogClient) GenreList(params url.Values) *CatalogResponse {
	resp := NewCatalogResponse(CatalogGenre)
	resp.genres = make([]*catalog.Genre, 0)

	relativeURL := fmt.Sprintf("/api/%s/genres?%s", client.APIVersion, encodeParams(params))
	absoluteURL := client.BuildURL(relativeURL)

	client.DoRequest(resp, "GET", absoluteURL, nil)
	if resp.Error != nil {
		return resp
	}

	resp.UnmarshalJSONList()
	return resp
}

// PlaylistByID returns the playlist with the specified id, if it
// exists.
func (client *CatalogClient) PlaylistByID(id int64) *CatalogResponse {
	resp := NewCatalogResponse(CatalogPlaylist)
	resp.playlists = make([]*catalog.Playlist, 1)

	relativeURL := fmt.Sprintf("/api/%s/playlists/show/%d", client.APIVersion, id)
	absoluteURL := client.BuildURL(relativeURL)

	client.DoRequest(resp, "GET", absoluteURL, nil)
	if resp.Error != nil {
		return resp
	}

	playlist := &catalog.Playlist{}
	resp.Error = json.Unmarshal(resp.data, playlist)
	if resp.Error == nil {
		resp.playlists[0] = playlist
	}
	return resp
}

// PlaylistList returns a list of playlists matching the filter criteria
// specified in params. Params include user_id, page and per_page.
func (client *CatalogClient) PlaylistList(params url.Values) *CatalogResponse {
	resp := NewCatalogResponse(CatalogPlaylist)
	resp.playlists = make([]*catalog.Playlist, 0)

	relativeURL := fmt.Sprintf("/api/%s/playlists?%s", client.APIVersion, encodeParams(params))
	absoluteURL := client.BuildURL(relativeURL)

	client.DoRequest(resp, "GET", absoluteURL, nil)
	if resp.Error != nil {
		return resp
	}

	resp.UnmarshalJSONList()
	return resp
}

// PlaylistDelete deletes the playlist record with the specified id.
// The songs it references are not touched here; cascade deletion of
// playlist contents is a separate flow.
func (client *CatalogClient) PlaylistDelete(id int64) *CatalogResponse {
	resp := NewCatalogResponse(CatalogPlaylist)

	relativeURL := fmt.Sprintf("/api/%s/playlists/delete/%d", client.APIVersion, id)
	absoluteURL := client.BuildURL(relativeURL)

	client.DoRequest(resp, "DELETE", absoluteURL, nil)
	if resp.Error != nil && resp.ObjectNotFound() {
		resp.Error = nil
	}
	return resp
}

// UsageStatList returns the bucket usage stats for all backing-store
// accounts.
func (client *CatalogClient) UsageStatList() *CatalogResponse {
	resp := NewCatalogResponse(CatalogUsageStat)
	resp.usageStats = make([]*catalog.BucketUsageStat, 0)

	relativeURL := fmt.Sprintf("/api/%s/usage_stats", client.APIVersion)
	absoluteURL := client.BuildURL(relativeURL)

	client.DoRequest(resp, "GET", absoluteURL, nil)
	if resp.Error != nil {
		return resp
	}

	resp.UnmarshalJSONList()
	return resp
}

// UsageStatSave updates the usage counter for one backing-store
// account.
func (client *CatalogClient) UsageStatSave(stat *catalog.BucketUsageStat) *CatalogResponse {
	resp := NewCatalogResponse(CatalogUsageStat)
	resp.usageStats = make([]*catalog.BucketUsageStat, 1)

	relativeURL := fmt.Sprintf("/api/%s/usage_stats/update/%d", client.APIVersion, stat.AccountNumber)
	absoluteURL := client.BuildURL(relativeURL)

	postData, err := stat.ToJSON()
	if err != nil {
		resp.Error = err
		return resp
	}

	client.DoRequest(resp, "PUT", absoluteURL, bytes.NewBuffer(postData))
	if resp.Error != nil {
		return resp
	}

	savedStat := &catalog.BucketUsageStat{}
	resp.Error = json.Unmarshal(resp.data, savedStat)
	if resp.Error == nil {
		resp.usageStats[0] = savedStat
	}
	return resp
}

// -------------------------------------------------------------------------
// Capability methods. These are the full-drain operations the
// reconciliation engine and bucket selector consume through their
// interfaces.
// -------------------------------------------------------------------------

// AllSongs returns every song record in scope, following pagination to
// completion. The catalog silently caps single responses at 1000 rows,
// so a one-page read would misclassify everything past the cap.
func (client *CatalogClient) AllSongs(scope service.Scope) ([]*catalog.Song, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("per_page", strconv.Itoa(constants.CatalogPageSize))
	if !scope.IsGlobal() {
		params.Set("user_id", scope.UserID)
	}
	songs := make([]*catalog.Song, 0)
	for {
		resp := client.SongList(params)
		if resp.Error != nil {
			return nil, resp.Error
		}
		songs = append(songs, resp.Songs()...)
		if !resp.HasNextPage() {
			break
		}
		params = resp.ParamsForNextPage()
	}
	return songs, nil
}

// InsertSong creates a new song record and returns the saved copy.
func (client *CatalogClient) InsertSong(song *catalog.Song) (*catalog.Song, error) {
	resp := client.SongSave(song)
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Song(), nil
}

// DeleteSongsByIDs deletes the given records using the catalog's bulk
// delete-by-id-set operation.
func (client *CatalogClient) DeleteSongsByIDs(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	resp := client.SongDeleteBatch(ids)
	return resp.Error
}

// UsageStats returns current per-account usage, ordered by account
// number.
func (client *CatalogClient) UsageStats() ([]*catalog.BucketUsageStat, error) {
	resp := client.UsageStatList()
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.UsageStats(), nil
}

// SaveUsageStat writes back one account's usage counter.
func (client *CatalogClient) SaveUsageStat(stat *catalog.BucketUsageStat) error {
	resp := client.UsageStatSave(stat)
	return resp.Error
}

// -------------------------------------------------------------------------
// Utility Methods
// -------------------------------------------------------------------------

// BuildURL combines the host and protocol in client.HostURL with
// relativeURL to create an absolute URL. For example, if client.HostURL
// is "http://localhost:3456", then client.BuildURL("/path/to/action.json")
// would return "http://localhost:3456/path/to/action.json".
func (client *CatalogClient) BuildURL(relativeURL string) string {
	return client.HostURL + relativeURL
}

// NewJSONRequest returns a new request with headers indicating
// JSON request and response formats.
//
// Param method can be "GET", "POST", "PUT" or "DELETE".
//
// Param absoluteURL should be the absolute URL. For get requests,
// include params in the query string rather than in the
// requestData param.
//
// Param requestData will be nil for GET requests, and can be
// constructed from bytes.NewBuffer([]byte) for POST and PUT.
func (client *CatalogClient) NewJSONRequest(method, absoluteURL string, requestData io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, absoluteURL, requestData)
	if err != nil {
		return nil, err
	}

	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("X-Catalog-API-Key", client.APIKey)
	req.Header.Add("Connection", "Keep-Alive")
	return req, nil
}

// DoRequest issues an HTTP request, reads the response, and closes the
// connection to the remote server.
//
// Param resp should be a CatalogResponse.
//
// If an error occurs, it will be recorded in resp.Error.
func (client *CatalogClient) DoRequest(resp *CatalogResponse, method, absoluteURL string, requestData io.Reader) {
	request, err := client.NewJSONRequest(method, absoluteURL, requestData)
	resp.Request = request
	if err != nil {
		resp.Error = fmt.Errorf("%s %s: %s", method, absoluteURL, err.Error())
		return
	}

	reqTime := time.Now()
	resp.Response, resp.Error = client.httpClient.Do(request)
	client.logger.Infof("%s %s completed in %s", method, absoluteURL, time.Since(reqTime))
	if resp.Error != nil {
		resp.Error = fmt.Errorf("%s %s: %s", method, absoluteURL, resp.Error.Error())
		return
	}

	// Read the response data and close the response body.
	// That's the only way to close the remote HTTP connection,
	// which will otherwise stay open indefinitely, causing
	// the system to eventually have too many open files.
	resp.readResponse()

	if resp.Error == nil && resp.Response.StatusCode >= 400 {
		body, _ := resp.RawResponseData()
		resp.Error = service.NewHttpError(string(body), nil, method,
			absoluteURL, resp.Response.StatusCode)
	}
}

func encodeParams(params url.Values) string {
	if params == nil {
		return ""
	}
	return params.Encode()
}
