package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/tunevault/library-services/models/service"
)

// handleOrphanScan runs a global orphan scan and returns the result.
// The result is also cached under the caller's session so a following
// DELETE can revalidate exactly what the admin saw.
func (s *Server) handleOrphanScan(w http.ResponseWriter, r *http.Request) {
	session := SessionFromRequest(r)
	result, err := s.Engine.FindOrphans(r.Context(), service.GlobalScope())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err = s.Engine.SaveOrphanSnapshot(session.ID, result); err != nil {
		s.Logger.Warningf("Could not cache orphan scan for session %s: %v", session.ID, err)
	}
	writeJSON(w, http.StatusOK, result)
}

// handleOrphanPurge deletes orphaned objects. If the session has a
// cached scan, only its keys are purged, after revalidation against a
// fresh scan. With no cached scan we purge everything a fresh scan
// finds. Either way nothing is deleted on the word of a stale listing.
func (s *Server) handleOrphanPurge(w http.ResponseWriter, r *http.Request) {
	session := SessionFromRequest(r)
	keys, err := s.Engine.RevalidateOrphans(r.Context(), session.ID)
	if err != nil {
		result, scanErr := s.Engine.FindOrphans(r.Context(), service.GlobalScope())
		if scanErr != nil {
			writeError(w, http.StatusInternalServerError, scanErr.Error())
			return
		}
		keys = result.OrphanKeys
	}
	purged := s.Engine.PurgeOrphans(r.Context(), keys)
	if err = s.Engine.ClearSnapshot(session.ID); err != nil {
		s.Logger.Warningf("Could not clear snapshot for session %s: %v", session.ID, err)
	}
	writeJSON(w, http.StatusOK, purged)
}

// handleBrokenScan scans for broken records in the calling admin's own
// library and caches the result under their session.
func (s *Server) handleBrokenScan(w http.ResponseWriter, r *http.Request) {
	session := SessionFromRequest(r)
	result, err := s.Engine.FindBrokenRecords(r.Context(), service.UserScope(session.UserID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err = s.Engine.SaveBrokenSnapshot(session.ID, result); err != nil {
		s.Logger.Warningf("Could not cache broken-record scan for session %s: %v", session.ID, err)
	}
	writeJSON(w, http.StatusOK, result)
}

// handleBrokenPurge deletes broken catalog records, preferring the
// session's revalidated snapshot over a blind fresh purge.
func (s *Server) handleBrokenPurge(w http.ResponseWriter, r *http.Request) {
	session := SessionFromRequest(r)
	records, err := s.Engine.RevalidateBrokenRecords(r.Context(), session.ID)
	if err != nil {
		result, scanErr := s.Engine.FindBrokenRecords(r.Context(), service.UserScope(session.UserID))
		if scanErr != nil {
			writeError(w, http.StatusInternalServerError, scanErr.Error())
			return
		}
		records = result.BrokenRecords
	}
	purged, err := s.Engine.PurgeBrokenRecords(records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err = s.Engine.ClearSnapshot(session.ID); err != nil {
		s.Logger.Warningf("Could not clear snapshot for session %s: %v", session.ID, err)
	}
	writeJSON(w, http.StatusOK, purged)
}

type rectifyRequest struct {
	GenreID *int64 `json:"genreId"`
}

// handleRectify finds orphans in the calling admin's scope and inserts
// a catalog record for each, owned by the caller. Per-key failures
// come back in the result rather than failing the request.
func (s *Server) handleRectify(w http.ResponseWriter, r *http.Request) {
	session := SessionFromRequest(r)
	req := rectifyRequest{}
	// An empty body means "no default genre", not a bad request. A
	// non-empty body that doesn't parse is a bad request: silently
	// ignoring it would rectify with the wrong genre.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err = json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse request body: "+err.Error())
			return
		}
	}
	scan, err := s.Engine.FindOrphans(r.Context(), service.UserScope(session.UserID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	result := s.Engine.RectifyOrphans(r.Context(), scan.OrphanKeys, session.UserID, req.GenreID)
	writeJSON(w, http.StatusOK, result)
}

type objectDeleteRequest struct {
	Locator string `json:"locator"`
}

// handleObjectDelete removes a single object by locator. The upload
// flow calls this to clean up the stored file of a rejected duplicate,
// so there is no catalog record to delete alongside it.
func (s *Server) handleObjectDelete(w http.ResponseWriter, r *http.Request) {
	req := objectDeleteRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Locator == "" {
		writeError(w, http.StatusBadRequest, "request body must include a locator")
		return
	}
	bucket, key, err := s.Config.BucketAndKeyFor(req.Locator)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err = s.Uploads.Store.DeleteObject(r.Context(), bucket, key); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": req.Locator})
}
