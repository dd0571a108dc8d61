package server

import (
	"fmt"
	"net/http"
	"strconv"

	"hourtrim/core/library"
	"hourtrim/model"
	"hourtrim/repository"
)

// TrimRequest is the POST /api/trim body.
type TrimRequest struct {
	HourFile     string `json:"hour_file"`
	RelativePath string `json:"relative_path"`
}

// TrimHandler trims one hour file and answers with the produced audio.
func (h *APIHandler) TrimHandler(w http.ResponseWriter, r *http.Request) {
	var req TrimRequest
	decodeJSON(w, r, &req)

	if req.HourFile == "" || req.RelativePath == "" {
		writeMessage(w, http.StatusBadRequest, "Missing hour_file or relative_path")
		return
	}

	result, err := h.trimmer.Trim(r.Context(), usernameFromContext(r.Context()), req.HourFile, req.RelativePath)
	if err != nil {
		writeErrorWithDetail(w, r, err, "Trimming failed")
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		writeErrorLog(r, "write trimmed payload", err)
	}
}

// TrimHistoryHandler lists recorded trim runs, newest first. ?path= narrows to
// one date directory and ?limit= caps the result.
func (h *APIHandler) TrimHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if h.trims == nil {
		writeJSON(w, http.StatusOK, []*model.TrimRecord{})
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	limit = repository.ClampLimit(limit)

	var (
		records []*model.TrimRecord
		err     error
	)
	if p := q.Get("path"); p != "" {
		rel, verr := library.CleanRelativePath(p)
		if verr != nil {
			writeError(w, r, verr, "Invalid path")
			return
		}
		records, err = h.trims.ListByPath(r.Context(), rel, limit)
	} else {
		records, err = h.trims.ListRecent(r.Context(), limit)
	}
	if err != nil {
		writeError(w, r, err, "Failed to load trim history")
		return
	}
	if records == nil {
		records = []*model.TrimRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
