package server

import (
	"net/http"
	"strings"

	"hourtrim/core/library"
	"hourtrim/core/report"
)

// FoldersHandler returns the city/station/recording/date tree below trimmed_files.
func (h *APIHandler) FoldersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, library.BuildTree(h.layout.TrimmedRoot))
}

// ClipsHandler returns clip_metadata.json for ?path=, or [] when there is none.
func (h *APIHandler) ClipsHandler(w http.ResponseWriter, r *http.Request) {
	rel, err := library.CleanRelativePath(r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, r, err, "Invalid path")
		return
	}
	writeJSON(w, http.StatusOK, h.layout.ReadClipMetadata(rel))
}

// MissingHandler returns missing_data.json for ?path=.
func (h *APIHandler) MissingHandler(w http.ResponseWriter, r *http.Request) {
	rel, err := library.CleanRelativePath(r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, r, err, "Invalid path")
		return
	}
	writeJSON(w, http.StatusOK, h.layout.ReadMissingData(rel))
}

// ReportHandler returns the status report for ?path=, as JSON or, with
// format=csv, as a CSV attachment.
func (h *APIHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.reports.Build(r.Context(), q.Get("path"))
	if err != nil {
		writeError(w, r, err, "Report failed")
		return
	}

	if !strings.EqualFold(q.Get("format"), "csv") {
		writeJSON(w, http.StatusOK, rows)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, rows); err != nil {
		// headers are gone, nothing left to report to the client
		writeErrorLog(r, "write csv report", err)
	}
}
