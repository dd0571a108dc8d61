package model

import "time"

// Event kinds published by the sidecar watcher.
const (
	EventClipMetadata = "clip_metadata"
	EventMissingData  = "missing_data"
	EventTrimmedFile  = "trimmed_file"
)

// LibraryEvent announces a change below the trimmed root.
type LibraryEvent struct {
	Type string    `json:"type"`
	Path string    `json:"path"` // date directory, relative, forward slashes
	File string    `json:"file"`
	Time time.Time `json:"time"`
}
