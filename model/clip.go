package model

// Sidecar file names produced by the offline pipeline next to each date directory.
const (
	ClipMetadataFile = "clip_metadata.json"
	MissingDataFile  = "missing_data.json"
)

// Hour status values used in missing_data.json.
const (
	HourStatusOK      = "ok"
	HourStatusMissing = "missing"
)

// ClipMeta describes one hour pair that needed trimming. TailClip and HeadClip
// are short excerpts around the hour boundary, relative to the date directory.
type ClipMeta struct {
	HourFile     string  `json:"hour_file"`
	NextHourFile string  `json:"next_hour_file"`
	TailClip     string  `json:"tail_clip"`
	HeadClip     string  `json:"head_clip"`
	ExtraMs      float64 `json:"extra_ms"`
}

// MissingData maps hour file names to HourStatusOK or HourStatusMissing.
type MissingData struct {
	StatusPerHour map[string]string `json:"status_per_hour"`
}

// FindClip returns the entry for hourFile, if any.
func FindClip(clips []ClipMeta, hourFile string) (ClipMeta, bool) {
	for _, c := range clips {
		if c.HourFile == hourFile {
			return c, true
		}
	}
	return ClipMeta{}, false
}
