package library

import (
	"encoding/json"
	"os"
	"path/filepath"

	"hourtrim/logger"
	"hourtrim/model"
)

// ReadClipMetadata loads clip_metadata.json for one date directory. A missing
// or unparsable file yields an empty, non-nil slice.
func (l Layout) ReadClipMetadata(rel string) []model.ClipMeta {
	file := filepath.Join(l.TrimmedDir(rel), model.ClipMetadataFile)
	var clips []model.ClipMeta
	if !readJSON(file, &clips) || clips == nil {
		return []model.ClipMeta{}
	}
	return clips
}

// ReadMissingData loads missing_data.json for one date directory. A missing or
// unparsable file yields an empty, non-nil map.
func (l Layout) ReadMissingData(rel string) model.MissingData {
	file := filepath.Join(l.TrimmedDir(rel), model.MissingDataFile)
	var data model.MissingData
	if !readJSON(file, &data) || data.StatusPerHour == nil {
		return model.MissingData{StatusPerHour: map[string]string{}}
	}
	return data
}

func readJSON(file string, v any) bool {
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("Sidecar not found", logger.String("file", file))
		} else {
			logger.Warn("Failed to read sidecar", logger.String("file", file), logger.ErrorField(err))
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("Failed to parse sidecar", logger.String("file", file), logger.ErrorField(err))
		return false
	}
	return true
}
