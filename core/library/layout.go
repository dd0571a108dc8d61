// Package library reads the on-disk recording hierarchy:
//
//	<public>/audio_files/<city>/<station>/<recording>/<date>/<hour_file>    sources
//	<public>/trimmed_files/<city>/<station>/<recording>/<date>/...          outputs + sidecars
//
// Sidecars (clip_metadata.json, missing_data.json) are written by an offline
// pipeline. Nothing here assumes they exist.
package library

import (
	"path"
	"path/filepath"
	"strings"

	"hourtrim/core/errs"
)

// TreeDepth is the fixed number of directory levels below the trimmed root.
const TreeDepth = 4

// Layout resolves relative recording paths against the two roots.
type Layout struct {
	AudioRoot   string
	TrimmedRoot string
}

// NewLayout creates a Layout rooted at publicDir.
func NewLayout(publicDir string) Layout {
	return Layout{
		AudioRoot:   filepath.Join(publicDir, "audio_files"),
		TrimmedRoot: filepath.Join(publicDir, "trimmed_files"),
	}
}

// CleanRelativePath validates a client supplied "<city>/<station>/<recording>/<date>"
// path. Absolute paths and ".." segments are rejected.
func CleanRelativePath(rel string) (string, error) {
	rel = strings.TrimSpace(strings.ReplaceAll(rel, "\\", "/"))
	if rel == "" {
		return "", errs.Validation("Missing relative_path")
	}
	if strings.HasPrefix(rel, "/") || filepath.IsAbs(rel) {
		return "", errs.Validation("relative_path must be relative")
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return "", errs.Validation("relative_path must not contain '..'")
		}
	}
	cleaned := path.Clean(rel)
	if cleaned == "." {
		return "", errs.Validation("Missing relative_path")
	}
	return cleaned, nil
}

// CleanHourFile validates a bare hour file name.
func CleanHourFile(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errs.Validation("Missing hour_file")
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", errs.Validation("hour_file must be a file name")
	}
	return name, nil
}

// SourcePath is where the hour file is expected: audio_files/<rel>/<hour>.
func (l Layout) SourcePath(rel, hourFile string) string {
	return filepath.Join(l.AudioRoot, filepath.FromSlash(rel), hourFile)
}

// TrimmedDir is the date directory below the trimmed root.
func (l Layout) TrimmedDir(rel string) string {
	return filepath.Join(l.TrimmedRoot, filepath.FromSlash(rel))
}

// OutputPath mirrors the source under the trimmed root with the suffix replaced.
func (l Layout) OutputPath(rel, hourFile string) string {
	return filepath.Join(l.TrimmedDir(rel), TrimmedName(hourFile))
}

// TrimmedName inserts "_trimmed" before the extension: 14.mp3 -> 14_trimmed.mp3.
func TrimmedName(hourFile string) string {
	ext := filepath.Ext(hourFile)
	return strings.TrimSuffix(hourFile, ext) + "_trimmed" + ext
}

// IsTrimmedName reports whether name looks like an output of TrimmedName.
func IsTrimmedName(name string) bool {
	ext := filepath.Ext(name)
	return strings.HasSuffix(strings.TrimSuffix(name, ext), "_trimmed")
}

// RelativeDir converts an absolute directory below root back to a forward-slash
// relative path. ok is false when dir is outside root.
func RelativeDir(root, dir string) (string, bool) {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
