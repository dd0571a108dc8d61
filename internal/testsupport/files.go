package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"hourtrim/model"
)

// PublicDir is a temp public/ tree with audio_files/ and trimmed_files/.
type PublicDir struct {
	t    testing.TB
	Root string
}

// NewPublicDir creates an empty public/ layout below t.TempDir().
func NewPublicDir(t testing.TB) *PublicDir {
	t.Helper()
	root := filepath.Join(t.TempDir(), "public")
	for _, dir := range []string{"audio_files", "trimmed_files"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return &PublicDir{t: t, Root: root}
}

func (p *PublicDir) AudioPath(rel, name string) string {
	return filepath.Join(p.Root, "audio_files", filepath.FromSlash(rel), name)
}

func (p *PublicDir) TrimmedPath(rel, name string) string {
	return filepath.Join(p.Root, "trimmed_files", filepath.FromSlash(rel), name)
}

// WriteSource writes an hour file below audio_files/<rel>.
func (p *PublicDir) WriteSource(rel, name string, data []byte) string {
	p.t.Helper()
	path := p.AudioPath(rel, name)
	p.write(path, data)
	return path
}

// WriteClips writes clip_metadata.json below trimmed_files/<rel>.
func (p *PublicDir) WriteClips(rel string, clips []model.ClipMeta) {
	p.t.Helper()
	data, err := json.Marshal(clips)
	if err != nil {
		p.t.Fatal(err)
	}
	p.write(p.TrimmedPath(rel, model.ClipMetadataFile), data)
}

// WriteMissing writes missing_data.json below trimmed_files/<rel>.
func (p *PublicDir) WriteMissing(rel string, status map[string]string) {
	p.t.Helper()
	data, err := json.Marshal(model.MissingData{StatusPerHour: status})
	if err != nil {
		p.t.Fatal(err)
	}
	p.write(p.TrimmedPath(rel, model.MissingDataFile), data)
}

// MkdirTrimmed creates a date directory below trimmed_files.
func (p *PublicDir) MkdirTrimmed(rel string) {
	p.t.Helper()
	if err := os.MkdirAll(p.TrimmedPath(rel, ""), 0o755); err != nil {
		p.t.Fatal(err)
	}
}

func (p *PublicDir) write(path string, data []byte) {
	p.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		p.t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		p.t.Fatal(err)
	}
}
