package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"hourtrim/core/audio"
)

// StaticHandler 提供 public/ 下的音频文件
type StaticHandler struct {
	prefix string
	root   string
}

// NewStaticHandler serves files below root for URLs starting with prefix.
func NewStaticHandler(prefix, root string) *StaticHandler {
	return &StaticHandler{prefix: prefix, root: root}
}

// ServeHTTP 实现 http.Handler 接口
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, h.prefix)
	rel = path.Clean("/" + rel)
	if rel == "/" {
		http.NotFound(w, r)
		return
	}

	full := filepath.Join(h.root, filepath.FromSlash(rel))
	f, err := os.Open(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", detectContentType(info.Name()))
	w.Header().Set("Cache-Control", "private, max-age=300")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// detectContentType 根据扩展名检测内容类型
func detectContentType(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return "application/json"
	}
	return audio.ContentTypeFor(name)
}
