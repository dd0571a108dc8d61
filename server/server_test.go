package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hourtrim/cache"
	"hourtrim/config"
	"hourtrim/core/audio"
	"hourtrim/core/auth"
	"hourtrim/core/library"
	"hourtrim/core/report"
	"hourtrim/core/watch"
	"hourtrim/internal/testsupport"
	"hourtrim/model"
)

const (
	rel        = "karachi/fm101/morning/2024-05-01"
	testSecret = "server-test-secret"
)

type fixture struct {
	t       *testing.T
	cfg     *config.Config
	pub     *testsupport.PublicDir
	proc    *testsupport.FakeProcessor
	users   *testsupport.MemoryUserRepository
	trims   *testsupport.MemoryTrimRecords
	tokens  *auth.TokenManager
	handler http.Handler
}

func newFixture(t *testing.T, env string) *fixture {
	t.Helper()
	pub := testsupport.NewPublicDir(t)

	web := t.TempDir()
	writeFile(t, filepath.Join(web, "login.html"), "login page")
	writeFile(t, filepath.Join(web, "trim", "index.html"), "trim page")

	cfg := config.Default()
	cfg.Env = env
	cfg.PublicDir = pub.Root
	cfg.WebAppDir = web
	cfg.JWTSecret = testSecret

	f := &fixture{
		t:     t,
		cfg:   &cfg,
		pub:   pub,
		proc:  &testsupport.FakeProcessor{Durations: map[string]float64{}},
		users: testsupport.NewMemoryUserRepository(),
		trims: &testsupport.MemoryTrimRecords{},
	}
	f.tokens = auth.NewTokenManager(testSecret, cfg.SessionTTL())
	layout := library.NewLayout(pub.Root)
	trimmer := audio.NewTrimmer(layout, f.proc, cfg.TrimSeconds, audio.WithRecorder(f.trims))
	reports := report.NewBuilder(layout, f.proc, nil, cfg.TrimSeconds)
	h := NewAPIHandler(f.cfg, auth.NewService(f.users, f.tokens), f.tokens, trimmer, reports, f.trims, watch.NewHub())
	f.handler = NewRouter(h)
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) do(method, target string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			f.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

// session signs up and logs in, returning the session cookie.
func (f *fixture) session(username string) *http.Cookie {
	f.t.Helper()
	creds := CredentialsRequest{Username: username, Password: "pw-" + username}
	if rr := f.do(http.MethodPost, "/api/auth/signup", creds, nil); rr.Code != http.StatusCreated {
		f.t.Fatalf("signup status = %d body = %s", rr.Code, rr.Body)
	}
	rr := f.do(http.MethodPost, "/api/auth/login", creds, nil)
	if rr.Code != http.StatusOK {
		f.t.Fatalf("login status = %d body = %s", rr.Code, rr.Body)
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	f.t.Fatal("no session cookie")
	return nil
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestSignup(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)

	rr := f.do(http.MethodPost, "/api/auth/signup", CredentialsRequest{Username: "alice", Password: "pw"}, nil)
	if rr.Code != http.StatusCreated || decodeMessage(t, rr).Message != "Signup successful" {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}

	rr = f.do(http.MethodPost, "/api/auth/signup", CredentialsRequest{Username: "alice", Password: "other"}, nil)
	if rr.Code != http.StatusBadRequest || decodeMessage(t, rr).Message != auth.MsgUserExists {
		t.Fatalf("duplicate: status = %d body = %s", rr.Code, rr.Body)
	}

	rr = f.do(http.MethodPost, "/api/auth/signup", CredentialsRequest{Username: "bob"}, nil)
	if rr.Code != http.StatusBadRequest || decodeMessage(t, rr).Message != auth.MsgMissingFields {
		t.Fatalf("missing: status = %d body = %s", rr.Code, rr.Body)
	}
	if f.users.Count() != 1 {
		t.Fatalf("users = %d", f.users.Count())
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	for _, env := range []string{config.EnvDevelopment, config.EnvProduction} {
		t.Run(env, func(t *testing.T) {
			f := newFixture(t, env)
			c := f.session("alice")

			if !c.HttpOnly || c.Path != "/" {
				t.Fatalf("cookie = %+v", c)
			}
			if c.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
				t.Fatalf("MaxAge = %d", c.MaxAge)
			}
			if c.Secure != (env == config.EnvProduction) {
				t.Fatalf("Secure = %v in %s", c.Secure, env)
			}
			claims, err := f.tokens.ParseToken(c.Value)
			if err != nil || claims.Username != "alice" {
				t.Fatalf("claims = %+v err = %v", claims, err)
			}
		})
	}
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	f.session("alice")

	wrong := f.do(http.MethodPost, "/api/auth/login", CredentialsRequest{Username: "alice", Password: "bad"}, nil)
	unknown := f.do(http.MethodPost, "/api/auth/login", CredentialsRequest{Username: "nobody", Password: "bad"}, nil)
	for _, rr := range []*httptest.ResponseRecorder{wrong, unknown} {
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rr.Code)
		}
		if len(rr.Result().Cookies()) != 0 {
			t.Fatal("failed login must not set a cookie")
		}
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("bodies differ: %s vs %s", wrong.Body, unknown.Body)
	}
}

func TestAuthStoreFailureHidesCause(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	f.users.Err = errors.New("Error 1045 (28000): Access denied for user 'root'@'10.0.0.5'")

	for _, target := range []string{"/api/auth/signup", "/api/auth/login"} {
		rr := f.do(http.MethodPost, target, CredentialsRequest{Username: "alice", Password: "pw"}, nil)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("%s: status = %d", target, rr.Code)
		}
		if body := decodeMessage(t, rr); body.Error != "" || strings.Contains(rr.Body.String(), "Access denied") {
			t.Fatalf("%s: cause leaked: %s", target, rr.Body)
		}
	}
}

func TestSessionGateRedirectsPages(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	good := f.session("alice")

	forged, err := auth.NewTokenManager("some-other-secret", time.Hour).GenerateToken(1, "alice")
	if err != nil {
		t.Fatal(err)
	}
	expired, err := auth.NewTokenManager(testSecret, -time.Minute).GenerateToken(1, "alice")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"other secret", &http.Cookie{Name: auth.CookieName, Value: forged}},
		{"expired", &http.Cookie{Name: auth.CookieName, Value: expired}},
		{"malformed", &http.Cookie{Name: auth.CookieName, Value: "not.a.token"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, target := range []string{"/trim/", "/trimmed_files/" + rel + "/x.mp3"} {
				rr := f.do(http.MethodGet, target, nil, tc.cookie)
				if rr.Code != http.StatusFound || rr.Header().Get("Location") != LoginPath {
					t.Fatalf("%s: status = %d location = %q", target, rr.Code, rr.Header().Get("Location"))
				}
			}
			rr := f.do(http.MethodGet, "/api/folders", nil, tc.cookie)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("api status = %d", rr.Code)
			}
		})
	}

	rr := f.do(http.MethodGet, "/trim/", nil, good)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "trim page") {
		t.Fatalf("valid session: status = %d body = %s", rr.Code, rr.Body)
	}
}

func TestPublicRoutes(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	for _, target := range []string{LoginPath, "/login.html", "/api/health", "/metrics"} {
		if rr := f.do(http.MethodGet, target, nil, nil); rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d", target, rr.Code)
		}
	}
}

func TestMe(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	c := f.session("alice")
	rr := f.do(http.MethodGet, "/api/auth/me", nil, c)
	var body struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Username != "alice" || body.ID == 0 {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
}

func TestTrimReturnsTrimmedBytes(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	c := f.session("alice")
	payload := []byte("ID3 pretend this is an hour of radio")
	f.pub.WriteSource(rel, "14.mp3", payload)
	f.pub.WriteClips(rel, []model.ClipMeta{{HourFile: "14.mp3", NextHourFile: "15.mp3"}})

	rr := f.do(http.MethodPost, "/api/trim", TrimRequest{HourFile: "14.mp3", RelativePath: rel}, c)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="14_trimmed.mp3"` {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if !bytes.Equal(rr.Body.Bytes(), payload) {
		t.Fatalf("body = %q", rr.Body.Bytes())
	}
	onDisk, err := os.ReadFile(f.pub.TrimmedPath(rel, "14_trimmed.mp3"))
	if err != nil || !bytes.Equal(onDisk, payload) {
		t.Fatalf("output file = %q, %v", onDisk, err)
	}
	calls := f.proc.Calls()
	if len(calls) != 1 || calls[0].MaxSeconds != 3600 {
		t.Fatalf("calls = %+v", calls)
	}
	if len(f.trims.Records) != 1 || f.trims.Records[0].Username != "alice" {
		t.Fatalf("records = %+v", f.trims.Records)
	}
}

func TestTrimErrors(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	c := f.session("alice")
	f.pub.WriteClips(rel, []model.ClipMeta{{HourFile: "14.mp3"}, {HourFile: "15.mp3"}})
	f.pub.WriteSource(rel, "15.mp3", []byte("x"))

	tests := []struct {
		name    string
		req     TrimRequest
		status  int
		message string
	}{
		{"missing hour", TrimRequest{RelativePath: rel}, http.StatusBadRequest, "Missing hour_file or relative_path"},
		{"missing path", TrimRequest{HourFile: "14.mp3"}, http.StatusBadRequest, "Missing hour_file or relative_path"},
		{"traversal", TrimRequest{HourFile: "14.mp3", RelativePath: "../etc"}, http.StatusBadRequest, ""},
		{"no metadata", TrimRequest{HourFile: "03.mp3", RelativePath: rel}, http.StatusNotFound, "Metadata not found"},
		{"no source", TrimRequest{HourFile: "14.mp3", RelativePath: rel}, http.StatusNotFound, "Input file not found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(http.MethodPost, "/api/trim", tc.req, c)
			if rr.Code != tc.status {
				t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
			}
			if tc.message != "" && decodeMessage(t, rr).Message != tc.message {
				t.Fatalf("body = %s", rr.Body)
			}
		})
	}
	if _, err := os.Stat(f.pub.TrimmedPath(rel, "03_trimmed.mp3")); !os.IsNotExist(err) {
		t.Fatal("no output may be created without metadata")
	}

	f.proc.TrimErr = testsupport.ErrFakeTranscoder
	rr := f.do(http.MethodPost, "/api/trim", TrimRequest{HourFile: "15.mp3", RelativePath: rel}, c)
	body := decodeMessage(t, rr)
	if rr.Code != http.StatusInternalServerError || body.Message != "Trimming failed" || body.Error == "" {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
}

func TestFolders(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	c := f.session("alice")
	f.pub.MkdirTrimmed(rel)

	rr := f.do(http.MethodGet, "/api/folders", nil, c)
	var tree []model.City
	if err := json.Unmarshal(rr.Body.Bytes(), &tree); err != nil {
		t.Fatal(err)
	}
	if len(tree) != 1 || tree[0].Name != "karachi" ||
		tree[0].Stations[0].Recordings[0].Dates[0].Path != rel {
		t.Fatalf("tree = %s", rr.Body)
	}
}

func TestClipsAndMissing(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	c := f.session("alice")
	f.pub.WriteClips(rel, []model.ClipMeta{{HourFile: "14.mp3", ExtraMs: 12.5}})

	rr := f.do(http.MethodGet, "/api/clips?path="+rel, nil, c)
	var clips []model.ClipMeta
	if err := json.Unmarshal(rr.Body.Bytes(), &clips); err != nil || len(clips) != 1 || clips[0].ExtraMs != 12.5 {
		t.Fatalf("clips = %s", rr.Body)
	}

	rr = f.do(http.MethodGet, "/api/missing?path="+rel, nil, c)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status_per_hour":{}`) {
		t.Fatalf("missing = %d %s", rr.Code, rr.Body)
	}

	if rr := f.do(http.MethodGet, "/api/clips", nil, c); rr.Code != http.StatusBadRequest {
		t.Fatalf("no path: status = %d", rr.Code)
	}
}

func TestReportCSV(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	c := f.session("alice")
	src := f.pub.WriteSource(rel, "00.mp3", []byte("a"))
	f.proc.Durations[src] = 3630
	f.pub.WriteMissing(rel, map[string]string{"00.mp3": "ok", "01.mp3": "missing"})
	f.pub.WriteClips(rel, []model.ClipMeta{{HourFile: "00.mp3"}})

	rr := f.do(http.MethodGet, "/api/report?format=csv&path="+rel, nil, c)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, report.FileName) {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	want := "Hour,Original Duration,Trimmed Duration,Trimmed,Status\n" +
		"00.mp3,60.50 min,60.00 min,Yes,ok\n" +
		"01.mp3,N/A,N/A,No,missing\n"
	if rr.Body.String() != want {
		t.Fatalf("csv =\n%s", rr.Body)
	}
}

func TestTrimHistory(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	c := f.session("alice")
	now := time.Now()
	f.trims.Records = []*model.TrimRecord{
		{ID: "a", RelativePath: rel, CreatedAt: now.Add(-time.Minute)},
		{ID: "b", RelativePath: "other/x/y/z", CreatedAt: now},
	}

	rr := f.do(http.MethodGet, "/api/trims", nil, c)
	var got []model.TrimRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil || len(got) != 2 || got[0].ID != "b" {
		t.Fatalf("history = %s", rr.Body)
	}

	rr = f.do(http.MethodGet, "/api/trims?limit=5&path="+rel, nil, c)
	got = nil
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil || len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("history by path = %s", rr.Body)
	}
}

func TestStaticAudioFiles(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	c := f.session("alice")
	f.pub.WriteSource(rel, "00.mp3", []byte("audio"))

	rr := f.do(http.MethodGet, "/audio_files/"+rel+"/00.mp3", nil, c)
	if rr.Code != http.StatusOK || rr.Body.String() != "audio" || rr.Header().Get("Content-Type") != "audio/mpeg" {
		t.Fatalf("status = %d type = %q body = %q", rr.Code, rr.Header().Get("Content-Type"), rr.Body)
	}
	if rr := f.do(http.MethodGet, "/audio_files/../../etc/passwd", nil, c); rr.Code == http.StatusOK {
		t.Fatal("escaped the audio root")
	}
}

func TestRequestIDHeader(t *testing.T) {
	f := newFixture(t, config.EnvDevelopment)
	rr := f.do(http.MethodGet, "/api/health", nil, nil)
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatal("missing request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestOpenDurationCacheWithoutRedis(t *testing.T) {
	cfg := config.Default()
	cfg.RedisEnabled = false

	durations, closeCache := OpenDurationCache(context.Background(), &cfg)
	defer closeCache()
	if _, ok := durations.(*cache.MemoryDurationCache); !ok {
		t.Fatalf("durations = %T, want *cache.MemoryDurationCache", durations)
	}
	durations.Set(context.Background(), "k", 12.5)
	if got, ok := durations.Get(context.Background(), "k"); !ok || got != 12.5 {
		t.Fatalf("Get = %v, %v", got, ok)
	}
}
