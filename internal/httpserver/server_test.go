package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/clipsort/internal/httpserver"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
	"github.com/MrSnakeDoc/clipsort/internal/organize"
	"github.com/MrSnakeDoc/clipsort/internal/scan"
	"github.com/MrSnakeDoc/clipsort/internal/session"
	filestore "github.com/MrSnakeDoc/clipsort/internal/store/file"
	"github.com/MrSnakeDoc/clipsort/internal/stream"
	"github.com/MrSnakeDoc/clipsort/internal/web"
)

type env struct {
	handler http.Handler
	deps    deps.Deps
	source  string
	target  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	source := filepath.Join(root, "source")
	target := filepath.Join(root, "target")
	for _, dir := range []string{source, target, filepath.Join(source, "nested")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	log := logger.New("error", false)
	scanner, err := scan.New(scan.Options{Exclude: scan.DefaultExclude}, log)
	if err != nil {
		t.Fatal(err)
	}
	store := filestore.New(filepath.Join(root, "categories.json"), []string{"Food Videos", "Sports Videos"}, log)
	organizer := organize.New(log)
	ctrl := session.New(scanner, organizer, store, session.Options{}, log)

	d := deps.Deps{
		Logger:          log,
		StartTime:       time.Now(),
		Version:         "test",
		AllowedHosts:    []string{"localhost", "127.0.0.1"},
		AllowedCIDRS:    []string{"127.0.0.0/8"},
		Categories:      store,
		CategoryBackend: "file",
		Scanner:         scanner,
		Accepts:         scanner.Accepts,
		Organizer:       organizer,
		Streamer:        stream.New(log),
		Session:         ctrl,
		SweepTrigger:    make(chan struct{}, 1),
		HomeDir:         root,
		UI:              web.FS(),
	}
	return &env{
		handler: httpserver.NewRouter(log, d),
		deps:    d,
		source:  source,
		target:  target,
	}
}

func (e *env) write(t *testing.T, rel string, size int) string {
	t.Helper()
	path := filepath.Join(e.source, rel)
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (e *env) do(t *testing.T, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		raw = b
		header = append([]string{"Content-Type", "application/json"}, header...)
	}
	return e.doRaw(t, method, target, raw, header...)
}

// doRaw sends body as is; headers come in name/value pairs and override
// earlier ones.
func (e *env) doRaw(t *testing.T, method, target string, body []byte, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:50000"
	req.Host = "localhost:3000"
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestCategoriesAPI(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/categories", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	if got := decode[[]string](t, rec); len(got) != 2 || got[0] != "Food Videos" {
		t.Fatalf("GET = %v", got)
	}

	tests := []struct {
		name     string
		category string
		status   int
		wantLen  int
	}{
		{"new category", "Cats", http.StatusOK, 3},
		{"duplicate is a no-op", "Cats", http.StatusOK, 3},
		{"trimmed duplicate", "  Cats ", http.StatusOK, 3},
		{"case differs", "cats", http.StatusOK, 4},
		{"empty", "   ", http.StatusBadRequest, 0},
		{"separator", "a/b", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/categories", map[string]string{"category": tt.category})
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				if got := decode[map[string]any](t, rec); got["kind"] != "validation" {
					t.Errorf("kind = %v, want validation", got["kind"])
				}
				return
			}
			if got := decode[[]string](t, rec); len(got) != tt.wantLen {
				t.Errorf("list = %v, want %d entries", got, tt.wantLen)
			}
		})
	}
}

func TestCategoriesAPI_InvalidJSON(t *testing.T) {
	e := newEnv(t)
	rec := e.doRaw(t, http.MethodPost, "/api/categories", []byte("{not json"), "Content-Type", "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestScanDirectoryAPI(t *testing.T) {
	e := newEnv(t)
	e.write(t, "b.mp4", 10)
	e.write(t, "a.MOV", 10)
	e.write(t, "readme.txt", 10)
	e.write(t, ".hidden.mp4", 10)
	e.write(t, filepath.Join("nested", "c.mkv"), 10)

	tests := []struct {
		name   string
		body   any
		path   string
		status int
		count  int
	}{
		{"flat", map[string]any{"directory": e.source}, "/api/scan-directory", http.StatusOK, 2},
		{"recursive", map[string]any{"directory": e.source, "recursive": true}, "/api/scan-directory", http.StatusOK, 3},
		{"legacy alias", map[string]any{"sourceDir": e.source}, "/api/load-videos", http.StatusOK, 2},
		{"empty dir", map[string]any{"directory": e.target}, "/api/scan-directory", http.StatusOK, 0},
		{"missing dir", map[string]any{"directory": filepath.Join(e.source, "nope")}, "/api/scan-directory", http.StatusNotFound, -1},
		{"no dir", map[string]any{}, "/api/scan-directory", http.StatusBadRequest, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.count < 0 {
				return
			}
			if strings.TrimSpace(rec.Body.String()) == "null" {
				t.Fatal("empty result must be [] not null")
			}
			got := decode[[]map[string]any](t, rec)
			if len(got) != tt.count {
				t.Errorf("got %d entries, want %d", len(got), tt.count)
			}
		})
	}
}

func TestOrganizeAPI(t *testing.T) {
	e := newEnv(t)
	src := e.write(t, "clip.mp4", 10)

	body := map[string]string{
		"sourceFile":      src,
		"targetDirectory": e.target,
		"category":        "Cats",
		"newFileName":     "tom",
	}
	rec := e.do(t, http.MethodPost, "/api/organize", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	got := decode[map[string]any](t, rec)
	want := filepath.Join(e.target, "Cats", "tom.mp4")
	if got["success"] != true || got["destination"] != want {
		t.Fatalf("response = %v", got)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("destination missing: %v", err)
	}

	// Source is gone now.
	rec = e.do(t, http.MethodPost, "/api/move-video", body)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second move status = %d, want 404", rec.Code)
	}

	// Destination taken.
	src2 := e.write(t, "other.mp4", 10)
	body["sourceFile"] = src2
	rec = e.do(t, http.MethodPost, "/api/organize", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("conflict status = %d, want 409", rec.Code)
	}
	if _, err := os.Stat(src2); err != nil {
		t.Errorf("source must survive a refused move: %v", err)
	}

	body["newFileName"] = "../escape"
	rec = e.do(t, http.MethodPost, "/api/organize", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("traversal status = %d, want 400", rec.Code)
	}
}

func TestOrganizeAPI_ForgetsSessionEntry(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		spell func(e *env, path string) string
	}{
		{"doubled separator", func(e *env, path string) string {
			return e.source + string(filepath.Separator) + string(filepath.Separator) + filepath.Base(path)
		}},
		{"dot segments", func(e *env, path string) string {
			return filepath.Join(e.source, "nested") + string(filepath.Separator) + ".." + string(filepath.Separator) + filepath.Base(path)
		}},
		{"surrounding spaces", func(e *env, path string) string {
			return "  " + path + " "
		}},
		{"relative to working directory", func(e *env, path string) string {
			rel, err := filepath.Rel(wd, path)
			if err != nil {
				t.Fatal(err)
			}
			return rel
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			a := e.write(t, "a.mp4", 10)
			e.write(t, "b.mp4", 10)
			rec := e.do(t, http.MethodPost, "/api/session/source", map[string]string{"directory": e.source})
			if snap := decode[session.Snapshot](t, rec); len(snap.Videos) != 2 {
				t.Fatalf("videos after source = %d", len(snap.Videos))
			}

			rec = e.do(t, http.MethodPost, "/api/organize", map[string]string{
				"sourceFile":      tt.spell(e, a),
				"targetDirectory": e.target,
				"category":        "Cats",
				"newFileName":     "tom",
			})
			if rec.Code != http.StatusOK {
				t.Fatalf("organize status = %d (%s)", rec.Code, rec.Body.String())
			}

			snap := decode[session.Snapshot](t, e.do(t, http.MethodGet, "/api/session", nil))
			for _, v := range snap.Videos {
				if v.Path == a {
					t.Errorf("moved file still listed: %s", v.Path)
				}
			}
			if len(snap.Videos) != 1 {
				t.Errorf("videos = %d, want 1", len(snap.Videos))
			}
		})
	}
}

func TestMediaAPI(t *testing.T) {
	e := newEnv(t)
	src := e.write(t, "clip.mp4", 1000)
	url := stream.URLFor(src)

	rec := e.do(t, http.MethodGet, url, nil, "Range", "bytes=0-99")
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("range status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 0-99/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	if rec.Body.Len() != 100 {
		t.Errorf("body = %d bytes, want 100", rec.Body.Len())
	}

	rec = e.do(t, http.MethodGet, url, nil)
	if rec.Code != http.StatusOK || rec.Body.Len() != 1000 {
		t.Errorf("full status = %d, len = %d", rec.Code, rec.Body.Len())
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q", got)
	}

	rec = e.do(t, http.MethodHead, url, nil)
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD status = %d, len = %d", rec.Code, rec.Body.Len())
	}

	rec = e.do(t, http.MethodGet, url, nil, "Range", "bytes=5000-")
	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Errorf("unsatisfiable status = %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, stream.URLFor(filepath.Join(e.source, "missing.mp4")), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("error responses must carry CORS header")
	}
}

func TestSessionFlow(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a.mp4", 10)
	e.write(t, "b.mp4", 10)

	rec := e.do(t, http.MethodGet, "/api/session", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET session status = %d", rec.Code)
	}
	if snap := decode[session.Snapshot](t, rec); snap.State != session.StateIdle {
		t.Fatalf("initial state = %q", snap.State)
	}

	rec = e.do(t, http.MethodPost, "/api/session/source", map[string]string{"directory": e.source})
	snap := decode[session.Snapshot](t, rec)
	if rec.Code != http.StatusOK || snap.State != session.StateReady || len(snap.Videos) != 2 {
		t.Fatalf("source: status=%d state=%q videos=%d", rec.Code, snap.State, len(snap.Videos))
	}
	if snap.FileName != "a" || snap.CurrentVideo == nil || snap.CurrentVideo.URL == "" {
		t.Fatalf("current selection = %+v fileName=%q", snap.CurrentVideo, snap.FileName)
	}

	rec = e.do(t, http.MethodPost, "/api/session/organize", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("organize without target/category status = %d", rec.Code)
	}
	if snap := decode[map[string]any](t, rec); snap["session"] == nil {
		t.Error("error response should carry the session snapshot")
	}

	e.do(t, http.MethodPost, "/api/session/target", map[string]string{"directory": e.target})
	rec = e.do(t, http.MethodPost, "/api/session/categories", map[string]string{"category": "Cats"})
	if snap := decode[session.Snapshot](t, rec); snap.Category != "Cats" {
		t.Fatalf("category after add = %q", snap.Category)
	}
	e.do(t, http.MethodPut, "/api/session/name", map[string]string{"fileName": "renamed"})

	rec = e.do(t, http.MethodPost, "/api/session/organize", nil)
	snap = decode[session.Snapshot](t, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("organize status = %d (%s)", rec.Code, rec.Body.String())
	}
	if len(snap.Videos) != 1 || snap.Notification == nil {
		t.Fatalf("after organize: videos=%d notification=%v", len(snap.Videos), snap.Notification)
	}
	if _, err := os.Stat(filepath.Join(e.target, "Cats", "renamed.mp4")); err != nil {
		t.Fatalf("organized file missing: %v", err)
	}

	rec = e.do(t, http.MethodDelete, "/api/session/notification", nil)
	if snap := decode[session.Snapshot](t, rec); snap.Notification != nil {
		t.Error("notification not dismissed")
	}

	rec = e.do(t, http.MethodPost, "/api/session/select", map[string]int{"index": 5})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out of range select status = %d", rec.Code)
	}
}

func TestSessionSource_Empty(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/session/source", map[string]string{"directory": e.target})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	snap := decode[session.Snapshot](t, rec)
	if snap.Error == nil || snap.Error.Message != session.EmptyMessage {
		t.Fatalf("error = %+v", snap.Error)
	}
}

func TestRefresh(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/session/refresh", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first refresh = %d, want 202", rec.Code)
	}
	rec = e.do(t, http.MethodPost, "/api/session/refresh", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second refresh = %d, want 429", rec.Code)
	}
	<-e.deps.SweepTrigger
}

func TestDirectoriesAPI(t *testing.T) {
	e := newEnv(t)
	for _, dir := range []string{"Beta", "alpha", ".git"} {
		if err := os.Mkdir(filepath.Join(e.source, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	rec := e.do(t, http.MethodGet, "/api/directories?path="+e.source, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var got struct {
		Path string `json:"path"`
		Dirs []struct {
			Name string `json:"name"`
		} `json:"dirs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range got.Dirs {
		names = append(names, d.Name)
	}
	if strings.Join(names, ",") != "alpha,Beta,nested" {
		t.Errorf("dirs = %v", names)
	}

	rec = e.do(t, http.MethodGet, "/api/directories?path="+filepath.Join(e.source, "nope"), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing dir status = %d", rec.Code)
	}
}

func TestAccessRestrictions(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		remote string
		host   string
		status int
	}{
		{"loopback", "127.0.0.1:1", "localhost:3000", http.StatusOK},
		{"ip host", "127.0.0.1:1", "127.0.0.1:3000", http.StatusOK},
		{"foreign client", "192.168.1.20:1", "localhost:3000", http.StatusForbidden},
		{"rebinding host", "127.0.0.1:1", "evil.example.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
			req.RemoteAddr = tt.remote
			req.Host = tt.host
			rec := httptest.NewRecorder()
			e.handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodOptions, "/api/organize", nil,
		"Origin", "http://localhost:5173",
		"Access-Control-Request-Method", "POST")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the allowed origin echoed", got)
	}

	rec = e.do(t, http.MethodOptions, "/api/organize", nil,
		"Origin", "https://evil.example",
		"Access-Control-Request-Method", "POST")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign preflight status = %d, want 403", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign preflight got Access-Control-Allow-Origin = %q", got)
	}
}

func TestForeignOriginCannotReadMedia(t *testing.T) {
	e := newEnv(t)
	video := e.write(t, "clip.mp4", 100)
	key := filepath.Join(e.source, "id_rsa")
	if err := os.WriteFile(key, []byte("PRIVATE KEY"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		origin string
		status int
	}{
		{"foreign page, video", video, "https://evil.example", http.StatusForbidden},
		{"foreign page, key file", key, "https://evil.example", http.StatusForbidden},
		{"same origin, key file", key, "http://localhost:3000", http.StatusNotFound},
		{"no origin, key file", key, "", http.StatusNotFound},
		{"same origin, video", video, "http://localhost:3000", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var header []string
			if tt.origin != "" {
				header = []string{"Origin", tt.origin}
			}
			rec := e.do(t, http.MethodGet, stream.URLFor(tt.path), nil, header...)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if strings.Contains(rec.Body.String(), "PRIVATE KEY") {
				t.Fatal("non-video file content leaked")
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "*" && rec.Code == http.StatusOK {
				t.Error("file bytes served with a wildcard origin")
			}
		})
	}
}

func TestForeignOriginCannotOrganize(t *testing.T) {
	e := newEnv(t)
	src := e.write(t, "clip.mp4", 10)
	body, _ := json.Marshal(map[string]string{
		"sourceFile":      src,
		"targetDirectory": e.target,
		"category":        "Stolen",
		"newFileName":     "gone",
	})

	tests := []struct {
		name   string
		header []string
		status int
	}{
		{"foreign page, simple request", []string{"Content-Type", "text/plain", "Origin", "https://evil.example"}, http.StatusForbidden},
		{"foreign page, json", []string{"Content-Type", "application/json", "Origin", "https://evil.example"}, http.StatusForbidden},
		{"null origin", []string{"Content-Type", "application/json", "Origin", "null"}, http.StatusForbidden},
		{"no origin, text/plain", []string{"Content-Type", "text/plain"}, http.StatusBadRequest},
		{"no origin, no content type", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.doRaw(t, http.MethodPost, "/api/organize", body, tt.header...)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if _, err := os.Stat(src); err != nil {
				t.Fatalf("source must not move: %v", err)
			}
		})
	}

	// The UI's own origin still works.
	rec := e.doRaw(t, http.MethodPost, "/api/organize", body,
		"Content-Type", "application/json; charset=utf-8", "Origin", "http://127.0.0.1:3000")
	if rec.Code != http.StatusOK {
		t.Fatalf("same-origin organize status = %d (%s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://127.0.0.1:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestHealthAndStatus(t *testing.T) {
	e := newEnv(t)

	for _, path := range []string{"/healthz", "/readyz", "/api/status"} {
		rec := e.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestUI(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<html") {
		t.Error("index page not served")
	}
	rec = e.do(t, http.MethodGet, "/static/app.js", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("app.js status = %d", rec.Code)
	}
}
