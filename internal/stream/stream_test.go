package stream

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/clipsort/internal/logger"
)

func fixture(t *testing.T, name string, size int) (string, []byte) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path, data
}

func serve(t *testing.T, method, path, rangeHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/media/x", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	New(logger.New("error", false)).ServeFile(rec, req, path)
	return rec
}

func TestServeFileRange(t *testing.T) {
	path, data := fixture(t, "clip.mp4", 1000)

	rec := serve(t, http.MethodGet, path, "bytes=0-99")

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 0-99/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "100" {
		t.Errorf("Content-Length = %q", got)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), data[:100]) {
		t.Errorf("body has %d bytes, want the first 100", rec.Body.Len())
	}
}

func TestServeFileOpenEndedRange(t *testing.T) {
	path, data := fixture(t, "clip.webm", 1000)

	rec := serve(t, http.MethodGet, path, "bytes=900-")

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 900-999/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/webm" {
		t.Errorf("Content-Type = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), data[900:]) {
		t.Error("body mismatch")
	}
}

func TestServeFileWholeFile(t *testing.T) {
	path, data := fixture(t, "clip.mp4", 1000)

	rec := serve(t, http.MethodGet, path, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Length"); got != "1000" {
		t.Errorf("Content-Length = %q", got)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), data) {
		t.Error("body mismatch")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("file bytes must not be readable cross-origin, got Access-Control-Allow-Origin = %q", got)
	}
}

func TestServeFileHead(t *testing.T) {
	path, _ := fixture(t, "clip.mov", 1000)

	rec := serve(t, http.MethodHead, path, "")

	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("HEAD returned %d with %d body bytes", rec.Code, rec.Body.Len())
	}
	if got := rec.Header().Get("Content-Type"); got != "video/quicktime" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestServeFileNotFound(t *testing.T) {
	rec := serve(t, http.MethodGet, filepath.Join(t.TempDir(), "missing.mp4"), "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestServeFileDirectory(t *testing.T) {
	rec := serve(t, http.MethodGet, t.TempDir(), "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestServeFileUnsatisfiableRange(t *testing.T) {
	path, _ := fixture(t, "clip.mp4", 1000)

	rec := serve(t, http.MethodGet, path, "bytes=2000-")

	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status = %d, want 416", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */1000" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
		wantErr   bool
	}{
		{"bytes=0-99", 1000, 0, 99, false},
		{"bytes=100-", 1000, 100, 999, false},
		{"bytes=0-5000", 1000, 0, 999, false},
		{"bytes=-100", 1000, 900, 999, false},
		{"bytes=-5000", 1000, 0, 999, false},
		{"bytes=0-0,10-20", 1000, 0, 0, false},
		{"bytes=1000-", 1000, 0, 0, true},
		{"bytes=50-10", 1000, 0, 0, true},
		{"bytes=abc-", 1000, 0, 0, true},
		{"bytes=5", 1000, 0, 0, true},
		{"items=0-10", 1000, 0, 0, true},
		{"bytes=0-10", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			start, end, err := ParseRange(tt.header, tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (start != tt.wantStart || end != tt.wantEnd) {
				t.Errorf("ParseRange() = %d-%d, want %d-%d", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.mp4":  "video/mp4",
		"a.WEBM": "video/webm",
		"a.ogg":  "video/ogg",
		"a.avi":  "video/x-msvideo",
		"a.mkv":  "video/x-matroska",
		"a.xyz":  DefaultContentType,
		"noext":  DefaultContentType,
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestServeFileBodyReadable(t *testing.T) {
	path, _ := fixture(t, "clip.mp4", 10)
	rec := serve(t, http.MethodGet, path, "bytes=2-4")
	body, _ := io.ReadAll(rec.Result().Body)
	if len(body) != 3 {
		t.Errorf("body length = %d, want 3", len(body))
	}
}
