// Package stream serves local video files over HTTP with byte-range
// support so a media element can seek without loading the whole file.
package stream

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/clipsort/internal/logger"
)

// DefaultContentType is used for unknown extensions.
const DefaultContentType = "video/mp4"

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
}

// ContentType returns the MIME type for path's extension.
func ContentType(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return DefaultContentType
}

var errUnsatisfiable = errors.New("range not satisfiable")

// ParseRange parses a "bytes=start-end" header against a resource of
// size bytes and returns the inclusive byte offsets to serve. Only the
// first range of a multi-range header is honoured.
func ParseRange(header string, size int64) (start, end int64, err error) {
	const prefix = "bytes="
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, prefix) {
		return 0, 0, fmt.Errorf("%w: unsupported unit in %q", errUnsatisfiable, header)
	}
	spec := strings.TrimSpace(strings.SplitN(header[len(prefix):], ",", 2)[0])

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: malformed range %q", errUnsatisfiable, spec)
	}
	startStr, endStr = strings.TrimSpace(startStr), strings.TrimSpace(endStr)

	if size <= 0 {
		return 0, 0, errUnsatisfiable
	}

	// Suffix form: the last N bytes.
	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("%w: malformed suffix %q", errUnsatisfiable, spec)
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, nil
	}

	start, err = strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("%w: malformed start %q", errUnsatisfiable, startStr)
	}
	if start >= size {
		return 0, 0, fmt.Errorf("%w: start %d beyond size %d", errUnsatisfiable, start, size)
	}

	end = size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, fmt.Errorf("%w: malformed end %q", errUnsatisfiable, endStr)
		}
		if end >= size {
			end = size - 1
		}
	}
	return start, end, nil
}

// Streamer writes file bytes to HTTP responses. Each call is independent.
type Streamer struct {
	log logger.Logger
}

// New returns a Streamer.
func New(log logger.Logger) *Streamer {
	return &Streamer{log: log.With(logger.Component("streamer"))}
}

// ServeFile answers r with the content of path, honouring a Range header.
func (s *Streamer) ServeFile(w http.ResponseWriter, r *http.Request, path string) {
	h := w.Header()

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("media not found", logger.String("path", path))
			plain(w, http.StatusNotFound, "File not found")
			return
		}
		s.fail(w, path, err)
		return
	}
	if !info.Mode().IsRegular() {
		plain(w, http.StatusNotFound, "Not a file")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.fail(w, path, err)
		return
	}
	defer f.Close()

	size := info.Size()
	h.Set("Content-Type", ContentType(path))
	h.Set("Accept-Ranges", "bytes")
	h.Set("Cache-Control", "no-cache")

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			s.copy(w, io.NewSectionReader(f, 0, size), path)
		}
		return
	}

	start, end, err := ParseRange(rangeHeader, size)
	if err != nil {
		h.Del("Content-Type")
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		plain(w, http.StatusRequestedRangeNotSatisfiable, err.Error())
		return
	}

	length := end - start + 1
	h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	h.Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method != http.MethodHead {
		s.copy(w, io.NewSectionReader(f, start, length), path)
	}
}

func (s *Streamer) copy(w io.Writer, src io.Reader, path string) {
	if _, err := io.Copy(w, src); err != nil {
		// Usually the player dropped the connection while seeking.
		s.log.Debug("media stream interrupted",
			logger.String("path", path),
			logger.Error(err))
	}
}

func (s *Streamer) fail(w http.ResponseWriter, path string, err error) {
	s.log.Error("media request failed",
		logger.String("path", path),
		logger.Error(err))
	plain(w, http.StatusInternalServerError, err.Error())
}

// plain writes an error body. Errors stay readable from any origin so an
// embedding player can show them; file bytes never are.
func plain(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}
