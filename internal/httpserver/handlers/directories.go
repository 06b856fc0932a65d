package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
)

type dirEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type directoriesResponse struct {
	Path   string     `json:"path"`
	Parent string     `json:"parent"`
	Dirs   []dirEntry `json:"dirs"`
}

// Directories lists the subdirectories of ?path= (default: the home
// directory). It backs the directory picker of the UI.
func Directories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir := strings.TrimSpace(r.URL.Query().Get("path"))
		if dir == "" {
			dir = d.HomeDir
		}
		if dir == "" {
			dir = string(filepath.Separator)
		}

		resp, err := listDirectories(dir)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, resp)
	}
}

func listDirectories(dir string) (directoriesResponse, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return directoriesResponse{}, domain.Validation("invalid path %q", dir)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return directoriesResponse{}, domain.NotFound("directory "+abs+" does not exist", err)
		case errors.Is(err, fs.ErrPermission):
			return directoriesResponse{}, domain.IO("permission denied", err)
		}
		if info, statErr := os.Stat(abs); statErr == nil && !info.IsDir() {
			return directoriesResponse{}, domain.Validation("%s is not a directory", abs)
		}
		return directoriesResponse{}, domain.IO("failed to read directory", err)
	}

	resp := directoriesResponse{Path: abs, Dirs: []dirEntry{}}
	if parent := filepath.Dir(abs); parent != abs {
		resp.Parent = parent
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		full := filepath.Join(abs, e.Name())
		if !e.IsDir() {
			// Follow symlinks to directories.
			if e.Type()&fs.ModeSymlink == 0 {
				continue
			}
			if info, err := os.Stat(full); err != nil || !info.IsDir() {
				continue
			}
		}
		resp.Dirs = append(resp.Dirs, dirEntry{Name: e.Name(), Path: full})
	}
	sort.Slice(resp.Dirs, func(i, j int) bool {
		return strings.ToLower(resp.Dirs[i].Name) < strings.ToLower(resp.Dirs[j].Name)
	})
	return resp, nil
}
