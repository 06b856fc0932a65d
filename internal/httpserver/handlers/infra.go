package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
)

type componentStatus struct {
	OK        bool   `json:"ok"`
	Mode      string `json:"mode,omitempty"`
	Videos    *int   `json:"videos,omitempty"`
	Directory string `json:"directory,omitempty"`
	Error     string `json:"error,omitempty"`
}

type infraResponse struct {
	State      string                     `json:"state"`
	Components map[string]componentStatus `json:"components"`
}

// Infra summarises the running components for troubleshooting.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := d.Session.Snapshot()
		videos := len(snap.Videos)

		components := map[string]componentStatus{
			"categories": checkCategories(r.Context(), d),
			"session": {
				OK:        true,
				Mode:      string(snap.State),
				Videos:    &videos,
				Directory: snap.SourceDir,
			},
			"watcher": watcherStatus(d),
			"sweeper": {OK: true, Mode: enabled(d.SweepTrigger != nil)},
		}

		writeJSON(w, d.Logger, http.StatusOK, infraResponse{
			State:      string(snap.State),
			Components: components,
		})
	}
}

func checkCategories(ctx context.Context, d deps.Deps) componentStatus {
	st := componentStatus{OK: true, Mode: d.CategoryBackend}
	if d.Ping == nil {
		return st
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.Ping(ctx); err != nil {
		st.OK = false
		st.Error = err.Error()
	}
	return st
}

func watcherStatus(d deps.Deps) componentStatus {
	if d.Watcher == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	return componentStatus{OK: true, Mode: "enabled", Directory: d.Watcher.Root()}
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
