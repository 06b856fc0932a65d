package session

import (
	"time"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
)

// State is the coarse phase of the triage session.
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateReady    State = "ready"
	StateError    State = "error"
)

// Video is a listed entry plus the URL the UI plays it from.
type Video struct {
	domain.VideoEntry
	URL string `json:"url"`
}

// ErrorInfo is the last failure shown to the user.
type ErrorInfo struct {
	Kind    domain.Kind `json:"kind"`
	Message string      `json:"message"`
	Details string      `json:"details,omitempty"`
}

// Notification is a transient success message.
type Notification struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Snapshot is a read-only copy of the session, rendered by the UI.
type Snapshot struct {
	State        State         `json:"state"`
	SourceDir    string        `json:"sourceDir"`
	TargetDir    string        `json:"targetDir"`
	Recursive    bool          `json:"recursive"`
	Videos       []Video       `json:"videos"`
	Current      int           `json:"current"`
	CurrentVideo *Video        `json:"currentVideo,omitempty"`
	FileName     string        `json:"fileName"`
	Category     string        `json:"category"`
	Categories   []string      `json:"categories"`
	Pending      bool          `json:"pending"`
	Error        *ErrorInfo    `json:"error,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

func errorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	return &ErrorInfo{
		Kind:    domain.KindOf(err),
		Message: domain.Message(err),
		Details: domain.Details(err),
	}
}
