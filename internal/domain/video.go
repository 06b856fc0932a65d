package domain

import "time"

// VideoEntry is one video file discovered by a directory scan.
//
// Entries are not persisted. They live in the session's ordered list
// until they are organized or disappear from disk.
type VideoEntry struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is assigned at scan time and is only stable for the
	// lifetime of the list it belongs to.
	ID string `json:"id"`

	// Path is the absolute, cleaned filesystem path.
	Path string `json:"path"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// Name is the file name with its extension.
	// Example: holiday.mp4
	Name string `json:"name"`

	// BaseName is Name without its extension.
	// Example: holiday
	BaseName string `json:"nameWithoutExt"`

	// Size is the file size in bytes at scan time.
	Size int64 `json:"size"`

	// CreatedAt is the filesystem birth time.
	// Nil when the platform or filesystem does not expose it.
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// OrganizeRequest describes a single move/rename of a video file into
// a category folder of a target directory.
type OrganizeRequest struct {
	SourcePath  string `json:"sourceFile"`
	TargetRoot  string `json:"targetDirectory"`
	Category    string `json:"category"`
	NewBaseName string `json:"newFileName"`
}
