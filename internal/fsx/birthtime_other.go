//go:build !linux && !darwin && !windows

package fsx

import (
	"os"
	"time"
)

// BirthTime is not available on this platform.
func BirthTime(string, os.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
