//go:build windows

package fsx

import (
	"os"
	"syscall"
	"time"
)

// BirthTime returns the NTFS creation time.
func BirthTime(_ string, info os.FileInfo) (time.Time, bool) {
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(0, attrs.CreationTime.Nanoseconds()), true
}
