//go:build darwin

package fsx

import (
	"os"
	"syscall"
	"time"
)

// BirthTime returns the creation time recorded in the stat buffer.
func BirthTime(_ string, info os.FileInfo) (time.Time, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec), true
}
