//go:build !unix && !windows

package fsx

func isCrossDevice(error) bool { return false }
