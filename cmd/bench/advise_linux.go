//go:build linux

package main

import "golang.org/x/sys/unix"

// adviseSequential hints that a mapped corpus will be scanned front to back.
// Best-effort: errors are silently ignored.
func adviseSequential(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
}
