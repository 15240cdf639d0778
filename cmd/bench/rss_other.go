//go:build !unix

package main

// getMaxRSS is unavailable without getrusage; the report shows zero.
func getMaxRSS() uint64 {
	return 0
}
