//go:build !linux

package main

// adviseSequential is a no-op off Linux.
func adviseSequential(data []byte) {}
