//go:build !windows
// +build !windows

package main

// enableVT is a no-op outside the Windows console.
func enableVT() (restore func()) { return func() {} }
