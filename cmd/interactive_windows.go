//go:build windows
// +build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

// enableVT switches the console to virtual terminal mode so the preview's
// 24-bit colour escapes are rendered. The returned func restores the
// previous console modes.
func enableVT() (restore func()) {
	type saved struct {
		h    windows.Handle
		mode uint32
	}
	var undo []saved

	set := func(f *os.File, flag uint32) {
		h := windows.Handle(f.Fd())
		var mode uint32
		if windows.GetConsoleMode(h, &mode) != nil {
			return
		}
		if windows.SetConsoleMode(h, mode|flag) == nil {
			undo = append(undo, saved{h, mode})
		}
	}
	set(os.Stdin, windows.ENABLE_VIRTUAL_TERMINAL_INPUT)
	set(os.Stdout, windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)

	return func() {
		for _, s := range undo {
			_ = windows.SetConsoleMode(s.h, s.mode)
		}
	}
}
