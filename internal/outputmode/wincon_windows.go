//go:build windows

package outputmode

import (
	"io"
	"os"

	"golang.org/x/sys/windows"
)

func init() {
	winconFactory = func(w io.Writer, f *os.File) io.Writer { return newWinconWriter(f) }
	enableWindowsVT = func(f *os.File) bool {
		h := windows.Handle(f.Fd())
		var mode uint32
		if err := windows.GetConsoleMode(h, &mode); err != nil {
			return false
		}
		if mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
			return true
		}
		return windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
	}
}

// winconWriter translates reset (`0` or empty) and the single foreground
// color codes listed in sgrToAttr into SetConsoleTextAttribute calls, for
// legacy Windows consoles that predate ENABLE_VIRTUAL_TERMINAL_PROCESSING.
// Any other escape sequence, including bold or dim on their own and
// combined codes such as `1;31`, is dropped without changing the console
// attribute.
type winconWriter struct {
	handle windows.Handle
	def    uint16
}

// Win32 console foreground attribute bits (wincon.h); not exported by
// x/sys/windows, so named locally.
const (
	foregroundBlue      = 0x0001
	foregroundGreen     = 0x0002
	foregroundRed       = 0x0004
	foregroundIntensity = 0x0008
)

func newWinconWriter(f interface{ Fd() uintptr }) io.Writer {
	h := windows.Handle(f.Fd())
	var info windows.ConsoleScreenBufferInfo
	def := uint16(foregroundRed | foregroundGreen | foregroundBlue)
	if err := windows.GetConsoleScreenBufferInfo(h, &info); err == nil {
		def = info.Attributes
	}
	return &winconWriter{handle: h, def: def}
}

var sgrToAttr = map[string]uint16{
	"31": foregroundRed,
	"32": foregroundGreen,
	"33": foregroundRed | foregroundGreen,
	"34": foregroundBlue,
	"36": foregroundGreen | foregroundBlue,
	"90": 0,
	"92": foregroundGreen | foregroundIntensity,
	"93": foregroundRed | foregroundGreen | foregroundIntensity,
}

func (w *winconWriter) Write(p []byte) (int, error) {
	i := 0
	for i < len(p) {
		if p[i] == 0x1b && i+1 < len(p) && p[i+1] == '[' {
			j := i + 2
			start := j
			for j < len(p) && p[j] != 'm' {
				j++
			}
			code := string(p[start:j])
			if code == "0" || code == "" {
				windows.SetConsoleTextAttribute(w.handle, w.def)
			} else if attr, ok := sgrToAttr[code]; ok {
				windows.SetConsoleTextAttribute(w.handle, attr)
			}
			if j < len(p) {
				j++
			}
			i = j
			continue
		}
		end := i
		for end < len(p) && p[end] != 0x1b {
			end++
		}
		windows.WriteFile(w.handle, p[i:end], nil, nil)
		i = end
	}
	return len(p), nil
}
