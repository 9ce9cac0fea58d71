// Package outputmode implements the Auto/Always/Never color-choice
// decision table, deciding between an ANSI-writing stream, a stream that
// strips escape codes entirely, and (on legacy Windows consoles) a stream
// that translates the small subset of SGR codes the diagnostic renderer
// and watcher emit into Win32 console attribute calls.
package outputmode

import (
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// ColorChoice is the user-facing tri-state color preference, typically
// bound to a `--color` flag.
type ColorChoice int

const (
	Auto ColorChoice = iota
	Always
	Never
)

func ParseColorChoice(s string) (ColorChoice, bool) {
	switch s {
	case "auto", "":
		return Auto, true
	case "always":
		return Always, true
	case "never":
		return Never, true
	default:
		return Auto, false
	}
}

// StreamKind is the resolved rendering mode for a given writer.
type StreamKind int

const (
	// Ansi means write SGR escape codes directly.
	Ansi StreamKind = iota
	// Strip means color codes are never emitted at all.
	Strip
	// Wincon means SGR codes must be translated to Win32 console
	// attribute calls rather than written as bytes.
	Wincon
)

// Detect resolves a ColorChoice against the environment and the given
// file descriptor, matching the upstream watcher's AutoStreamKind::detect
// decision table:
//
//   - Never always strips.
//   - Always attempts to enable ANSI processing (Windows only) and only
//     falls back to Strip if that attempt explicitly fails; it never
//     consults NO_COLOR or terminal detection.
//   - Auto honors NO_COLOR (stripping unconditionally), then
//     CLICOLOR_FORCE (forcing ANSI even off a terminal), then falls back
//     to terminal detection; a terminal on legacy Windows without VT
//     support resolves to Wincon instead of Ansi.
func Detect(choice ColorChoice, f *os.File) StreamKind {
	switch choice {
	case Never:
		return Strip
	case Always:
		if runtime.GOOS == "windows" {
			if enableWindowsVT(f) {
				return Ansi
			}
			return Strip
		}
		return Ansi
	default:
		return detectAuto(f)
	}
}

func detectAuto(f *os.File) StreamKind {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return Strip
	}
	forced := os.Getenv("CLICOLOR_FORCE") != "" && os.Getenv("CLICOLOR_FORCE") != "0"
	isTerm := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())

	if !forced && !isTerm {
		return Strip
	}
	if runtime.GOOS == "windows" && isTerm {
		if enableWindowsVT(f) || termSupportsAnsiColor() {
			return Ansi
		}
		return Wincon
	}
	if !termSupportsAnsiColor() && !forced {
		return Strip
	}
	return Ansi
}

// termSupportsAnsiColor reports whether the TERM environment variable is
// set to something other than "dumb", matching anstyle_query's
// term_supports_ansi_color check. An unset or empty TERM counts as not
// supporting ANSI.
func termSupportsAnsiColor() bool {
	t := os.Getenv("TERM")
	return t != "" && t != "dumb"
}

// enableWindowsVT attempts to turn on ENABLE_VIRTUAL_TERMINAL_PROCESSING
// for f. wincon_windows.go replaces it on Windows builds; the default here
// only reports whether f is a terminal, and Detect calls it only when
// running on Windows.
var enableWindowsVT = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// winconFactory builds the Windows console-attribute translating writer.
// It is overridden by an init() in wincon_windows.go on Windows builds;
// elsewhere Wincon is never returned by Detect, so the default here is
// purely defensive.
var winconFactory = func(w io.Writer, f *os.File) io.Writer { return &stripWriter{w: w} }

// NewWriter wraps w according to kind: Ansi passes bytes through
// unmodified, Strip filters SGR escape sequences, and Wincon translates
// them into Win32 console attribute calls against f.
func NewWriter(w io.Writer, f *os.File, kind StreamKind) io.Writer {
	switch kind {
	case Ansi:
		return w
	case Wincon:
		return winconFactory(w, f)
	default:
		return &stripWriter{w: w}
	}
}

type stripWriter struct {
	w io.Writer
}

func (s *stripWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p))
	i := 0
	for i < len(p) {
		if p[i] == 0x1b && i+1 < len(p) && p[i+1] == '[' {
			j := i + 2
			for j < len(p) && !isSGRTerminator(p[j]) {
				j++
			}
			if j < len(p) {
				j++
			}
			i = j
			continue
		}
		out = append(out, p[i])
		i++
	}
	if _, err := s.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

func isSGRTerminator(b byte) bool { return b >= 0x40 && b <= 0x7e }
