package outputmode_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/werk-build/werk/internal/outputmode"
)

func TestParseColorChoice(t *testing.T) {
	cases := map[string]outputmode.ColorChoice{
		"":       outputmode.Auto,
		"auto":   outputmode.Auto,
		"always": outputmode.Always,
		"never":  outputmode.Never,
	}
	for in, want := range cases {
		got, ok := outputmode.ParseColorChoice(in)
		require.True(t, ok, in)
		require.Equal(t, want, got)
	}

	_, ok := outputmode.ParseColorChoice("bogus")
	require.False(t, ok)
}

func nonTerminalFile(t *testing.T) *os.File {
	f, err := os.CreateTemp(t.TempDir(), "outputmode")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestDetectNeverAlwaysStrips(t *testing.T) {
	f := nonTerminalFile(t)
	require.Equal(t, outputmode.Strip, outputmode.Detect(outputmode.Never, f))
}

func TestDetectAutoNoColorEnvStrips(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CLICOLOR_FORCE", "")
	f := nonTerminalFile(t)
	require.Equal(t, outputmode.Strip, outputmode.Detect(outputmode.Auto, f))
}

func TestDetectAutoNonTerminalStrips(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")
	t.Setenv("CLICOLOR_FORCE", "")
	f := nonTerminalFile(t)
	require.Equal(t, outputmode.Strip, outputmode.Detect(outputmode.Auto, f))
}

func TestDetectAutoClicolorForceOverridesNonTerminal(t *testing.T) {
	os.Unsetenv("NO_COLOR")
	t.Setenv("CLICOLOR_FORCE", "1")
	t.Setenv("TERM", "xterm-256color")
	f := nonTerminalFile(t)
	require.Equal(t, outputmode.Ansi, outputmode.Detect(outputmode.Auto, f))
}

func TestStripWriterRemovesSGRCodes(t *testing.T) {
	var buf stringWriter
	w := outputmode.NewWriter(&buf, os.Stdout, outputmode.Strip)
	n, err := w.Write([]byte("\x1b[1mbold\x1b[0m plain"))
	require.NoError(t, err)
	require.Equal(t, len("\x1b[1mbold\x1b[0m plain"), n)
	require.Equal(t, "bold plain", buf.String())
}

func TestAnsiWriterPassesThrough(t *testing.T) {
	var buf stringWriter
	w := outputmode.NewWriter(&buf, os.Stdout, outputmode.Ansi)
	_, err := w.Write([]byte("\x1b[1mbold\x1b[0m"))
	require.NoError(t, err)
	require.Equal(t, "\x1b[1mbold\x1b[0m", buf.String())
}

type stringWriter struct{ data []byte }

func (s *stringWriter) Write(p []byte) (int, error) {
	s.data = append(s.data, p...)
	return len(p), nil
}

func (s *stringWriter) String() string { return string(s.data) }
