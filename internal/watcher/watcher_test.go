package watcher_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/werk-build/werk/internal/taskid"
	"github.com/werk-build/werk/internal/watcher"
)

func TestWillBuildPrintsNothingWithoutExplain(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{}, true)
	defer w.Close()

	id := taskid.ForTask("build")
	w.WillBuild(id, 1, true, []string{"out-of-date"})
	require.Empty(t, buf.String())
}

func TestWillBuildExplainRunningTaskForTaskKind(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{Explain: true}, true)
	defer w.Close()

	id := taskid.ForTask("build")
	w.WillBuild(id, 3, true, []string{"source changed"})
	out := buf.String()
	require.Contains(t, out, "[0/3]")
	require.Contains(t, out, "running task")
	require.Contains(t, out, "Cause: source changed")
}

func TestWillBuildExplainRebuildingForBuildKind(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{Explain: true}, true)
	defer w.Close()

	id := taskid.ForBuild("out.o")
	w.WillBuild(id, 2, true, nil)
	out := buf.String()
	require.Contains(t, out, "[0/2]")
	require.Contains(t, out, "rebuilding")
	require.NotContains(t, out, "running task")
}

func TestWillBuildExplainSkipsWhenNotOutdated(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{Explain: true}, true)
	defer w.Close()

	id := taskid.ForTask("fresh")
	w.WillBuild(id, 1, false, []string{"should not print"})
	require.Empty(t, buf.String())
}

func TestDidBuildOk(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{Explain: true}, true)
	defer w.Close()

	id := taskid.ForTask("build")
	w.WillBuild(id, 1, true, nil)
	w.DidBuild(id, watcher.BuildOutcome{Outdated: true})

	require.Contains(t, buf.String(), "[ ok ]")
}

func TestDidBuildOnAbsentTaskIsNoop(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{}, true)
	defer w.Close()

	id := taskid.ForTask("ghost")
	require.NotPanics(t, func() {
		w.DidBuild(id, watcher.BuildOutcome{Outdated: true})
	})
	require.Empty(t, buf.String())
}

func TestDidBuildErrorReplaysQuietCapture(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{Quiet: true}, true)
	defer w.Close()

	id := taskid.ForTask("flaky")
	w.WillBuild(id, 1, true, nil)
	w.OnChildStderrLine(id, []byte("captured stderr line"), true)
	require.NotContains(t, buf.String(), "captured stderr line")

	w.DidBuild(id, watcher.BuildOutcome{Err: errors.New("boom")})
	out := buf.String()
	require.Contains(t, out, "[ERROR]")
	require.Contains(t, out, "captured stderr line")
}

func TestOnChildStderrLineNotQuietWritesImmediately(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{}, true)
	defer w.Close()

	id := taskid.ForTask("noisy")
	w.WillBuild(id, 1, true, nil)
	w.OnChildStderrLine(id, []byte("live line"), false)
	require.Contains(t, buf.String(), "live line")
}

func TestOnChildStdoutLineDropsCapturedLine(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{}, true)
	defer w.Close()

	id := taskid.ForTask("substitution")
	w.WillBuild(id, 1, true, nil)
	w.OnChildStdoutLine(id, []byte("captured value"), true)
	require.NotContains(t, buf.String(), "captured value")
}

func TestOnChildStdoutLineNotCapturedWritesImmediately(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{}, true)
	defer w.Close()

	id := taskid.ForTask("loud")
	w.WillBuild(id, 1, true, nil)
	w.OnChildStdoutLine(id, []byte("stdout line"), false)
	require.Contains(t, buf.String(), "stdout line")
}

func TestPrintFreshOnlyPrintsWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{PrintFresh: true}, true)
	defer w.Close()

	id := taskid.ForTask("fresh")
	w.WillBuild(id, 0, false, nil)
	w.DidBuild(id, watcher.BuildOutcome{})
	require.Contains(t, buf.String(), "[ -- ]")

	var quietBuf bytes.Buffer
	quiet := watcher.New(&quietBuf, watcher.Settings{}, true)
	defer quiet.Close()
	quiet.WillBuild(id, 0, false, nil)
	quiet.DidBuild(id, watcher.BuildOutcome{})
	require.NotContains(t, quietBuf.String(), "[ -- ]")
}

func TestMessageAndWarning(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{}, true)
	defer w.Close()

	w.Message(nil, "hello")
	w.Warning(nil, "careful")
	out := buf.String()
	require.Contains(t, out, "[info] hello")
	require.Contains(t, out, "[warn] careful")
}

func TestMessageAndWarningUseTaskPrefixWhenNamed(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{}, true)
	defer w.Close()

	id := taskid.ForTask("build")
	w.Message(&id, "hello")
	w.Warning(&id, "careful")
	out := buf.String()
	require.Contains(t, out, "[build] hello")
	require.Contains(t, out, "[build] careful")
	require.NotContains(t, out, "[info]")
	require.NotContains(t, out, "[warn]")
}

func TestWriteRawStderrClearsStatusAndPassesBytesThrough(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{}, false)
	defer w.Close()

	id := taskid.ForTask("build")
	w.WillBuild(id, 1, true, nil)

	guard := w.WriteRawStderr()
	_, err := guard.Write([]byte("raw bytes\n"))
	require.NoError(t, err)
	require.NoError(t, guard.Close())

	require.Contains(t, buf.String(), "\x1b[K")
	require.Contains(t, buf.String(), "raw bytes")
}

func TestWriteRawStdoutSharesOwnedStream(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{}, true)
	defer w.Close()

	guard := w.WriteRawStdout()
	_, err := guard.Write([]byte("stdout passthrough"))
	require.NoError(t, err)
	require.NoError(t, guard.Close())

	require.Contains(t, buf.String(), "stdout passthrough")
}

func TestNonLinearWatcherClosesCleanly(t *testing.T) {
	var buf bytes.Buffer
	w := watcher.New(&buf, watcher.Settings{}, false)
	id := taskid.ForTask("async")
	w.WillBuild(id, 1, true, nil)
	w.DidBuild(id, watcher.BuildOutcome{Outdated: true})
	w.Close()
}
