// Package watcher implements a concurrent terminal progress reporter,
// grounded on the stderr-capturing variant of the original's terminal
// watcher (not the older stdout-splitting one): a status line with a
// spinner and per-task progress is kept pinned at the bottom of the
// screen, redrawn every time a log line is emitted and on a 100ms ticker,
// while each task's own stderr output is captured silently and replayed
// only if that task ultimately fails.
package watcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/werk-build/werk/internal/ansi"
	"github.com/werk-build/werk/internal/outputmode"
	"github.com/werk-build/werk/internal/taskid"
)

var spinnerFrames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

const tickInterval = 100 * time.Millisecond
const maxStatusWidth = 100
const minStatusWidth = 20

// Settings configures rendering behavior, mirroring the upstream
// OutputSettings struct's fields relevant to a non-dry-run terminal
// reporter.
type Settings struct {
	PrintRecipeCommands bool
	PrintFresh          bool
	DryRun              bool
	Explain             bool
	Quiet               bool
	UseColor            bool
}

// taskStatus tracks one in-flight task's progress and captured output.
type taskStatus struct {
	step     int
	numSteps int
	captured []byte
}

// Watcher is the public contract the Runner drives, one method per row of
// spec.md §4.5's "Events accepted" table.
type Watcher interface {
	WillBuild(id taskid.TaskID, numSteps int, outdated bool, causes []string)
	DidBuild(id taskid.TaskID, outcome BuildOutcome)
	WillExecute(id taskid.TaskID, step, numSteps int, command string)
	OnChildStdoutLine(id taskid.TaskID, line []byte, captured bool)
	OnChildStderrLine(id taskid.TaskID, line []byte, quiet bool)
	DidExecute(id taskid.TaskID, step, numSteps int, command string, err error)
	Message(task *taskid.TaskID, text string)
	Warning(task *taskid.TaskID, text string)
	WriteRawStdout() *WriterGuard
	WriteRawStderr() *WriterGuard
	Close()
}

// TerminalWatcher reports build progress to a terminal. Linear mode (used
// when stderr is not a terminal, e.g. redirected to a file or CI log)
// disables the redrawn status line and the background ticker entirely;
// every watcher method call then does nothing but write its log lines
// once.
type TerminalWatcher struct {
	mu       sync.Mutex
	stderr   io.Writer
	settings Settings
	linear   bool

	currentTasks []taskid.TaskID
	taskStatus   map[taskid.TaskID]*taskStatus
	numTasks     int
	numCompleted int
	spinnerFrame int
	lastTick     time.Time
	needsClear   bool

	cancel context.CancelFunc
	group  *errgroup.Group
}

var _ Watcher = (*TerminalWatcher)(nil)

// New starts a TerminalWatcher writing to stderr. linear disables the
// animated status line (used when stderr is not a terminal). The caller
// must call Close to stop the background ticker goroutine; Go has no
// weak-reference primitive that could tie the ticker's lifetime to the
// watcher's garbage collection the way the original implementation does,
// so ownership is explicit instead.
//
// This repository implements the stderr-capturing watcher variant, which
// owns a single output stream rather than independent stdout/stderr
// pipes (see WriteRawStdout/WriteRawStderr below): there is no Runner in
// scope spawning child processes with a real, separate stdout of their
// own, so both raw channels the spec's contract names are backed by the
// one stream this watcher actually owns.
func New(stderr io.Writer, settings Settings, linear bool) *TerminalWatcher {
	w := &TerminalWatcher{
		stderr:     stderr,
		settings:   settings,
		linear:     linear,
		taskStatus: map[taskid.TaskID]*taskStatus{},
		lastTick:   time.Time{},
	}
	if !linear {
		ctx, cancel := context.WithCancel(context.Background())
		w.cancel = cancel
		g, gctx := errgroup.WithContext(ctx)
		w.group = g
		g.Go(func() error {
			ticker := time.NewTicker(tickInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					w.mu.Lock()
					w.renderLocked(func() {})
					w.mu.Unlock()
				}
			}
		})
	}
	return w
}

// Close stops the background ticker and waits for it to exit.
func (w *TerminalWatcher) Close() {
	if w.cancel != nil {
		w.cancel()
		_ = w.group.Wait()
	}
}

// renderLines is the upstream "clear status, run body, redraw status"
// sequence: in linear mode body runs directly with no status line to
// manage.
func (w *TerminalWatcher) renderLines(body func()) {
	if w.linear {
		body()
		return
	}
	if w.needsClear {
		fmt.Fprint(w.stderr, ansi.ClearLine)
	}
	body()
	w.renderProgressLocked()
	w.needsClear = true
}

func (w *TerminalWatcher) renderLocked(body func()) { w.renderLines(body) }

func (w *TerminalWatcher) renderProgressLocked() {
	if w.numTasks == 0 {
		return
	}
	now := time.Now()
	if now.Sub(w.lastTick) >= tickInterval {
		w.spinnerFrame = (w.spinnerFrame + 1) % len(spinnerFrames)
		w.lastTick = now
	}

	line := fmt.Sprintf("  %c [%d/%d] ", spinnerFrames[w.spinnerFrame], w.numCompleted, w.numTasks)
	width := minStatusWidth
	for i, id := range w.currentTasks {
		name := id.String()
		if width+len(name)+2 > maxStatusWidth {
			if i == 0 {
				line += fmt.Sprintf("%d recipes", len(w.currentTasks))
			} else {
				line += fmt.Sprintf(" + %d more", len(w.currentTasks)-i)
			}
			break
		}
		if i > 0 {
			line += ", "
		}
		line += name
		width += len(name) + 2
	}
	line += "\r"
	fmt.Fprint(w.stderr, line)
}

func (w *TerminalWatcher) paint(code, text string) string { return ansi.Paint(code, text, w.settings.UseColor) }

// WillBuild records that a new task has started, printing its opening
// status line and any outdatedness reasons passed in causes.
func (w *TerminalWatcher) WillBuild(id taskid.TaskID, numSteps int, outdated bool, causes []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.currentTasks = append(w.currentTasks, id)
	w.taskStatus[id] = &taskStatus{numSteps: numSteps}
	w.numTasks++

	w.renderLines(func() {
		if !w.settings.Explain || !outdated {
			return
		}
		if id.Kind == taskid.Build {
			fmt.Fprintf(w.stderr, "[0/%d] %s `%s`\n", numSteps, w.paint(ansi.BoldBrightYellow, "rebuilding"), id.Name)
		} else {
			fmt.Fprintf(w.stderr, "[0/%d] %s `%s`\n", numSteps, w.paint(ansi.BoldBrightYellow, "running task"), id.Name)
		}
		for _, cause := range causes {
			fmt.Fprintf(w.stderr, "  %s %s\n", w.paint(ansi.BrightYellow, "Cause:"), cause)
		}
	})
}

// BuildOutcome is the result of a completed task, passed to DidBuild.
type BuildOutcome struct {
	Outdated bool
	Err      error
}

// DidBuild records that a task finished. A task absent from currentTasks
// (e.g. DidBuild called twice) is a tolerated no-op, matching the upstream
// behavior.
func (w *TerminalWatcher) DidBuild(id taskid.TaskID, outcome BuildOutcome) {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := -1
	for i, t := range w.currentTasks {
		if t == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	status := w.taskStatus[id]
	w.currentTasks = append(w.currentTasks[:idx], w.currentTasks[idx+1:]...)
	delete(w.taskStatus, id)
	w.numCompleted++

	switch {
	case outcome.Err != nil:
		w.renderLines(func() {
			fmt.Fprintf(w.stderr, "%s %s\n%s\n", w.paint(ansi.BoldRed, "[ERROR]"), id, outcome.Err)
			if status != nil && len(status.captured) > 0 {
				w.stderr.Write(status.captured)
			}
		})
	case outcome.Outdated:
		suffix := ""
		if w.settings.DryRun {
			suffix = " (dry run)"
		}
		w.renderLines(func() {
			fmt.Fprintf(w.stderr, "%s %s%s\n", w.paint(ansi.BoldGreen, "[ ok ]"), id, suffix)
		})
	case w.settings.PrintFresh:
		w.renderLines(func() {
			fmt.Fprintf(w.stderr, "%s %s\n", w.paint(ansi.Blue, "[ -- ]"), id)
		})
	}
}

// WillExecute records that a task is about to run its step'th command
// line (0-indexed) out of numSteps total.
func (w *TerminalWatcher) WillExecute(id taskid.TaskID, step, numSteps int, command string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	status, ok := w.taskStatus[id]
	if !ok {
		return
	}
	status.step = step + 1
	status.numSteps = numSteps

	if w.settings.DryRun || w.settings.PrintRecipeCommands {
		w.renderLines(func() {
			fmt.Fprintf(w.stderr, "%s\n", w.paint(ansi.Dim, fmt.Sprintf("[%d/%d] %s: %s", step+1, numSteps, id, command)))
		})
	} else if !w.linear {
		w.renderLines(func() {})
	}
}

// OnChildStderrLine reports one line of a child process's stderr. If
// quiet is true, the line is captured for replay-on-failure instead of
// being written immediately.
func (w *TerminalWatcher) OnChildStderrLine(id taskid.TaskID, line []byte, quiet bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if quiet || w.settings.Quiet {
		status, ok := w.taskStatus[id]
		if !ok {
			return
		}
		status.captured = append(status.captured, line...)
		status.captured = append(status.captured, '\n')
		return
	}
	w.renderLines(func() {
		w.stderr.Write(line)
		w.stderr.Write([]byte("\n"))
	})
}

// OnChildStdoutLine reports one line of a child process's stdout. Unlike
// stderr, a captured stdout line is not buffered for later replay: the
// calling convention captures stdout to use its bytes as a value (command
// substitution), which is a Runner responsibility out of scope here, so a
// captured line is simply dropped rather than kept for a replay that will
// never happen.
func (w *TerminalWatcher) OnChildStdoutLine(id taskid.TaskID, line []byte, captured bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if captured {
		return
	}
	w.renderLines(func() {
		w.stderr.Write(line)
		w.stderr.Write([]byte("\n"))
	})
}

// DidExecute records that a command line finished, succeeding or failing.
func (w *TerminalWatcher) DidExecute(id taskid.TaskID, step, numSteps int, command string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err == nil {
		return
	}
	w.renderLines(func() {
		fmt.Fprintf(w.stderr, "%s %s\n", w.paint(ansi.BoldRed,
			fmt.Sprintf("[%d/%d] Error evaluating command while building %s: %s", step+1, numSteps, id, command)), err)
	})
}

// messagePrefix picks the `[info]`/`[warn]` prefix, or `[task]` if a task
// is named.
func (w *TerminalWatcher) messagePrefix(task *taskid.TaskID, code, defaultPrefix string) string {
	if task != nil {
		return w.paint(code, fmt.Sprintf("[%s]", task.Name))
	}
	return w.paint(code, defaultPrefix)
}

// Message prints an informational line prefixed with `[info]`, or `[task]`
// if task is named.
func (w *TerminalWatcher) Message(task *taskid.TaskID, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.renderLines(func() {
		fmt.Fprintf(w.stderr, "%s %s\n", w.messagePrefix(task, ansi.BrightGreen, "[info]"), text)
	})
}

// Warning prints a warning line prefixed with `[warn]`, or `[task]` if
// task is named.
func (w *TerminalWatcher) Warning(task *taskid.TaskID, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.renderLines(func() {
		fmt.Fprintf(w.stderr, "%s %s\n", w.messagePrefix(task, ansi.BrightYellow, "[warn]"), text)
	})
}

// WriterGuard is a locked handle onto the watcher's owned output stream
// for writing raw bytes outside the event vocabulary above. It holds the
// watcher's mutex for its lifetime, modeled on parking_lot::MutexGuard's
// RAII release: the caller must call Close to release the lock and let
// the status line redraw.
type WriterGuard struct {
	w *TerminalWatcher
}

// Write passes bytes straight through to the owned stream.
func (g *WriterGuard) Write(p []byte) (int, error) { return g.w.stderr.Write(p) }

// Close redraws the status line (in interactive mode) and releases the
// watcher's mutex.
func (g *WriterGuard) Close() error {
	if !g.w.linear {
		g.w.renderProgressLocked()
		g.w.needsClear = true
	}
	g.w.mu.Unlock()
	return nil
}

func (w *TerminalWatcher) writeRawGuard() *WriterGuard {
	w.mu.Lock()
	if !w.linear && w.needsClear {
		fmt.Fprint(w.stderr, ansi.ClearLine)
	}
	return &WriterGuard{w: w}
}

// WriteRawStdout takes the watcher's mutex, clears the status line, and
// returns a guard for writing raw bytes that bypass the annotated event
// vocabulary; the caller must Close it to release the lock.
func (w *TerminalWatcher) WriteRawStdout() *WriterGuard { return w.writeRawGuard() }

// WriteRawStderr is WriteRawStdout's stderr counterpart; see New's doc
// comment for why both are currently backed by the same owned stream.
func (w *TerminalWatcher) WriteRawStderr() *WriterGuard { return w.writeRawGuard() }

// NewStderrWriter selects between an ANSI, strip, or Wincon writer for
// stderr according to the resolved output mode, for callers constructing
// a Watcher's stderr argument.
func NewStderrWriter(choice outputmode.ColorChoice) (io.Writer, bool) {
	kind := outputmode.Detect(choice, os.Stderr)
	useColor := kind == outputmode.Ansi
	return outputmode.NewWriter(os.Stderr, os.Stderr, kind), useColor
}
