// Command werk is a minimal front-end driver over the parser, diagnostic
// renderer and terminal watcher: it has no build runner, so `run` replays
// a synthetic timeline derived from the parsed recipes rather than
// actually executing anything, purely to exercise the watcher end to end.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/werk-build/werk/internal/ast"
	"github.com/werk-build/werk/internal/diagnostic"
	"github.com/werk-build/werk/internal/document"
	"github.com/werk-build/werk/internal/outputmode"
	"github.com/werk-build/werk/internal/parser"
	"github.com/werk-build/werk/internal/taskid"
	"github.com/werk-build/werk/internal/watcher"
)

const (
	exitSuccess    = 0
	exitIOError    = 2
	exitParseError = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		file        string
		colorFlag   string
		linear      bool
		explain     bool
		printFresh  bool
		printCmds   bool
		dryRun      bool
		quiet       bool
	)

	exitCode := exitSuccess

	root := &cobra.Command{
		Use:   "werk",
		Short: "werk is a build file parser and dry-run task runner",
	}
	root.PersistentFlags().StringVarP(&file, "file", "f", "werk.toml", "path to the werk build file")
	root.PersistentFlags().StringVar(&colorFlag, "color", "auto", "color output: auto, always, never")

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "parse the build file and print its statement structure",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, perr, ioErr := loadDocument(file)
			if ioErr != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", file, ioErr)
				exitCode = exitIOError
				return nil
			}
			if perr != nil {
				exitCode = reportParseError(perr, doc)
				return nil
			}
			dumpRoot(doc.Root)
			return nil
		},
	}

	runCmd := &cobra.Command{
		Use:   "run [task]",
		Short: "replay a dry-run timeline over the parsed recipes",
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			doc, perr, ioErr := loadDocument(file)
			if ioErr != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", file, ioErr)
				exitCode = exitIOError
				return nil
			}
			if perr != nil {
				exitCode = reportParseError(perr, doc)
				return nil
			}
			choice, ok := outputmode.ParseColorChoice(colorFlag)
			if !ok {
				fmt.Fprintf(os.Stderr, "invalid --color value %q\n", colorFlag)
				exitCode = 1
				return nil
			}
			stderr, useColor := watcher.NewStderrWriter(choice)
			w := watcher.New(stderr, watcher.Settings{
				PrintRecipeCommands: printCmds,
				PrintFresh:          printFresh,
				DryRun:              true,
				Explain:             explain,
				Quiet:               quiet,
				UseColor:            useColor,
			}, linear)
			defer w.Close()
			dryRunTimeline(w, doc.Root, cmdArgs)
			_ = dryRun
			return nil
		},
	}
	runCmd.Flags().BoolVar(&linear, "linear", false, "disable the animated status line")
	runCmd.Flags().BoolVar(&explain, "explain", false, "print why each task is considered outdated")
	runCmd.Flags().BoolVar(&printFresh, "print-fresh", false, "print a line for tasks that were already up to date")
	runCmd.Flags().BoolVar(&printCmds, "print-commands", false, "print each shell command before running it")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", true, "never actually execute commands (always true: no runner is implemented)")
	runCmd.Flags().BoolVar(&quiet, "quiet", false, "capture task stderr and only print it if the task fails")

	root.AddCommand(dumpCmd, runCmd)
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOError
	}
	return exitCode
}

func loadDocument(path string) (*document.Document, *parser.Error, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	root, perr := parser.Parse(source)
	doc := &document.Document{Origin: path, Source: source, Root: root}
	if perr != nil {
		return doc, perr.(*parser.Error), nil
	}
	return doc, nil, nil
}

func reportParseError(perr *parser.Error, doc *document.Document) int {
	useColor := isTerminalStderr()
	fmt.Fprintln(os.Stderr, diagnostic.Render(perr, doc.Source, doc.Origin, useColor))
	return exitParseError
}

func isTerminalStderr() bool {
	return outputmode.Detect(outputmode.Auto, os.Stderr) == outputmode.Ansi
}

func dumpRoot(root ast.Root) {
	for _, bs := range root.Statements {
		switch stmt := bs.Statement.(type) {
		case *ast.ConfigStmt:
			fmt.Printf("config %s\n", stmt.Ident.Name)
		case *ast.LetStmt:
			fmt.Printf("let %s\n", stmt.Ident.Name)
		case *ast.CommandRecipe:
			fmt.Printf("task %s (%d statements)\n", stmt.Name.Name, len(stmt.Body.Statements))
		case *ast.BuildRecipe:
			fmt.Printf("build %q (%d statements)\n", patternText(stmt.Pattern), len(stmt.Body.Statements))
		}
	}
}

func patternText(p ast.PatternExpr) string {
	var out string
	for _, f := range p.Fragments {
		if lit, ok := f.(ast.Literal); ok {
			out += lit.Text
		} else {
			out += "%"
		}
	}
	return out
}

// dryRunTimeline walks the parsed task recipes, synthesizing WillBuild /
// WillExecute / DidBuild calls for each one so the watcher's rendering
// path is exercised even though no command is ever actually run.
func dryRunTimeline(w watcher.Watcher, root ast.Root, only []string) {
	wanted := map[string]bool{}
	for _, name := range only {
		wanted[name] = true
	}

	for _, bs := range root.Statements {
		recipe, ok := bs.Statement.(*ast.CommandRecipe)
		if !ok {
			continue
		}
		if len(wanted) > 0 && !wanted[recipe.Name.Name] {
			continue
		}
		id := taskid.ForTask(recipe.Name.Name)
		steps := countRunSteps(recipe.Body.Statements)
		w.WillBuild(id, steps, true, nil)
		step := 0
		for _, rbs := range recipe.Body.Statements {
			runStmt, ok := rbs.Statement.(*ast.RunStmt)
			if !ok {
				continue
			}
			w.WillExecute(id, step, steps, describeRunExpr(runStmt.Param))
			time.Sleep(time.Millisecond)
			w.DidExecute(id, step, steps, describeRunExpr(runStmt.Param), nil)
			step++
		}
		w.DidBuild(id, watcher.BuildOutcome{Outdated: true})
	}
}

func countRunSteps(stmts []ast.BodyStmt[ast.TaskRecipeStmt]) int {
	n := 0
	for _, bs := range stmts {
		if _, ok := bs.Statement.(*ast.RunStmt); ok {
			n++
		}
	}
	return n
}

func describeRunExpr(e ast.RunExpr) string {
	if shell, ok := e.(*ast.ShellExpr); ok {
		return fragmentText(shell.Param.Fragments)
	}
	return "<run>"
}

func fragmentText(frags []ast.StringFragment) string {
	var out string
	for _, f := range frags {
		if lit, ok := f.(ast.Literal); ok {
			out += lit.Text
		}
	}
	return out
}
