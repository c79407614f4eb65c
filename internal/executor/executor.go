// Package executor proxies a wrapped command, tees its output to a log
// file, and runs the resolved filter's pipeline over the capture
// (spec.md §4.8, §6: "apply(filter, capture, exit_code, argv_tail)").
package executor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"al.essio.dev/pkg/shellescape"
	"github.com/dustin/go-humanize"

	"github.com/Fuabioo/tokf/internal/logpath"
	"github.com/Fuabioo/tokf/internal/pipeline"
	"github.com/Fuabioo/tokf/internal/regexcache"
	"github.com/Fuabioo/tokf/internal/resolve"
	"github.com/Fuabioo/tokf/internal/script"
	"github.com/Fuabioo/tokf/internal/tmpl"
)

// smallOutputThreshold is the byte count below which a log file is
// considered not worth keeping (roughly ~80 lines of typical terminal
// output).
const smallOutputThreshold = 4096

// syncWriter serializes concurrent writes to an io.Writer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}

// Config holds the execution configuration.
type Config struct {
	Command  string
	Args     []string
	LogDir   string
	NoFilter bool
	NoLog    bool
	Verbose  bool
	Resolver *resolve.Resolver
	Cache    *regexcache.Cache
}

// Result holds the execution result.
type Result struct {
	ExitCode int
	LogPath  string
}

// Run executes the command with the MultiWriter tee pattern, then
// resolves and applies a filter over the captured stdout (spec.md §4.8).
func Run(cfg Config) Result {
	command := filepath.Base(cfg.Command)
	cwd, _ := os.Getwd()

	var match *resolve.Match
	var matched bool
	if !cfg.NoFilter && !cfg.NoLog && cfg.Resolver != nil {
		argv := append([]string{command}, cfg.Args...)
		match, matched = cfg.Resolver.ResolveCommand(argv, cwd)
	}

	if cfg.Verbose {
		name := "none"
		if matched {
			name = match.Entry.Name
		}
		fmt.Fprintf(os.Stderr, "tokf: command=%s args=%v filter=%s\n", command, cfg.Args, name)
	}

	var logFile *os.File
	var logFilePath string
	if !cfg.NoLog {
		logFilePath = logpath.Resolve(cfg.LogDir, command, cfg.Args)
		var err error
		logFile, err = logpath.CreateLogFile(logFilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tokf: warning: could not create log file: %v\n", err)
		}
		if cfg.Verbose && logFile != nil {
			fmt.Fprintf(os.Stderr, "tokf: log=%s\n", logFilePath)
		}
	}
	// NOTE: no defer logFile.Close() — we manage close explicitly to
	// support the small-output cleanup path without double-close.

	var logWriter io.Writer
	if logFile != nil {
		logWriter = &syncWriter{w: logFile}
	}

	runCommand, runArgs := cfg.Command, cfg.Args
	if matched && match.Entry.Def.Run != "" {
		runCommand, runArgs = overrideCommand(cfg, match)
	}

	cmd := exec.Command(runCommand, runArgs...)
	cmd.Stdin = os.Stdin

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokf: error creating stdout pipe: %v\n", err)
		if logFile != nil {
			logFile.Close()
		}
		return Result{ExitCode: 1}
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokf: error creating stderr pipe: %v\n", err)
		if logFile != nil {
			logFile.Close()
		}
		return Result{ExitCode: 1}
	}

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "tokf: error starting command: %v\n", err)
		if logFile != nil {
			logFile.Close()
		}
		if isNotFound(err) {
			return Result{ExitCode: 127}
		}
		return Result{ExitCode: 1}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for sig := range sigCh {
			if cmd.Process != nil {
				_ = cmd.Process.Signal(sig)
			}
		}
	}()
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
	}()

	// Read stdout and stderr concurrently to avoid pipe buffer deadlock.
	var stdoutBuf bytes.Buffer
	var stdoutReader io.Reader = stdoutPipe
	if logWriter != nil {
		stdoutReader = io.TeeReader(stdoutPipe, logWriter)
	}

	var stderrWriters []io.Writer
	stderrWriters = append(stderrWriters, os.Stderr)
	if logWriter != nil {
		stderrWriters = append(stderrWriters, logWriter)
	}
	stderrMulti := io.MultiWriter(stderrWriters...)

	var wg sync.WaitGroup
	wg.Add(2)

	var stdoutCopyErr error
	go func() {
		defer wg.Done()
		_, stdoutCopyErr = io.Copy(&stdoutBuf, stdoutReader)
	}()

	var stderrCopyErr error
	go func() {
		defer wg.Done()
		_, stderrCopyErr = io.Copy(stderrMulti, stderrPipe)
	}()

	wg.Wait()

	if stdoutCopyErr != nil {
		fmt.Fprintf(os.Stderr, "tokf: warning: error reading stdout: %v\n", stdoutCopyErr)
	}
	if stderrCopyErr != nil {
		fmt.Fprintf(os.Stderr, "tokf: warning: error reading stderr: %v\n", stderrCopyErr)
	}

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				exitCode = 128 + int(status.Signal())
			}
		} else {
			exitCode = 1
		}
	}

	text, wasReduced := applyFilter(cfg, match, matched, stdoutBuf.Bytes(), exitCode)

	if _, err := fmt.Fprint(os.Stdout, text); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return Result{ExitCode: exitCode, LogPath: logFilePath}
	}

	// Small output cleanup: if the raw output was small and wasn't
	// reduced, the log file is disk clutter for zero benefit — remove it.
	if logFile != nil && !wasReduced && stdoutBuf.Len() <= smallOutputThreshold {
		logFile.Close()
		logFile = nil
		if err := os.Remove(logFilePath); err == nil {
			_ = os.Remove(filepath.Dir(logFilePath))
		}
		logFilePath = ""
	}

	if logFile != nil {
		logFile.Close()
	}

	if wasReduced && logFilePath != "" {
		fmt.Fprintf(os.Stderr, "\nOutput was reduced, see the full logs at %s\n", logFilePath)
	}

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "tokf: captured %s raw, %s filtered\n",
			humanize.Bytes(uint64(stdoutBuf.Len())), humanize.Bytes(uint64(len(text))))
	}

	return Result{ExitCode: exitCode, LogPath: logFilePath}
}

// overrideCommand renders a matched filter's `run` template (spec.md
// §2/§9 step 1: "optional override template for the command to
// actually execute; supports {args}") and hands the result to a shell,
// so the template can carry arbitrary shell syntax rather than just a
// bare argv.
func overrideCommand(cfg Config, match *resolve.Match) (string, []string) {
	t, err := tmpl.Parse(match.Entry.Def.Run)
	if err != nil {
		return cfg.Command, cfg.Args
	}
	cache := cfg.Cache
	if cache == nil {
		cache = regexcache.New()
	}
	scope := tmpl.MapResolver{"args": tmpl.StrValue(shellescape.QuoteCommand(match.Args))}
	rendered := tmpl.Render(t, scope, cache)
	return "sh", []string{"-c", rendered}
}

func applyFilter(cfg Config, match *resolve.Match, matched bool, raw []byte, exitCode int) (string, bool) {
	rawText := string(raw)
	if !matched || cfg.NoFilter || cfg.NoLog {
		return rawText, false
	}

	entry := match.Entry
	if !match.PreVariantApplied {
		entry = cfg.Resolver.ResolveOutputVariant(entry, rawText)
	}

	cache := cfg.Cache
	if cache == nil {
		cache = regexcache.New()
	}

	out := pipeline.Run(pipeline.Input{
		Def:      entry.Def,
		Raw:      rawText,
		ExitCode: exitCode,
		Args:     match.Args,
	}, cache, script.DefaultBudget)

	return out.Text, out.Text != rawText
}

// isNotFound checks if the error is a command-not-found error.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if pathErr, ok := err.(*exec.Error); ok {
		return pathErr.Err == exec.ErrNotFound
	}
	return false
}
