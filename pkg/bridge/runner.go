package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults for ExecRunner.
const (
	DefaultBinary = "Rscript"

	// versionTimeout bounds the interpreter check run by Version.
	versionTimeout = 5 * time.Second

	// waitDelay bounds how long Run waits for output pipes after the process
	// has been killed.
	waitDelay = 2 * time.Second
)

// DefaultArgs are passed to the interpreter before the script.
var DefaultArgs = []string{"--vanilla"}

// Script is a composed R program.
type Script struct {
	Source string
	// Inline passes Source with -e instead of through a temporary file.
	Inline bool
}

// Output is what one R process produced.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes R scripts. A nonzero exit is reported through
// Output.ExitCode, not as an error; errors are reserved for processes that
// could not be started or did not finish.
type Runner interface {
	Run(ctx context.Context, script Script, timeout time.Duration) (*Output, error)
}

// ExecRunner runs scripts with a local Rscript binary, one process per call.
type ExecRunner struct {
	// Binary is the interpreter name or path (default "Rscript").
	Binary string
	// Args are the interpreter flags; nil means DefaultArgs.
	Args []string
	// TempDir holds script files (default os.TempDir()).
	TempDir string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

func (r *ExecRunner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

func (r *ExecRunner) binary() string {
	if r.Binary == "" {
		return DefaultBinary
	}
	return r.Binary
}

// LookPath resolves the interpreter binary.
func (r *ExecRunner) LookPath() (string, error) {
	path, err := exec.LookPath(r.binary())
	if err != nil {
		return "", &InterpreterNotFoundError{Binary: r.binary(), Err: err}
	}
	return path, nil
}

// Run executes script and waits for it to finish or for timeout to expire.
// A timeout of zero disables the limit. The temporary script file, if any, is
// removed before Run returns.
func (r *ExecRunner) Run(ctx context.Context, script Script, timeout time.Duration) (*Output, error) {
	path, err := r.LookPath()
	if err != nil {
		return nil, err
	}

	args := DefaultArgs
	if r.Args != nil {
		args = r.Args
	}
	args = slices.Clone(args)

	if script.Inline {
		args = append(args, "-e", script.Source)
	} else {
		file, cleanup, err := r.writeScript(script.Source)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		args = append(args, file)
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	r.logger().Debug("starting R process", slog.String("binary", path), slog.Bool("inline", script.Inline))

	start := time.Now()
	runErr := cmd.Run()
	out := &Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		r.logger().Warn("R process timed out", slog.Duration("timeout", timeout))
		return nil, &TimeoutError{Timeout: timeout}
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return nil, fmt.Errorf("run %s: %w", path, runErr)
	}

	r.logger().Debug("R process finished", slog.Duration("duration", out.Duration))
	return out, nil
}

func (r *ExecRunner) writeScript(src string) (string, func(), error) {
	f, err := os.CreateTemp(r.TempDir, "rbridge-"+uuid.NewString()+"-*.R")
	if err != nil {
		return "", nil, fmt.Errorf("create script file: %w", err)
	}

	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.logger().Warn("failed to remove script file", slog.String("path", f.Name()), slog.String("error", err.Error()))
		}
	}

	if _, err := f.WriteString(src); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write script file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close script file: %w", err)
	}
	return f.Name(), cleanup, nil
}

// Version returns the first line of "Rscript --version".
func (r *ExecRunner) Version(ctx context.Context) (string, error) {
	path, err := r.LookPath()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	// Older R versions print the banner on stderr.
	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s --version: %w", path, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line, nil
}

// HasPackage reports whether the R package name is installed.
func (r *ExecRunner) HasPackage(ctx context.Context, name string) (bool, error) {
	src := fmt.Sprintf("cat(requireNamespace(%s, quietly = TRUE))", QuoteR(name))
	out, err := r.Run(ctx, Script{Source: src, Inline: true}, versionTimeout)
	if err != nil {
		return false, err
	}
	if out.ExitCode != 0 {
		return false, &ExecutionError{Function: "requireNamespace", ExitCode: out.ExitCode, Message: strings.TrimSpace(out.Stderr)}
	}
	return strings.TrimSpace(out.Stdout) == "TRUE", nil
}
