// Package player assembles and runs the streamlink command line.
package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cbcsl/cbcsl/internal/core/proxy"
)

const (
	DefaultExecutable = "streamlink"
	DefaultQuality    = "best"
	DefaultLogLevel   = "info"
)

// ProcessError reports a player that exited unsuccessfully. ExitCode is -1
// when the process was terminated by a signal.
type ProcessError struct {
	Executable string
	ExitCode   int
	Err        error
}

func (e *ProcessError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s terminated abnormally: %v", e.Executable, e.Err)
	}
	return fmt.Sprintf("%s exited with status %d", e.Executable, e.ExitCode)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Builder accumulates the player arguments. The fixed options come first,
// the stream URL and quality last.
type Builder struct {
	executable string
	logLevel   string
	proxy      string
	headers    map[string]string
	url        string
	quality    string
}

// New starts a command for executable, defaulting to streamlink.
func New(executable string) *Builder {
	if executable == "" {
		executable = DefaultExecutable
	}
	return &Builder{
		executable: executable,
		logLevel:   DefaultLogLevel,
		quality:    DefaultQuality,
		headers:    map[string]string{},
	}
}

func (b *Builder) LogLevel(level string) *Builder {
	if level != "" {
		b.logLevel = level
	}
	return b
}

// Proxy sets --http-proxy, rewritten so the player resolves names through
// the proxy. An empty spec leaves the option out.
func (b *Builder) Proxy(spec string) *Builder {
	if strings.TrimSpace(spec) != "" {
		b.proxy = proxy.ForPlayerProcess(spec)
	}
	return b
}

func (b *Builder) Header(name, value string) *Builder {
	b.headers[name] = value
	return b
}

func (b *Builder) Headers(headers map[string]string) *Builder {
	for k, v := range headers {
		b.headers[k] = v
	}
	return b
}

func (b *Builder) Stream(url, quality string) *Builder {
	b.url = url
	if quality != "" {
		b.quality = quality
	}
	return b
}

// Executable returns the program the command runs.
func (b *Builder) Executable() string { return b.executable }

// Args returns the argument list, without the executable. Headers are
// emitted in name order.
func (b *Builder) Args() []string {
	args := []string{"--loglevel", b.logLevel}
	if b.proxy != "" {
		args = append(args, "--http-proxy", b.proxy)
	}

	names := make([]string, 0, len(b.headers))
	for name := range b.headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		args = append(args, "--http-header", name+"="+b.headers[name])
	}

	return append(args, b.url, b.quality)
}

// String renders the command line for logs.
func (b *Builder) String() string {
	return b.executable + " " + strings.Join(b.Args(), " ")
}

// Run starts the player with the terminal's stdio, waits for it and
// reports a non-zero exit as *ProcessError.
func (b *Builder) Run(ctx context.Context, log *zap.SugaredLogger) error {
	if b.url == "" {
		return errors.New("no stream URL to play")
	}
	return b.run(ctx, log, b.Args())
}

func (b *Builder) run(ctx context.Context, log *zap.SugaredLogger, args []string) error {
	path, err := exec.LookPath(b.executable)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", b.executable, err)
	}

	if log != nil {
		log.Infow("starting player", "path", path, "args", args)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ProcessError{Executable: b.executable, ExitCode: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("failed to run %s: %w", b.executable, err)
	}
	return nil
}
