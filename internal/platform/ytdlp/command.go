package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// OutputStream names the stream a line of command output came from.
type OutputStream string

// Output streams.
const (
	StreamStdout OutputStream = "stdout"
	StreamStderr OutputStream = "stderr"
)

// LineFunc receives command output one line at a time. Carriage returns
// split lines so progress bars are delivered as they redraw.
type LineFunc func(stream OutputStream, line string)

// CommandRunner runs an external program and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, onLine LineFunc) ([]byte, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	// MaxLineBytes caps a single output line. Zero means defaultMaxLineBytes.
	MaxLineBytes int
}

const (
	// maxStderrKept bounds the stderr tail included in error messages.
	maxStderrKept = 8192

	defaultMaxLineBytes = 16 * 1024 * 1024
)

// Run starts name with args and waits for it to exit. The process is killed
// when ctx is done.
func (e ExecRunner) Run(ctx context.Context, name string, args []string, onLine LineFunc) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("setup stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	var (
		stdout strings.Builder
		stderr strings.Builder
		mu     sync.Mutex
		wg     sync.WaitGroup

		scanErrs [2]error
	)

	maxLine := e.MaxLineBytes
	if maxLine <= 0 {
		maxLine = defaultMaxLineBytes
	}

	read := func(slot int, stream OutputStream, r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, min(64*1024, maxLine)), maxLine)
		if stream == StreamStderr {
			scanner.Split(splitByNewlineOrCR)
		}
		for scanner.Scan() {
			line := scanner.Text()
			mu.Lock()
			if stream == StreamStdout {
				stdout.WriteString(line)
				stdout.WriteByte('\n')
			} else if stderr.Len() < maxStderrKept {
				stderr.WriteString(line)
				stderr.WriteByte('\n')
			}
			mu.Unlock()
			if onLine != nil {
				onLine(stream, line)
			}
		}
		if err := scanner.Err(); err != nil {
			scanErrs[slot] = fmt.Errorf("read %s: %w", stream, err)
			// Keep draining so the child never blocks on a full pipe.
			_, _ = io.Copy(io.Discard, r)
		}
	}

	wg.Add(2)
	go read(0, StreamStdout, stdoutPipe)
	go read(1, StreamStderr, stderrPipe)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s interrupted: %w", name, ctxErr)
		}
		mu.Lock()
		defer mu.Unlock()
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	if err := errors.Join(scanErrs[0], scanErrs[1]); err != nil {
		return nil, fmt.Errorf("%s output unreadable: %w", name, err)
	}
	return []byte(stdout.String()), nil
}

func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
