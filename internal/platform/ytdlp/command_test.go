package ytdlp

import (
	"bufio"
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_StreamsLines(t *testing.T) {
	t.Parallel()
	requireShell(t)

	var lines []string
	out, err := ExecRunner{}.Run(context.Background(), "sh",
		[]string{"-c", `printf 'one\ntwo\n'; printf ' 10%%\r 50%%\n' >&2`},
		func(stream OutputStream, line string) {
			if stream == StreamStderr {
				lines = append(lines, line)
			}
		})
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(out))
	assert.Equal(t, []string{" 10%", " 50%"}, lines)
}

func TestExecRunner_OverlongLineDoesNotHang(t *testing.T) {
	t.Parallel()
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	_, err := ExecRunner{MaxLineBytes: 1024}.Run(ctx, "sh",
		[]string{"-c", `head -c 1048576 /dev/zero | tr '\0' a; echo; echo done`}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, bufio.ErrTooLong)
	assert.NoError(t, ctx.Err(), "runner waited for the context instead of draining output")
	assert.Less(t, time.Since(start), 10*time.Second)
}
