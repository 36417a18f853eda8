package player

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestArgs(t *testing.T) {
	b := New("").
		LogLevel("debug").
		Proxy("127.0.0.1:1080").
		Header("User-Agent", "UA").
		Header("Referer", "https://www.cbc.ca/player/play/video/1.111").
		Stream("https://cdn.example/master.m3u8", "720p")

	assert.Equal(t, "streamlink", b.Executable())
	assert.Equal(t, []string{
		"--loglevel", "debug",
		"--http-proxy", "socks5h://127.0.0.1:1080",
		"--http-header", "Referer=https://www.cbc.ca/player/play/video/1.111",
		"--http-header", "User-Agent=UA",
		"https://cdn.example/master.m3u8", "720p",
	}, b.Args())
}

func TestArgsDefaults(t *testing.T) {
	b := New("/opt/streamlink").Proxy(" ").Stream("https://cdn.example/a.m3u8", "")

	assert.Equal(t, []string{"--loglevel", "info", "https://cdn.example/a.m3u8", "best"}, b.Args())
	assert.Equal(t, "/opt/streamlink --loglevel info https://cdn.example/a.m3u8 best", b.String())
}

func TestRunExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	b := New("sh").Stream("u", "")
	err := b.run(context.Background(), zaptest.NewLogger(t).Sugar(), []string{"-c", "exit 3"})

	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr), "got %v", err)
	assert.Equal(t, 3, procErr.ExitCode)
	assert.Contains(t, err.Error(), "status 3")

	err = b.run(context.Background(), nil, []string{"-c", "kill -9 $$"})
	require.True(t, errors.As(err, &procErr), "got %v", err)
	assert.Equal(t, -1, procErr.ExitCode)

	assert.NoError(t, b.run(context.Background(), nil, []string{"-c", "exit 0"}))
}

func TestRunMissingExecutable(t *testing.T) {
	err := New("definitely-not-a-player-binary").Stream("u", "").Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestProcessErrorSignal(t *testing.T) {
	err := &ProcessError{Executable: "streamlink", ExitCode: -1, Err: errors.New("signal: killed")}
	assert.Contains(t, err.Error(), "terminated abnormally")
}
