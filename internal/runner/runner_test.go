package runner

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/server-relay/relayd/internal/config"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func TestConsoleWriteLineAppendsCRLF(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare_line", in: "list", want: "list\r\n"},
		{name: "trailing_newline_replaced", in: "list\n", want: "list\r\n"},
		{name: "trailing_crlf_replaced", in: "list\r\n", want: "list\r\n"},
		{name: "empty", in: "", want: "\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			console := NewConsole(nopCloser{buf})
			require.NoError(t, console.WriteLine(tt.in))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func newTestRunner(command string, args ...string) (*Runner, chan string, chan error, chan *Console) {
	r := New(config.Server{Command: command, Args: args}, 1000)

	output := make(chan string, 64)
	exited := make(chan error, 1)
	started := make(chan *Console, 1)

	r.SetOutputHandler(func(line string) { output <- line })
	r.SetExitHandler(func(err error) { exited <- err })
	r.SetStartedHandler(func(c *Console) { started <- c })
	return r, output, exited, started
}

func waitLines(t *testing.T, output chan string, n int) []string {
	t.Helper()
	var lines []string
	for len(lines) < n {
		select {
		case line := <-output:
			lines = append(lines, line)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for output, got %v", lines)
		}
	}
	return lines
}

func waitExit(t *testing.T, exited chan error) error {
	t.Helper()
	select {
	case err := <-exited:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
		return nil
	}
}

func TestRunnerStreamsStdout(t *testing.T) {
	r, output, exited, _ := newTestRunner("/bin/sh", "-c", `printf "one\ntwo\n"`)
	require.NoError(t, r.Start())

	assert.Equal(t, []string{"one", "two"}, waitLines(t, output, 2))
	assert.NoError(t, waitExit(t, exited))
	assert.False(t, r.Running())
}

func TestRunnerStreamsStderr(t *testing.T) {
	r, output, exited, _ := newTestRunner("/bin/sh", "-c", `printf "oops\n" >&2`)
	require.NoError(t, r.Start())

	assert.Equal(t, []string{"oops"}, waitLines(t, output, 1))
	assert.NoError(t, waitExit(t, exited))
}

func TestRunnerStdinRoundTrip(t *testing.T) {
	r, output, exited, started := newTestRunner("/bin/sh", "-c", `read line; echo "echo:$line"`)
	require.NoError(t, r.Start())

	var console *Console
	select {
	case console = <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("started handler not called")
	}

	require.NoError(t, console.WriteLine("hi"))

	lines := waitLines(t, output, 1)
	assert.Equal(t, "echo:hi", lines[0])
	assert.NoError(t, waitExit(t, exited))
}

func TestRunnerRejectsDoubleStart(t *testing.T) {
	r, _, exited, started := newTestRunner("/bin/sh", "-c", `read line`)
	require.NoError(t, r.Start())
	assert.True(t, r.Running())

	assert.Error(t, r.Start())

	// Close stdin so the child sees EOF and exits.
	select {
	case console := <-started:
		require.NoError(t, console.Close())
	case <-time.After(5 * time.Second):
		t.Fatal("started handler not called")
	}
	waitExit(t, exited)
	assert.False(t, r.Running())
}

func TestRunnerSpawnFailure(t *testing.T) {
	r, _, _, _ := newTestRunner("/nonexistent/server-binary")
	assert.Error(t, r.Start())
	assert.False(t, r.Running())
}

func TestRunnerRestartAfterExit(t *testing.T) {
	r, output, exited, _ := newTestRunner("/bin/sh", "-c", `printf "pass\n"`)

	require.NoError(t, r.Start())
	waitLines(t, output, 1)
	waitExit(t, exited)

	require.NoError(t, r.Start())
	waitLines(t, output, 1)
	waitExit(t, exited)
}

func TestRunnerNonZeroExitReported(t *testing.T) {
	r, _, exited, _ := newTestRunner("/bin/sh", "-c", `exit 3`)
	require.NoError(t, r.Start())
	assert.Error(t, waitExit(t, exited))
}
