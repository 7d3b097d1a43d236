// Package runner spawns and supervises the game server subprocess, framing
// its output streams into lines and exposing its input stream as a
// line-oriented console.
package runner

import (
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"

	"github.com/creack/pty"

	"github.com/server-relay/relayd/internal/config"
	"github.com/server-relay/relayd/internal/framer"
)

// Console wraps the subprocess input stream. Every line written through it
// is terminated with "\r\n", which game server consoles expect regardless
// of platform.
type Console struct {
	mu sync.Mutex
	w  io.WriteCloser
}

func NewConsole(w io.WriteCloser) *Console {
	return &Console{w: w}
}

// WriteLine writes a single command line to the process input. Any
// trailing line terminator on line is replaced by "\r\n".
func (c *Console) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	line = strings.TrimRight(line, "\r\n")
	_, err := io.WriteString(c.w, line+"\r\n")
	return err
}

func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Close()
}

type StartedHandler func(console *Console)
type OutputHandler func(line string)
type ExitHandler func(err error)

// Runner launches the configured server command with piped stdio (or a
// single PTY when configured) and reports its lifecycle through handlers.
// Handlers are invoked from runner goroutines and must only enqueue events.
type Runner struct {
	cfg        config.Server
	frameBytes int

	mu      sync.Mutex
	running bool

	onStarted StartedHandler
	onOutput  OutputHandler
	onExit    ExitHandler
}

func New(cfg config.Server, frameBytes int) *Runner {
	return &Runner{
		cfg:        cfg,
		frameBytes: frameBytes,
	}
}

func (r *Runner) SetStartedHandler(handler StartedHandler) {
	r.onStarted = handler
}

func (r *Runner) SetOutputHandler(handler OutputHandler) {
	r.onOutput = handler
}

func (r *Runner) SetExitHandler(handler ExitHandler) {
	r.onExit = handler
}

// Running reports whether the subprocess is currently alive.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start spawns the subprocess. It returns an error if a spawn is already
// in flight or the process could not be started; once the process is up,
// lifecycle continues through the handlers.
func (r *Runner) Start() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("server process already running")
	}
	r.running = true
	r.mu.Unlock()

	cmd := exec.Command(r.cfg.Command, r.cfg.Args...)
	log.Printf("Spawning server process: %s %v", r.cfg.Command, r.cfg.Args)

	if r.cfg.UsePTY {
		return r.startPTY(cmd)
	}
	return r.startPiped(cmd)
}

func (r *Runner) startPiped(cmd *exec.Cmd) error {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		r.setStopped()
		return fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.setStopped()
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.setStopped()
		return fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		r.setStopped()
		return fmt.Errorf("failed to spawn server process: %w", err)
	}

	if r.onStarted != nil {
		r.onStarted(NewConsole(stdin))
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go r.readStream(stdout, &readers)
	go r.readStream(stderr, &readers)

	go func() {
		readers.Wait()
		err := cmd.Wait()
		log.Printf("Server process exited: %v", err)
		r.setStopped()
		if r.onExit != nil {
			r.onExit(err)
		}
	}()

	return nil
}

func (r *Runner) startPTY(cmd *exec.Cmd) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		r.setStopped()
		return fmt.Errorf("failed to spawn server process on pty: %w", err)
	}
	_ = pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 120})

	if r.onStarted != nil {
		r.onStarted(NewConsole(ptmx))
	}

	go func() {
		// The PTY carries stdout and stderr interleaved on one stream.
		if err := framer.Stream(ptmx, r.frameBytes, r.emit); err != nil {
			log.Printf("PTY read error: %v", err)
		}
		err := cmd.Wait()
		log.Printf("Server process exited: %v", err)
		_ = ptmx.Close()
		r.setStopped()
		if r.onExit != nil {
			r.onExit(err)
		}
	}()

	return nil
}

func (r *Runner) readStream(stream io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	if err := framer.Stream(stream, r.frameBytes, r.emit); err != nil {
		log.Printf("Server output read error: %v", err)
	}
}

func (r *Runner) emit(line string) {
	if r.onOutput != nil {
		r.onOutput(line)
	}
}

func (r *Runner) setStopped() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}
