// Package bridge is the orchestrator: a single sequential loop that owns
// all mutable session state and reacts to events merged from the chat
// gateway, the server process, operator stdin, timers, and the installer.
// Producers only ever enqueue immutable events; no other synchronization
// exists or is needed.
package bridge

import (
	"log"
	"time"

	"github.com/server-relay/relayd/internal/capture"
	"github.com/server-relay/relayd/internal/config"
	"github.com/server-relay/relayd/internal/logline"
	"github.com/server-relay/relayd/internal/metrics"
	"github.com/server-relay/relayd/internal/playtime"
	"github.com/server-relay/relayd/internal/ringlog"
	"github.com/server-relay/relayd/internal/runner"
)

// TextSender is the only capability the orchestrator needs from the chat
// platform.
type TextSender interface {
	SendText(channelID, text string) error
}

// Bridge owns the orchestrator state. None of its fields may be touched
// outside the loop goroutine once Run has been called.
type Bridge struct {
	cfg    *config.Config
	sender TextSender

	startServer func() error
	runUpdate   func() error

	events chan Event
	done   chan struct{}

	// Loop-owned state.
	botID   string
	ready   bool
	console *runner.Console
	recent  *ringlog.Buffer
	window  *capture.Window
	tracker *playtime.Tracker
}

func New(cfg *config.Config, tracker *playtime.Tracker) *Bridge {
	b := &Bridge{
		cfg:     cfg,
		events:  make(chan Event, 256),
		done:    make(chan struct{}),
		recent:  ringlog.New(cfg.Buffers.RecentOutputBytes),
		tracker: tracker,
	}
	b.window = capture.NewWindow(
		cfg.Buffers.CaptureBytes,
		time.Duration(cfg.Capture.DelayMs)*time.Millisecond,
	)
	b.window.SetElapsedHandler(func(id string) {
		b.Enqueue(Event{Type: EventCaptureElapsed, CaptureID: id})
	})
	return b
}

func (b *Bridge) SetSender(sender TextSender) {
	b.sender = sender
}

// SetServerStarter registers the callback used by the !start command and
// must be wired before Run.
func (b *Bridge) SetServerStarter(start func() error) {
	b.startServer = start
}

// SetUpdateRunner registers the callback used by the !update command. A
// nil runner disables the command.
func (b *Bridge) SetUpdateRunner(run func() error) {
	b.runUpdate = run
}

// Enqueue hands an event to the orchestrator. Safe to call from any
// goroutine; after Stop the event is dropped with a log line.
func (b *Bridge) Enqueue(ev Event) {
	select {
	case <-b.done:
		log.Printf("Dropping %s event: orchestrator stopped", ev.Type)
	case b.events <- ev:
	}
}

// Run consumes events until Stop. It is the only goroutine that reads or
// writes orchestrator state.
func (b *Bridge) Run() {
	for {
		select {
		case <-b.done:
			return
		case ev := <-b.events:
			b.handle(ev)
		}
	}
}

// Stop terminates the loop and cancels any pending capture timer.
func (b *Bridge) Stop() {
	close(b.done)
	b.window.Cancel()
}

func (b *Bridge) handle(ev Event) {
	metrics.Events.WithLabelValues(string(ev.Type)).Inc()

	switch ev.Type {
	case EventGatewayReady:
		b.botID = ev.Ready.BotID
		b.ready = true
		log.Printf("Gateway ready (bot %s)", b.botID)

	case EventChatMessage:
		b.handleChat(ev.Message)

	case EventProcessStarted:
		b.console = ev.Console
		log.Printf("Server process started")

	case EventProcessOutput:
		b.handleOutput(ev.Line)

	case EventProcessStopped:
		b.console = nil
		if ev.Err != nil {
			b.say("Server process failed: " + ev.Err.Error())
		} else {
			b.say("Server Shutdown")
		}

	case EventStdinLine:
		if b.console == nil {
			return
		}
		if err := b.console.WriteLine(ev.Line); err != nil {
			log.Printf("Error writing to server stdin: %v", err)
		}

	case EventInstallComplete:
		b.say("Server update installed")

	case EventCaptureElapsed:
		text, ok := b.window.Close(ev.CaptureID)
		if !ok {
			return
		}
		if text == "" {
			b.say("Command produced no response")
		} else {
			b.say("```\n" + text + "```")
		}
	}
}

// handleOutput feeds one framed server output line through the buffers and
// the log parser.
func (b *Bridge) handleOutput(line string) {
	metrics.LinesFramed.Inc()
	b.recent.Append(line)
	b.window.Observe(line)

	rec, err := logline.Parse(line)
	if err != nil {
		metrics.ParseErrors.Inc()
		log.Printf("Unparsed server line (%v): %s", err, line)
		return
	}
	log.Printf("Processed [%s] %s", rec.Label, rec.Content)
	b.handleRecord(rec)
}

// say sends text to the primary channel, fire-and-forget.
func (b *Bridge) say(text string) {
	if !b.ready || b.sender == nil {
		log.Printf("Gateway not ready, dropping message: %s", text)
		return
	}
	if err := b.sender.SendText(b.cfg.Gateway.ChannelID, text); err != nil {
		metrics.ChatSendFailures.Inc()
		log.Printf("Error sending chat message: %v", err)
	}
}
