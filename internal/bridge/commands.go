package bridge

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/server-relay/relayd/internal/capture"
	"github.com/server-relay/relayd/internal/gateway"
	"github.com/server-relay/relayd/internal/metrics"
)

const helpText = "**relayd Commands**\n" +
	"`!help` - lists commands\n" +
	"`!online` - lists online players\n" +
	"`!time` - lists hours played\n" +
	"`!logs` - shows recent server output\n" +
	"`!cmd <command>` - runs a server console command\n" +
	"`!update` - runs the server update\n" +
	"`!start` - starts the server process"

// handleChat dispatches a chat message from the gateway. Messages from the
// bot itself or from other channels are ignored; unrecognized !-commands
// get an explicit reply; any other text is relayed into the server console.
func (b *Bridge) handleChat(msg gateway.Message) {
	if msg.AuthorID == b.botID {
		return
	}
	if msg.ChannelID != b.cfg.Gateway.ChannelID {
		return
	}
	if !b.ready {
		return
	}

	switch {
	case msg.Content == "!help":
		b.say(helpText)

	case msg.Content == "!online":
		b.replyOnline()

	case msg.Content == "!time":
		b.replyPlaytime()

	case msg.Content == "!logs":
		b.replyLogs()

	case msg.Content == "!cmd" || strings.HasPrefix(msg.Content, "!cmd "):
		b.runConsoleCommand(strings.TrimSpace(strings.TrimPrefix(msg.Content, "!cmd")))

	case msg.Content == "!update":
		b.runUpdateCommand()

	case msg.Content == "!start":
		b.runStartCommand()

	case strings.HasPrefix(msg.Content, "!"):
		b.say("Unknown command: " + msg.Content)

	default:
		if b.console == nil {
			return
		}
		line := fmt.Sprintf("/say %s: %s", msg.Author, msg.Content)
		if err := b.console.WriteLine(line); err != nil {
			log.Printf("Error writing to server stdin: %v", err)
		}
	}
}

func (b *Bridge) replyOnline() {
	players := b.tracker.Online()
	if len(players) == 0 {
		b.say("No players online")
		return
	}
	b.say("Online players: " + strings.Join(players, ", "))
}

func (b *Bridge) replyPlaytime() {
	entries := b.tracker.Report()
	if len(entries) == 0 {
		b.say("No play time recorded")
		return
	}

	maxName := 0
	for _, entry := range entries {
		if len(entry.Player) > maxName {
			maxName = len(entry.Player)
		}
	}

	var sb strings.Builder
	sb.WriteString("```Total play time:\n")
	// Report is sorted ascending; present largest first.
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		fmt.Fprintf(&sb, "%-*s | %.2f hr\n", maxName, entry.Player, entry.Total.Hours())
	}
	sb.WriteString("```")
	b.say(sb.String())
}

func (b *Bridge) replyLogs() {
	text := b.recent.String()
	if text == "" {
		b.say("No recent output")
		return
	}
	b.say("```\n" + text + "```")
}

// runConsoleCommand writes an operator command to the server console and
// opens a capture window; whatever the server prints before the window's
// timer fires comes back as the command's response.
func (b *Bridge) runConsoleCommand(command string) {
	if command == "" {
		b.say("Usage: `!cmd <command>`")
		return
	}
	if b.console == nil {
		b.say("Server is not running")
		return
	}

	if _, err := b.window.Open(); err != nil {
		if errors.Is(err, capture.ErrBusy) {
			metrics.CaptureBusy.Inc()
			b.say("Busy: another command is still capturing its response")
			return
		}
		b.say("Failed to run command: " + err.Error())
		return
	}

	if err := b.console.WriteLine(command); err != nil {
		log.Printf("Error writing to server stdin: %v", err)
		b.say("Failed to write command to the server console")
	}
}

func (b *Bridge) runUpdateCommand() {
	if b.console != nil {
		b.say("Stop the server before updating")
		return
	}
	if b.runUpdate == nil {
		b.say("No update command configured")
		return
	}
	if err := b.runUpdate(); err != nil {
		b.say("Failed to start update: " + err.Error())
		return
	}
	b.say("Update started")
}

func (b *Bridge) runStartCommand() {
	if b.console != nil {
		b.say("Server is already running")
		return
	}
	if b.startServer == nil {
		b.say("Starting the server is not available")
		return
	}
	if err := b.startServer(); err != nil {
		b.say("Failed to start server: " + err.Error())
		return
	}
	b.say("Starting server...")
}
