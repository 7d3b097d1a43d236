package bridge

import (
	"log"
	"strings"

	"github.com/server-relay/relayd/internal/logline"
	"github.com/server-relay/relayd/internal/metrics"
)

const (
	startedPrefix = "Done"
	joinedSuffix  = " joined the game"
	leftSuffix    = " left the game"
)

// handleRecord reacts to a parsed log record: the server-started marker,
// join/leave transitions, in-game chat, and lines mentioning an online
// player. Matching is on content patterns; the label varies with the
// server's logger configuration and is only carried for diagnostics.
func (b *Bridge) handleRecord(rec logline.Record) {
	if strings.HasPrefix(rec.Content, startedPrefix) {
		b.say("Server Started")
		return
	}

	if name, ok := strings.CutSuffix(rec.Content, joinedSuffix); ok {
		b.handleJoin(name)
		return
	}
	if name, ok := strings.CutSuffix(rec.Content, leftSuffix); ok {
		b.handleLeave(name)
		return
	}
	if strings.HasPrefix(rec.Content, "<") {
		b.handleGameChat(rec.Content)
		return
	}

	// Misc lines about an online player (deaths, advancements, ...) are
	// relayed verbatim.
	for _, player := range b.tracker.Online() {
		if strings.HasPrefix(rec.Content, player) {
			b.say(rec.Content)
			return
		}
	}
}

func (b *Bridge) handleJoin(name string) {
	b.tracker.Join(name)
	metrics.PlayersOnline.Set(float64(b.tracker.OnlineCount()))
	b.say(name + " joined the server")
}

func (b *Bridge) handleLeave(name string) {
	b.tracker.Leave(name)
	metrics.PlayersOnline.Set(float64(b.tracker.OnlineCount()))
	b.say(name + " left the server")
}

// handleGameChat relays a "<user> message" line to the channel, dropping
// messages the server says about itself.
func (b *Bridge) handleGameChat(content string) {
	end := strings.Index(content, "> ")
	if end < 0 {
		log.Printf("Invalid chat message: %s", content)
		return
	}
	user := content[1:end]
	text := content[end+2:]

	if user == "Server" {
		return
	}
	b.say(user + ": " + text)
}
