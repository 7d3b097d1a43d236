package bridge

import (
	"github.com/server-relay/relayd/internal/gateway"
	"github.com/server-relay/relayd/internal/runner"
)

// EventType tags the events flowing into the orchestrator loop.
type EventType string

const (
	EventGatewayReady    EventType = "gateway.ready"
	EventChatMessage     EventType = "chat.message"
	EventProcessStarted  EventType = "process.started"
	EventProcessOutput   EventType = "process.output"
	EventProcessStopped  EventType = "process.stopped"
	EventStdinLine       EventType = "stdin.line"
	EventInstallComplete EventType = "install.complete"
	EventCaptureElapsed  EventType = "capture.elapsed"
)

// Event is the single message type carried on the orchestrator channel.
// Only the fields relevant to Type are populated; events are immutable
// once enqueued.
type Event struct {
	Type EventType

	// EventGatewayReady
	Ready gateway.Ready

	// EventChatMessage
	Message gateway.Message

	// EventProcessStarted
	Console *runner.Console

	// EventProcessOutput, EventStdinLine
	Line string

	// EventProcessStopped
	Err error

	// EventCaptureElapsed
	CaptureID string
}
