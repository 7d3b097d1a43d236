// Package gateway implements the chat-platform gateway client. It keeps a
// websocket connection to the relay gateway, delivers ready/message events,
// and sends channel text. Connection, authentication, and reconnection live
// here; everything else about the chat platform is opaque to the daemon.
package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Ready carries the bot identity delivered once per connection.
type Ready struct {
	BotID string `json:"bot_id"`
}

// Message is a chat message observed in some channel.
type Message struct {
	AuthorID  string `json:"author_id"`
	Author    string `json:"author"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

type ReadyHandler func(Ready)
type MessageHandler func(Message)

// Client is the gateway connection. Handlers are invoked from the reader
// goroutine; they must only enqueue events, never touch orchestrator state.
type Client struct {
	url     string
	token   string
	backoff []int

	mu           sync.Mutex
	conn         *websocket.Conn
	reconnecting bool
	done         chan struct{}

	onReady   ReadyHandler
	onMessage MessageHandler
}

func NewClient(url, token string, backoffMs []int) *Client {
	return &Client{
		url:     url,
		token:   token,
		backoff: backoffMs,
		done:    make(chan struct{}),
	}
}

func (c *Client) SetReadyHandler(handler ReadyHandler) {
	c.onReady = handler
}

func (c *Client) SetMessageHandler(handler MessageHandler) {
	c.onMessage = handler
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.token)

	conn, _, err := websocket.DefaultDialer.Dial(c.url, headers)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn
	c.reconnecting = false

	go c.reader()

	return nil
}

func (c *Client) reader() {
	defer func() {
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()

		c.reconnect()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Gateway read error: %v", err)
			return
		}

		var envelope struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(message, &envelope); err != nil {
			log.Printf("Failed to parse gateway frame: %v", err)
			continue
		}

		switch envelope.Type {
		case "gateway.ready":
			var ready Ready
			if err := json.Unmarshal(envelope.Payload, &ready); err != nil {
				log.Printf("Failed to parse ready payload: %v", err)
				continue
			}
			if c.onReady != nil {
				c.onReady(ready)
			}
		case "gateway.message":
			var msg Message
			if err := json.Unmarshal(envelope.Payload, &msg); err != nil {
				log.Printf("Failed to parse message payload: %v", err)
				continue
			}
			if c.onMessage != nil {
				c.onMessage(msg)
			}
		default:
			// Unknown frame types are ignored so the gateway can evolve.
		}
	}
}

func (c *Client) reconnect() {
	c.mu.Lock()
	if c.reconnecting {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.mu.Unlock()

	for i, delay := range c.backoff {
		select {
		case <-c.done:
			return
		case <-time.After(time.Duration(delay) * time.Millisecond):
		}

		log.Printf("Gateway reconnection attempt %d/%d", i+1, len(c.backoff))

		if err := c.Connect(); err == nil {
			log.Printf("Gateway reconnected")
			return
		}
	}

	// Keep trying with the max backoff.
	maxDelay := c.backoff[len(c.backoff)-1]
	for {
		select {
		case <-c.done:
			return
		case <-time.After(time.Duration(maxDelay) * time.Millisecond):
		}

		if err := c.Connect(); err == nil {
			log.Printf("Gateway reconnected")
			return
		}
	}
}

// SendText posts text to a channel. Callers treat it as fire-and-forget
// and log failures; nothing is queued or retried.
func (c *Client) SendText(channelID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	payload, err := json.Marshal(map[string]string{
		"channel_id": channelID,
		"text":       text,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	msg := map[string]any{
		"v":       1,
		"type":    "channel.send",
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"nonce":   uuid.NewString(),
		"payload": json.RawMessage(payload),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) Close() {
	close(c.done)
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
}
