package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/server-relay/relayd/internal/bridge"
	"github.com/server-relay/relayd/internal/config"
	"github.com/server-relay/relayd/internal/console"
	"github.com/server-relay/relayd/internal/gateway"
	"github.com/server-relay/relayd/internal/metrics"
	"github.com/server-relay/relayd/internal/playtime"
	"github.com/server-relay/relayd/internal/proc"
	"github.com/server-relay/relayd/internal/runner"
	"github.com/server-relay/relayd/internal/sessionlog"
	"github.com/server-relay/relayd/internal/updater"
)

const Version = "0.1.0"

const defaultConfigPath = "/etc/relayd/config.yaml"

func main() {
	// Check for subcommands first
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "status":
			runStatusCommand(os.Args[2:])
			return
		case "version":
			runVersionCommand()
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Default: run as daemon
	runDaemon()
}

func printHelp() {
	fmt.Println(`relayd - game server console relay daemon

Supervises a game server process, mirrors its console into a chat
channel, and relays operator commands back into the server.

Usage:
  relayd [command] [options]

Commands:
  (none)       Run as daemon (default)
  status       Show server process status
  version      Show version information
  help         Show this help

Daemon Options:
  -config string  Path to config file (default "/etc/relayd/config.yaml")

Subcommand Options:
  -json         Output in JSON format
  -config       Path to config file`)
}

func runVersionCommand() {
	fmt.Printf("relayd version %s\n", Version)
}

func runStatusCommand(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output in JSON format")
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *jsonOutput {
			outputJSON(map[string]any{"error": err.Error()})
		} else {
			log.Fatalf("Failed to load config: %v", err)
		}
		return
	}

	snap := proc.TakeSnapshot()
	matches := snap.MatchCmdline(filepath.Base(cfg.Server.Command))

	status := map[string]any{
		"version":        Version,
		"gateway":        cfg.Gateway.WSURL,
		"channel_id":     cfg.Gateway.ChannelID,
		"server_command": cfg.Server.Command,
		"server_running": len(matches) > 0,
		"state_dir":      cfg.Storage.StateDir,
	}
	if len(matches) > 0 {
		status["server_pid"] = matches[0].Pid
	}

	if *jsonOutput {
		outputJSON(status)
		return
	}

	fmt.Printf("Relay Status\n")
	fmt.Printf("============\n")
	fmt.Printf("Version:        %s\n", Version)
	fmt.Printf("Gateway:        %s\n", cfg.Gateway.WSURL)
	fmt.Printf("Channel:        %s\n", cfg.Gateway.ChannelID)
	fmt.Printf("Server Command: %s\n", cfg.Server.Command)
	fmt.Printf("Server Running: %v\n", len(matches) > 0)
	if len(matches) > 0 {
		fmt.Printf("Server PID:     %d\n", matches[0].Pid)
	}
	fmt.Printf("State Dir:      %s\n", cfg.Storage.StateDir)
}

func outputJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func runDaemon() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.Storage.StateDir, 0755); err != nil {
		log.Fatalf("Failed to create state directory: %v", err)
	}

	// A malformed store is fatal: silently zeroing playtime history would
	// be worse than refusing to start.
	store, err := playtime.LoadStore(filepath.Join(cfg.Storage.StateDir, "playtime.json"))
	if err != nil {
		log.Fatalf("Failed to load playtime store: %v", err)
	}

	journal, err := sessionlog.Open(filepath.Join(cfg.Storage.StateDir, "sessions.jsonl"))
	if err != nil {
		log.Fatalf("Failed to open session journal: %v", err)
	}

	tracker := playtime.NewTracker(store, journal)
	b := bridge.New(cfg, tracker)

	// Initialize the server process runner
	run := runner.New(cfg.Server, cfg.Framing.BufferBytes)
	run.SetStartedHandler(func(c *runner.Console) {
		b.Enqueue(bridge.Event{Type: bridge.EventProcessStarted, Console: c})
	})
	run.SetOutputHandler(func(line string) {
		b.Enqueue(bridge.Event{Type: bridge.EventProcessOutput, Line: line})
	})
	run.SetExitHandler(func(err error) {
		b.Enqueue(bridge.Event{Type: bridge.EventProcessStopped, Err: err})
	})
	b.SetServerStarter(run.Start)

	// Initialize the updater
	upd := updater.New(cfg.Update.Command, cfg.Update.MarkerPath)
	upd.SetCompleteHandler(func() {
		b.Enqueue(bridge.Event{Type: bridge.EventInstallComplete})
	})
	if err := upd.Watch(); err != nil {
		log.Printf("Install watcher disabled: %v", err)
	}
	if upd.Enabled() {
		b.SetUpdateRunner(upd.Run)
	}

	// Initialize the chat gateway
	gw := gateway.NewClient(cfg.Gateway.WSURL, cfg.Gateway.Token, cfg.Gateway.ReconnectBackoffMs)
	gw.SetReadyHandler(func(ready gateway.Ready) {
		b.Enqueue(bridge.Event{Type: bridge.EventGatewayReady, Ready: ready})
	})
	gw.SetMessageHandler(func(msg gateway.Message) {
		b.Enqueue(bridge.Event{Type: bridge.EventChatMessage, Message: msg})
	})
	b.SetSender(gw)

	go b.Run()

	if err := gw.Connect(); err != nil {
		log.Fatalf("Failed to connect to gateway: %v", err)
	}

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Listen); err != nil {
				log.Printf("Metrics listener error: %v", err)
			}
		}()
	}

	// Forward lines typed on our own stdin into the server console.
	go console.Forward(os.Stdin, func(line string) {
		b.Enqueue(bridge.Event{Type: bridge.EventStdinLine, Line: line})
	})

	if cfg.Server.Autostart {
		if err := run.Start(); err != nil {
			log.Printf("Failed to start server process: %v", err)
			b.Enqueue(bridge.Event{Type: bridge.EventProcessStopped, Err: err})
		}
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	b.Stop()
	gw.Close()
	upd.Close()
	journal.Close()
}
