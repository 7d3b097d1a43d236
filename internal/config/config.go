package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Gateway Gateway `yaml:"gateway"`
	Server  Server  `yaml:"server"`
	Framing Framing `yaml:"framing"`
	Buffers Buffers `yaml:"buffers"`
	Capture Capture `yaml:"capture"`
	Storage Storage `yaml:"storage"`
	Update  Update  `yaml:"update"`
	Metrics Metrics `yaml:"metrics"`
}

type Gateway struct {
	WSURL              string `yaml:"ws_url"`
	Token              string `yaml:"token"`
	ChannelID          string `yaml:"channel_id"`
	ReconnectBackoffMs []int  `yaml:"reconnect_backoff_ms"`
}

type Server struct {
	Command   string   `yaml:"command"`
	Args      []string `yaml:"args"`
	UsePTY    bool     `yaml:"use_pty"`
	Autostart bool     `yaml:"autostart"`
}

type Framing struct {
	BufferBytes int `yaml:"buffer_bytes"`
}

type Buffers struct {
	RecentOutputBytes int `yaml:"recent_output_bytes"`
	CaptureBytes      int `yaml:"capture_bytes"`
}

type Capture struct {
	DelayMs int `yaml:"delay_ms"`
}

type Storage struct {
	StateDir string `yaml:"state_dir"`
}

type Update struct {
	Command    string `yaml:"command"`
	MarkerPath string `yaml:"marker_path"`
}

type Metrics struct {
	Listen string `yaml:"listen"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if len(cfg.Gateway.ReconnectBackoffMs) == 0 {
		cfg.Gateway.ReconnectBackoffMs = []int{250, 500, 1000, 2000, 5000}
	}
	if cfg.Framing.BufferBytes == 0 {
		cfg.Framing.BufferBytes = 1000
	}
	if cfg.Buffers.RecentOutputBytes == 0 {
		cfg.Buffers.RecentOutputBytes = 1800
	}
	if cfg.Buffers.CaptureBytes == 0 {
		cfg.Buffers.CaptureBytes = 1800
	}
	if cfg.Capture.DelayMs == 0 {
		cfg.Capture.DelayMs = 1000
	}
	if cfg.Storage.StateDir == "" {
		cfg.Storage.StateDir = "/var/lib/relayd"
	}

	// Optional environment override for the gateway token.
	if envToken := os.Getenv("RELAYD_GATEWAY_TOKEN"); envToken != "" {
		cfg.Gateway.Token = envToken
	}

	if cfg.Gateway.WSURL == "" {
		return nil, fmt.Errorf("gateway.ws_url is required")
	}
	if cfg.Gateway.ChannelID == "" {
		return nil, fmt.Errorf("gateway.channel_id is required")
	}
	if cfg.Server.Command == "" {
		return nil, fmt.Errorf("server.command is required")
	}

	return &cfg, nil
}
