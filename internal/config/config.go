// Package config loads the engine's configuration, enumerated in
// spec §6. Grounded on the pack's YAML convention (gopkg.in/yaml.v3,
// used across other_examples/manifests and shurlinet-shurli) rather
// than the teacher's bare `flag`, since flags alone cannot express a
// multi-peer topology.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PeerConfig is one entry of the initial peer list.
type PeerConfig struct {
	ID          string `yaml:"id"`
	PublicKey   string `yaml:"public_key"` // hex-encoded
	BaseAddr    string `yaml:"base_addr"`
	RequestAddr string `yaml:"request_addr"`
	ReplyAddr   string `yaml:"reply_addr"`
}

// Config mirrors every key of spec §6.
type Config struct {
	HeartbeatMS   int          `yaml:"heartbeat_ms"`
	ProcADelayMS  int          `yaml:"proc_a_delay_ms"`
	RequestAddr   string       `yaml:"request_addr"`
	ReplyAddr     string       `yaml:"reply_addr"`
	TransportType string       `yaml:"transport_type"` // supported: "tcp"
	StoreType     string       `yaml:"store_type"`     // supported: "leveldb", "memory"
	DataDir       string       `yaml:"data_dir"`
	Creator       string       `yaml:"creator"`
	PublicKey     string       `yaml:"public_key"`  // hex-encoded
	SecretKey     string       `yaml:"secret_key"`  // hex-encoded
	Peers         []PeerConfig `yaml:"peers"`

	// BatchSize resolves the §9 Open Question: 0 means "take all
	// currently queued" (the documented default).
	BatchSize int `yaml:"batch_size"`
	// TxQueueCapacity is 0 for unbounded.
	TxQueueCapacity int `yaml:"tx_queue_capacity"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HeartbeatMS == 0 {
		c.HeartbeatMS = 500
	}
	if c.TransportType == "" {
		c.TransportType = "tcp"
	}
	if c.StoreType == "" {
		c.StoreType = "leveldb"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
}
