// Package config defines the top-level CLI structure parsed by kong.
// Values come from flags, environment variables and config files
// (json/yaml/toml), in that priority order.
package config

import "github.com/vkbtools/vkbridge/internal/cmd"

// LogConfig groups the logging flags shared by all commands.
type LogConfig struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" env:"VKBRIDGE_LOG_LEVEL"`
	File    string `help:"Write logs to this file instead of stdout/stderr" env:"VKBRIDGE_LOG_FILE"`
	RawFile string `help:"Hex-dump every sent/received frame to this file" env:"VKBRIDGE_LOG_RAW_FILE"`
}

// CLI is the root command structure.
type CLI struct {
	Log    LogConfig `embed:"" prefix:"log."`
	Config string    `help:"Path to a config file" env:"VKBRIDGE_CONFIG"`

	Send      cmd.Send          `cmd:"" help:"Capture physical joysticks and stream their state over UDP"`
	Recv      cmd.Recv          `cmd:"" help:"Receive joystick state over UDP and feed virtual devices"`
	Probe     cmd.Probe         `cmd:"" help:"List input devices and dump events from one of them"`
	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration file utilities"`
}
