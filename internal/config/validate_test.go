// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

// helper to build a valid two-device config quickly
func baseConfig() *Config {
	return &Config{
		CalPoller: CalPollerConfig{
			Lines: []LineConfig{
				{ID: "bus1", Endpoint: "rtu:///dev/ttyUSB0"},
				{ID: "lan", Endpoint: "tcp://10.0.0.5:502"},
			},
			Devices: []DeviceConfig{
				{ID: "gas-1", Type: "gas-analyzer", Line: "bus1", SlaveID: 1},
				{ID: "cal-1", Type: "gas-calibrator", Line: "bus1", SlaveID: 2, GuardPeers: []string{"gas-1"}},
				{ID: "ups-1", Type: "power-stabilizer", Line: "lan", SlaveID: 1},
			},
		},
	}
}

// ---- tests ----

func TestValidate_OK(t *testing.T) {
	if err := Validate(baseConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *CalPollerConfig)
		want   string
	}{
		{"no devices", func(c *CalPollerConfig) { c.Devices = nil }, "no devices"},
		{"duplicate line", func(c *CalPollerConfig) { c.Lines[1].ID = "bus1" }, "duplicate id"},
		{"bad endpoint scheme", func(c *CalPollerConfig) { c.Lines[0].Endpoint = "udp://x" }, "unsupported endpoint scheme"},
		{"endpoint without scheme", func(c *CalPollerConfig) { c.Lines[0].Endpoint = "/dev/ttyUSB0" }, "no scheme"},
		{"bad parity", func(c *CalPollerConfig) { c.Lines[0].Parity = "X" }, "parity"},
		{"bad stop bits", func(c *CalPollerConfig) { c.Lines[0].StopBits = 3 }, "stop_bits"},
		{"duplicate device", func(c *CalPollerConfig) { c.Devices[1].ID = "gas-1" }, "duplicate id"},
		{"unknown type", func(c *CalPollerConfig) { c.Devices[0].Type = "thermometer" }, "unknown type"},
		{"unknown line", func(c *CalPollerConfig) { c.Devices[0].Line = "bus9" }, "not defined"},
		{"slave zero", func(c *CalPollerConfig) { c.Devices[0].SlaveID = 0 }, "slave_id"},
		{"slave too large", func(c *CalPollerConfig) { c.Devices[0].SlaveID = 248 }, "slave_id"},
		{"negative interval", func(c *CalPollerConfig) { c.Devices[0].Poll.IntervalMs = -1 }, "interval_ms"},
		{"peer is self", func(c *CalPollerConfig) { c.Devices[1].GuardPeers = []string{"cal-1"} }, "itself"},
		{"peer unknown", func(c *CalPollerConfig) { c.Devices[1].GuardPeers = []string{"gas-9"} }, "not defined"},
		{"peer without span target", func(c *CalPollerConfig) { c.Devices[1].GuardPeers = []string{"ups-1"} }, "no span target"},
		{"peers on non-calibrating type", func(c *CalPollerConfig) { c.Devices[2].GuardPeers = []string{"gas-1"} }, "no calibration commands"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg.CalPoller)

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := baseConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CalPoller.Devices[0].Poll.IntervalMs != 0 || cfg.CalPoller.Listen != "" {
		t.Fatalf("validate mutated config: %+v", cfg.CalPoller)
	}
}
