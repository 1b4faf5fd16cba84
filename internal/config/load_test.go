// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `
calpoller:
  journal: events.db
  lines:
    - id: bus1
      endpoint: "rtu:///dev/ttyUSB0"
      baud: 19200
      parity: E
  devices:
    - id: gas-1
      type: gas-analyzer
      line: bus1
      slave_id: 3
      poll: { interval_ms: 1000 }
    - id: cal-1
      type: gas-calibrator
      line: bus1
      slave_id: 4
      protection_window_ms: 3000
      guard_peers: [gas-1]
`

func TestLoadNormalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calpoller.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate err=%v", err)
	}
	Normalize(cfg)

	c := cfg.CalPoller
	if c.Listen != DefaultListen || c.Journal != "events.db" {
		t.Fatalf("listen=%q journal=%q", c.Listen, c.Journal)
	}

	l := c.Lines[0]
	if l.Baud != 19200 || l.Parity != "E" || l.DataBits != 8 || l.StopBits != 1 || l.TimeoutMs != DefaultTimeoutMs {
		t.Fatalf("line defaults: %+v", l)
	}

	gas, cal := c.Devices[0], c.Devices[1]
	if gas.SlaveID != 3 || gas.Poll.IntervalMs != 1000 || gas.ProtectionWindowMs != DefaultProtectionWindowMs {
		t.Fatalf("gas-1: %+v", gas)
	}
	if cal.Poll.IntervalMs != DefaultIntervalMs || cal.ProtectionWindowMs != 3000 {
		t.Fatalf("cal-1: %+v", cal)
	}
	if len(cal.GuardPeers) != 1 || cal.GuardPeers[0] != "gas-1" {
		t.Fatalf("guard peers: %v", cal.GuardPeers)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("calpoller:\n  devises: []\n")); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
