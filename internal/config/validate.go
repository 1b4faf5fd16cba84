// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/calpoller/internal/bus"
	"github.com/tamzrod/calpoller/internal/catalog"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	c := cfg.CalPoller

	if len(c.Devices) == 0 {
		return errors.New("config: no devices defined")
	}

	// ------------------------------------------------------------
	// LINES
	// ------------------------------------------------------------

	lines := make(map[string]struct{}, len(c.Lines))
	for _, l := range c.Lines {
		if l.ID == "" {
			return errors.New("line: id required")
		}
		if _, dup := lines[l.ID]; dup {
			return fmt.Errorf("line %q: duplicate id", l.ID)
		}
		lines[l.ID] = struct{}{}

		if _, _, err := bus.ParseEndpoint(l.Endpoint); err != nil {
			return fmt.Errorf("line %q: %w", l.ID, err)
		}
		if l.TimeoutMs < 0 {
			return fmt.Errorf("line %q: timeout_ms must be >= 0", l.ID)
		}
		switch strings.ToUpper(l.Parity) {
		case "", "N", "E", "O":
		default:
			return fmt.Errorf("line %q: parity must be N, E or O", l.ID)
		}
		if l.StopBits != 0 && l.StopBits != 1 && l.StopBits != 2 {
			return fmt.Errorf("line %q: stop_bits must be 1 or 2", l.ID)
		}
	}

	// ------------------------------------------------------------
	// DEVICES
	// ------------------------------------------------------------

	devices := make(map[string]DeviceConfig, len(c.Devices))
	for _, d := range c.Devices {
		if d.ID == "" {
			return errors.New("device: id required")
		}
		if _, dup := devices[d.ID]; dup {
			return fmt.Errorf("device %q: duplicate id", d.ID)
		}
		devices[d.ID] = d

		if _, ok := catalog.Lookup(d.Type); !ok {
			return fmt.Errorf("device %q: unknown type %q (known: %s)", d.ID, d.Type, strings.Join(catalog.Names(), ", "))
		}
		if _, ok := lines[d.Line]; !ok {
			return fmt.Errorf("device %q: line %q is not defined", d.ID, d.Line)
		}
		// 0 is broadcast and 248..255 are reserved.
		if d.SlaveID < 1 || d.SlaveID > 247 {
			return fmt.Errorf("device %q: slave_id %d out of range 1..247", d.ID, d.SlaveID)
		}
		if d.Poll.IntervalMs < 0 {
			return fmt.Errorf("device %q: poll.interval_ms must be >= 0", d.ID)
		}
		if d.ProtectionWindowMs < 0 {
			return fmt.Errorf("device %q: protection_window_ms must be >= 0", d.ID)
		}
	}

	// ------------------------------------------------------------
	// GUARD PEERS (needs every device known)
	// ------------------------------------------------------------

	for _, d := range c.Devices {
		if len(d.GuardPeers) == 0 {
			continue
		}

		own, _ := catalog.Lookup(d.Type)
		if own.Calibration == nil {
			return fmt.Errorf("device %q: guard_peers set but type %q has no calibration commands", d.ID, d.Type)
		}

		for _, p := range d.GuardPeers {
			if p == d.ID {
				return fmt.Errorf("device %q: guard_peers must not name itself", d.ID)
			}
			peer, ok := devices[p]
			if !ok {
				return fmt.Errorf("device %q: guard peer %q is not defined", d.ID, p)
			}
			pt, _ := catalog.Lookup(peer.Type)
			if !pt.Guarded(catalog.GuardSpan) {
				return fmt.Errorf("device %q: guard peer %q (type %q) has no span target", d.ID, p, peer.Type)
			}
		}
	}

	return nil
}
