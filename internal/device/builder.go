// internal/device/builder.go
package device

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/calpoller/internal/attr"
	"github.com/tamzrod/calpoller/internal/bus"
	"github.com/tamzrod/calpoller/internal/catalog"
	"github.com/tamzrod/calpoller/internal/config"
	"github.com/tamzrod/calpoller/internal/metrics"
)

// Build opens every configured line in pool and creates every device on it.
// Assumes config has passed Validate and Normalize. pub and rec may be nil.
func Build(cfg *config.Config, pool *bus.Pool, pub *metrics.Publisher, rec Recorder, log zerolog.Logger) ([]*Device, error) {
	if cfg == nil || pool == nil {
		return nil, errors.New("device: config and pool required")
	}
	c := cfg.CalPoller

	for _, l := range c.Lines {
		if _, err := pool.Add(l.ID, bus.Config{
			Endpoint: l.Endpoint,
			Timeout:  time.Duration(l.TimeoutMs) * time.Millisecond,
			BaudRate: l.Baud,
			DataBits: l.DataBits,
			Parity:   strings.ToUpper(l.Parity),
			StopBits: l.StopBits,
		}); err != nil {
			return nil, err
		}
	}

	devices := make([]*Device, 0, len(c.Devices))
	byID := make(map[string]*Device, len(c.Devices))

	for _, dc := range c.Devices {
		typ, ok := catalog.Lookup(dc.Type)
		if !ok {
			return nil, fmt.Errorf("device %s: unknown type %q", dc.ID, dc.Type)
		}
		line, ok := pool.Get(dc.Line)
		if !ok {
			return nil, fmt.Errorf("device %s: line %q not open", dc.ID, dc.Line)
		}

		deps := Deps{Recorder: rec, Log: log.With().Str("line", dc.Line).Logger()}
		if pub != nil {
			sink := pub.Device(dc.ID)
			deps.Sinks = []attr.Sink{sink}
			deps.Observer = sink
		}

		d, err := New(Config{
			ID:               dc.ID,
			Type:             typ,
			Interval:         time.Duration(dc.Poll.IntervalMs) * time.Millisecond,
			ProtectionWindow: time.Duration(dc.ProtectionWindowMs) * time.Millisecond,
		}, line.Device(byte(dc.SlaveID)), deps)
		if err != nil {
			return nil, err
		}

		devices = append(devices, d)
		byID[dc.ID] = d
	}

	// Peers last: every device must exist before its guard can be shared.
	for _, dc := range c.Devices {
		for _, p := range dc.GuardPeers {
			peer, ok := byID[p]
			if !ok {
				return nil, fmt.Errorf("device %s: guard peer %q not built", dc.ID, p)
			}
			g := peer.Guard(catalog.GuardSpan)
			if g == nil {
				return nil, fmt.Errorf("device %s: guard peer %q has no span target", dc.ID, p)
			}
			byID[dc.ID].AddWriteObserver(catalog.GuardSpan, g)
		}
	}

	return devices, nil
}
