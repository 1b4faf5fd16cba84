// internal/device/runner.go
package device

import (
	"context"
	"errors"
	"time"
)

// Run ticks until ctx is cancelled. The first tick starts at once; every
// following tick starts Interval after the previous one finished, so ticks
// of one device never overlap. A tick already in flight when ctx is
// cancelled is allowed to finish.
func (d *Device) Run(ctx context.Context) {
	d.log.Info().Dur("interval", d.cfg.Interval).Msg("polling started")
	defer d.log.Info().Msg("polling stopped")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := d.Tick(ctx); err != nil && !errors.Is(err, ErrTickInFlight) && ctx.Err() == nil {
			d.log.Debug().Err(err).Msg("tick failed")
		}

		timer.Reset(d.cfg.Interval)
	}
}
