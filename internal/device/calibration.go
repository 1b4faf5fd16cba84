// internal/device/calibration.go
package device

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/calpoller/internal/catalog"
	"github.com/tamzrod/calpoller/internal/codec"
	"github.com/tamzrod/calpoller/internal/journal"
)

// ErrCalibrationUnsupported is returned for device types without calibration commands.
var ErrCalibrationUnsupported = errors.New("device: calibration not supported")

// StartZeroCalibration selects zero calibration, writes target and triggers it.
func (d *Device) StartZeroCalibration(ctx context.Context, target float64) error {
	return d.startCalibration(ctx, catalog.GuardZero, target)
}

// StartSpanCalibration selects span calibration, writes target and triggers it.
func (d *Device) StartSpanCalibration(ctx context.Context, target float64) error {
	return d.startCalibration(ctx, catalog.GuardSpan, target)
}

// DefaultTarget returns the catalog default target for key.
func (d *Device) DefaultTarget(key catalog.GuardKey) (float64, error) {
	cal := d.cfg.Type.Calibration
	if cal == nil {
		return 0, ErrCalibrationUnsupported
	}
	if key == catalog.GuardZero {
		return cal.DefaultZeroTarget, nil
	}
	return cal.DefaultSpanTarget, nil
}

// StopCalibration returns the device to measuring: mode register, then trigger.
func (d *Device) StopCalibration(ctx context.Context) error {
	cal := d.cfg.Type.Calibration
	if cal == nil {
		return ErrCalibrationUnsupported
	}

	err := d.writeSteps(ctx,
		step{"mode", cal.ModeRegister, []uint16{cal.MeasureValue}},
		step{"trigger", cal.TriggerRegister, []uint16{cal.TriggerValue}},
	)
	if err != nil {
		d.log.Error().Err(err).Msg("stop calibration failed")
		d.record(journal.KindCalibrationFailed, "stop", err.Error())
		return err
	}

	d.log.Info().Msg("calibration stopped")
	d.record(journal.KindCalibrationStop, "", "")
	return nil
}

type step struct {
	name    string
	address uint16
	regs    []uint16
}

func (d *Device) writeSteps(ctx context.Context, steps ...step) error {
	for _, s := range steps {
		if err := d.writer.WriteRegisters(ctx, s.address, s.regs); err != nil {
			return fmt.Errorf("device %s: write %s (addr=%d): %w", d.cfg.ID, s.name, s.address, err)
		}
	}
	return nil
}

func (d *Device) startCalibration(ctx context.Context, key catalog.GuardKey, target float64) error {
	cal := d.cfg.Type.Calibration
	if cal == nil {
		return ErrCalibrationUnsupported
	}

	modeValue, targetReg := cal.ZeroValue, cal.ZeroTargetRegister
	if key == catalog.GuardSpan {
		modeValue, targetReg = cal.SpanValue, cal.SpanTargetRegister
	}

	regs, err := codec.Encode(target, cal.TargetEncoding, cal.TargetScale)
	if err != nil {
		return fmt.Errorf("device %s: %s target: %w", d.cfg.ID, key, err)
	}

	log := d.log.With().Str("calibration", string(key)).Float64("target", target).Logger()
	d.record(journal.KindCalibrationStart, string(key), fmt.Sprintf("target=%g", target))

	if err := d.writeSteps(ctx, step{"mode", cal.ModeRegister, []uint16{modeValue}}); err != nil {
		log.Error().Err(err).Msg("calibration start failed")
		d.record(journal.KindCalibrationFailed, string(key), err.Error())
		return err
	}

	// Observers are marked as the target write is issued so a tick racing
	// this write publishes target rather than the old echo.
	observers := d.writeObservers(key)
	for _, o := range observers {
		o.MarkWrite(target)
	}

	err = d.writeSteps(ctx,
		step{"target", targetReg, regs},
		step{"trigger", cal.TriggerRegister, []uint16{cal.TriggerValue}},
	)
	for _, o := range observers {
		o.Settle(err)
	}
	if err != nil {
		log.Error().Err(err).Msg("calibration start failed")
		d.record(journal.KindCalibrationFailed, string(key), err.Error())
		return err
	}

	log.Info().Msg("calibration started")
	return nil
}

func (d *Device) writeObservers(key catalog.GuardKey) []WriteObserver {
	var out []WriteObserver
	if g := d.guards[key]; g != nil {
		out = append(out, g)
	}
	return append(out, d.peers[key]...)
}

// ParseGuardKey maps "zero" and "span" to their guard keys.
func ParseGuardKey(s string) (catalog.GuardKey, error) {
	switch catalog.GuardKey(strings.ToLower(s)) {
	case catalog.GuardZero:
		return catalog.GuardZero, nil
	case catalog.GuardSpan:
		return catalog.GuardSpan, nil
	default:
		return catalog.GuardNone, fmt.Errorf("device: unknown calibration %q (want zero or span)", s)
	}
}
