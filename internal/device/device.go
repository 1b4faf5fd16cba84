// internal/device/device.go
package device

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/calpoller/internal/attr"
	"github.com/tamzrod/calpoller/internal/catalog"
	"github.com/tamzrod/calpoller/internal/journal"
	"github.com/tamzrod/calpoller/internal/poller"
	"github.com/tamzrod/calpoller/internal/status"
)

// DefaultInterval is the delay between the end of one tick and the start of the next.
const DefaultInterval = 5 * time.Second

// ErrTickInFlight is returned by Tick while another tick of the same device runs.
var ErrTickInFlight = errors.New("device: tick already in flight")

// Writer issues register writes to one device.
type Writer interface {
	WriteRegisters(ctx context.Context, address uint16, regs []uint16) error
}

// Transport is everything a device needs from its line.
type Transport interface {
	poller.Reader
	Writer
}

// PollObserver is told about every tick outcome and every mode change.
type PollObserver interface {
	ObservePoll(res poller.Result)
	ObserveMode(m status.Mode)
}

// Recorder journals mode changes and calibration commands.
type Recorder interface {
	Record(ev journal.Event)
}

// Config is the runtime config of one device.
type Config struct {
	ID               string
	Type             catalog.Type
	Interval         time.Duration
	ProtectionWindow time.Duration
}

// Deps are the optional collaborators of a device.
type Deps struct {
	Sinks    []attr.Sink // receive every attribute update next to the table
	Observer PollObserver
	Recorder Recorder
	Log      zerolog.Logger
}

// Device owns the mode, write guards and attribute table of one instrument.
type Device struct {
	cfg    Config
	poller *poller.Poller
	writer Writer
	table  *attr.Table
	fanout *Fanout
	guards map[catalog.GuardKey]*WriteGuard

	// peers are notified about target writes next to the local guard.
	// Set while wiring, before Run.
	peers map[catalog.GuardKey][]WriteObserver

	mode    atomic.Int32
	health  atomic.Pointer[status.Snapshot]
	ticking atomic.Bool

	observer PollObserver
	recorder Recorder
	log      zerolog.Logger
}

// New creates a device. Mode starts Unknown, or Measuring for types
// without a mode segment.
func New(cfg Config, tr Transport, deps Deps) (*Device, error) {
	if cfg.ID == "" {
		return nil, errors.New("device: id required")
	}
	if tr == nil {
		return nil, errors.New("device: transport required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ProtectionWindow <= 0 {
		cfg.ProtectionWindow = DefaultProtectionWindow
	}

	log := deps.Log.With().Str("device", cfg.ID).Str("type", cfg.Type.Name).Logger()

	p, err := poller.New(poller.Config{
		DeviceID: cfg.ID,
		Segments: cfg.Type.PollerSegments(),
	}, tr, deps.Log)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", cfg.ID, err)
	}

	d := &Device{
		cfg:      cfg,
		poller:   p,
		writer:   tr,
		table:    attr.NewTable(cfg.Type.Attributes(), log),
		guards:   make(map[catalog.GuardKey]*WriteGuard),
		peers:    make(map[catalog.GuardKey][]WriteObserver),
		observer: deps.Observer,
		recorder: deps.Recorder,
		log:      log,
	}

	for _, key := range []catalog.GuardKey{catalog.GuardZero, catalog.GuardSpan} {
		if cfg.Type.Guarded(key) {
			d.guards[key] = NewWriteGuard(cfg.ProtectionWindow)
		}
	}

	sinks := append([]attr.Sink{d.table}, deps.Sinks...)
	d.fanout = NewFanout(cfg.Type.Segments, d.guards, attr.Multi(sinks...))

	initial := status.ModeUnknown
	if cfg.Type.ModeSegment == "" {
		initial = status.ModeMeasuring
	}
	d.mode.Store(int32(initial))
	d.health.Store(&status.Snapshot{Health: status.HealthUnknown})
	if d.observer != nil {
		d.observer.ObserveMode(initial)
	}

	return d, nil
}

func (d *Device) ID() string              { return d.cfg.ID }
func (d *Device) Type() catalog.Type      { return d.cfg.Type }
func (d *Device) Interval() time.Duration { return d.cfg.Interval }

// Mode returns the last known mode.
func (d *Device) Mode() status.Mode { return status.Mode(d.mode.Load()) }

// Health returns the snapshot of the most recent tick.
func (d *Device) Health() status.Snapshot { return *d.health.Load() }

// Attributes returns the published attribute values in catalog order.
func (d *Device) Attributes() []attr.Value { return d.table.Snapshot() }

// Guard returns the write guard protecting the given target, or nil.
func (d *Device) Guard(key catalog.GuardKey) *WriteGuard { return d.guards[key] }

// AddWriteObserver registers obs for writes of the given target.
// Must be called before the device is shared with other goroutines.
func (d *Device) AddWriteObserver(key catalog.GuardKey, obs WriteObserver) {
	if obs == nil {
		return
	}
	d.peers[key] = append(d.peers[key], obs)
}

// Tick runs one poll cycle: read every segment, update the mode, publish.
// It returns poller.ErrCommunication when no segment could be read and
// ErrTickInFlight when called while another tick runs.
func (d *Device) Tick(ctx context.Context) error {
	if !d.ticking.CompareAndSwap(false, true) {
		return ErrTickInFlight
	}
	defer d.ticking.Store(false)

	res := d.poller.PollOnce(ctx)

	// Reads cut short by shutdown say nothing about the device.
	if err := ctx.Err(); err != nil {
		d.log.Debug().Err(err).Msg("tick cancelled, nothing published")
		return err
	}

	d.updateMode(res)
	d.fanout.Apply(res, d.Mode())

	prev := d.health.Load()
	next := status.Next(*prev, res.SuccessCount, res.TotalCount, res.At)
	d.health.Store(&next)

	if d.observer != nil {
		d.observer.ObservePoll(res)
	}

	if res.Err != nil {
		d.log.Error().Int("segments", res.TotalCount).Msg("communication failed, all attributes malfunctioning")
		if prev.ConsecutiveFailures == 0 {
			d.record(journal.KindCommunicationLost, "", fmt.Sprintf("%d segments failed", res.TotalCount))
		}
		return res.Err
	}
	return nil
}

func (d *Device) record(kind, value, detail string) {
	if d.recorder == nil {
		return
	}
	d.recorder.Record(journal.Event{
		Timestamp: time.Now(),
		DeviceID:  d.cfg.ID,
		Kind:      kind,
		Value:     value,
		Detail:    detail,
	})
}
