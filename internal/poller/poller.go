// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/calpoller/internal/codec"
)

// ErrCommunication is the poll error when every segment read failed.
var ErrCommunication = errors.New("poller: communication failed")

// Reader abstracts the register reads the poller needs.
// The poller depends on geometry only. Implementations serialise exchanges
// on the physical line themselves and must be safe for concurrent use.
type Reader interface {
	ReadRegisters(ctx context.Context, fc uint8, address, quantity uint16) ([]uint16, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	DeviceID string
	Segments []Segment
}

// Poller reads every segment of one device per cycle.
type Poller struct {
	cfg    Config
	reader Reader
	log    zerolog.Logger
	now    func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, reader Reader, log zerolog.Logger) (*Poller, error) {
	if cfg.DeviceID == "" {
		return nil, errors.New("poller: device id required")
	}
	if len(cfg.Segments) == 0 {
		return nil, errors.New("poller: at least one segment required")
	}
	if reader == nil {
		return nil, errors.New("poller: reader required")
	}

	seen := make(map[string]struct{}, len(cfg.Segments))
	for _, s := range cfg.Segments {
		if s.Name == "" {
			return nil, errors.New("poller: segment name required")
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("poller: duplicate segment %q", s.Name)
		}
		if s.Block.Quantity == 0 {
			return nil, fmt.Errorf("poller: segment %q has zero quantity", s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	return &Poller{
		cfg:    cfg,
		reader: reader,
		log:    log.With().Str("device", cfg.DeviceID).Logger(),
		now:    time.Now,
	}, nil
}

// Segments returns the configured segments in read order.
func (p *Poller) Segments() []Segment {
	return p.cfg.Segments
}

type outcome struct {
	decoded Decoded
	err     error
}

// PollOnce performs exactly one poll cycle.
// Every segment is read concurrently and every read is awaited before the
// result is built. A failed segment is recorded and never aborts its siblings.
func (p *Poller) PollOnce(ctx context.Context) Result {
	res := Result{
		DeviceID:   p.cfg.DeviceID,
		At:         p.now(),
		Segments:   make(map[string]Decoded, len(p.cfg.Segments)),
		Failures:   make(map[string]error),
		TotalCount: len(p.cfg.Segments),
	}

	outcomes := make([]outcome, len(p.cfg.Segments))

	var wg sync.WaitGroup
	for i, seg := range p.cfg.Segments {
		wg.Add(1)
		go func(i int, seg Segment) {
			defer wg.Done()
			outcomes[i] = p.readSegment(ctx, seg)
		}(i, seg)
	}
	wg.Wait()

	for i, seg := range p.cfg.Segments {
		o := outcomes[i]
		if o.err != nil {
			p.log.Warn().Err(o.err).Str("segment", seg.Name).Msg("segment read failed")
			res.Failures[seg.Name] = o.err
			continue
		}
		res.Segments[seg.Name] = o.decoded
		res.SuccessCount++
	}

	if res.SuccessCount == 0 {
		res.Err = ErrCommunication
	}
	return res
}

func (p *Poller) readSegment(ctx context.Context, seg Segment) outcome {
	b := seg.Block
	words, err := p.reader.ReadRegisters(ctx, b.FC, b.Address, b.Quantity)
	if err != nil {
		return outcome{err: fmt.Errorf("read %s (fc=%d addr=%d qty=%d): %w", seg.Name, b.FC, b.Address, b.Quantity, err)}
	}

	padded := false
	if len(words) != int(b.Quantity) {
		// Wrong-sized payloads are decoded from a zero-filled block rather
		// than dropped; the segment still counts as read.
		p.log.Warn().
			Str("segment", seg.Name).
			Int("got", len(words)).
			Uint16("want", b.Quantity).
			Msg("payload size mismatch, zero-filling")
		fixed := make([]uint16, b.Quantity)
		copy(fixed, words)
		words = fixed
		padded = true
	}

	return outcome{decoded: Decoded{
		Name:   seg.Name,
		Words:  words,
		Values: codec.Decode(words, seg.Layout),
		Padded: padded,
	}}
}
