// internal/bus/line.go
package bus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"
)

// Config is the physical line configuration.
type Config struct {
	Endpoint string
	Timeout  time.Duration

	// RTU only.
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
}

// Line is one physical request/response line (a TCP connection or a serial port).
// Every exchange holds the line exclusively, so devices sharing a line never
// have two requests in flight. The goburrow client is not safe for concurrent use.
type Line struct {
	id  string
	sem chan struct{}

	client   modbus.Client
	setSlave func(byte)
	closer   func() error

	log zerolog.Logger
}

// Open creates a line. The connection itself is established lazily by the
// first exchange and re-established after a transport error.
func Open(id string, cfg Config, log zerolog.Logger) (*Line, error) {
	if id == "" {
		return nil, errors.New("bus: line id required")
	}
	scheme, addr, err := ParseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}

	l := &Line{
		id:  id,
		sem: make(chan struct{}, 1),
		log: log.With().Str("line", id).Logger(),
	}

	switch scheme {
	case SchemeTCP:
		h := modbus.NewTCPClientHandler(addr)
		h.Timeout = cfg.Timeout
		l.client = modbus.NewClient(h)
		l.setSlave = func(id byte) { h.SlaveId = id }
		l.closer = h.Close

	case SchemeRTU:
		h := modbus.NewRTUClientHandler(addr)
		h.Timeout = cfg.Timeout
		h.BaudRate = orDefault(cfg.BaudRate, 9600)
		h.DataBits = orDefault(cfg.DataBits, 8)
		h.StopBits = orDefault(cfg.StopBits, 1)
		h.Parity = cfg.Parity
		if h.Parity == "" {
			h.Parity = "N"
		}
		l.client = modbus.NewClient(h)
		l.setSlave = func(id byte) { h.SlaveId = id }
		l.closer = h.Close
	}

	return l, nil
}

// newLine wires a line around an existing client (tests).
func newLine(id string, client modbus.Client, log zerolog.Logger) *Line {
	return &Line{
		id:       id,
		sem:      make(chan struct{}, 1),
		client:   client,
		setSlave: func(byte) {},
		closer:   func() error { return nil },
		log:      log,
	}
}

// ID returns the configured line id.
func (l *Line) ID() string { return l.id }

// Close closes the underlying connection. The next exchange reconnects.
func (l *Line) Close() error {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()
	return l.closer()
}

// Device returns a handle addressing one slave on this line.
func (l *Line) Device(slaveID byte) *Handle {
	return &Handle{line: l, slave: slaveID}
}

// exchange runs fn with exclusive use of the line.
// Waiting for the line honours ctx; a started exchange runs to its own timeout.
func (l *Line) exchange(ctx context.Context, slave byte, op string, fn func(modbus.Client) ([]byte, error)) ([]byte, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.sem }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.setSlave(slave)
	start := time.Now()
	res, err := fn(l.client)
	if err != nil {
		// Drop the connection so the next exchange starts clean.
		if cerr := l.closer(); cerr != nil {
			l.log.Debug().Err(cerr).Msg("close after transport error")
		}
		return nil, fmt.Errorf("bus: %s slave=%d: %w", op, slave, err)
	}

	l.log.Debug().
		Uint8("slave", slave).
		Str("op", op).
		Dur("rtt", time.Since(start)).
		Int("bytes", len(res)).
		Msg("exchange")
	return res, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return out
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		binary.BigEndian.PutUint16(out[2*i:], r)
	}
	return out
}
