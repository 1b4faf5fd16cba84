// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/calpoller/internal/codec"
)

type fakeReader struct {
	mu      sync.Mutex
	failAt  map[uint16]bool     // by address
	payload map[uint16][]uint16 // by address; default zeros of qty
	calls   int
}

func (f *fakeReader) ReadRegisters(ctx context.Context, fc uint8, addr, qty uint16) ([]uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt[addr] {
		return nil, errors.New("timeout")
	}
	if p, ok := f.payload[addr]; ok {
		return p, nil
	}
	return make([]uint16, qty), nil
}

func testSegments() []Segment {
	return []Segment{
		{Name: "floats", Block: Block{FC: 3, Address: 0, Quantity: 4}, Layout: codec.Layout{Encoding: codec.FloatSwapped}},
		{Name: "status", Block: Block{FC: 3, Address: 100, Quantity: 1}, Layout: codec.Layout{Encoding: codec.Uint16}},
		{Name: "targets", Block: Block{FC: 4, Address: 200, Quantity: 4}, Layout: codec.Layout{Encoding: codec.FloatBigEndian}},
	}
}

func TestNew_Validation(t *testing.T) {
	r := &fakeReader{}
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no device id", Config{Segments: testSegments()}},
		{"no segments", Config{DeviceID: "d1"}},
		{"duplicate", Config{DeviceID: "d1", Segments: append(testSegments(), testSegments()[0])}},
		{"zero quantity", Config{DeviceID: "d1", Segments: []Segment{{Name: "x", Block: Block{FC: 3}}}}},
	}
	for _, tt := range tests {
		if _, err := New(tt.cfg, r, zerolog.Nop()); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
	if _, err := New(Config{DeviceID: "d1", Segments: testSegments()}, nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for nil reader")
	}
}

func TestPollOnce_Success(t *testing.T) {
	r := &fakeReader{payload: map[uint16][]uint16{
		0:   {0x0000, 0x3F80, 0x0000, 0x4000},
		100: {2},
	}}
	p, err := New(Config{DeviceID: "d1", Segments: testSegments()}, r, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce(context.Background())
	if res.Err != nil {
		t.Fatalf("PollOnce err=%v", res.Err)
	}
	if res.SuccessCount != 3 || res.TotalCount != 3 {
		t.Fatalf("counts %d/%d", res.SuccessCount, res.TotalCount)
	}
	f, _ := res.Segment("floats")
	if len(f.Values) != 2 || f.Values[0] != 1 || f.Values[1] != 2 {
		t.Fatalf("floats=%v", f.Values)
	}
	s, _ := res.Segment("status")
	if s.Values[0] != 2 {
		t.Fatalf("status=%v", s.Values)
	}
}

// Every strict subset of failing segments leaves a successful, partial result.
func TestPollOnce_PartialTolerance(t *testing.T) {
	segs := testSegments()
	n := len(segs)

	for mask := 0; mask < 1<<n; mask++ {
		fail := map[uint16]bool{}
		failed := 0
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				fail[segs[i].Block.Address] = true
				failed++
			}
		}

		p, _ := New(Config{DeviceID: "d1", Segments: segs}, &fakeReader{failAt: fail}, zerolog.Nop())
		res := p.PollOnce(context.Background())

		if res.SuccessCount != n-failed {
			t.Fatalf("mask %b: success=%d want %d", mask, res.SuccessCount, n-failed)
		}
		if failed == n {
			if !errors.Is(res.Err, ErrCommunication) {
				t.Fatalf("mask %b: err=%v want ErrCommunication", mask, res.Err)
			}
		} else if res.Err != nil {
			t.Fatalf("mask %b: unexpected err=%v", mask, res.Err)
		}

		for i, s := range segs {
			_, present := res.Segment(s.Name)
			_, failedRec := res.Failures[s.Name]
			wantFailed := mask&(1<<i) != 0
			if present == wantFailed || failedRec != wantFailed {
				t.Fatalf("mask %b: segment %s present=%v failure=%v", mask, s.Name, present, failedRec)
			}
		}
	}
}

func TestPollOnce_ZeroFillsShortPayload(t *testing.T) {
	r := &fakeReader{payload: map[uint16][]uint16{
		0:   {0x0000, 0x3F80}, // 2 of 4 words
		100: nil,              // empty
	}}
	p, _ := New(Config{DeviceID: "d1", Segments: testSegments()}, r, zerolog.Nop())

	res := p.PollOnce(context.Background())
	if res.SuccessCount != 3 {
		t.Fatalf("padded segments must count as read, success=%d", res.SuccessCount)
	}

	f, _ := res.Segment("floats")
	if !f.Padded || len(f.Words) != 4 {
		t.Fatalf("floats not padded: %+v", f)
	}
	if len(f.Values) != 2 || f.Values[0] != 1 || f.Values[1] != 0 {
		t.Fatalf("floats=%v", f.Values)
	}

	s, _ := res.Segment("status")
	if !s.Padded || s.Values[0] != 0 {
		t.Fatalf("status=%+v", s)
	}

	tg, _ := res.Segment("targets")
	if tg.Padded {
		t.Fatalf("exact payload flagged as padded")
	}
}

// barrierReader blocks every read until all expected reads have started.
type barrierReader struct {
	mu      sync.Mutex
	want    int
	started int
	release chan struct{}
}

func (b *barrierReader) ReadRegisters(ctx context.Context, fc uint8, addr, qty uint16) ([]uint16, error) {
	b.mu.Lock()
	b.started++
	if b.started == b.want {
		close(b.release)
	}
	b.mu.Unlock()

	select {
	case <-b.release:
		return make([]uint16, qty), nil
	case <-time.After(2 * time.Second):
		return nil, errors.New("reads were not launched concurrently")
	}
}

func TestPollOnce_LaunchesAllSegmentsConcurrently(t *testing.T) {
	segs := testSegments()
	r := &barrierReader{want: len(segs), release: make(chan struct{})}
	p, _ := New(Config{DeviceID: "d1", Segments: segs}, r, zerolog.Nop())

	res := p.PollOnce(context.Background())
	if res.SuccessCount != len(segs) {
		t.Fatalf("success=%d failures=%v", res.SuccessCount, res.Failures)
	}
}
