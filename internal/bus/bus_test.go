// internal/bus/bus_test.go
package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// ---- fake goburrow client ----

type fakeClient struct {
	mu       sync.Mutex
	inFlight int32
	maxSeen  int32

	data   []byte
	err    error
	writes []fakeWrite
	delay  time.Duration
}

type fakeWrite struct {
	fc   uint8
	addr uint16
	data []byte
}

func (f *fakeClient) enter() func() {
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		m := atomic.LoadInt32(&f.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxSeen, m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return func() { atomic.AddInt32(&f.inFlight, -1) }
}

func (f *fakeClient) ReadCoils(address, quantity uint16) ([]byte, error) { return nil, nil }
func (f *fakeClient) ReadDiscreteInputs(address, quantity uint16) ([]byte, error) {
	return nil, nil
}
func (f *fakeClient) WriteSingleCoil(address, value uint16) ([]byte, error) { return nil, nil }
func (f *fakeClient) WriteMultipleCoils(address, quantity uint16, value []byte) ([]byte, error) {
	return nil, nil
}
func (f *fakeClient) ReadInputRegisters(address, quantity uint16) ([]byte, error) {
	defer f.enter()()
	return f.data, f.err
}
func (f *fakeClient) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	defer f.enter()()
	return f.data, f.err
}
func (f *fakeClient) WriteSingleRegister(address, value uint16) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, fakeWrite{fc: 6, addr: address, data: []byte{byte(value >> 8), byte(value)}})
	return nil, f.err
}
func (f *fakeClient) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, fakeWrite{fc: 16, addr: address, data: value})
	return nil, f.err
}
func (f *fakeClient) ReadWriteMultipleRegisters(readAddress, readQuantity, writeAddress, writeQuantity uint16, value []byte) ([]byte, error) {
	return nil, nil
}
func (f *fakeClient) MaskWriteRegister(address, andMask, orMask uint16) ([]byte, error) {
	return nil, nil
}
func (f *fakeClient) ReadFIFOQueue(address uint16) ([]byte, error) { return nil, nil }

// ---- tests ----

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		scheme  Scheme
		addr    string
		wantErr bool
	}{
		{"tcp://10.0.0.5:502", SchemeTCP, "10.0.0.5:502", false},
		{"tcp://gateway", SchemeTCP, "gateway:502", false},
		{"rtu:///dev/ttyUSB0", SchemeRTU, "/dev/ttyUSB0", false},
		{"RTU://COM3", SchemeRTU, "COM3", false},
		{"/dev/ttyUSB0", "", "", true},
		{"udp://x:1", "", "", true},
		{"tcp://", "", "", true},
	}

	for _, tt := range tests {
		scheme, addr, err := ParseEndpoint(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%q: err=%v wantErr=%v", tt.in, err, tt.wantErr)
		}
		if scheme != tt.scheme || addr != tt.addr {
			t.Fatalf("%q: got %s %s", tt.in, scheme, addr)
		}
	}
}

func TestReadRegistersUnpacksBigEndian(t *testing.T) {
	fc := &fakeClient{data: []byte{0x3F, 0x80, 0x00, 0xC8}}
	h := newLine("l1", fc, zerolog.Nop()).Device(1)

	regs, err := h.ReadRegisters(context.Background(), FCReadHolding, 0, 2)
	if err != nil {
		t.Fatalf("read err=%v", err)
	}
	if len(regs) != 2 || regs[0] != 0x3F80 || regs[1] != 0x00C8 {
		t.Fatalf("got %#v", regs)
	}
}

func TestReadRegistersRejectsBadArgs(t *testing.T) {
	h := newLine("l1", &fakeClient{}, zerolog.Nop()).Device(1)

	if _, err := h.ReadRegisters(context.Background(), FCReadHolding, 0, 0); err == nil {
		t.Fatalf("expected error for zero quantity")
	}
	if _, err := h.ReadRegisters(context.Background(), 1, 0, 4); err == nil {
		t.Fatalf("expected error for unsupported fc")
	}
}

func TestTransportErrorClosesConnection(t *testing.T) {
	fc := &fakeClient{err: errors.New("timeout")}
	l := newLine("l1", fc, zerolog.Nop())
	closed := 0
	l.closer = func() error { closed++; return nil }

	if _, err := l.Device(1).ReadRegisters(context.Background(), FCReadInput, 0, 2); err == nil {
		t.Fatalf("expected error")
	}
	if closed != 1 {
		t.Fatalf("closer called %d times, want 1", closed)
	}
}

func TestWriteRegistersPicksFunctionCode(t *testing.T) {
	fc := &fakeClient{}
	h := newLine("l1", fc, zerolog.Nop()).Device(1)

	if err := h.WriteRegisters(context.Background(), 10, []uint16{7}); err != nil {
		t.Fatalf("single write err=%v", err)
	}
	if err := h.WriteRegisters(context.Background(), 20, []uint16{0x1234, 0x5678}); err != nil {
		t.Fatalf("multi write err=%v", err)
	}
	if err := h.WriteRegisters(context.Background(), 30, nil); err == nil {
		t.Fatalf("expected error for empty write")
	}

	if len(fc.writes) != 2 {
		t.Fatalf("writes=%d want 2", len(fc.writes))
	}
	if fc.writes[0].fc != 6 || fc.writes[0].addr != 10 {
		t.Fatalf("first write %+v", fc.writes[0])
	}
	w := fc.writes[1]
	if w.fc != 16 || w.addr != 20 || len(w.data) != 4 || w.data[0] != 0x12 || w.data[3] != 0x78 {
		t.Fatalf("second write %+v", w)
	}
}

func TestExchangesAreSerialized(t *testing.T) {
	fc := &fakeClient{data: []byte{0, 1}, delay: 5 * time.Millisecond}
	l := newLine("l1", fc, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(slave byte) {
			defer wg.Done()
			_, _ = l.Device(slave).ReadRegisters(context.Background(), FCReadHolding, 0, 1)
		}(byte(i + 1))
	}
	wg.Wait()

	if m := atomic.LoadInt32(&fc.maxSeen); m != 1 {
		t.Fatalf("max concurrent exchanges=%d want 1", m)
	}
}

func TestWaitingForLineHonoursContext(t *testing.T) {
	l := newLine("l1", &fakeClient{}, zerolog.Nop())
	l.sem <- struct{}{} // line busy

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := l.Device(1).ReadRegisters(ctx, FCReadHolding, 0, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want deadline exceeded", err)
	}
}

func TestPoolRejectsDuplicates(t *testing.T) {
	p := NewPool(zerolog.Nop())
	if _, err := p.Add("a", Config{Endpoint: "tcp://127.0.0.1:1502"}); err != nil {
		t.Fatalf("add err=%v", err)
	}
	if _, err := p.Add("a", Config{Endpoint: "tcp://127.0.0.1:1502"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, ok := p.Get("a"); !ok {
		t.Fatalf("line not registered")
	}
}
