// internal/bus/handle.go
package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/goburrow/modbus"
)

// Function codes the handle understands.
const (
	FCReadHolding uint8 = 3
	FCReadInput   uint8 = 4
)

// Handle is one slave on a shared line.
type Handle struct {
	line  *Line
	slave byte
}

// SlaveID returns the addressed slave.
func (h *Handle) SlaveID() byte { return h.slave }

// ReadRegisters reads quantity registers starting at address with FC 3 or 4.
func (h *Handle) ReadRegisters(ctx context.Context, fc uint8, address, quantity uint16) ([]uint16, error) {
	if quantity == 0 {
		return nil, errors.New("bus: read quantity must be > 0")
	}

	var read func(modbus.Client) ([]byte, error)
	switch fc {
	case FCReadHolding:
		read = func(c modbus.Client) ([]byte, error) { return c.ReadHoldingRegisters(address, quantity) }
	case FCReadInput:
		read = func(c modbus.Client) ([]byte, error) { return c.ReadInputRegisters(address, quantity) }
	default:
		return nil, fmt.Errorf("bus: unsupported read function code %d", fc)
	}

	raw, err := h.line.exchange(ctx, h.slave, fmt.Sprintf("read fc=%d addr=%d qty=%d", fc, address, quantity), read)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(raw), nil
}

// WriteRegisters writes regs starting at address.
// A single register uses FC 6, anything longer FC 16.
func (h *Handle) WriteRegisters(ctx context.Context, address uint16, regs []uint16) error {
	if len(regs) == 0 {
		return errors.New("bus: nothing to write")
	}

	op := fmt.Sprintf("write addr=%d qty=%d", address, len(regs))
	_, err := h.line.exchange(ctx, h.slave, op, func(c modbus.Client) ([]byte, error) {
		if len(regs) == 1 {
			return c.WriteSingleRegister(address, regs[0])
		}
		return c.WriteMultipleRegisters(address, uint16(len(regs)), packRegisters(regs))
	})
	return err
}
