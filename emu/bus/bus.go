/*
rv64emu - Bus: address-range device routing.

Copyright 2026, rv64emu authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package bus dispatches loads and stores by physical address range to the
// backing device, the way the reference codebase's channel layer dispatches
// a channel-program access to whichever device answered IPL/attach for that
// subchannel, except here the routing key is an address range fixed at
// construction instead of a device number assigned at runtime.
package bus

import (
	"rv64emu/emu/clint"
	"rv64emu/emu/dram"
	"rv64emu/emu/plic"
	"rv64emu/emu/uart"
	"rv64emu/emu/virtio"
)

// Bus owns every memory-mapped device and routes accesses to them by
// physical address.
type Bus struct {
	Dram   *dram.DRAM
	Clint  *clint.Clint
	Plic   *plic.Plic
	Uart   *uart.Uart
	Virtio *virtio.Block
}

// New creates a bus wiring all devices together.
func New(d *dram.DRAM, c *clint.Clint, p *plic.Plic, u *uart.Uart, v *virtio.Block) *Bus {
	return &Bus{Dram: d, Clint: c, Plic: p, Uart: u, Virtio: v}
}

// Load reads size bits from addr, routed to whichever device owns that
// range. An address outside every range returns an *AccessFault carrying
// the address; a device's own error (such as a rejected access width) is
// returned unchanged.
func (b *Bus) Load(addr uint64, size uint64) (uint64, error) {
	switch {
	case addr >= clint.Base && addr <= clint.End:
		return b.Clint.Load(addr, size)
	case addr >= plic.Base && addr <= plic.End:
		return b.Plic.Load(addr, size)
	case addr >= uart.Base && addr <= uart.End:
		return b.Uart.Load(addr, size)
	case addr >= virtio.Base && addr <= virtio.End:
		return b.Virtio.Load(addr, size)
	case addr >= dram.Base && addr <= dram.End:
		return b.Dram.Load(addr, size)
	default:
		return 0, &AccessFault{Addr: addr, Store: false}
	}
}

// Store writes size bits of value to addr, routed to whichever device owns
// that range. An address outside every range returns an *AccessFault
// carrying the address; a device's own error is returned unchanged.
func (b *Bus) Store(addr uint64, size uint64, value uint64) error {
	switch {
	case addr >= clint.Base && addr <= clint.End:
		return b.Clint.Store(addr, size, value)
	case addr >= plic.Base && addr <= plic.End:
		return b.Plic.Store(addr, size, value)
	case addr >= uart.Base && addr <= uart.End:
		return b.Uart.Store(addr, size, value)
	case addr >= virtio.Base && addr <= virtio.End:
		return b.Virtio.Store(addr, size, value)
	case addr >= dram.Base && addr <= dram.End:
		return b.Dram.Store(addr, size, value)
	default:
		return &AccessFault{Addr: addr, Store: true}
	}
}

// Fetch reads a 32-bit instruction word from addr.
func (b *Bus) Fetch(addr uint64) (uint64, error) {
	return b.Load(addr, 32)
}

// AccessFault reports an address outside every device's range. Addr is the
// trap value. Access-width errors come from the devices themselves, not
// from this type.
type AccessFault struct {
	Addr  uint64
	Store bool
}

func (e *AccessFault) Error() string {
	if e.Store {
		return "store/amo-access-fault"
	}
	return "load-access-fault"
}
