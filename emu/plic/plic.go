/*
rv64emu - PLIC: platform-level interrupt controller stub.

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

// Package plic models the minimal register surface the guest pokes at for
// priority/enable/threshold plus the SCLAIM claim/complete register the
// drive loop writes the UART IRQ number to.
package plic

const (
	// Base is the physical base address of the PLIC register range.
	Base uint64 = 0x0c00_0000

	// End is the last physical address in the PLIC register range.
	End uint64 = 0x0fff_ffff

	// SCLAIM is the physical address of the S-mode context 1 claim/complete
	// register (offset 0x20_1004 from Base), matching the xv6/QEMU virt
	// layout (context 1 == hart 0 S-mode).
	SCLAIM uint64 = Base + 0x0020_1004
)

// Plic is a word-addressable register file backing the memory map.
type Plic struct {
	regs map[uint64]uint64
}

// New creates an empty PLIC register file.
func New() *Plic {
	return &Plic{regs: make(map[uint64]uint64)}
}

// Load returns the value previously stored at addr, or 0.
func (p *Plic) Load(addr uint64, size uint64) (uint64, error) {
	return p.regs[addr&^3], nil
}

// Store records value at addr without side effects.
func (p *Plic) Store(addr uint64, size uint64, value uint64) error {
	p.regs[addr&^3] = value
	return nil
}

// SetClaim writes irq directly into SCLAIM, used by the drive loop when a
// device signals an interrupt (spec 4.8 step 3).
func (p *Plic) SetClaim(irq uint64) {
	p.regs[SCLAIM&^3] = irq
}
