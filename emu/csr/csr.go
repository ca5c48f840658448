/*
rv64emu - CSR: control-and-status-register file.

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

// Package csr models the flat 4096-slot control-and-status-register file.
// The S-mode addresses are not separately allocated storage; they are
// computed windows over the machine-level registers, implemented as switch
// arms the way the reference codebase builds its PSW field accessors out of
// shift-and-mask pairs over one underlying word rather than one field per bit.
package csr

// Addresses of the CSRs this core refers to by name. Only sstatus, sie and
// sip are computed subset views; every other address, including the rest
// of this list, is flat direct storage.
const (
	Sstatus = 0x100
	Sie     = 0x104
	Stvec   = 0x105
	Sepc    = 0x141
	Scause  = 0x142
	Stval   = 0x143
	Sip     = 0x144
	Satp    = 0x180

	Mstatus = 0x300
	Medeleg = 0x302
	Mideleg = 0x303
	Mie     = 0x304
	Mtvec   = 0x305
	Mepc    = 0x341
	Mcause  = 0x342
	Mtval   = 0x343
	Mip     = 0x344
)

// MaskSstatus selects the bits of mstatus visible through sstatus: SIE, SPIE,
// UBE, SPP, FS, XS, SUM, MXR, UXL, SD.
const MaskSstatus uint64 = (1 << 1) | (1 << 5) | (1 << 6) | (1 << 8) |
	(0b11 << 13) | (0b11 << 15) | (1 << 18) | (1 << 19) | (0b11 << 32) | (1 << 63)

// mstatus / sstatus bit positions.
const (
	SIEShift  = 1
	MIEShift  = 3
	SPIEShift = 5
	MPIEShift = 7
	SPPShift  = 8
	MPPShift  = 11
	MPPMask   = 0b11
)

// mip / sip bit positions.
const (
	SSIPBit = uint64(1) << 1
	MSIPBit = uint64(1) << 3
	STIPBit = uint64(1) << 5
	MTIPBit = uint64(1) << 7
	SEIPBit = uint64(1) << 9
	MEIPBit = uint64(1) << 11
)

// MPRVShift is the mstatus.MPRV bit position, cleared by MRET when leaving
// Machine mode.
const MPRVShift = 17

// PPNMask selects the satp.ppn field (bits 0-43).
const PPNMask uint64 = (1 << 44) - 1

// File is the 4096-slot register space.
type File struct {
	regs [4096]uint64
}

// New returns a zeroed CSR file.
func New() *File {
	return &File{}
}

// Load reads the register at addr, applying the computed-view rules for the
// S-mode subset addresses.
func (f *File) Load(addr uint64) uint64 {
	switch addr {
	case Sstatus:
		return f.regs[Mstatus] & MaskSstatus
	case Sie:
		return f.regs[Mie] & f.regs[Mideleg]
	case Sip:
		return f.regs[Mip] & f.regs[Mideleg]
	default:
		return f.regs[addr]
	}
}

// Store writes value to the register at addr, applying the computed-view
// rules for the S-mode subset addresses.
func (f *File) Store(addr uint64, value uint64) {
	switch addr {
	case Sstatus:
		f.regs[Mstatus] = (f.regs[Mstatus] &^ MaskSstatus) | (value & MaskSstatus)
	case Sie:
		f.regs[Mie] = (f.regs[Mie] &^ f.regs[Mideleg]) | (value & f.regs[Mideleg])
	case Sip:
		// The reference implementation preserves the undelegated bits from
		// mie rather than mip when masking this write; replicated here
		// rather than repaired, per the open question on sip semantics.
		f.regs[Mip] = (f.regs[Mie] &^ f.regs[Mideleg]) | (value & f.regs[Mideleg])
	default:
		f.regs[addr] = value
	}
}

// IsMedelegated reports whether exception code is routed to S-mode by medeleg.
func (f *File) IsMedelegated(code uint64) bool {
	return (f.regs[Medeleg]>>code)&1 == 1
}

// IsMidelegated reports whether interrupt bareCode is routed to S-mode by
// mideleg. bareCode must have the interrupt bit already stripped.
func (f *File) IsMidelegated(bareCode uint64) bool {
	return (f.regs[Mideleg]>>bareCode)&1 == 1
}
