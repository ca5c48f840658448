/*
rv64emu - DRAM: byte-addressable backing store.

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
package dram

import "fmt"

const (
	// Base is the physical base address DRAM is mapped at.
	Base uint64 = 0x8000_0000

	// Size is the DRAM size in bytes (128 MiB).
	Size uint64 = 128 * 1024 * 1024

	// End is the last valid physical address in DRAM.
	End uint64 = Base + Size - 1
)

// DRAM is flat byte-addressable memory mapped at Base.
type DRAM struct {
	mem []uint8
}

// New creates DRAM with code loaded at offset 0 (physical Base).
func New(code []uint8) *DRAM {
	d := &DRAM{mem: make([]uint8, Size)}
	copy(d.mem, code)
	return d
}

// Load reads size (8/16/32/64) bits starting at addr, little-endian.
func (d *DRAM) Load(addr uint64, size uint64) (uint64, error) {
	switch size {
	case 8, 16, 32, 64:
	default:
		return 0, fmt.Errorf("dram: invalid access size %d", size)
	}
	index := addr - Base
	nbytes := size / 8
	var value uint64
	for i := uint64(0); i < nbytes; i++ {
		value |= uint64(d.mem[index+i]) << (8 * i)
	}
	return value, nil
}

// Store writes the low size (8/16/32/64) bits of value at addr, little-endian.
func (d *DRAM) Store(addr uint64, size uint64, value uint64) error {
	switch size {
	case 8, 16, 32, 64:
	default:
		return fmt.Errorf("dram: invalid access size %d", size)
	}
	index := addr - Base
	nbytes := size / 8
	for i := uint64(0); i < nbytes; i++ {
		d.mem[index+i] = uint8(value >> (8 * i))
	}
	return nil
}
