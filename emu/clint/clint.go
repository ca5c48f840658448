/*
rv64emu - CLINT: core-local interruptor stub.

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

// Package clint models the minimal register surface guest code pokes at so
// it does not fault. It does not deliver timer or software interrupts; see
// spec non-goals on precise timer interrupts.
package clint

const (
	// Base is the physical base address of the CLINT register range.
	Base uint64 = 0x0200_0000

	// End is the last physical address in the CLINT register range.
	End uint64 = 0x0200_ffff
)

// Clint is a word-addressable register file backing the memory map.
type Clint struct {
	regs map[uint64]uint64
}

// New creates an empty CLINT register file.
func New() *Clint {
	return &Clint{regs: make(map[uint64]uint64)}
}

// Load returns the value previously stored at addr, or 0.
func (c *Clint) Load(addr uint64, size uint64) (uint64, error) {
	return c.regs[addr&^7], nil
}

// Store records value at addr without side effects.
func (c *Clint) Store(addr uint64, size uint64, value uint64) error {
	c.regs[addr&^7] = value
	return nil
}
