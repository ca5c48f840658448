/*
rv64emu - CPU: atomic memory operation execution (single-hart, non-atomic).

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

package cpu

import "rv64emu/emu/trap"

// funct5 values for the AMO opcode (inst[31:27]).
const (
	amoLR      = 0b00010
	amoSC      = 0b00011
	amoSwap    = 0b00001
	amoAdd     = 0b00000
	amoXor     = 0b00100
	amoAnd     = 0b01100
	amoOr      = 0b01000
	amoMin     = 0b10000
	amoMax     = 0b10100
	amoMinU    = 0b11000
	amoMaxU    = 0b11100
)

func execAmo(c *Cpu, d *decoded) (uint64, error) {
	var width uint64
	switch d.funct3 {
	case 2:
		width = 32
	case 3:
		width = 64
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}

	addr := c.reg(d.rs1)
	paddr, err := c.translate(addr, AccessStore)
	if err != nil {
		return 0, err
	}

	funct5 := d.funct7 >> 2

	rawOld, err := c.Bus.Load(paddr, width)
	if err != nil {
		return 0, trap.LoadAccessFault(addr)
	}
	old := signExtendWidth(rawOld, width)

	if funct5 == amoLR {
		c.setReg(d.rd, uint64(old))
		return c.Pc + 4, nil
	}

	operand := signExtendWidth(c.reg(d.rs2), width)

	if funct5 == amoSC {
		if err := c.Bus.Store(paddr, width, c.reg(d.rs2)); err != nil {
			return 0, trap.StoreAMOAccessFault(addr)
		}
		c.setReg(d.rd, 0) // SC always succeeds in this single-hart model.
		return c.Pc + 4, nil
	}

	var result int64
	switch funct5 {
	case amoSwap:
		result = operand
	case amoAdd:
		result = old + operand
	case amoXor:
		result = old ^ operand
	case amoAnd:
		result = old & operand
	case amoOr:
		result = old | operand
	case amoMin:
		result = minInt64(old, operand)
	case amoMax:
		result = maxInt64(old, operand)
	case amoMinU:
		result = int64(minUint64(uint64(old), uint64(operand)))
	case amoMaxU:
		result = int64(maxUint64(uint64(old), uint64(operand)))
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}

	if err := c.Bus.Store(paddr, width, uint64(result)); err != nil {
		return 0, trap.StoreAMOAccessFault(addr)
	}
	c.setReg(d.rd, uint64(old))
	return c.Pc + 4, nil
}

func signExtendWidth(v uint64, width uint64) int64 {
	if width == 32 {
		return int64(int32(uint32(v)))
	}
	return int64(v)
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxUint64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
