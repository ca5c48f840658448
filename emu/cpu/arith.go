/*
rv64emu - CPU: register-register integer and multiply/divide execution.

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

import (
	"math"
	"math/bits"

	"rv64emu/emu/trap"
)

func execOp(c *Cpu, d *decoded) (uint64, error) {
	switch d.funct7 {
	case 0x00, 0x20:
		return execOpBase(c, d)
	case 0x01:
		return execOpMulDiv(c, d)
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}
}

func execOpBase(c *Cpu, d *decoded) (uint64, error) {
	a, b := c.reg(d.rs1), c.reg(d.rs2)
	var val uint64
	switch d.funct3 {
	case 0: // ADD / SUB
		if d.funct7 == 0x20 {
			val = a - b
		} else {
			val = a + b
		}
	case 1: // SLL
		val = a << (b & 0x3f)
	case 2: // SLT
		val = boolToU64(int64(a) < int64(b))
	case 3: // SLTU
		val = boolToU64(a < b)
	case 4: // XOR
		val = a ^ b
	case 5: // SRL / SRA
		if d.funct7 == 0x20 {
			val = uint64(int64(a) >> (b & 0x3f))
		} else {
			val = a >> (b & 0x3f)
		}
	case 6: // OR
		val = a | b
	case 7: // AND
		val = a & b
	}
	c.setReg(d.rd, val)
	return c.Pc + 4, nil
}

func execOpMulDiv(c *Cpu, d *decoded) (uint64, error) {
	a, b := c.reg(d.rs1), c.reg(d.rs2)
	sa, sb := int64(a), int64(b)
	var val uint64
	switch d.funct3 {
	case 0: // MUL
		val = a * b
	case 1: // MULH
		val = uint64(mulhSigned(sa, sb))
	case 2: // MULHSU
		val = uint64(mulhSU(sa, b))
	case 3: // MULHU
		val = mulhu(a, b)
	case 4: // DIV
		switch {
		case b == 0:
			val = ^uint64(0)
		case sa == math.MinInt64 && sb == -1:
			val = a
		default:
			val = uint64(sa / sb)
		}
	case 5: // DIVU
		if b == 0 {
			val = ^uint64(0)
		} else {
			val = a / b
		}
	case 6: // REM
		switch {
		case b == 0:
			val = a
		case sa == math.MinInt64 && sb == -1:
			val = 0
		default:
			val = uint64(sa % sb)
		}
	case 7: // REMU
		if b == 0 {
			val = a
		} else {
			val = a % b
		}
	}
	c.setReg(d.rd, val)
	return c.Pc + 4, nil
}

func execOp32(c *Cpu, d *decoded) (uint64, error) {
	switch d.funct7 {
	case 0x00, 0x20:
		return execOp32Base(c, d)
	case 0x01:
		return execOp32MulDiv(c, d)
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}
}

func execOp32Base(c *Cpu, d *decoded) (uint64, error) {
	a, b := int32(c.reg(d.rs1)), int32(c.reg(d.rs2))
	shamt := uint32(c.reg(d.rs2)) & 0x1f
	var val32 int32
	switch d.funct3 {
	case 0: // ADDW / SUBW
		if d.funct7 == 0x20 {
			val32 = a - b
		} else {
			val32 = a + b
		}
	case 1: // SLLW
		val32 = int32(uint32(a) << shamt)
	case 5: // SRLW / SRAW
		if d.funct7 == 0x20 {
			val32 = a >> shamt
		} else {
			val32 = int32(uint32(a) >> shamt)
		}
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}
	c.setReg(d.rd, uint64(int64(val32)))
	return c.Pc + 4, nil
}

func execOp32MulDiv(c *Cpu, d *decoded) (uint64, error) {
	a, b := int32(c.reg(d.rs1)), int32(c.reg(d.rs2))
	au, bu := uint32(c.reg(d.rs1)), uint32(c.reg(d.rs2))
	var val32 int32
	switch d.funct3 {
	case 0: // MULW
		val32 = int32(au * bu)
	case 4: // DIVW
		switch {
		case b == 0:
			c.setReg(d.rd, ^uint64(0))
			return c.Pc + 4, nil
		case a == math.MinInt32 && b == -1:
			val32 = a
		default:
			val32 = a / b
		}
	case 5: // DIVUW
		if bu == 0 {
			c.setReg(d.rd, ^uint64(0))
			return c.Pc + 4, nil
		}
		val32 = int32(au / bu)
	case 6: // REMW
		switch {
		case b == 0:
			val32 = a
		case a == math.MinInt32 && b == -1:
			val32 = 0
		default:
			val32 = a % b
		}
	case 7: // REMUW
		if bu == 0 {
			val32 = a
		} else {
			val32 = int32(au % bu)
		}
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}
	c.setReg(d.rd, uint64(int64(val32)))
	return c.Pc + 4, nil
}

// mulhSigned computes the high 64 bits of the signed 128-bit product of a
// and b via an unsigned multiply followed by sign correction.
func mulhSigned(a, b int64) int64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return int64(hi)
}

// mulhSU computes the high 64 bits of the product of signed a and unsigned b.
func mulhSU(a int64, b uint64) int64 {
	hi, _ := bits.Mul64(uint64(a), b)
	if a < 0 {
		hi -= b
	}
	return int64(hi)
}

func mulhu(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	return hi
}
