/*
rv64emu - tests.

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
	"testing"

	"rv64emu/emu/dram"
)

func amoWord(funct5, rs2, rs1, funct3, rd uint32) uint32 {
	return rType(funct5<<2, rs2, rs1, funct3, rd, opAmo)
}

func TestAmoSwapD(t *testing.T) {
	// x1 = DRAM_BASE via auipc; sd x2,0(x1) stores 10; amoswap.d x3,x4,(x1)
	// with x4=99 swaps: x3=10, mem=99.
	auipc := func(rd uint32, imm int32) uint32 { return (uint32(imm) << 12) | (rd << 7) | opAuipc }
	code := asm(
		auipc(1, 0),
		addi(2, 0, 10),
		rType(0, 2, 1, 3, 0, opStore), // sd x2,0(x1)
		addi(4, 0, 99),
		amoWord(amoSwap, 4, 1, 3, 3), // amoswap.d x3, x4, (x1)
	)
	c, closeUart := newTestCpu(code, nil)
	defer closeUart()

	for i := 0; i < 5; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if c.Regs[3] != 10 {
		t.Fatalf("x3 = %d, want 10 (old value)", c.Regs[3])
	}
	v, err := c.Bus.Load(dram.Base, 64)
	if err != nil {
		t.Fatal(err)
	}
	if v != 99 {
		t.Fatalf("mem = %d, want 99", v)
	}
}

func TestAmoAddW(t *testing.T) {
	auipc := func(rd uint32, imm int32) uint32 { return (uint32(imm) << 12) | (rd << 7) | opAuipc }
	code := asm(
		auipc(1, 0),
		addi(2, 0, 5),
		rType(0, 2, 1, 2, 0, opStore), // sw x2,0(x1)
		addi(4, 0, 7),
		amoWord(amoAdd, 4, 1, 2, 3), // amoadd.w x3, x4, (x1)
	)
	c, closeUart := newTestCpu(code, nil)
	defer closeUart()

	for i := 0; i < 5; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if c.Regs[3] != 5 {
		t.Fatalf("x3 = %d, want 5 (old value)", c.Regs[3])
	}
	v, err := c.Bus.Load(dram.Base, 32)
	if err != nil {
		t.Fatal(err)
	}
	if v != 12 {
		t.Fatalf("mem = %d, want 12", v)
	}
}

func TestLrScPair(t *testing.T) {
	auipc := func(rd uint32, imm int32) uint32 { return (uint32(imm) << 12) | (rd << 7) | opAuipc }
	code := asm(
		auipc(1, 0),
		addi(2, 0, 42),
		rType(0, 2, 1, 3, 0, opStore),  // sd x2,0(x1)
		amoWord(amoLR, 0, 1, 3, 3),      // lr.d x3,(x1)
		addi(4, 0, 100),
		amoWord(amoSC, 4, 1, 3, 5), // sc.d x5, x4, (x1)
	)
	c, closeUart := newTestCpu(code, nil)
	defer closeUart()

	for i := 0; i < 6; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if c.Regs[3] != 42 {
		t.Fatalf("x3 (lr result) = %d, want 42", c.Regs[3])
	}
	if c.Regs[5] != 0 {
		t.Fatalf("x5 (sc success flag) = %d, want 0", c.Regs[5])
	}
	v, err := c.Bus.Load(dram.Base, 64)
	if err != nil {
		t.Fatal(err)
	}
	if v != 100 {
		t.Fatalf("mem after sc = %d, want 100", v)
	}
}
