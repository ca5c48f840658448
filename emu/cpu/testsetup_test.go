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
	"bytes"
	"encoding/binary"

	"rv64emu/emu/bus"
	"rv64emu/emu/clint"
	"rv64emu/emu/dram"
	"rv64emu/emu/plic"
	"rv64emu/emu/uart"
	"rv64emu/emu/virtio"
)

// newTestCpu builds a hart over a fresh bus, loading code at DRAM base and
// disk at the start of the virtio-block image.
func newTestCpu(code []byte, disk []byte) (*Cpu, func()) {
	d := dram.New(code)
	c := clint.New()
	p := plic.New()
	u := uart.New(bytes.NewReader(nil), &bytes.Buffer{})
	if disk == nil {
		disk = make([]byte, 8192)
	}
	v := virtio.New(disk)
	b := bus.New(d, c, p, u, v)
	return New(b), u.Close
}

// asm assembles raw 32-bit little-endian instruction words into a byte
// program, the way the reference codebase's tests hand-build instruction
// words instead of invoking an external assembler.
func asm(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

// rType encodes an R-type instruction.
func rType(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

// iType encodes an I-type instruction, imm is the raw 12-bit field.
func iType(imm uint32, rs1, funct3, rd, opcode uint32) uint32 {
	return ((imm & 0xfff) << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func addi(rd, rs1 uint32, imm int32) uint32 {
	return iType(uint32(imm)&0xfff, rs1, 0, rd, opOpImm)
}

func add(rd, rs1, rs2 uint32) uint32 {
	return rType(0, rs2, rs1, 0, rd, opOp)
}
