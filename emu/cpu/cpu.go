/*
rv64emu - CPU: instruction fetch, decode and execute.

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

// Package cpu implements the RV64GC-subset fetch/decode/execute loop, the
// privileged trap-delivery state machine and the Sv39 translator. Dispatch
// is a fixed table of per-opcode handler functions built once at package
// init, the same shape the reference codebase uses for its instruction
// table: one function per opcode, looked up by array index rather than a
// chain of type switches.
package cpu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rv64emu/emu/bus"
	"rv64emu/emu/csr"
	"rv64emu/emu/disasm"
	"rv64emu/emu/dram"
	"rv64emu/emu/trap"
)

// Privilege modes.
const (
	User       = 0
	Supervisor = 1
	Machine    = 3
)

const pageSize = 4096

// uartIRQ is the PLIC interrupt source number wired to the UART, matching
// the QEMU virt machine layout xv6 is built against.
const uartIRQ = 10

// Cpu is the single hart's architectural state.
type Cpu struct {
	Regs [32]uint64
	Pc   uint64
	Mode uint64

	Csr *csr.File
	Bus *bus.Bus

	PagingEnabled bool
	RootPageTable uint64
}

// New creates a hart with sp initialized to the top of DRAM and pc at the
// DRAM base, per the reset state the drive loop expects.
func New(b *bus.Bus) *Cpu {
	c := &Cpu{
		Csr:  csr.New(),
		Bus:  b,
		Mode: Machine,
	}
	c.Pc = dram.Base
	c.Regs[2] = dram.Base + dram.Size
	return c
}

// RegSnapshot formats all 32 GPRs plus pc and mode as a single compact
// line, for debug tracing and fatal-trap diagnostics.
func (c *Cpu) RegSnapshot() string {
	var b strings.Builder
	for i, v := range c.Regs {
		fmt.Fprintf(&b, "x%d=%#x ", i, v)
	}
	fmt.Fprintf(&b, "pc=%#x mode=%d", c.Pc, c.Mode)
	return b.String()
}

func (c *Cpu) reg(i uint32) uint64 {
	return c.Regs[i&0x1f]
}

func (c *Cpu) setReg(i uint32, v uint64) {
	if i != 0 {
		c.Regs[i&0x1f] = v
	}
}

// decoded holds every field and pre-assembled immediate a handler might
// need; cheap to compute uniformly rather than lazily per opcode.
type decoded struct {
	raw    uint32
	opcode uint32
	rd     uint32
	funct3 uint32
	rs1    uint32
	rs2    uint32
	funct7 uint32

	iImm int64
	sImm int64
	bImm int64
	uImm int64
	jImm int64
}

func signExtend(value uint32, bits uint) int64 {
	shift := 32 - bits
	return int64(int32(value<<shift) >> shift)
}

func decode(raw uint32) *decoded {
	d := &decoded{
		raw:    raw,
		opcode: raw & 0x7f,
		rd:     (raw >> 7) & 0x1f,
		funct3: (raw >> 12) & 0x7,
		rs1:    (raw >> 15) & 0x1f,
		rs2:    (raw >> 20) & 0x1f,
		funct7: (raw >> 25) & 0x7f,
	}
	d.iImm = signExtend((raw>>20)&0xfff, 12)
	d.sImm = signExtend((((raw>>25)&0x7f)<<5)|((raw>>7)&0x1f), 12)
	d.bImm = signExtend(
		(((raw>>31)&1)<<12)|(((raw>>7)&1)<<11)|(((raw>>25)&0x3f)<<5)|(((raw>>8)&0xf)<<1),
		13,
	)
	d.uImm = signExtend(raw>>12, 20) << 12
	d.jImm = signExtend(
		(((raw>>31)&1)<<20)|(((raw>>12)&0xff)<<12)|(((raw>>20)&1)<<11)|(((raw>>21)&0x3ff)<<1),
		21,
	)
	return d
}

type execFunc func(c *Cpu, d *decoded) (uint64, error)

const (
	opLoad    = 0x03
	opMiscMem = 0x0f
	opOpImm   = 0x13
	opAuipc   = 0x17
	opOpImm32 = 0x1b
	opStore   = 0x23
	opAmo     = 0x2f
	opOp      = 0x33
	opLui     = 0x37
	opOp32    = 0x3b
	opBranch  = 0x63
	opJalr    = 0x67
	opJal     = 0x6f
	opSystem  = 0x73
)

var opcodeTable = buildOpcodeTable()

func buildOpcodeTable() [128]execFunc {
	var t [128]execFunc
	t[opLoad] = execLoad
	t[opMiscMem] = execMiscMem
	t[opOpImm] = execOpImm
	t[opAuipc] = execAuipc
	t[opOpImm32] = execOpImm32
	t[opStore] = execStore
	t[opAmo] = execAmo
	t[opOp] = execOp
	t[opLui] = execLui
	t[opOp32] = execOp32
	t[opBranch] = execBranch
	t[opJalr] = execJalr
	t[opJal] = execJal
	t[opSystem] = execSystem
	return t
}

// Step runs one fetch/decode/execute/interrupt-check cycle. A non-nil
// return means a fatal exception was raised and the drive loop must stop.
func (c *Cpu) Step() error {
	c.Regs[0] = 0

	pc := c.Pc
	raw, err := c.fetch()
	if err == nil {
		d := decode(raw)
		handler := opcodeTable[d.opcode]
		if handler == nil {
			err = trap.IllegalInstruction(uint64(raw))
		} else {
			var next uint64
			next, err = handler(c, d)
			if err == nil {
				c.Pc = next
			}
		}
	}

	c.Regs[0] = 0

	if err != nil {
		return c.deliverOrFatal(err)
	}
	c.traceRetired(pc, raw)
	c.checkPendingInterrupt()
	return nil
}

// traceRetired logs the instruction just committed at debug level, in the
// "-d" trace format: its disassembly plus the resulting register state.
// Guarded on the handler's own level check so the disasm/snapshot work is
// skipped entirely outside debug mode.
func (c *Cpu) traceRetired(pc uint64, raw uint32) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	slog.Debug("retired", "pc", fmt.Sprintf("%#x", pc), "insn", disasm.Format(raw), "regs", c.RegSnapshot())
}

func (c *Cpu) deliverOrFatal(err error) error {
	exc := err.(trap.Exception)
	if exc.Fatal() {
		return exc
	}
	c.HandleException(exc)
	return nil
}

func (c *Cpu) fetch() (uint32, error) {
	paddr, err := c.translate(c.Pc, AccessInstruction)
	if err != nil {
		return 0, trap.InstructionAccessFault(c.Pc)
	}
	word, err := c.Bus.Fetch(paddr)
	if err != nil {
		return 0, trap.InstructionAccessFault(c.Pc)
	}
	return uint32(word), nil
}

func execMiscMem(c *Cpu, d *decoded) (uint64, error) {
	return c.Pc + 4, nil // FENCE is a no-op.
}

func execAuipc(c *Cpu, d *decoded) (uint64, error) {
	c.setReg(d.rd, c.Pc+uint64(d.uImm))
	return c.Pc + 4, nil
}

func execLui(c *Cpu, d *decoded) (uint64, error) {
	c.setReg(d.rd, uint64(d.uImm))
	return c.Pc + 4, nil
}

func execLoad(c *Cpu, d *decoded) (uint64, error) {
	addr := c.reg(d.rs1) + uint64(d.iImm)
	paddr, err := c.translate(addr, AccessLoad)
	if err != nil {
		return 0, err
	}

	var size uint64
	switch d.funct3 {
	case 0, 4:
		size = 8
	case 1, 5:
		size = 16
	case 2, 6:
		size = 32
	case 3:
		size = 64
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}

	raw, err := c.Bus.Load(paddr, size)
	if err != nil {
		return 0, trap.LoadAccessFault(addr)
	}

	var value uint64
	switch d.funct3 {
	case 0: // LB
		value = uint64(int64(int8(raw)))
	case 1: // LH
		value = uint64(int64(int16(raw)))
	case 2: // LW
		value = uint64(int64(int32(raw)))
	case 3: // LD
		value = raw
	case 4, 5, 6: // LBU, LHU, LWU
		value = raw
	}
	c.setReg(d.rd, value)
	return c.Pc + 4, nil
}

func execStore(c *Cpu, d *decoded) (uint64, error) {
	addr := c.reg(d.rs1) + uint64(d.sImm)
	paddr, err := c.translate(addr, AccessStore)
	if err != nil {
		return 0, err
	}

	var size uint64
	switch d.funct3 {
	case 0:
		size = 8
	case 1:
		size = 16
	case 2:
		size = 32
	case 3:
		size = 64
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}

	if err := c.Bus.Store(paddr, size, c.reg(d.rs2)); err != nil {
		return 0, trap.StoreAMOAccessFault(addr)
	}
	return c.Pc + 4, nil
}

func execOpImm(c *Cpu, d *decoded) (uint64, error) {
	shamt := uint64((d.raw >> 20) & 0x3f)
	arith := (d.raw>>30)&1 == 1

	var val uint64
	switch d.funct3 {
	case 0: // ADDI
		val = c.reg(d.rs1) + uint64(d.iImm)
	case 1: // SLLI
		val = c.reg(d.rs1) << shamt
	case 2: // SLTI
		val = boolToU64(int64(c.reg(d.rs1)) < d.iImm)
	case 3: // SLTIU
		val = boolToU64(c.reg(d.rs1) < uint64(d.iImm))
	case 4: // XORI
		val = c.reg(d.rs1) ^ uint64(d.iImm)
	case 5: // SRLI / SRAI
		if arith {
			val = uint64(int64(c.reg(d.rs1)) >> shamt)
		} else {
			val = c.reg(d.rs1) >> shamt
		}
	case 6: // ORI
		val = c.reg(d.rs1) | uint64(d.iImm)
	case 7: // ANDI
		val = c.reg(d.rs1) & uint64(d.iImm)
	}
	c.setReg(d.rd, val)
	return c.Pc + 4, nil
}

func execOpImm32(c *Cpu, d *decoded) (uint64, error) {
	shamt := uint32((d.raw >> 20) & 0x1f)
	arith := (d.raw>>30)&1 == 1

	var val32 int32
	switch d.funct3 {
	case 0: // ADDIW
		val32 = int32(c.reg(d.rs1)) + int32(d.iImm)
	case 1: // SLLIW
		val32 = int32(uint32(c.reg(d.rs1)) << shamt)
	case 5: // SRLIW / SRAIW
		if arith {
			val32 = int32(c.reg(d.rs1)) >> shamt
		} else {
			val32 = int32(uint32(c.reg(d.rs1)) >> shamt)
		}
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}
	c.setReg(d.rd, uint64(int64(val32)))
	return c.Pc + 4, nil
}

func execBranch(c *Cpu, d *decoded) (uint64, error) {
	var taken bool
	switch d.funct3 {
	case 0: // BEQ
		taken = c.reg(d.rs1) == c.reg(d.rs2)
	case 1: // BNE
		taken = c.reg(d.rs1) != c.reg(d.rs2)
	case 4: // BLT
		taken = int64(c.reg(d.rs1)) < int64(c.reg(d.rs2))
	case 5: // BGE
		taken = int64(c.reg(d.rs1)) >= int64(c.reg(d.rs2))
	case 6: // BLTU
		taken = c.reg(d.rs1) < c.reg(d.rs2)
	case 7: // BGEU
		taken = c.reg(d.rs1) >= c.reg(d.rs2)
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}
	if taken {
		return c.Pc + uint64(d.bImm), nil
	}
	return c.Pc + 4, nil
}

func execJalr(c *Cpu, d *decoded) (uint64, error) {
	target := (c.reg(d.rs1) + uint64(d.iImm)) &^ 1
	c.setReg(d.rd, c.Pc+4)
	return target, nil
}

func execJal(c *Cpu, d *decoded) (uint64, error) {
	c.setReg(d.rd, c.Pc+4)
	return c.Pc + uint64(d.jImm), nil
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
