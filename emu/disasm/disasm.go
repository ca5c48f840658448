/*
rv64emu - Disassembler: RV64GC-subset mnemonic formatter.

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

// Package disasm formats RV64GC-subset instruction words as assembler
// mnemonics for the monitor's disasm command. The shape is the reference
// codebase's disassembler: a map from opcode to a {mnemonic, operand kind}
// record, plus one operand formatter per kind, rather than one function
// per individual instruction.
package disasm

import "fmt"

type kind int

const (
	kindR kind = iota
	kindI
	kindIShift
	kindS
	kindB
	kindU
	kindJ
	kindSystem
	kindNone
)

type entry struct {
	name string
	k    kind
}

var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// opTable maps the 7-bit opcode to its mnemonic family; funct3/funct7 pick
// the exact mnemonic within the family at format time.
var opTable = map[uint32]entry{
	0x03: {"l", kindI},
	0x0f: {"fence", kindNone},
	0x13: {"", kindI},
	0x17: {"auipc", kindU},
	0x1b: {"", kindIShift},
	0x23: {"s", kindS},
	0x2f: {"amo", kindR},
	0x33: {"", kindR},
	0x37: {"lui", kindU},
	0x3b: {"", kindR},
	0x63: {"b", kindB},
	0x67: {"jalr", kindI},
	0x6f: {"jal", kindJ},
	0x73: {"", kindSystem},
}

var loadMnemonic = map[uint32]string{0: "lb", 1: "lh", 2: "lw", 3: "ld", 4: "lbu", 5: "lhu", 6: "lwu"}
var storeMnemonic = map[uint32]string{0: "sb", 1: "sh", 2: "sw", 3: "sd"}
var branchMnemonic = map[uint32]string{0: "beq", 1: "bne", 4: "blt", 5: "bge", 6: "bltu", 7: "bgeu"}
var opImmMnemonic = map[uint32]string{0: "addi", 2: "slti", 3: "sltiu", 4: "xori", 6: "ori", 7: "andi"}

// Format decodes one 32-bit instruction word and returns its mnemonic
// text. Unrecognized encodings fall back to a raw hex dump, mirroring the
// reference disassembler's "undefined" path for opcodes it has no table
// entry for.
func Format(raw uint32) string {
	opcode := raw & 0x7f
	rd := (raw >> 7) & 0x1f
	funct3 := (raw >> 12) & 0x7
	rs1 := (raw >> 15) & 0x1f
	rs2 := (raw >> 20) & 0x1f
	funct7 := (raw >> 25) & 0x7f

	e, ok := opTable[opcode]
	if !ok {
		return fmt.Sprintf(".word 0x%08x", raw)
	}

	switch e.k {
	case kindR:
		return formatR(raw, opcode, rd, funct3, rs1, rs2, funct7)
	case kindI:
		return formatI(raw, opcode, rd, funct3, rs1)
	case kindIShift:
		return formatIShift(rd, funct3, rs1, raw)
	case kindS:
		return formatS(raw, funct3, rs1, rs2)
	case kindB:
		return formatB(raw, funct3, rs1, rs2)
	case kindU:
		return fmt.Sprintf("%-7s %s, 0x%x", e.name, reg(rd), uint32(raw)&0xfffff000)
	case kindJ:
		imm := jImm(raw)
		return fmt.Sprintf("%-7s %s, %d", e.name, reg(rd), imm)
	case kindSystem:
		return formatSystem(raw, funct3, rd, rs1, funct7, rs2)
	default:
		if raw == 0x0000000f {
			return "fence"
		}
		return "fence"
	}
}

func reg(i uint32) string {
	return regNames[i&0x1f]
}

func iImm(raw uint32) int32 {
	return int32(raw) >> 20
}

func sImm(raw uint32) int32 {
	v := ((raw >> 25) << 5) | ((raw >> 7) & 0x1f)
	return signExtend(v, 12)
}

func bImm(raw uint32) int32 {
	v := (((raw >> 31) & 1) << 12) | (((raw >> 7) & 1) << 11) |
		(((raw >> 25) & 0x3f) << 5) | (((raw >> 8) & 0xf) << 1)
	return signExtend(v, 13)
}

func jImm(raw uint32) int32 {
	v := (((raw >> 31) & 1) << 20) | (((raw >> 12) & 0xff) << 12) |
		(((raw >> 20) & 1) << 11) | (((raw >> 21) & 0x3ff) << 1)
	return signExtend(v, 21)
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func formatI(raw, opcode, rd, funct3, rs1 uint32) string {
	imm := iImm(raw)
	switch opcode {
	case 0x03:
		name, ok := loadMnemonic[funct3]
		if !ok {
			return fmt.Sprintf(".word 0x%08x", raw)
		}
		return fmt.Sprintf("%-7s %s, %d(%s)", name, reg(rd), imm, reg(rs1))
	case 0x13:
		name, ok := opImmMnemonic[funct3]
		if !ok {
			return formatIShift(rd, funct3, rs1, raw)
		}
		return fmt.Sprintf("%-7s %s, %s, %d", name, reg(rd), reg(rs1), imm)
	case 0x67:
		return fmt.Sprintf("%-7s %s, %d(%s)", "jalr", reg(rd), imm, reg(rs1))
	}
	return fmt.Sprintf(".word 0x%08x", raw)
}

func formatIShift(rd, funct3, rs1, raw uint32) string {
	shamt := (raw >> 20) & 0x3f
	arith := (raw>>30)&1 == 1
	switch funct3 {
	case 1:
		return fmt.Sprintf("%-7s %s, %s, %d", "slli", reg(rd), reg(rs1), shamt)
	case 5:
		if arith {
			return fmt.Sprintf("%-7s %s, %s, %d", "srai", reg(rd), reg(rs1), shamt)
		}
		return fmt.Sprintf("%-7s %s, %s, %d", "srli", reg(rd), reg(rs1), shamt)
	}
	return fmt.Sprintf(".word 0x%08x", raw)
}

func formatS(raw, funct3, rs1, rs2 uint32) string {
	name, ok := storeMnemonic[funct3]
	if !ok {
		return fmt.Sprintf(".word 0x%08x", raw)
	}
	return fmt.Sprintf("%-7s %s, %d(%s)", name, reg(rs2), sImm(raw), reg(rs1))
}

func formatB(raw, funct3, rs1, rs2 uint32) string {
	name, ok := branchMnemonic[funct3]
	if !ok {
		return fmt.Sprintf(".word 0x%08x", raw)
	}
	return fmt.Sprintf("%-7s %s, %s, %d", name, reg(rs1), reg(rs2), bImm(raw))
}

func formatR(raw, opcode, rd, funct3, rs1, rs2, funct7 uint32) string {
	w := ""
	if opcode == 0x3b {
		w = "w"
	}
	if opcode == 0x2f {
		return formatAmo(raw, rd, funct3, rs1, rs2)
	}
	var name string
	switch {
	case funct7 == 0x01:
		name = mulDivMnemonic(funct3, w)
	case funct7 == 0x20 && funct3 == 0:
		name = "sub" + w
	case funct7 == 0x20 && funct3 == 5:
		name = "sra" + w
	default:
		name = baseOpMnemonic(funct3, w)
	}
	if name == "" {
		return fmt.Sprintf(".word 0x%08x", raw)
	}
	return fmt.Sprintf("%-7s %s, %s, %s", name, reg(rd), reg(rs1), reg(rs2))
}

func baseOpMnemonic(funct3 uint32, w string) string {
	switch funct3 {
	case 0:
		return "add" + w
	case 1:
		if w != "" {
			return ""
		}
		return "sll"
	case 2:
		if w != "" {
			return ""
		}
		return "slt"
	case 3:
		if w != "" {
			return ""
		}
		return "sltu"
	case 4:
		if w != "" {
			return ""
		}
		return "xor"
	case 5:
		return "srl" + w
	case 6:
		if w != "" {
			return ""
		}
		return "or"
	case 7:
		if w != "" {
			return ""
		}
		return "and"
	}
	return ""
}

func mulDivMnemonic(funct3 uint32, w string) string {
	if w != "" {
		switch funct3 {
		case 0:
			return "mulw"
		case 4:
			return "divw"
		case 5:
			return "divuw"
		case 6:
			return "remw"
		case 7:
			return "remuw"
		}
		return ""
	}
	switch funct3 {
	case 0:
		return "mul"
	case 1:
		return "mulh"
	case 2:
		return "mulhsu"
	case 3:
		return "mulhu"
	case 4:
		return "div"
	case 5:
		return "divu"
	case 6:
		return "rem"
	case 7:
		return "remu"
	}
	return ""
}

func formatAmo(raw, rd, funct3, rs1, rs2 uint32) string {
	funct5 := (raw >> 27) & 0x1f
	width := "w"
	if funct3 == 3 {
		width = "d"
	}
	names := map[uint32]string{
		0b00010: "lr", 0b00011: "sc", 0b00001: "amoswap", 0b00000: "amoadd",
		0b00100: "amoxor", 0b01100: "amoand", 0b01000: "amoor",
		0b10000: "amomin", 0b10100: "amomax", 0b11000: "amominu", 0b11100: "amomaxu",
	}
	name, ok := names[funct5]
	if !ok {
		return fmt.Sprintf(".word 0x%08x", raw)
	}
	name += "." + width
	if funct5 == 0b00010 {
		return fmt.Sprintf("%-7s %s, (%s)", name, reg(rd), reg(rs1))
	}
	return fmt.Sprintf("%-7s %s, %s, (%s)", name, reg(rd), reg(rs2), reg(rs1))
}

func formatSystem(raw, funct3, rd, rs1, funct7, rs2 uint32) string {
	if funct3 == 0 {
		switch raw {
		case 0x00000073:
			return "ecall"
		case 0x00100073:
			return "ebreak"
		}
		if rs2 == 2 && funct7 == 0x18 {
			return "mret"
		}
		if rs2 == 2 && funct7 == 0x08 {
			return "sret"
		}
		if rs2 == 5 && funct7 == 0x08 {
			return "wfi"
		}
		if funct7 == 0x09 {
			return "sfence.vma"
		}
		return fmt.Sprintf(".word 0x%08x", raw)
	}

	csr := raw >> 20
	names := map[uint32]string{1: "csrrw", 2: "csrrs", 3: "csrrc", 5: "csrrwi", 6: "csrrsi", 7: "csrrci"}
	name, ok := names[funct3]
	if !ok {
		return fmt.Sprintf(".word 0x%08x", raw)
	}
	if funct3 >= 5 {
		return fmt.Sprintf("%-7s %s, 0x%x, %d", name, reg(rd), csr, rs1)
	}
	return fmt.Sprintf("%-7s %s, 0x%x, %s", name, reg(rd), csr, reg(rs1))
}
