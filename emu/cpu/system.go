/*
rv64emu - CPU: SYSTEM opcode execution (Zicsr, ECALL/EBREAK, xRET).

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
	"rv64emu/emu/csr"
	"rv64emu/emu/trap"
)

func execSystem(c *Cpu, d *decoded) (uint64, error) {
	if d.funct3 != 0 {
		return execZicsr(c, d)
	}

	switch {
	case d.raw == 0x00000073: // ECALL
		return 0, envCall(c)
	case d.raw == 0x00100073: // EBREAK
		return 0, trap.Breakpoint(c.Pc)
	case d.rs2 == 2 && d.funct7 == 0x18: // MRET
		return c.mret(), nil
	case d.rs2 == 2 && d.funct7 == 0x08: // SRET
		return c.sret(), nil
	case d.funct7 == 0x09: // SFENCE.VMA
		return c.Pc + 4, nil
	case d.rs2 == 5 && d.funct7 == 0x08: // WFI
		return c.Pc + 4, nil
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}
}

func envCall(c *Cpu) error {
	switch c.Mode {
	case User:
		return trap.EnvCallFromUMode(c.Pc)
	case Supervisor:
		return trap.EnvCallFromSMode(c.Pc)
	default:
		return trap.EnvCallFromMMode(c.Pc)
	}
}

func execZicsr(c *Cpu, d *decoded) (uint64, error) {
	addr := uint64((d.raw >> 20) & 0xfff)
	old := c.Csr.Load(addr)

	var newVal uint64
	switch d.funct3 {
	case 1: // CSRRW
		newVal = c.reg(d.rs1)
	case 2: // CSRRS
		newVal = old | c.reg(d.rs1)
	case 3: // CSRRC
		newVal = old &^ c.reg(d.rs1)
	case 5: // CSRRWI
		newVal = uint64(d.rs1)
	case 6: // CSRRSI
		newVal = old | uint64(d.rs1)
	case 7: // CSRRCI
		newVal = old &^ uint64(d.rs1)
	default:
		return 0, trap.IllegalInstruction(uint64(d.raw))
	}

	c.Csr.Store(addr, newVal)
	c.setReg(d.rd, old)

	if addr == csr.Satp {
		c.updatePaging()
	}
	return c.Pc + 4, nil
}

func (c *Cpu) updatePaging() {
	satp := c.Csr.Load(csr.Satp)
	c.RootPageTable = (satp & csr.PPNMask) * pageSize
	c.PagingEnabled = (satp >> 60) == 8
}

func (c *Cpu) mret() uint64 {
	mstatus := c.Csr.Load(csr.Mstatus)
	mpp := (mstatus >> csr.MPPShift) & csr.MPPMask
	c.Mode = mpp

	mpie := (mstatus >> csr.MPIEShift) & 1
	mstatus = (mstatus &^ (uint64(1) << csr.MIEShift)) | (mpie << csr.MIEShift)
	mstatus |= 1 << csr.MPIEShift
	mstatus &^= csr.MPPMask << csr.MPPShift
	if mpp != Machine {
		mstatus &^= uint64(1) << csr.MPRVShift
	}
	c.Csr.Store(csr.Mstatus, mstatus)

	return c.Csr.Load(csr.Mepc) &^ 0b11
}

func (c *Cpu) sret() uint64 {
	sstatus := c.Csr.Load(csr.Sstatus)
	spp := (sstatus >> csr.SPPShift) & 0b1
	c.Mode = spp

	spie := (sstatus >> csr.SPIEShift) & 1
	sstatus = (sstatus &^ (uint64(1) << csr.SIEShift)) | (spie << csr.SIEShift)
	sstatus |= 1 << csr.SPIEShift
	sstatus &^= uint64(0b1) << csr.SPPShift
	c.Csr.Store(csr.Sstatus, sstatus)

	return c.Csr.Load(csr.Sepc) &^ 0b11
}
