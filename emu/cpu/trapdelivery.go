/*
rv64emu - CPU: exception and interrupt entry.

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

// Trap entry rewrites pc, mode and the STATUS/CAUSE/TVAL/EPC quartet the
// same way the reference codebase's storePSW assembles a fresh PSW from a
// vector number and an interrupt code; here the "vector" is computed from
// delegation instead of being a fixed low-memory slot.
package cpu

import (
	"rv64emu/emu/csr"
	"rv64emu/emu/trap"
)

type trapRegs struct {
	status, tvec, cause, tval, epc uint64
	ieShift, pieShift, ppShift     uint64
	ppMask                         uint64
}

func (c *Cpu) trapRegsFor(target uint64) trapRegs {
	if target == Supervisor {
		return trapRegs{
			status: csr.Sstatus, tvec: csr.Stvec, cause: csr.Scause, tval: csr.Stval, epc: csr.Sepc,
			ieShift: csr.SIEShift, pieShift: csr.SPIEShift, ppShift: csr.SPPShift, ppMask: 0b1,
		}
	}
	return trapRegs{
		status: csr.Mstatus, tvec: csr.Mtvec, cause: csr.Mcause, tval: csr.Mtval, epc: csr.Mepc,
		ieShift: csr.MIEShift, pieShift: csr.MPIEShift, ppShift: csr.MPPShift, ppMask: csr.MPPMask,
	}
}

func (c *Cpu) enterTrapStatus(r trapRegs, prevMode uint64) {
	status := c.Csr.Load(r.status)
	ie := (status >> r.ieShift) & 1
	status &^= 1 << r.pieShift
	status |= ie << r.pieShift
	status &^= 1 << r.ieShift
	status &^= r.ppMask << r.ppShift
	status |= (prevMode & r.ppMask) << r.ppShift
	c.Csr.Store(r.status, status)
}

// HandleException delivers a synchronous exception, per the entry sequence:
// choose target mode via medeleg, rewrite pc from *tvec, and record
// epc/cause/tval before updating STATUS's IE/PIE/PP fields.
func (c *Cpu) HandleException(e trap.Exception) {
	epcVal := c.Pc
	prevMode := c.Mode
	cause := e.Code()

	target := uint64(Machine)
	if prevMode <= Supervisor && c.Csr.IsMedelegated(cause) {
		target = Supervisor
	}
	c.Mode = target

	r := c.trapRegsFor(target)
	c.Pc = c.Csr.Load(r.tvec) &^ 0b11
	c.Csr.Store(r.epc, epcVal)
	c.Csr.Store(r.cause, cause)
	c.Csr.Store(r.tval, e.Value())
	c.enterTrapStatus(r, prevMode)
}

// HandleInterrupt delivers an asynchronous interrupt. It differs from
// exception entry in cause encoding (interrupt bit set), tval (always 0),
// delegation source (mideleg) and honoring the TVEC vectored mode.
func (c *Cpu) HandleInterrupt(i trap.Interrupt) {
	epcVal := c.Pc
	prevMode := c.Mode
	bare := i.BareCode()

	target := uint64(Machine)
	if prevMode <= Supervisor && c.Csr.IsMidelegated(bare) {
		target = Supervisor
	}
	c.Mode = target

	r := c.trapRegsFor(target)
	tvec := c.Csr.Load(r.tvec)
	base := tvec &^ 0b11
	if tvec&0b11 == 1 {
		c.Pc = base + 4*bare
	} else {
		c.Pc = base
	}

	c.Csr.Store(r.epc, epcVal)
	c.Csr.Store(r.cause, i.Code())
	c.Csr.Store(r.tval, 0)
	c.enterTrapStatus(r, prevMode)
}

var interruptPriority = []struct {
	bit uint64
	mk  func() trap.Interrupt
}{
	{csr.MEIPBit, trap.MEI},
	{csr.MSIPBit, trap.MSI},
	{csr.MTIPBit, trap.MTI},
	{csr.SEIPBit, trap.SEI},
	{csr.SSIPBit, trap.SSI},
	{csr.STIPBit, trap.STI},
}

// checkPendingInterrupt runs after every executed instruction: it folds in
// device-asserted interrupt sources, then delivers the highest-priority
// pending interrupt still enabled at the current mode, if any.
func (c *Cpu) checkPendingInterrupt() {
	mstatus := c.Csr.Load(csr.Mstatus)
	if c.Mode == Machine && (mstatus>>csr.MIEShift)&1 == 0 {
		return
	}
	if c.Mode == Supervisor {
		sstatus := c.Csr.Load(csr.Sstatus)
		if (sstatus>>csr.SIEShift)&1 == 0 {
			return
		}
	}

	if c.Bus.Uart.IsInterrupting() {
		c.Bus.Plic.SetClaim(uartIRQ)
		c.Csr.Store(csr.Mip, c.Csr.Load(csr.Mip)|csr.SEIPBit)
	}
	if c.Bus.Virtio.IsInterrupting() {
		c.driveDiskRequest()
		c.Csr.Store(csr.Mip, c.Csr.Load(csr.Mip)|csr.SEIPBit)
	}

	pending := c.Csr.Load(csr.Mie) & c.Csr.Load(csr.Mip)
	for _, o := range interruptPriority {
		if pending&o.bit != 0 {
			c.Csr.Store(csr.Mip, c.Csr.Load(csr.Mip)&^o.bit)
			c.HandleInterrupt(o.mk())
			return
		}
	}
}
