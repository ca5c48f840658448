/*
rv64emu - CPU: Sv39 three-level page-table translation.

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

// This mirrors the reference codebase's DAT (dynamic address translation)
// walk in shape: a root-table-plus-level loop that assembles a physical
// address from a chain of table lookups, generalized here to Sv39's three
// levels with superpage short-circuiting instead of S/370's two.
package cpu

import "rv64emu/emu/trap"

// AccessType distinguishes the three kinds of memory access a translation
// can be performed for, each with its own page-fault variant.
type AccessType int

const (
	AccessInstruction AccessType = iota
	AccessLoad
	AccessStore
)

const ppnMask = (uint64(1) << 44) - 1

func pageFault(at AccessType, vaddr uint64) error {
	switch at {
	case AccessInstruction:
		return trap.InstructionPageFault(vaddr)
	case AccessLoad:
		return trap.LoadPageFault(vaddr)
	default:
		return trap.StoreAMOPageFault(vaddr)
	}
}

// accessFault reports a PTE fetch that landed outside any device's range,
// distinct from a page fault raised by the PTE's own permission bits.
func accessFault(at AccessType, vaddr uint64) error {
	switch at {
	case AccessInstruction:
		return trap.InstructionAccessFault(vaddr)
	case AccessLoad:
		return trap.LoadAccessFault(vaddr)
	default:
		return trap.StoreAMOAccessFault(vaddr)
	}
}

// translate converts a virtual address to a physical one via the Sv39 walk,
// or returns vaddr unchanged if paging is disabled.
func (c *Cpu) translate(vaddr uint64, at AccessType) (uint64, error) {
	if !c.PagingEnabled {
		return vaddr, nil
	}

	offset := vaddr & 0xfff
	vpn := [3]uint64{
		(vaddr >> 12) & 0x1ff,
		(vaddr >> 21) & 0x1ff,
		(vaddr >> 30) & 0x1ff,
	}

	a := c.RootPageTable
	var pte uint64
	i := 2
	for {
		pteAddr := a + vpn[i]*8
		raw, err := c.Bus.Load(pteAddr, 64)
		if err != nil {
			return 0, accessFault(at, vaddr)
		}
		pte = raw

		v := pte & 1
		r := (pte >> 1) & 1
		w := (pte >> 2) & 1
		x := (pte >> 3) & 1
		if v == 0 || (r == 0 && w == 1) {
			return 0, pageFault(at, vaddr)
		}
		if r == 1 || x == 1 {
			break
		}

		a = ((pte >> 10) & ppnMask) * pageSize
		i--
		if i < 0 {
			return 0, pageFault(at, vaddr)
		}
	}

	ppn := (pte >> 10) & ppnMask
	switch i {
	case 0:
		return (ppn << 12) | offset, nil
	case 1:
		ppn1 := (ppn >> 9) & 0x1ff
		ppn2 := (ppn >> 18) & 0x3ff_ffff
		return (ppn2 << 30) | (ppn1 << 21) | (vpn[0] << 12) | offset, nil
	default: // i == 2, 1 GiB superpage
		ppn2 := (ppn >> 18) & 0x3ff_ffff
		return (ppn2 << 30) | (vpn[1] << 21) | (vpn[0] << 12) | offset, nil
	}
}
