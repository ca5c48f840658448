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

	"rv64emu/emu/csr"
	"rv64emu/emu/dram"
	"rv64emu/emu/trap"
)

// TestSv39SinglePageScenario builds a single valid PTE at all three levels
// mapping VPN 0x012_345 to PPN 0x0000_0000_ABCDE with R=1, then checks
// translate(0x0000_0000_1234_5678, Load) == 0xABCDE678.
func TestSv39SinglePageScenario(t *testing.T) {
	c, closeUart := newTestCpu(nil, nil)
	defer closeUart()

	const vaddr = uint64(0x0000_0000_1234_5678)
	vpn0 := (vaddr >> 12) & 0x1ff
	vpn1 := (vaddr >> 21) & 0x1ff
	vpn2 := (vaddr >> 30) & 0x1ff

	root := dram.Base + 0x10000
	l1 := dram.Base + 0x11000
	l0 := dram.Base + 0x12000

	const ppn = uint64(0xABCDE)
	leafPTE := (ppn << 10) | 0b0011 // V=1, R=1

	writePTE := func(tableBase, vpn, value uint64) {
		_ = c.Bus.Store(tableBase+vpn*8, 64, value)
	}

	writePTE(root, vpn2, ((l1>>12)<<10)|1) // non-leaf, V=1, R=W=X=0
	writePTE(l1, vpn1, ((l0>>12)<<10)|1)   // non-leaf
	writePTE(l0, vpn0, leafPTE)

	c.RootPageTable = root
	c.PagingEnabled = true

	paddr, err := c.translate(vaddr, AccessLoad)
	if err != nil {
		t.Fatal(err)
	}
	if want := uint64(0xABCDE678); paddr != want {
		t.Fatalf("paddr = %#x, want %#x", paddr, want)
	}
}

// TestSv39TwoMiBSuperpage builds a leaf PTE at the middle (level-1) table,
// so the walk stops after two levels and assembles the physical address
// from ppn[2]/ppn[1] plus vpn[0] and the page offset.
func TestSv39TwoMiBSuperpage(t *testing.T) {
	c, closeUart := newTestCpu(nil, nil)
	defer closeUart()

	const vaddr = uint64(0x0000_0000_4020_1800)
	vpn0 := (vaddr >> 12) & 0x1ff
	vpn1 := (vaddr >> 21) & 0x1ff
	vpn2 := (vaddr >> 30) & 0x1ff

	root := dram.Base + 0x10000
	l1 := dram.Base + 0x11000

	const ppn = uint64(0x0000_3FF) // low bits land in ppn[1]/ppn[0]
	leafPTE := (ppn << 10) | 0b0011 // V=1, R=1: leaf at level 1

	writePTE := func(tableBase, vpn, value uint64) {
		_ = c.Bus.Store(tableBase+vpn*8, 64, value)
	}

	writePTE(root, vpn2, ((l1>>12)<<10)|1) // non-leaf
	writePTE(l1, vpn1, leafPTE)

	c.RootPageTable = root
	c.PagingEnabled = true

	paddr, err := c.translate(vaddr, AccessLoad)
	if err != nil {
		t.Fatal(err)
	}

	ppn1 := (ppn >> 9) & 0x1ff
	ppn2 := (ppn >> 18) & 0x3ff_ffff
	want := (ppn2 << 30) | (ppn1 << 21) | (vpn0 << 12) | (vaddr & 0xfff)
	if paddr != want {
		t.Fatalf("paddr = %#x, want %#x", paddr, want)
	}
}

// TestSv39OneGiBSuperpage builds a leaf PTE directly at the root (level-2)
// table, so the walk stops after a single level.
func TestSv39OneGiBSuperpage(t *testing.T) {
	c, closeUart := newTestCpu(nil, nil)
	defer closeUart()

	const vaddr = uint64(0x0000_0040_2010_1800)
	vpn0 := (vaddr >> 12) & 0x1ff
	vpn1 := (vaddr >> 21) & 0x1ff
	vpn2 := (vaddr >> 30) & 0x1ff

	root := dram.Base + 0x10000
	const ppn = uint64(0x3ff_ffff) // ppn[0], ppn[1] and the low 8 bits of ppn[2]
	leafPTE := (ppn << 10) | 0b0011 // V=1, R=1: leaf at the root level

	_ = c.Bus.Store(root+vpn2*8, 64, leafPTE)

	c.RootPageTable = root
	c.PagingEnabled = true

	paddr, err := c.translate(vaddr, AccessLoad)
	if err != nil {
		t.Fatal(err)
	}

	ppn2 := (ppn >> 18) & 0x3ff_ffff
	want := (ppn2 << 30) | (vpn1 << 21) | (vpn0 << 12) | (vaddr & 0xfff)
	if paddr != want {
		t.Fatalf("paddr = %#x, want %#x", paddr, want)
	}
}

func TestSv39PagingDisabledIsIdentity(t *testing.T) {
	c, closeUart := newTestCpu(nil, nil)
	defer closeUart()

	const vaddr = uint64(0x1234)
	got, err := c.translate(vaddr, AccessLoad)
	if err != nil {
		t.Fatal(err)
	}
	if got != vaddr {
		t.Fatalf("got %#x, want identity %#x", got, vaddr)
	}
}

func TestSv39InvalidPTERaisesPageFault(t *testing.T) {
	c, closeUart := newTestCpu(nil, nil)
	defer closeUart()

	root := dram.Base + 0x10000
	c.RootPageTable = root
	c.PagingEnabled = true
	// Leave every PTE zero (V=0): the walk must fault at the top level.
	_, err := c.translate(0x1234_5678, AccessLoad)
	if err == nil {
		t.Fatal("expected page fault for an all-zero page table")
	}
	exc, ok := err.(trap.Exception)
	if !ok {
		t.Fatalf("err = %T, want trap.Exception", err)
	}
	if exc.Code() != trap.LoadPageFault(0).Code() {
		t.Fatalf("code = %d, want load-page-fault", exc.Code())
	}
}

// TestSv39OutOfRangePTEPropagatesAccessFault points the root page table
// at an address outside every device's range, so the first PTE fetch
// fails: the walk must raise a load-access-fault, not a page
// fault, since the failure is in fetching the PTE itself rather than in
// the PTE's own permission bits.
func TestSv39OutOfRangePTEPropagatesAccessFault(t *testing.T) {
	c, closeUart := newTestCpu(nil, nil)
	defer closeUart()

	// An address with no backing device at all.
	c.RootPageTable = 0xdead_0000
	c.PagingEnabled = true

	_, err := c.translate(0x1234_5678, AccessLoad)
	if err == nil {
		t.Fatal("expected load-access-fault for an unmapped PTE address")
	}
	exc, ok := err.(trap.Exception)
	if !ok {
		t.Fatalf("err = %T, want trap.Exception", err)
	}
	if exc.Code() != trap.LoadAccessFault(0).Code() {
		t.Fatalf("code = %d, want load-access-fault", exc.Code())
	}
}

func TestUpdatePagingFromSatp(t *testing.T) {
	c, closeUart := newTestCpu(nil, nil)
	defer closeUart()

	ppn := uint64(0x1234)
	satp := (uint64(8) << 60) | ppn
	c.Csr.Store(csr.Satp, satp)
	c.updatePaging()

	if !c.PagingEnabled {
		t.Fatal("expected paging enabled for satp mode 8")
	}
	if want := ppn * pageSize; c.RootPageTable != want {
		t.Fatalf("root page table = %#x, want %#x", c.RootPageTable, want)
	}
}
