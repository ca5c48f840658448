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
	"rv64emu/emu/virtio"
)

// TestVirtioReadScenario builds a T_IN request with sector=0,
// data_addr=0x8010_0000, len=8 against a disk with byte pattern
// i -> i mod 256, and checks the DRAM destination and used.idx advance.
func TestVirtioReadScenario(t *testing.T) {
	disk := make([]byte, 4096)
	for i := range disk {
		disk[i] = byte(i % 256)
	}
	c, closeUart := newTestCpu(nil, disk)
	defer closeUart()

	const guestPageSize = 4096
	// queuePFN chosen so the virtqueue lands inside DRAM, as real guest
	// memory would place it.
	const queuePFN = dram.Base/guestPageSize + 16
	descBase := uint64(queuePFN) * guestPageSize
	availBase := descBase + 16*virtio.QueueSize
	usedBase := descBase + guestPageSize

	if err := c.Bus.Virtio.Store(virtio.Base+0x028, 32, guestPageSize); err != nil { // guest-page-size
		t.Fatal(err)
	}
	if err := c.Bus.Virtio.Store(virtio.Base+0x040, 32, queuePFN); err != nil { // queue-pfn
		t.Fatal(err)
	}

	const dataAddr = uint64(0x8010_0000)
	const dataLen = 8

	// Descriptor 0: request header.
	reqAddr := dram.Base + 0x1000
	mustStore32(t, c, reqAddr, uint64(virtio.TIn)) // iotype
	mustStore64(t, c, reqAddr+8, 64, 0)             // sector = 0
	mustStore64(t, c, descBase+16*0, 64, reqAddr)   // desc0.addr
	mustStore32(t, c, descBase+16*0+8, 16)          // desc0.len (unused)
	mustStore16(t, c, descBase+16*0+14, 1)          // desc0.next = 1

	// Descriptor 1: data buffer.
	mustStore64(t, c, descBase+16*1, 64, dataAddr)
	mustStore32(t, c, descBase+16*1+8, dataLen)

	// Available ring: idx=0, ring[0]=0 (head descriptor index).
	mustStore16(t, c, availBase+2, 0)
	mustStore16(t, c, availBase+4, 0)

	if err := c.Bus.Virtio.Store(virtio.Base+0x050, 32, 0); err != nil { // queue_notify kick
		t.Fatal(err)
	}

	c.driveDiskRequest()

	for i := uint64(0); i < dataLen; i++ {
		v, err := c.Bus.Load(dataAddr+i, 8)
		if err != nil {
			t.Fatal(err)
		}
		if v != i {
			t.Fatalf("byte %d = %d, want %d", i, v, i)
		}
	}

	usedIdx, err := c.Bus.Load(usedBase+2, 16)
	if err != nil {
		t.Fatal(err)
	}
	if usedIdx != 1 {
		t.Fatalf("used.idx = %d, want 1", usedIdx)
	}
}

func mustStore64(t *testing.T, c *Cpu, addr uint64, size uint64, value uint64) {
	t.Helper()
	if err := c.Bus.Store(addr, size, value); err != nil {
		t.Fatal(err)
	}
}

func mustStore32(t *testing.T, c *Cpu, addr uint64, value uint64) {
	t.Helper()
	if err := c.Bus.Store(addr, 32, value); err != nil {
		t.Fatal(err)
	}
}

func mustStore16(t *testing.T, c *Cpu, addr uint64, value uint64) {
	t.Helper()
	if err := c.Bus.Store(addr, 16, value); err != nil {
		t.Fatal(err)
	}
}
