/*
rv64emu - CPU: virtio-block request execution over the virtqueue.

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

// driveDiskRequest walks the single virtqueue's descriptor chain and
// performs the requested disk IO. This plays the role the reference
// codebase's channel layer fills when it walks a CCW chain to move data
// between a device and memory: a fixed two-descriptor chain (request
// header, then data buffer) stands in for an arbitrary CCW chain.
package cpu

import "rv64emu/emu/virtio"

const sectorSize = 512

func (c *Cpu) driveDiskRequest() {
	v := c.Bus.Virtio

	descBase := v.DescAddr()
	availBase := descBase + 16*virtio.QueueSize
	usedBase := descBase + pageSize

	availIdx, _ := c.Bus.Load(availBase+2, 16)
	ringOffset := availBase + 4 + (availIdx%virtio.QueueSize)*2
	head, _ := c.Bus.Load(ringOffset, 16)

	desc0 := descBase + 16*head
	reqAddr, _ := c.Bus.Load(desc0, 64)
	next0, _ := c.Bus.Load(desc0+14, 16)

	iotype, _ := c.Bus.Load(reqAddr, 32)
	sector, _ := c.Bus.Load(reqAddr+8, 64)

	desc1 := descBase + 16*next0
	dataAddr, _ := c.Bus.Load(desc1, 64)
	dataLen, _ := c.Bus.Load(desc1+8, 32)

	switch iotype {
	case uint64(virtio.TIn):
		for i := uint64(0); i < dataLen; i++ {
			b := v.ReadDisk(sector*sectorSize + i)
			_ = c.Bus.Store(dataAddr+i, 8, uint64(b))
		}
	case uint64(virtio.TOut):
		for i := uint64(0); i < dataLen; i++ {
			b, _ := c.Bus.Load(dataAddr+i, 8)
			v.WriteDisk(sector*sectorSize+i, uint8(b))
		}
	}

	newID := v.GetNewID()
	_ = c.Bus.Store(usedBase+2, 16, newID%virtio.QueueSize)
}
