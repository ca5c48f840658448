/*
rv64emu - Virtio-block: legacy virtio-mmio block device.

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

// Package virtio models the legacy virtio-mmio register file for a single
// block device queue. The descriptor-chain walk that actually performs disk
// IO lives in the cpu package's drive loop, the way the reference codebase's
// channel package walks a CCW chain while the device itself only exposes
// sense/status plumbing.
package virtio

import "fmt"

const (
	// Base is the physical base address of the virtio-mmio register range.
	Base uint64 = 0x1000_1000

	// End is the last physical address in the virtio-mmio register range.
	End uint64 = 0x1000_1fff

	// QueueSize is the fixed number of descriptors in the single virtqueue.
	QueueSize uint64 = 8

	// Legacy register offsets.
	regMagic           = 0x000
	regVersion         = 0x004
	regDeviceID        = 0x008
	regVendorID        = 0x00c
	regDeviceFeatures  = 0x010
	regDriverFeatures  = 0x020
	regGuestPageSize   = 0x028
	regQueueSel        = 0x030
	regQueueNumMax     = 0x034
	regQueueNum        = 0x038
	regQueueAlign      = 0x03c
	regQueuePFN        = 0x040
	regQueueNotify     = 0x050
	regInterruptStatus = 0x060
	regInterruptAck    = 0x064
	regStatus          = 0x070

	// TIn and TOut are the supported request types.
	TIn  uint32 = 0
	TOut uint32 = 1

	numQueues uint64 = 1 // This device exposes exactly one queue.
)

// Block is a legacy virtio-mmio block device.
type Block struct {
	id              uint64
	driverFeatures  uint32
	guestPageSize   uint32
	queueSel        uint32
	queueNum        uint32
	queuePFN        uint32
	queueNotify     uint32
	interruptStatus uint32
	interruptAck    uint32
	status          uint32

	disk []byte
}

// New creates a virtio-block device backed by disk.
func New(disk []byte) *Block {
	return &Block{
		guestPageSize: 4096,
		queueNotify:   uint32(numQueues),
		disk:          disk,
	}
}

// Load reads a virtio-mmio register. size must be 32.
func (b *Block) Load(addr uint64, size uint64) (uint64, error) {
	if size != 32 {
		return 0, fmt.Errorf("virtio: access size must be 32, got %d", size)
	}
	off := addr - Base
	switch off {
	case regMagic:
		return 0x74726976, nil // "virt"
	case regVersion:
		return 1, nil // legacy interface
	case regDeviceID:
		return 2, nil // block device
	case regVendorID:
		return 0x554d4551, nil // "QEMU"
	case regDeviceFeatures:
		return 0, nil
	case regDriverFeatures:
		return uint64(b.driverFeatures), nil
	case regQueueNumMax:
		return QueueSize, nil
	case regQueuePFN:
		return uint64(b.queuePFN), nil
	case regInterruptStatus:
		return uint64(b.interruptStatus), nil
	case regStatus:
		return uint64(b.status), nil
	default:
		return 0, nil
	}
}

// Store writes a virtio-mmio register. size must be 32.
func (b *Block) Store(addr uint64, size uint64, value uint64) error {
	if size != 32 {
		return fmt.Errorf("virtio: access size must be 32, got %d", size)
	}
	off := addr - Base
	v := uint32(value)
	switch off {
	case regDriverFeatures:
		b.driverFeatures = v
	case regGuestPageSize:
		b.guestPageSize = v
	case regQueueSel:
		b.queueSel = v
	case regQueueNum:
		b.queueNum = v
	case regQueueAlign:
		// Alignment is fixed by spec layout; accepted and ignored.
	case regQueuePFN:
		b.queuePFN = v
	case regQueueNotify:
		b.queueNotify = v
	case regInterruptAck:
		b.interruptAck = v
		b.interruptStatus &^= v
	case regStatus:
		b.status = v
	}
	return nil
}

// IsInterrupting reports (and clears) whether the driver kicked a queue.
func (b *Block) IsInterrupting() bool {
	if b.queueNotify != uint32(numQueues) {
		b.queueNotify = uint32(numQueues)
		return true
	}
	return false
}

// DescAddr returns the physical base address of the selected virtqueue.
func (b *Block) DescAddr() uint64 {
	return uint64(b.queuePFN) * uint64(b.guestPageSize)
}

// GetNewID returns an incrementing id used to populate the used ring.
func (b *Block) GetNewID() uint64 {
	b.id++
	return b.id
}

// ReadDisk reads a single byte from the disk image.
func (b *Block) ReadDisk(offset uint64) uint8 {
	if offset >= uint64(len(b.disk)) {
		return 0
	}
	return b.disk[offset]
}

// WriteDisk writes a single byte to the disk image.
func (b *Block) WriteDisk(offset uint64, value uint8) {
	if offset >= uint64(len(b.disk)) {
		return
	}
	b.disk[offset] = value
}
