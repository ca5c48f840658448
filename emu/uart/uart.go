/*
rv64emu - UART: 16550-subset serial console.

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

// Package uart models a 16550-subset serial console. A background goroutine
// pulls bytes from the host's input one at a time and hands them to the
// stepper through a mutex/condition-variable-guarded register file, the same
// producer/consumer shape the reference codebase uses for its periodic
// clock goroutine (a wg-guarded loop with a done channel for shutdown).
package uart

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

const (
	// Base is the physical base address of the UART register range.
	Base uint64 = 0x1000_0000

	// End is the last physical address in the UART register range.
	End uint64 = 0x1000_00ff

	rhr = 0 // Receiver holding register, read only.
	thr = 0 // Transmitter holding register, write only.
	lsr = 5 // Line status register.

	lsrRX uint8 = 1 << 0 // Data ready to be read.
	lsrTX uint8 = 1 << 5 // Transmitter ready to accept a byte.
)

// Uart is the emulated serial console.
type Uart struct {
	mu   sync.Mutex
	cond *sync.Cond
	regs [8]uint8
	out  io.Writer

	interrupting atomic.Bool

	wg   sync.WaitGroup
	done chan struct{}
}

// New creates a UART console reading from in and writing to out. The
// receiver goroutine starts immediately and runs until Close is called.
func New(in io.Reader, out io.Writer) *Uart {
	u := &Uart{done: make(chan struct{}), out: out}
	u.cond = sync.NewCond(&u.mu)
	u.regs[lsr] = lsrTX

	u.wg.Add(1)
	go u.receive(in)
	return u
}

// receive reads one byte at a time from in and stores it into RHR,
// blocking on the condition variable while a previous byte is unconsumed.
func (u *Uart) receive(in io.Reader) {
	defer u.wg.Done()
	var b [1]byte
	for {
		n, err := in.Read(b[:])
		if err != nil || n == 0 {
			return
		}
		select {
		case <-u.done:
			return
		default:
		}

		u.mu.Lock()
		for (u.regs[lsr] & lsrRX) != 0 {
			u.cond.Wait()
			select {
			case <-u.done:
				u.mu.Unlock()
				return
			default:
			}
		}
		u.regs[rhr] = b[0]
		u.regs[lsr] |= lsrRX
		u.interrupting.Store(true)
		u.mu.Unlock()
	}
}

// Close stops the receiver goroutine (best effort: a blocked Read on in is
// not interrupted, since stdin has no way to unblock a pending read).
func (u *Uart) Close() {
	close(u.done)
	u.cond.Broadcast()
}

// Load reads a UART register. size must be 8.
func (u *Uart) Load(addr uint64, size uint64) (uint64, error) {
	if size != 8 {
		return 0, fmt.Errorf("uart: access size must be 8, got %d", size)
	}
	off := addr - Base
	u.mu.Lock()
	defer u.mu.Unlock()
	if off == rhr {
		v := u.regs[rhr]
		u.regs[lsr] &^= lsrRX
		u.cond.Signal()
		return uint64(v), nil
	}
	return uint64(u.regs[off]), nil
}

// Store writes a UART register. size must be 8.
func (u *Uart) Store(addr uint64, size uint64, value uint64) error {
	if size != 8 {
		return fmt.Errorf("uart: access size must be 8, got %d", size)
	}
	off := addr - Base
	if off == thr {
		_, err := u.out.Write([]byte{byte(value)})
		return err
	}
	u.mu.Lock()
	u.regs[off] = uint8(value)
	u.mu.Unlock()
	return nil
}

// IsInterrupting atomically reads and clears the interrupt-pending flag.
func (u *Uart) IsInterrupting() bool {
	return u.interrupting.Swap(false)
}
