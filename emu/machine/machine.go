/*
rv64emu - Machine: wires the hart and devices into a runnable drive loop.

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

// Package machine owns the devices and the hart for one emulator invocation
// and drives the fetch/execute/interrupt-check loop. Its Run/Shutdown shape
// is grounded on the reference codebase's core package: a loop guarded by
// a done channel, except Run steps the CPU synchronously in the caller's
// goroutine instead of dispatching channel-program packets.
package machine

import (
	"context"
	"io"
	"sync"

	"rv64emu/emu/bus"
	"rv64emu/emu/clint"
	"rv64emu/emu/cpu"
	"rv64emu/emu/dram"
	"rv64emu/emu/plic"
	"rv64emu/emu/uart"
	"rv64emu/emu/virtio"
)

// Machine is a complete emulator instance: one hart plus its bus and
// devices, created once per process from a kernel image and an optional
// disk image.
type Machine struct {
	Cpu *cpu.Cpu
	Bus *bus.Bus

	wg   sync.WaitGroup
	done chan struct{}
}

// New creates a machine. code is the raw little-endian RV64 binary loaded
// at DRAM base; disk is byte-exactly mapped into the virtio-block device.
// in/out connect the emulated UART to the host console.
func New(code []byte, disk []byte, in io.Reader, out io.Writer) *Machine {
	d := dram.New(code)
	c := clint.New()
	p := plic.New()
	u := uart.New(in, out)
	v := virtio.New(disk)
	b := bus.New(d, c, p, u, v)

	return &Machine{
		Cpu:  cpu.New(b),
		Bus:  b,
		done: make(chan struct{}),
	}
}

// Step executes exactly one instruction. A non-nil error is a fatal
// exception and the caller must stop the machine.
func (m *Machine) Step() error {
	return m.Cpu.Step()
}

// Run steps the machine until a fatal exception is raised or ctx is
// cancelled, whichever comes first.
func (m *Machine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.done:
			return nil
		default:
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
}

// Shutdown releases the UART receiver goroutine. Safe to call once, after
// Run has returned or been cancelled.
func (m *Machine) Shutdown() {
	close(m.done)
	m.Bus.Uart.Close()
}
