/*
rv64emu - Monitor: interactive debug console.

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

// Package monitor is the interactive debug console: a liner-backed REPL
// reading "regs"/"mem"/"step"/"continue"/"break"/"disasm"/"quit" commands
// against a running machine. The prefix-matched command table and the
// Ctrl-C/EOF handling are grounded on the reference codebase's console
// reader and command parser.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"rv64emu/emu/disasm"
	"rv64emu/emu/machine"
)

type cmd struct {
	name    string
	min     int
	process func(m *Monitor, args []string) (bool, error)
}

var cmdList = []cmd{
	{"regs", 1, cmdRegs},
	{"mem", 1, cmdMem},
	{"step", 1, cmdStep},
	{"continue", 1, cmdContinue},
	{"break", 1, cmdBreak},
	{"disasm", 1, cmdDisasm},
	{"quit", 1, cmdQuit},
}

// Monitor drives a machine under interactive control.
type Monitor struct {
	m          *machine.Machine
	breakpoint uint64
	hasBreak   bool
}

// New creates a monitor bound to m.
func New(m *machine.Machine) *Monitor {
	return &Monitor{m: m}
}

// Run starts the console REPL and blocks until the user quits.
func (mon *Monitor) Run() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("rv64> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			slog.Error("monitor: error reading line", "error", err)
			return
		}
		line.AppendHistory(input)

		quit, err := mon.process(input)
		if err != nil {
			fmt.Println("error:", err)
		}
		if quit {
			return
		}
	}
}

func (mon *Monitor) process(input string) (bool, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := fields[0], fields[1:]

	var match *cmd
	for i := range cmdList {
		c := &cmdList[i]
		if matchCommand(c, name) {
			if match != nil {
				return false, fmt.Errorf("ambiguous command: %s", name)
			}
			match = c
		}
	}
	if match == nil {
		return false, fmt.Errorf("unknown command: %s", name)
	}
	return match.process(mon, args)
}

func matchCommand(c *cmd, name string) bool {
	if len(name) < c.min || len(name) > len(c.name) {
		return false
	}
	return c.name[:len(name)] == name
}

func cmdRegs(mon *Monitor, _ []string) (bool, error) {
	c := mon.m.Cpu
	for i := 0; i < 32; i += 4 {
		fmt.Printf("x%-2d=%016x  x%-2d=%016x  x%-2d=%016x  x%-2d=%016x\n",
			i, c.Regs[i], i+1, c.Regs[i+1], i+2, c.Regs[i+2], i+3, c.Regs[i+3])
	}
	fmt.Printf("pc=%016x mode=%d\n", c.Pc, c.Mode)
	return false, nil
}

func cmdMem(mon *Monitor, args []string) (bool, error) {
	if len(args) < 1 {
		return false, errors.New("usage: mem <addr> [count]")
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 64)
	if err != nil {
		return false, fmt.Errorf("bad address: %w", err)
	}
	count := uint64(16)
	if len(args) > 1 {
		n, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return false, fmt.Errorf("bad count: %w", err)
		}
		count = n
	}
	for i := uint64(0); i < count; i += 8 {
		v, err := mon.m.Bus.Load(addr+i, 64)
		if err != nil {
			return false, err
		}
		fmt.Printf("%016x: %016x\n", addr+i, v)
	}
	return false, nil
}

func cmdStep(mon *Monitor, args []string) (bool, error) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("bad step count: %w", err)
		}
		n = v
	}
	for i := 0; i < n; i++ {
		if err := mon.m.Step(); err != nil {
			return false, fmt.Errorf("stopped after %d step(s): %w", i+1, err)
		}
	}
	return false, nil
}

func cmdContinue(mon *Monitor, _ []string) (bool, error) {
	ctx := context.Background()
	for {
		if mon.hasBreak && mon.m.Cpu.Pc == mon.breakpoint {
			fmt.Printf("breakpoint hit at %016x\n", mon.breakpoint)
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, nil
		default:
		}
		if err := mon.m.Step(); err != nil {
			return false, err
		}
	}
}

func cmdBreak(mon *Monitor, args []string) (bool, error) {
	if len(args) < 1 || args[0] == "clear" {
		mon.hasBreak = false
		fmt.Println("breakpoint cleared")
		return false, nil
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 64)
	if err != nil {
		return false, fmt.Errorf("bad address: %w", err)
	}
	mon.breakpoint = addr
	mon.hasBreak = true
	return false, nil
}

func cmdDisasm(mon *Monitor, args []string) (bool, error) {
	addr := mon.m.Cpu.Pc
	if len(args) > 0 {
		a, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 64)
		if err != nil {
			return false, fmt.Errorf("bad address: %w", err)
		}
		addr = a
	}
	count := 10
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return false, fmt.Errorf("bad count: %w", err)
		}
		count = n
	}
	for i := 0; i < count; i++ {
		raw, err := mon.m.Bus.Fetch(addr)
		if err != nil {
			return false, err
		}
		fmt.Printf("%016x: %s\n", addr, disasm.Format(uint32(raw)))
		addr += 4
	}
	return false, nil
}

func cmdQuit(_ *Monitor, _ []string) (bool, error) {
	return true, nil
}
