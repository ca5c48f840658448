/*
rv64emu - Main process.

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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"rv64emu/emu/machine"
	"rv64emu/monitor"
	"rv64emu/util/rvlog"
)

func main() {
	optDebug := getopt.BoolLong("debug", 'd', "Enable debug-level logging")
	optVerbose := getopt.BoolLong("verbose", 'v', "Mirror log output to stderr")
	optMonitor := getopt.BoolLong("monitor", 'm', "Start the interactive monitor instead of free-running")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file path")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.SetParameters("kernel-image [disk-image]")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "rv64emu: missing kernel image")
		getopt.Usage()
		os.Exit(1)
	}

	logOut := os.Stderr
	if *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "rv64emu: cannot create log file:", err)
			os.Exit(1)
		}
		logOut = f
	}

	level := slog.LevelInfo
	if *optDebug {
		level = slog.LevelDebug
	}
	rvlog.Install(rvlog.New(logOut, level, *optVerbose))

	code, err := os.ReadFile(args[0])
	if err != nil {
		slog.Error("failed to read kernel image", "path", args[0], "error", err)
		os.Exit(1)
	}

	var disk []byte
	if len(args) > 1 {
		disk, err = os.ReadFile(args[1])
		if err != nil {
			slog.Error("failed to read disk image", "path", args[1], "error", err)
			os.Exit(1)
		}
	}

	m := machine.New(code, disk, os.Stdin, os.Stdout)
	defer m.Shutdown()

	slog.Info("rv64emu started", "kernel", args[0])

	if *optMonitor {
		monitor.New(m).Run()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("shutting down on signal")
		cancel()
	}()

	if err := m.Run(ctx); err != nil {
		slog.Error("fatal trap", "error", err, "regs", m.Cpu.RegSnapshot())
		os.Exit(1)
	}
}
