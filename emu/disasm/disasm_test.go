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

package disasm

import (
	"strings"
	"testing"
)

func TestFormatAddi(t *testing.T) {
	// addi x29, x0, 5
	raw := uint32(5<<20) | (0 << 15) | (0 << 12) | (29 << 7) | 0x13
	got := Format(raw)
	if !strings.Contains(got, "addi") || !strings.Contains(got, "t4") {
		t.Fatalf("Format(addi) = %q", got)
	}
}

func TestFormatAdd(t *testing.T) {
	// add x31, x30, x29
	raw := (29 << 20) | (30 << 15) | (0 << 12) | (31 << 7) | 0x33
	got := Format(uint32(raw))
	if !strings.HasPrefix(got, "add ") {
		t.Fatalf("Format(add) = %q", got)
	}
}

func TestFormatEcallEbreak(t *testing.T) {
	if got := Format(0x00000073); got != "ecall" {
		t.Fatalf("Format(ecall) = %q", got)
	}
	if got := Format(0x00100073); got != "ebreak" {
		t.Fatalf("Format(ebreak) = %q", got)
	}
}

func TestFormatMret(t *testing.T) {
	raw := uint32(0x18<<25) | (2 << 20) | 0x73
	if got := Format(raw); got != "mret" {
		t.Fatalf("Format(mret) = %q", got)
	}
}

func TestFormatUnknownFallsBackToWordDump(t *testing.T) {
	got := Format(0xffffffff)
	if !strings.HasPrefix(got, ".word") {
		t.Fatalf("Format(unknown) = %q, want a .word fallback", got)
	}
}

func TestFormatLoadStore(t *testing.T) {
	// ld x3, 256(x1)
	ld := uint32(256<<20) | (1 << 15) | (3 << 12) | (3 << 7) | 0x03
	got := Format(ld)
	if !strings.Contains(got, "ld") {
		t.Fatalf("Format(ld) = %q", got)
	}
}
