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

package uart

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestHelloUARTOutput(t *testing.T) {
	var out bytes.Buffer
	u := New(io.LimitReader(bytes.NewReader(nil), 0), &out)
	defer u.Close()

	for _, b := range []byte("Hi\n") {
		if err := u.Store(Base, 8, uint64(b)); err != nil {
			t.Fatal(err)
		}
	}
	if out.String() != "Hi\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestReceiveSetsInterruptAndRX(t *testing.T) {
	in := bytes.NewBufferString("A")
	var out bytes.Buffer
	u := New(in, &out)
	defer u.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v, _ := u.Load(Base+lsr, 8)
		if uint8(v)&lsrRX != 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if !u.IsInterrupting() {
		t.Fatal("expected interrupt pending after byte received")
	}
	if u.IsInterrupting() {
		t.Fatal("interrupt flag should clear after being observed once")
	}

	v, err := u.Load(Base+rhr, 8)
	if err != nil {
		t.Fatal(err)
	}
	if v != 'A' {
		t.Fatalf("got %x want 'A'", v)
	}

	v, _ = u.Load(Base+lsr, 8)
	if uint8(v)&lsrRX != 0 {
		t.Fatal("LSR.RX should clear after RHR read")
	}
}

func TestAccessSizeMustBeEight(t *testing.T) {
	u := New(bytes.NewReader(nil), &bytes.Buffer{})
	defer u.Close()
	if _, err := u.Load(Base, 16); err == nil {
		t.Fatal("expected error for non-byte access")
	}
	if err := u.Store(Base, 32, 0); err == nil {
		t.Fatal("expected error for non-byte access")
	}
}
