/*
rv64emu - Trap: exception and interrupt variants.

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

// Package trap defines the synchronous exception and asynchronous interrupt
// variants the CPU can raise, each carrying the trap value that ends up in
// *tval. The reference codebase represents its program-check conditions the
// same way: a small tagged value with a numeric code and an associated
// operand, raised from deep inside instruction execution and handled once at
// the top of the drive loop.
package trap

// Exception is a synchronous trap triggered by the instruction currently
// executing.
type Exception struct {
	code  uint64
	value uint64
}

// Exception codes, fixed by the privileged architecture.
const (
	codeInstructionAddrMisaligned = 0
	codeInstructionAccessFault    = 1
	codeIllegalInstruction        = 2
	codeBreakpoint                = 3
	codeLoadAccessMisaligned      = 4
	codeLoadAccessFault           = 5
	codeStoreAMOAddrMisaligned    = 6
	codeStoreAMOAccessFault       = 7
	codeEnvCallFromUMode          = 8
	codeEnvCallFromSMode          = 9
	codeEnvCallFromMMode          = 11
	codeInstructionPageFault      = 12
	codeLoadPageFault             = 13
	codeStoreAMOPageFault         = 15
)

// Interrupt bit is set in the cause value for every asynchronous trap.
const interruptBit = uint64(1) << 63

// Interrupt codes, fixed by the privileged architecture.
const (
	codeSSI = 1
	codeMSI = 3
	codeSTI = 5
	codeMTI = 7
	codeSEI = 9
	codeMEI = 11
)

func InstructionAddrMisaligned(value uint64) Exception { return Exception{codeInstructionAddrMisaligned, value} }
func InstructionAccessFault(value uint64) Exception     { return Exception{codeInstructionAccessFault, value} }
func IllegalInstruction(value uint64) Exception         { return Exception{codeIllegalInstruction, value} }
func Breakpoint(value uint64) Exception                 { return Exception{codeBreakpoint, value} }
func LoadAccessMisaligned(value uint64) Exception        { return Exception{codeLoadAccessMisaligned, value} }
func LoadAccessFault(value uint64) Exception             { return Exception{codeLoadAccessFault, value} }
func StoreAMOAddrMisaligned(value uint64) Exception      { return Exception{codeStoreAMOAddrMisaligned, value} }
func StoreAMOAccessFault(value uint64) Exception         { return Exception{codeStoreAMOAccessFault, value} }
func EnvCallFromUMode(value uint64) Exception            { return Exception{codeEnvCallFromUMode, value} }
func EnvCallFromSMode(value uint64) Exception            { return Exception{codeEnvCallFromSMode, value} }
func EnvCallFromMMode(value uint64) Exception            { return Exception{codeEnvCallFromMMode, value} }
func InstructionPageFault(value uint64) Exception        { return Exception{codeInstructionPageFault, value} }
func LoadPageFault(value uint64) Exception               { return Exception{codeLoadPageFault, value} }
func StoreAMOPageFault(value uint64) Exception           { return Exception{codeStoreAMOPageFault, value} }

// Code returns the numeric exception code, as stored in *cause.
func (e Exception) Code() uint64 { return e.code }

// Value returns the trap value, as stored in *tval.
func (e Exception) Value() uint64 { return e.value }

// Fatal reports whether the drive loop must terminate the emulator on this
// exception rather than deliver it to the guest.
func (e Exception) Fatal() bool {
	switch e.code {
	case codeInstructionAddrMisaligned, codeInstructionAccessFault, codeIllegalInstruction,
		codeLoadAccessFault, codeStoreAMOAddrMisaligned, codeStoreAMOAccessFault:
		return true
	default:
		return false
	}
}

// Error implements the error interface so an Exception can be returned and
// checked for anywhere a Go function ordinarily returns an error.
func (e Exception) Error() string { return e.String() }

// String names the exception for diagnostics.
func (e Exception) String() string {
	names := map[uint64]string{
		codeInstructionAddrMisaligned: "instruction-address-misaligned",
		codeInstructionAccessFault:    "instruction-access-fault",
		codeIllegalInstruction:        "illegal-instruction",
		codeBreakpoint:                "breakpoint",
		codeLoadAccessMisaligned:      "load-address-misaligned",
		codeLoadAccessFault:           "load-access-fault",
		codeStoreAMOAddrMisaligned:    "store/amo-address-misaligned",
		codeStoreAMOAccessFault:       "store/amo-access-fault",
		codeEnvCallFromUMode:          "environment-call-from-u-mode",
		codeEnvCallFromSMode:          "environment-call-from-s-mode",
		codeEnvCallFromMMode:          "environment-call-from-m-mode",
		codeInstructionPageFault:      "instruction-page-fault",
		codeLoadPageFault:             "load-page-fault",
		codeStoreAMOPageFault:         "store/amo-page-fault",
	}
	if n, ok := names[e.code]; ok {
		return n
	}
	return "unknown-exception"
}

// Interrupt is an asynchronous trap triggered by a device.
type Interrupt struct {
	code uint64
}

func SSI() Interrupt { return Interrupt{codeSSI} }
func MSI() Interrupt { return Interrupt{codeMSI} }
func STI() Interrupt { return Interrupt{codeSTI} }
func MTI() Interrupt { return Interrupt{codeMTI} }
func SEI() Interrupt { return Interrupt{codeSEI} }
func MEI() Interrupt { return Interrupt{codeMEI} }

// Code returns the numeric interrupt code with the interrupt bit set, as
// stored in *cause.
func (i Interrupt) Code() uint64 { return i.code | interruptBit }

// Value returns 0: interrupts carry no trap value.
func (i Interrupt) Value() uint64 { return 0 }

// BareCode returns the interrupt-bit-stripped code, used to index mie/mip
// and to compute a vectored trap-handler address.
func (i Interrupt) BareCode() uint64 { return i.code }
