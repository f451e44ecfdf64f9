// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dm

import (
	"testing"

	"github.com/Thewbi/riscv-openocd-jtag-mock/hart"
	"github.com/Thewbi/riscv-openocd-jtag-mock/loader"
)

func newModule() *Module {
	return New(hart.New(0), loader.NewImage())
}

func TestDMStatusFixedBits(t *testing.T) {
	m := newModule()

	v, ok := m.Read(AddrDMStatus)
	if !ok {
		t.Fatalf("Read(dmstatus) ok = false")
	}

	if (v>>dmstatusAuthenticated)&1 != 1 {
		t.Fatalf("dmstatus.authenticated = 0, want 1 (unconditionally authenticated)")
	}
	if (v>>dmstatusAllHalted)&1 != 1 {
		t.Fatalf("dmstatus.allhalted = 0, want 1")
	}
	if (v>>dmstatusAllResumeAck)&1 != 1 {
		t.Fatalf("dmstatus.allresumeack = 0, want 1")
	}
	if (v>>dmstatusVersionPos)&dmstatusVersionMask != dmstatusVersion {
		t.Fatalf("dmstatus.version = %d, want %d", (v>>dmstatusVersionPos)&dmstatusVersionMask, dmstatusVersion)
	}
}

func TestDMControlHartSelectionProbe(t *testing.T) {
	m := newModule()

	var w uint32
	w |= 1 << dmcontrolDMActive
	w |= 1 << dmcontrolHaSel
	w |= ((1 << dmcontrolHartSelLoWidth) - 1) << dmcontrolHartSelLoPos
	w |= ((1 << dmcontrolHartSelHiWidth) - 1) << dmcontrolHartSelHiPos

	if ok := m.Write(AddrDMControl, w); !ok {
		t.Fatalf("Write(dmcontrol) ok = false")
	}

	got, ok := m.Read(AddrDMControl)
	if !ok {
		t.Fatalf("Read(dmcontrol) ok = false")
	}

	if (got>>dmcontrolHartSelLoPos)&((1<<dmcontrolHartSelLoWidth)-1) != 0 {
		t.Fatalf("hartsello not reported as 0: only hart 0 exists")
	}
	if (got>>dmcontrolHartSelHiPos)&((1<<dmcontrolHartSelHiWidth)-1) != 0 {
		t.Fatalf("hartselhi not reported as 0: only hart 0 exists")
	}
	if (got>>dmcontrolDMActive)&1 != 1 {
		t.Fatalf("dmactive not preserved across read")
	}
}

func TestDMControlAckUnavailClearedOnAck(t *testing.T) {
	m := newModule()
	m.Write(AddrDMControl, 1<<dmcontrolDMActive)

	m.ackUnavail = true

	m.Write(AddrDMControl, 1<<dmcontrolDMActive|1<<dmcontrolAckUnavail)

	got, _ := m.Read(AddrDMControl)
	if (got>>dmcontrolAckUnavail)&1 != 0 {
		t.Fatalf("ackunavail still set after an acknowledging write, want cleared")
	}
}

func TestDMControlKeepAliveAndResetHaltReqRoundTrip(t *testing.T) {
	m := newModule()

	var w uint32
	w |= 1 << dmcontrolDMActive
	w |= 1 << dmcontrolSetKeepAlive
	w |= 1 << dmcontrolSetResetHaltReq
	m.Write(AddrDMControl, w)

	got, _ := m.Read(AddrDMControl)
	if (got>>dmcontrolSetKeepAlive)&1 != 1 {
		t.Fatalf("keepalive not echoed back after setkeepalive write")
	}
	if (got>>dmcontrolSetResetHaltReq)&1 != 1 {
		t.Fatalf("resethaltreq not echoed back after setresethaltreq write")
	}

	var clr uint32
	clr |= 1 << dmcontrolDMActive
	clr |= 1 << dmcontrolClrKeepAlive
	clr |= 1 << dmcontrolClrResetHaltReq
	m.Write(AddrDMControl, clr)

	got, _ = m.Read(AddrDMControl)
	if (got>>dmcontrolSetKeepAlive)&1 != 0 {
		t.Fatalf("keepalive still set after a clrkeepalive write, want cleared")
	}
	if (got>>dmcontrolSetResetHaltReq)&1 != 0 {
		t.Fatalf("resethaltreq still set after a clrresethaltreq write, want cleared")
	}
}

func TestDataRegisterReadWriteRoundTrip(t *testing.T) {
	m := newModule()

	for addr := uint32(AddrData0); addr <= AddrData11; addr++ {
		want := uint32(0xa5a50000 + addr)
		if ok := m.Write(addr, want); !ok {
			t.Fatalf("Write(%#x) ok = false", addr)
		}
		got, ok := m.Read(addr)
		if !ok {
			t.Fatalf("Read(%#x) ok = false", addr)
		}
		if got != want {
			t.Fatalf("data register %#x round-trip = %#x, want %#x", addr, got, want)
		}
	}
}

func TestUnknownAddressFails(t *testing.T) {
	m := newModule()

	if _, ok := m.Read(0x7f); ok {
		t.Fatalf("Read(0x7f) ok = true, want false for an unimplemented address")
	}
}

func TestAbstractCSCmdErrWriteOneToClear(t *testing.T) {
	m := newModule()
	m.cmderr = CmdErrNotSupported

	// Writing 0 to cmderr must not clear it.
	m.Write(AddrAbstractCS, 0)
	if m.cmderr != CmdErrNotSupported {
		t.Fatalf("cmderr cleared by a zero write, want unaffected")
	}

	// Write-1-to-clear.
	var w uint32
	w |= CmdErrNotSupported << abstractcsCmdErrPos
	m.Write(AddrAbstractCS, w)
	if m.cmderr != CmdErrNone {
		t.Fatalf("cmderr = %d after write-1-to-clear, want %d", m.cmderr, CmdErrNone)
	}
}

func commandWord(cmdtype uint8, control uint32) uint32 {
	return uint32(cmdtype)<<24 | (control & 0xffffff)
}

func TestAccessRegisterGPRReadWrite(t *testing.T) {
	m := newModule()
	m.hart.GPR[1] = 0xDEADBEEF

	control := uint32(0)
	control |= 0x1001 << arRegNoPos // x1
	control |= 1 << arTransfer
	control |= 2 << arSizePos // 32-bit

	m.Write(AddrCommand, commandWord(cmdAccessRegister, control))

	data0, ok := m.Read(AddrData0)
	if !ok {
		t.Fatalf("Read(data0) ok = false")
	}
	if data0 != 0xDEADBEEF {
		t.Fatalf("data0 = %#x after reading x1, want %#x", data0, 0xDEADBEEF)
	}

	cs, _ := m.Read(AddrAbstractCS)
	if cmderr := (cs >> abstractcsCmdErrPos) & abstractcsCmdErrMask; cmderr != CmdErrNone {
		t.Fatalf("cmderr = %d after successful Access Register, want %d", cmderr, CmdErrNone)
	}

	// Write x1 from data0.
	m.Write(AddrData0, 0x11223344)
	controlWrite := control | 1<<arWrite
	m.Write(AddrCommand, commandWord(cmdAccessRegister, controlWrite))

	if m.hart.GPR[1] != 0x11223344 {
		t.Fatalf("GPR[1] = %#x after Access Register write, want %#x", m.hart.GPR[1], 0x11223344)
	}
}

func TestAccessRegisterPostExecNotSupported(t *testing.T) {
	m := newModule()

	control := uint32(0)
	control |= 0x1001 << arRegNoPos
	control |= 1 << arTransfer
	control |= 2 << arSizePos
	control |= 1 << arPostExec

	m.Write(AddrCommand, commandWord(cmdAccessRegister, control))

	cs, _ := m.Read(AddrAbstractCS)
	if cmderr := (cs >> abstractcsCmdErrPos) & abstractcsCmdErrMask; cmderr != CmdErrNotSupported {
		t.Fatalf("cmderr = %d for postexec=1, want %d (not supported): no program buffer exists to run", cmderr, CmdErrNotSupported)
	}
}

func TestAccessRegisterUnsupportedSize(t *testing.T) {
	m := newModule()

	control := uint32(0)
	control |= 0x1001 << arRegNoPos
	control |= 1 << arTransfer
	control |= 3 << arSizePos // 64-bit, unsupported

	m.Write(AddrCommand, commandWord(cmdAccessRegister, control))

	cs, _ := m.Read(AddrAbstractCS)
	if cmderr := (cs >> abstractcsCmdErrPos) & abstractcsCmdErrMask; cmderr != CmdErrNotSupported {
		t.Fatalf("cmderr = %d for aarsize=3, want %d (not supported)", cmderr, CmdErrNotSupported)
	}
}

func TestAccessRegisterDPCShuttle(t *testing.T) {
	m := newModule()
	m.hart.PC = 0x80000000

	control := uint32(0)
	control |= regnoDPC << arRegNoPos
	control |= 1 << arTransfer
	control |= 2 << arSizePos

	m.Write(AddrCommand, commandWord(cmdAccessRegister, control))

	data0, _ := m.Read(AddrData0)
	if data0 != 0x80000000 {
		t.Fatalf("data0 = %#x after reading dpc, want %#x", data0, 0x80000000)
	}
}

func TestAccessMemoryReadWriteAndPostIncrement(t *testing.T) {
	m := newModule()

	m.Write(AddrData1, 0x1000)
	m.Write(AddrData0, 0xcafef00d)

	control := uint32(0)
	control |= 1 << amWrite
	control |= 1 << amPostIncrement
	control |= 2 << amSizePos

	m.Write(AddrCommand, commandWord(cmdAccessMemory, control))

	if got := m.image.Read32(0x1000); got != 0xcafef00d {
		t.Fatalf("image[0x1000] = %#x, want %#x", got, 0xcafef00d)
	}

	data1, _ := m.Read(AddrData1)
	if data1 != 0x1004 {
		t.Fatalf("data1 after post-increment = %#x, want %#x", data1, 0x1004)
	}

	// Read it back via another Access Memory.
	control = 2 << amSizePos // read, no post-increment
	m.Write(AddrData1, 0x1000)
	m.Write(AddrCommand, commandWord(cmdAccessMemory, control))

	data0, _ := m.Read(AddrData0)
	if data0 != 0xcafef00d {
		t.Fatalf("data0 after Access Memory read = %#x, want %#x", data0, 0xcafef00d)
	}
}

func TestQuickAccessNotSupported(t *testing.T) {
	m := newModule()

	m.Write(AddrCommand, commandWord(cmdQuickAccess, 0))

	cs, _ := m.Read(AddrAbstractCS)
	if cmderr := (cs >> abstractcsCmdErrPos) & abstractcsCmdErrMask; cmderr != CmdErrNotSupported {
		t.Fatalf("cmderr = %d for Quick Access, want %d (not supported)", cmderr, CmdErrNotSupported)
	}
}

// AddrData1 is not exported by the package (only AddrData0/AddrData11 bound
// the range); tests address it directly since it is a plain offset within
// that range.
const AddrData1 = AddrData0 + 1
