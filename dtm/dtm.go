// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dtm

import (
	"log"

	"github.com/Thewbi/riscv-openocd-jtag-mock/bits"
	"github.com/Thewbi/riscv-openocd-jtag-mock/tap"
)

// IR values selecting a DTM-visible data register, per the RISC-V External
// Debug Specification's JTAG DTM TAP register table.
const (
	irBypass = 0x00
	irIDCODE = 0x01
	irDTMCS  = 0x10
	irDMI    = 0x11
)

// IDCODE is the fixed 32-bit implementation identifier presented on reset.
const IDCODE = 0x20000913

// DMI is the interface the DTM layer tunnels DMI reads/writes to: the Debug
// Module register file. Implemented by package dm.
type DMI interface {
	Read(address uint32) (data uint32, ok bool)
	Write(address uint32, data uint32) (ok bool)
}

// Layer implements the IR/DR capture/shift/update discipline on top of a
// tap.Machine, and owns the three DTM-visible registers (IDCODE, DTMCS,
// DMI). It implements tap.Observer; the driver constructs a tap.Machine
// with a *Layer as its observer, avoiding a TAP<->DTM back-reference.
type Layer struct {
	abits int

	tdi bool
	tdo bool

	ir     Register
	idcode Register
	dtmcs  Register
	dmiReg Register
	bypass Register

	dmistat uint8 // sticky DMI status: 0 success, 2 failed. Cleared only by dtmcs.dmireset/dtmhardreset.

	dm DMI
}

// New builds a DTM layer with the given DMI address width (7..32 bits, per
// the RISC-V Debug Specification's ABITS range) and Debug Module handler.
func New(abits int, dm DMI) *Layer {
	if abits < 7 {
		abits = 7
	}
	if abits > 32 {
		abits = 32
	}

	l := &Layer{
		abits:  abits,
		ir:     Register{Width: 5},
		idcode: Register{Width: 32, SuppressFirstShift: true, Container: bits.WideFromUint64(IDCODE)},
		dtmcs:  Register{Width: 32, SuppressFirstShift: true},
		dmiReg: Register{Width: 2 + 32 + abits, SuppressFirstShift: true},
		bypass: Register{Width: 1},
		dm:     dm,
	}
	l.ir.Container = bits.WideFromUint64(irIDCODE)
	l.composeDTMCS()
	return l
}

// SetTDI latches the TDI pin value the bitbang decoder currently drives.
// Called before tap.Machine.Clock on every pin-write.
func (l *Layer) SetTDI(tdi bool) {
	l.tdi = tdi
}

// TDO returns the TDO pin value last produced by a shift, for a bitbang 'R'
// command.
func (l *Layer) TDO() bool {
	return l.tdo
}

// selectedDR returns the data register currently addressed by the IR
// container, and whether the IR value is a known DTM register.
func (l *Layer) selectedDR() (*Register, bool) {
	switch l.ir.Container.Field(0, 5) {
	case irIDCODE:
		return &l.idcode, true
	case irDTMCS:
		return &l.dtmcs, true
	case irDMI:
		return &l.dmiReg, true
	case irBypass:
		return &l.bypass, true
	default:
		return &l.bypass, false
	}
}

// StateEntered implements tap.Observer.
func (l *Layer) StateEntered(s tap.State, rising bool) {
	if s == tap.TestLogicReset {
		l.ir.Container = bits.WideFromUint64(irIDCODE)
		return
	}

	switch {
	case rising && s == tap.CaptureIR:
		l.ir.Capture()
	case !rising && s == tap.ShiftIR:
		l.tdo = l.ir.ShiftFalling(l.tdi)
	case rising && s == tap.UpdateIR:
		l.ir.Update()

	case rising && s == tap.CaptureDR:
		dr, known := l.selectedDR()
		if !known {
			log.Printf("dtm: IR value %#x not in DTM register table, treating as BYPASS", l.ir.Container.Field(0, 5))
		}
		dr.Capture()
	case !rising && s == tap.ShiftDR:
		dr, _ := l.selectedDR()
		l.tdo = dr.ShiftFalling(l.tdi)
	case rising && s == tap.UpdateDR:
		l.updateSelectedDR()
	}
}

// Reset implements tap.Observer: TAP reset re-selects IDCODE, per the RISC-V
// Debug Specification's reset behavior. Sticky DMI error state is left
// untouched here; it is only cleared by dtmcs.dmireset/dtmhardreset, as
// required by the sticky-error testable property.
func (l *Layer) Reset() {
	l.ir.Container = bits.WideFromUint64(irIDCODE)
}

func (l *Layer) updateSelectedDR() {
	switch l.ir.Container.Field(0, 5) {
	case irIDCODE:
		// read-only, UPDATE is a no-op
	case irDTMCS:
		l.updateDTMCS()
	case irDMI:
		l.updateDMI()
	default:
		// BYPASS: no container semantics
	}
}

func (l *Layer) updateDTMCS() {
	shift := l.dtmcs.Shift

	dmireset := shift.Bit(16)
	dtmhardreset := shift.Bit(17)

	if dmireset || dtmhardreset {
		l.dmistat = 0
		l.dmiReg.Container = bits.Wide{}
		l.dmiReg.Shift = bits.Wide{}
	}

	l.composeDTMCS()
}

// composeDTMCS rebuilds the canonical dtmcs container: version and abits
// are fixed, dmistat reflects the current sticky state, idle and errinfo
// are always zero, and the self-clearing dmireset/dtmhardreset bits always
// read back as zero.
func (l *Layer) composeDTMCS() {
	var w bits.Wide
	w.SetField(0, 4, 1) // version: 1.0
	w.SetField(4, 6, uint64(l.abits))
	w.SetField(10, 2, uint64(l.dmistat))
	w.SetField(12, 3, 0) // idle
	w.SetField(16, 1, 0) // dmireset (write-only, self-clearing)
	w.SetField(17, 1, 0) // dtmhardreset (write-only, self-clearing)
	w.SetField(18, 3, 0) // errinfo
	l.dtmcs.Container = w
}

func (l *Layer) updateDMI() {
	shift := l.dmiReg.Shift

	op := shift.Field(0, 2)
	data := uint32(shift.Field(2, 32))
	address := uint32(shift.Field(34, l.abits))

	if op == 0 {
		// nop: leave DMI container unchanged
		return
	}

	var respOp uint64
	respData := data

	if l.dmistat != 0 {
		// sticky error: report it on every subsequent transaction until
		// cleared via dtmcs.dmireset/dtmhardreset
		respOp = uint64(l.dmistat)
	} else {
		switch op {
		case 1: // read
			val, ok := l.dm.Read(address)
			if ok {
				respData = val
			} else {
				respOp = 2
				l.dmistat = 2
			}
		case 2: // write
			if ok := l.dm.Write(address, data); !ok {
				respOp = 2
				l.dmistat = 2
			}
		default: // reserved
			respOp = 2
			l.dmistat = 2
		}
	}

	var w bits.Wide
	w.SetField(0, 2, respOp)
	w.SetField(2, 32, uint64(respData))
	w.SetField(34, l.abits, uint64(address))
	l.dmiReg.Container = w

	l.composeDTMCS()
}
