// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package dtm implements the RISC-V Debug Transport Module: the IR/DR
// capture/shift/update discipline layered over the TAP controller, and the
// three DTM-visible registers (IDCODE, DTMCS, DMI).
package dtm

import "github.com/Thewbi/riscv-openocd-jtag-mock/bits"

// Register is a JTAG-visible container/shift register pair. SHIFT never
// mutates Container; Update atomically copies Shift into Container; Capture
// atomically copies Container into Shift.
//
// SuppressFirstShift implements the BSCAN one-bit skew workaround: the first
// SHIFT clock after a CAPTURE emits a deterministic zero and does not rotate
// the register, which is the standard OpenOCD expectation for the RISC-V
// BSCAN tunnel. dtm.New sets it on IDCODE, DTMCS and DMI alike; the 1-bit
// BYPASS register shifts without it.
type Register struct {
	Width              int
	SuppressFirstShift bool

	Container bits.Wide
	Shift     bits.Wide

	primed bool
}

// Capture copies Container into Shift and arms the first-shift suppression.
func (r *Register) Capture() {
	r.Shift = r.Container
	r.primed = r.SuppressFirstShift
}

// ShiftFalling performs one SHIFT clock on the falling TCK edge: it returns
// the bit to drive onto TDO and rotates tdi into the register, unless this
// is the primed first shift after capture, in which case it emits a zero
// and leaves the shift register untouched.
func (r *Register) ShiftFalling(tdi bool) (tdo bool) {
	if r.primed {
		r.primed = false
		return false
	}
	return r.Shift.ShiftRight1(r.Width, tdi)
}

// Update copies Shift into Container.
func (r *Register) Update() {
	r.Container = r.Shift
}
