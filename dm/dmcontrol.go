// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dm

import "github.com/Thewbi/riscv-openocd-jtag-mock/bits"

// dmcontrol bit positions, per the RISC-V Debug Specification.
const (
	dmcontrolDMActive         = 0
	dmcontrolNDMReset         = 1
	dmcontrolClrResetHaltReq  = 2
	dmcontrolSetResetHaltReq  = 3
	dmcontrolClrKeepAlive     = 4
	dmcontrolSetKeepAlive     = 5
	dmcontrolHartSelLoPos     = 16
	dmcontrolHartSelLoWidth   = 10
	dmcontrolHartSelHiPos     = 6
	dmcontrolHartSelHiWidth   = 10
	dmcontrolHaSel            = 26
	dmcontrolAckUnavail       = 27
	dmcontrolAckHaveReset     = 28
	dmcontrolHartReset        = 29
	dmcontrolResumeReq        = 30
	dmcontrolHaltReq          = 31
)

// writeDMControl decodes all 14 dmcontrol fields. Only hart 0 exists in
// this emulator, so hartsello/hartselhi are accepted but never persisted:
// every read reports them as zero, which is this emulator's hart-selection
// probe answer regardless of hasel (spec: "report only hart 0 as present").
func (m *Module) writeDMControl(v uint32) {
	var w uint32 = v

	dmactive := bits.Get(&w, dmcontrolDMActive)

	if !dmactive {
		// dmactive=0 resets the DM: all DM state returns to defaults,
		// except the sticky dtmcs bits, which live one layer up in the DTM
		// and are untouched by this.
		*m = Module{hart: m.hart, image: m.image}
		return
	}

	m.dmactive = true
	m.ndmreset = bits.Get(&w, dmcontrolNDMReset)
	m.hasel = bits.Get(&w, dmcontrolHaSel)
	m.hartReset = bits.Get(&w, dmcontrolHartReset)

	if bits.Get(&w, dmcontrolAckHaveReset) {
		m.ackHaveReset = false
	}
	if bits.Get(&w, dmcontrolAckUnavail) {
		m.ackUnavail = false
	}
	if bits.Get(&w, dmcontrolSetKeepAlive) {
		m.keepalive = true
	}
	if bits.Get(&w, dmcontrolClrKeepAlive) {
		m.keepalive = false
	}
	if bits.Get(&w, dmcontrolSetResetHaltReq) {
		m.setResetHaltReq = true
	}
	if bits.Get(&w, dmcontrolClrResetHaltReq) {
		m.setResetHaltReq = false
	}

	if bits.Get(&w, dmcontrolResumeReq) {
		// No multi-step execution engine exists (Non-goal: not a full ISA
		// simulator). A resume request against the always-halted hart is
		// interpreted as a single-step directive: advance dpc by one
		// instruction width.
		m.hart.PC += 4
	}

	// haltreq is accepted but has no further effect: the single hart is
	// always reported halted (dmstatus.allhalted is fixed at 1).
}

func (m *Module) readDMControl() uint32 {
	var w uint32

	bits.SetTo(&w, dmcontrolDMActive, m.dmactive)
	bits.SetTo(&w, dmcontrolNDMReset, m.ndmreset)
	bits.SetTo(&w, dmcontrolHaSel, m.hasel)
	bits.SetTo(&w, dmcontrolHartReset, m.hartReset)
	bits.SetTo(&w, dmcontrolAckHaveReset, m.ackHaveReset)
	bits.SetTo(&w, dmcontrolAckUnavail, m.ackUnavail)
	bits.SetTo(&w, dmcontrolSetKeepAlive, m.keepalive)
	bits.SetTo(&w, dmcontrolSetResetHaltReq, m.setResetHaltReq)
	bits.SetN(&w, dmcontrolHartSelLoPos, (1<<dmcontrolHartSelLoWidth)-1, 0)
	bits.SetN(&w, dmcontrolHartSelHiPos, (1<<dmcontrolHartSelHiWidth)-1, 0)

	return w
}
