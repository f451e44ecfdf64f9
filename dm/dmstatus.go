// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dm

import "github.com/Thewbi/riscv-openocd-jtag-mock/bits"

// dmstatus bit positions, per the RISC-V Debug Specification.
const (
	dmstatusVersionPos    = 0
	dmstatusVersionMask   = 0xf
	dmstatusAuthenticated = 7
	dmstatusAllHalted     = 9
	dmstatusAllResumeAck  = 17
)

const dmstatusVersion = 3 // "1.0" per the Debug Specification's version encoding

// readDMStatus composes dmstatus on every read: it is never written. This
// is the minimum surface that lets an external debugger consider the one
// simulated hart halted and the session authenticated.
func (m *Module) readDMStatus() uint32 {
	var w uint32
	bits.SetN(&w, dmstatusVersionPos, dmstatusVersionMask, dmstatusVersion)
	bits.Set(&w, dmstatusAuthenticated)
	bits.Set(&w, dmstatusAllHalted)
	bits.Set(&w, dmstatusAllResumeAck)
	return w
}
