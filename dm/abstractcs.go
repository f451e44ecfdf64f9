// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dm

import "github.com/Thewbi/riscv-openocd-jtag-mock/bits"

// abstractcs bit positions, per the RISC-V Debug Specification.
const (
	abstractcsDataCountPos    = 0
	abstractcsDataCountMask   = 0xf
	abstractcsCmdErrPos       = 8
	abstractcsCmdErrMask      = 0x7
	abstractcsRelaxedPriv     = 11
	abstractcsBusy            = 12
	abstractcsProgBufSizePos  = 24
	abstractcsProgBufSizeMask = 0x1f
)

func (m *Module) readAbstractCS() uint32 {
	var w uint32
	bits.SetN(&w, abstractcsDataCountPos, abstractcsDataCountMask, datacount)
	bits.SetN(&w, abstractcsCmdErrPos, abstractcsCmdErrMask, uint32(m.cmderr))
	bits.SetN(&w, abstractcsProgBufSizePos, abstractcsProgBufSizeMask, progbufsize)
	// busy is always 0 by the time this is read: abstract commands run to
	// completion synchronously within a single UPDATE-DR (spec: no
	// busy/retry pipeline).
	return w
}

// writeAbstractCS implements write-1-to-clear semantics for cmderr; every
// other field is effectively read-only in this emulator.
func (m *Module) writeAbstractCS(v uint32) {
	clear := bits.GetN(&v, abstractcsCmdErrPos, abstractcsCmdErrMask)
	if clear != 0 {
		m.cmderr = CmdErrNone
	}
}
