// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package dm implements the RISC-V Debug Module register file tunneled to
// over DMI: dmcontrol, dmstatus, abstractcs, command, and the data0..data11
// scratch registers, along with the abstract-command execution semantics
// (Access Register / Access Memory / Quick Access) that the "command"
// register triggers.
package dm

import (
	"github.com/Thewbi/riscv-openocd-jtag-mock/hart"
	"github.com/Thewbi/riscv-openocd-jtag-mock/loader"
)

// Debug Module register addresses, as tunneled over DMI.
const (
	AddrData0      = 0x04
	AddrData11     = 0x0f
	AddrDMControl  = 0x10
	AddrDMStatus   = 0x11
	AddrAbstractCS = 0x16
	AddrCommand    = 0x17
)

// Abstract-command error codes (abstractcs.cmderr), per the RISC-V Debug
// Specification.
const (
	CmdErrNone         = 0
	CmdErrBusy         = 1
	CmdErrNotSupported = 2
	CmdErrException    = 3
	CmdErrHaltResume   = 4
	CmdErrBus          = 5
	CmdErrOther        = 7
)

// datacount is the fixed number of implemented data registers; progbufsize
// is fixed at zero since this emulator implements no program buffer.
const (
	datacount   = 12
	progbufsize = 0
)

// Module is the Debug Module register file and abstract-command engine. It
// implements dtm.DMI.
type Module struct {
	data [12]uint64

	dmactive        bool
	ndmreset        bool
	hartReset       bool
	ackHaveReset    bool
	ackUnavail      bool
	hasel           bool
	keepalive       bool
	setResetHaltReq bool

	cmderr uint8

	hart  *hart.Hart
	image *loader.Image
}

// New builds a Debug Module bound to the given hart state and program
// image. image may be nil, in which case a fresh empty image is used
// (matching an emulator started without -program): Access-Memory reads of
// addresses never written return zero, and writes are stored in it.
func New(h *hart.Hart, image *loader.Image) *Module {
	if image == nil {
		image = loader.NewImage()
	}
	return &Module{hart: h, image: image}
}

// Read implements dtm.DMI.
func (m *Module) Read(address uint32) (uint32, bool) {
	switch {
	case address >= AddrData0 && address <= AddrData11:
		return uint32(m.data[address-AddrData0]), true
	case address == AddrDMControl:
		return m.readDMControl(), true
	case address == AddrDMStatus:
		return m.readDMStatus(), true
	case address == AddrAbstractCS:
		return m.readAbstractCS(), true
	case address == AddrCommand:
		return 0, true
	default:
		return 0, false
	}
}

// Write implements dtm.DMI.
func (m *Module) Write(address uint32, data uint32) bool {
	switch {
	case address >= AddrData0 && address <= AddrData11:
		m.data[address-AddrData0] = uint64(data)
		return true
	case address == AddrDMControl:
		m.writeDMControl(data)
		return true
	case address == AddrDMStatus:
		// dmstatus is computed on read; writes are accepted and ignored.
		return true
	case address == AddrAbstractCS:
		m.writeAbstractCS(data)
		return true
	case address == AddrCommand:
		m.execute(data)
		return true
	default:
		return false
	}
}
