// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dm

import "github.com/Thewbi/riscv-openocd-jtag-mock/bits"

// Abstract command types (command.cmdtype), per the RISC-V Debug
// Specification.
const (
	cmdAccessRegister = 0
	cmdQuickAccess    = 1
	cmdAccessMemory   = 2
)

// Access Register control-field bit positions (within command[23:0]).
const (
	arRegNoPos      = 0
	arRegNoMask     = 0xffff
	arWrite         = 16
	arTransfer      = 17
	arPostExec      = 18
	arPostIncrement = 19
	arSizePos       = 20
	arSizeMask      = 0x7
)

// Access Memory control-field bit positions (within command[23:0]).
const (
	amWrite         = 16
	amPostIncrement = 19
	amSizePos       = 20
	amSizeMask      = 0x7
	amVirtual       = 23
)

// Register numbers recognized by Access Register, per the Debug
// Specification's register-number convention.
const (
	regnoGPRBase = 0x1000
	regnoGPRLast = 0x101f
	regnoMISA    = 0x301
	regnoDCSR    = 0x7b0
	regnoDPC     = 0x7b1
)

// misa advertises RV32IMA: MXL=1 (32-bit), with the I, M and A extension
// bits set.
const misaRV32IMA = 1<<30 | 1<<8 /* I */ | 1<<12 /* M */ | 1<<0 /* A */

// dcsr.xdebugver identifies the 0.13/1.0 debug specification.
const dcsrXDebugVer4 = 4 << 28

// execute runs the abstract command written to the "command" register.
func (m *Module) execute(v uint32) {
	cmdtype := uint8(v >> 24)
	control := v & 0xffffff

	switch cmdtype {
	case cmdAccessRegister:
		m.execAccessRegister(control)
	case cmdAccessMemory:
		m.execAccessMemory(control)
	case cmdQuickAccess:
		m.cmderr = CmdErrNotSupported
	default:
		m.cmderr = CmdErrNotSupported
	}
}

func (m *Module) execAccessRegister(control uint32) {
	size := bits.GetN(&control, arSizePos, arSizeMask)
	if size != 2 {
		// Only 32-bit (aarsize=2) register accesses are supported.
		m.cmderr = CmdErrNotSupported
		return
	}

	if !bits.Get(&control, arTransfer) {
		m.cmderr = CmdErrNone
		return
	}

	if bits.Get(&control, arPostExec) {
		// postexec would run the program buffer after the transfer; there is
		// no program buffer in this emulator, so the command is rejected
		// rather than silently skipping the postexec step.
		m.cmderr = CmdErrNotSupported
		return
	}

	write := bits.Get(&control, arWrite)
	regno := bits.GetN(&control, arRegNoPos, arRegNoMask)

	// aarpostincrement is decoded but has no effect: none of the registers
	// this emulator implements are accessed as incrementing pairs.
	_ = bits.Get(&control, arPostIncrement)

	switch {
	case regno >= regnoGPRBase && regno <= regnoGPRLast:
		idx := regno & 0x1f
		if write {
			m.hart.GPR[idx] = uint32(m.data[0])
		} else {
			m.data[0] = uint64(m.hart.GPR[idx])
		}
	case regno == regnoMISA:
		if write {
			// misa is fixed in this emulator; writes are accepted and ignored.
		} else {
			m.data[0] = uint64(misaRV32IMA)
		}
	case regno == regnoDCSR:
		if write {
			// dcsr semantics (ebreak*, step, cause, prv) are not modeled;
			// the write is accepted but has no further effect.
		} else {
			m.data[0] = uint64(dcsrXDebugVer4)
		}
	case regno == regnoDPC:
		if write {
			m.hart.PC = uint32(m.data[0])
		} else {
			m.data[0] = uint64(m.hart.PC)
		}
	default:
		m.cmderr = CmdErrNotSupported
		return
	}

	m.cmderr = CmdErrNone
}

func (m *Module) execAccessMemory(control uint32) {
	size := bits.GetN(&control, amSizePos, amSizeMask)
	if size != 2 {
		m.cmderr = CmdErrNotSupported
		return
	}

	write := bits.Get(&control, amWrite)
	postIncrement := bits.Get(&control, amPostIncrement)

	addr := uint32(m.data[1])

	if write {
		m.image.Write32(addr, uint32(m.data[0]))
	} else {
		m.data[0] = uint64(m.image.Read32(addr))
	}

	if postIncrement {
		m.data[1] = uint64(addr + (1 << size))
	}

	m.cmderr = CmdErrNone
}
