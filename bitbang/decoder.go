// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package bitbang decodes OpenOCD's JTAG Remote Bitbang ASCII byte stream
// into pin-level events on a tap.Machine, and serves that decoder over a
// single-client TCP listener.
package bitbang

import (
	"log"

	"golang.org/x/time/rate"

	"github.com/Thewbi/riscv-openocd-jtag-mock/tap"
)

// Remote Bitbang command bytes, per OpenOCD's driver/remote_bitbang.c wire
// format.
const (
	cmdBlinkOn  = 'B'
	cmdBlinkOff = 'b'
	cmdRead     = 'R'
	cmdQuit     = 'Q'
)

// Reset-family bytes: bit0 selects srst, bit1 selects trst. Any byte in this
// set forces the TAP into Test-Logic-Reset, regardless of which bits are
// set, since this emulator has no separate system-reset domain to model.
var resetCommands = map[byte]bool{'r': true, 's': true, 't': true, 'u': true}

// SWD commands are part of the Remote Bitbang grammar but have no meaning
// for a JTAG-only target; they are recognized and ignored.
var swdCommands = map[byte]bool{'O': true, 'o': true, 'c': true, 'd': true, 'e': true, 'f': true, 'g': true}

// Pins is the side-channel TDI/TDO pin contract the decoder drives, sitting
// alongside the tap.Observer's state-entry notifications. In this
// emulator's wiring it is implemented by dtm.Layer.
type Pins interface {
	SetTDI(tdi bool)
	TDO() bool
}

// Decoder owns the Remote Bitbang pin state and drives a tap.Machine from
// the incoming byte stream. It has no notion of sockets; Server feeds it
// bytes read off a connection.
type Decoder struct {
	tck, tms, tdi, trstn bool

	machine *tap.Machine
	pins    Pins

	// unsupportedLog throttles the "unsupported command byte" diagnostic so
	// a misbehaving or fuzzing client cannot flood stderr.
	unsupportedLog *rate.Limiter
}

// NewDecoder builds a decoder driving the given TAP machine. pins is
// latched with TDI before every clock and queried for TDO on an 'R'
// command; in this emulator's wiring it is the dtm.Layer that also backs
// the machine's observer.
func NewDecoder(m *tap.Machine, pins Pins, unsupportedLog *rate.Limiter) *Decoder {
	return &Decoder{trstn: true, machine: m, pins: pins, unsupportedLog: unsupportedLog}
}

// Execute applies one Remote Bitbang command byte. It returns a reply byte
// and whether one was produced (only 'R' replies), and whether the command
// requests the session be closed ('Q').
func (d *Decoder) Execute(b byte) (reply byte, hasReply bool, quit bool) {
	switch {
	case b >= '0' && b <= '7':
		d.setPins(b - '0')
		return 0, false, false

	case b == cmdRead:
		if d.pins.TDO() {
			return '1', true, false
		}
		return '0', true, false

	case resetCommands[b]:
		d.trstn = false
		d.machine.ForceReset()
		d.trstn = true
		return 0, false, false

	case b == cmdBlinkOn || b == cmdBlinkOff:
		// Observable no-op: this emulator has no LED to drive.
		return 0, false, false

	case b == cmdQuit:
		return 0, false, true

	case swdCommands[b]:
		// Recognized and ignored: this emulator only implements the JTAG
		// DTM, never SWD.
		return 0, false, false

	default:
		if d.unsupportedLog == nil || d.unsupportedLog.Allow() {
			log.Printf("bitbang: unsupported command byte %q, ignoring", b)
		}
		return 0, false, false
	}
}

// setPins decodes a '0'..'7' digit into (tck,tms,tdi) with tck as the most
// significant bit, and clocks the TAP machine with the new pin state.
func (d *Decoder) setPins(digit byte) {
	d.tck = digit&0x4 != 0
	d.tms = digit&0x2 != 0
	d.tdi = digit&0x1 != 0

	d.pins.SetTDI(d.tdi)
	d.machine.Clock(d.tck, d.tms)
}
