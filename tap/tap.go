// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package tap implements the IEEE 1149.1 Test Access Port state machine, the
// 16-state Mealy machine that JTAG Remote Bitbang clients drive over TCK/TMS.
package tap

// State identifies one of the 16 TAP controller states.
type State int

const (
	TestLogicReset State = iota
	RunTestIdle
	SelectDRScan
	SelectIRScan
	CaptureDR
	CaptureIR
	ShiftDR
	ShiftIR
	Exit1DR
	Exit1IR
	PauseDR
	PauseIR
	Exit2DR
	Exit2IR
	UpdateDR
	UpdateIR
)

func (s State) String() string {
	switch s {
	case TestLogicReset:
		return "Test-Logic-Reset"
	case RunTestIdle:
		return "Run-Test/Idle"
	case SelectDRScan:
		return "Select-DR-Scan"
	case SelectIRScan:
		return "Select-IR-Scan"
	case CaptureDR:
		return "Capture-DR"
	case CaptureIR:
		return "Capture-IR"
	case ShiftDR:
		return "Shift-DR"
	case ShiftIR:
		return "Shift-IR"
	case Exit1DR:
		return "Exit1-DR"
	case Exit1IR:
		return "Exit1-IR"
	case PauseDR:
		return "Pause-DR"
	case PauseIR:
		return "Pause-IR"
	case Exit2DR:
		return "Exit2-DR"
	case Exit2IR:
		return "Exit2-IR"
	case UpdateDR:
		return "Update-DR"
	case UpdateIR:
		return "Update-IR"
	default:
		return "Unknown"
	}
}

// transitions[state][tms] is the complete, total transition table of the TAP
// controller (IEEE 1149.1 figure, also reproduced in the RISC-V External
// Debug Specification). Every (state, tms) pair yields a defined next state,
// so the table has no default/error branch.
var transitions = [16][2]State{
	TestLogicReset:  {RunTestIdle, TestLogicReset},
	RunTestIdle:     {RunTestIdle, SelectDRScan},
	SelectDRScan:    {CaptureDR, SelectIRScan},
	SelectIRScan:    {CaptureIR, TestLogicReset},
	CaptureDR:       {ShiftDR, Exit1DR},
	CaptureIR:       {ShiftIR, Exit1IR},
	ShiftDR:         {ShiftDR, Exit1DR},
	ShiftIR:         {ShiftIR, Exit1IR},
	Exit1DR:         {PauseDR, UpdateDR},
	Exit1IR:         {PauseIR, UpdateIR},
	PauseDR:         {PauseDR, Exit2DR},
	PauseIR:         {PauseIR, Exit2IR},
	Exit2DR:         {ShiftDR, UpdateDR},
	Exit2IR:         {ShiftIR, UpdateIR},
	UpdateDR:        {RunTestIdle, SelectDRScan},
	UpdateIR:        {RunTestIdle, SelectDRScan},
}

// Observer receives notifications as the TAP controller changes state. It is
// implemented by the IR/DR shift discipline layered on top of the TAP
// (package dtm), kept decoupled here to avoid a TAP<->DTM cyclic reference:
// the driver owns both and passes the observer in at construction time.
type Observer interface {
	// StateEntered is called once per state-entry: on every rising TCK edge
	// with risingEdge true, and additionally on every falling TCK edge while
	// the TAP is in Shift-DR or Shift-IR, with risingEdge false (the edge on
	// which a shifted-out bit must be sampled by the client).
	StateEntered(s State, risingEdge bool)

	// Reset is called when the TAP is forced into Test-Logic-Reset outside
	// of the normal transition table (trstn asserted, or a bitbang reset
	// command).
	Reset()
}

// Machine is the TAP controller. It is clocked by successive pin-write
// events from the bitbang decoder; it has no notion of sockets or bytes.
type Machine struct {
	state    State
	lastTCK  bool
	observer Observer
}

// New creates a TAP controller in Test-Logic-Reset, the architectural
// power-on state.
func New(observer Observer) *Machine {
	return &Machine{state: TestLogicReset, lastTCK: true, observer: observer}
}

// State returns the controller's current state.
func (m *Machine) State() State {
	return m.state
}

// Clock applies one pin-write event. A rising edge (tck transitions 0->1
// relative to the previous pin-write) advances the state machine per the
// transition table and notifies the observer of the new state. A falling
// edge leaves the state unchanged but still notifies the observer when the
// TAP is in a Shift state, since that is the edge on which TDO must be
// valid for a subsequent read-back command.
func (m *Machine) Clock(tck, tms bool) {
	rising := tck && !m.lastTCK
	falling := !tck && m.lastTCK
	m.lastTCK = tck

	switch {
	case rising:
		tmsIdx := 0
		if tms {
			tmsIdx = 1
		}
		m.state = transitions[m.state][tmsIdx]
		m.observer.StateEntered(m.state, true)
	case falling:
		if m.state == ShiftDR || m.state == ShiftIR {
			m.observer.StateEntered(m.state, false)
		}
	}
}

// ForceReset drives the controller synchronously into Test-Logic-Reset,
// as triggered by trstn or a bitbang reset-family command, and notifies the
// observer so it can re-select IDCODE.
func (m *Machine) ForceReset() {
	m.state = TestLogicReset
	m.lastTCK = true
	m.observer.Reset()
	m.observer.StateEntered(m.state, true)
}
