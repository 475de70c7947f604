// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// CmdSetType names a command set.
type CmdSetType uint8

// Command sets known to the panel. A panel that does not need one leaves it
// out of its table; sending a missing or empty set is a no-op.
const (
	CmdSetOn CmdSetType = iota
	CmdSetOff
	CmdSetLP1
	CmdSetLP2
	CmdSetNoLP
	CmdSetTimingSwitch
	CmdSetTimingSwitchGIR
	CmdSetDimmingOn
	CmdSetDimmingOff
	CmdSetHBMOn
	CmdSetHBMOff
	CmdSetHBMFODOn
	CmdSetHBMFODOff
	CmdSetDozeHBM
	CmdSetDozeLBM
	CmdSetDozeHBMNoLP
	CmdSetDozeLBMNoLP
	CmdSetFlatModeOn
	CmdSetFlatModeOff
	CmdSetFlatModeReadPre
	CmdSetNatureFlatModeOn
	CmdSetNatureFlatModeOff
	CmdSetDCOn
	CmdSetDCOff
	CmdSetCRCOff
	CmdSetSPR1D
	CmdSetSPR2D
	CmdSetColorInvertOn
	CmdSetColorInvertOff
	CmdSetCupDBI
	CmdSetDemuraL1
	CmdSetDemuraL2
	CmdSetDemuraL3
	CmdSetDemuraL4
	cmdSetCount
)

var cmdSetName = [cmdSetCount]string{
	"On", "Off", "LP1", "LP2", "NoLP", "TimingSwitch", "TimingSwitchGIR",
	"DimmingOn", "DimmingOff", "HBMOn", "HBMOff", "HBMFODOn", "HBMFODOff",
	"DozeHBM", "DozeLBM", "DozeHBMNoLP", "DozeLBMNoLP",
	"FlatModeOn", "FlatModeOff", "FlatModeReadPre",
	"NatureFlatModeOn", "NatureFlatModeOff",
	"DCOn", "DCOff", "CRCOff", "SPR1D", "SPR2D",
	"ColorInvertOn", "ColorInvertOff", "CupDBI",
	"DemuraL1", "DemuraL2", "DemuraL3", "DemuraL4",
}

func (c CmdSetType) String() string {
	if c >= cmdSetCount {
		return "CmdSetType(" + strconv.Itoa(int(c)) + ")"
	}
	return cmdSetName[c]
}

// maxDemuraLevels is the number of demura command sets.
const maxDemuraLevels = int(CmdSetDemuraL4-CmdSetDemuraL1) + 1

// TxState selects the DSI transmission mode of a command set.
type TxState uint8

// Transmission modes.
const (
	HS TxState = iota // high speed
	LP                // low power
)

// Descriptor is one DSI packet of a command set.
type Descriptor struct {
	// Type is the DSI data type, e.g. DCSLongWrite.
	Type byte
	// Payload starts with the DCS command byte.
	Payload  []byte
	Last     bool
	PostWait time.Duration
}

// CommandSet is an ordered sequence of packets for one logical operation.
//
// Sets are built once by the table owner; the panel only patches payload
// bytes at documented offsets, under its lock.
type CommandSet struct {
	Type  CmdSetType
	State TxState
	Cmds  []Descriptor
}

// Mode identifies a display timing.
type Mode struct {
	Width, Height int
	RefreshRate   int
}

func (m Mode) String() string {
	return fmt.Sprintf("%dx%d@%d", m.Width, m.Height, m.RefreshRate)
}

// CommandTable looks up the command sets of a display mode.
type CommandTable interface {
	// CommandSet returns nil when the mode has no such set.
	CommandSet(m Mode, t CmdSetType) *CommandSet
	Modes() []Mode
}

// Table is an in-memory CommandTable.
type Table map[Mode]map[CmdSetType]*CommandSet

// CommandSet implements CommandTable.
func (t Table) CommandSet(m Mode, c CmdSetType) *CommandSet {
	return t[m][c]
}

// Modes implements CommandTable. Modes are sorted by resolution then refresh
// rate.
func (t Table) Modes() []Mode {
	out := make([]Mode, 0, len(t))
	for m := range t {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Width != b.Width {
			return a.Width < b.Width
		}
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		return a.RefreshRate < b.RefreshRate
	})
	return out
}

// Add stores set for mode m, replacing any set of the same type.
func (t Table) Add(m Mode, set *CommandSet) {
	if t[m] == nil {
		t[m] = map[CmdSetType]*CommandSet{}
	}
	t[m][set.Type] = set
}
