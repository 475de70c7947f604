// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dsitest is meant to be used to test DSI panel code.
package dsitest

import (
	"errors"
	"sync"

	"github.com/GermanBionicSystems/hwcore/dsipanel"
)

// Marker is the first payload byte of the first packet of every set built by
// NewTable. The second byte is the CmdSetType.
const Marker byte = 0xFE

// Packet indexes used by NewTable for the patchable packets.
const (
	Index51       = 1
	FlatModeIndex = 1
	CupDBIIndex   = 1
)

// FlatModeParams is the number of flat mode parameters NewTable leaves room
// for.
const FlatModeParams = 4

// NewTable returns a table with every command set in every mode. Each set
// starts with a {Marker, type} packet; the sets that get patched carry a
// second packet with the right command tag.
func NewTable(modes ...dsipanel.Mode) dsipanel.Table {
	t := dsipanel.Table{}
	for _, m := range modes {
		for c := dsipanel.CmdSetOn; c <= dsipanel.CmdSetDemuraL4; c++ {
			set := &dsipanel.CommandSet{
				Type: c,
				Cmds: []dsipanel.Descriptor{{Type: dsipanel.DCSShortWriteParam, Payload: []byte{Marker, byte(c)}}},
			}
			switch c {
			case dsipanel.CmdSetHBMOff, dsipanel.CmdSetDozeHBM, dsipanel.CmdSetDozeLBM:
				set.Cmds = append(set.Cmds, dsipanel.Descriptor{Type: dsipanel.DCSLongWrite, Payload: []byte{0x51, 0, 0}})
			case dsipanel.CmdSetFlatModeOn:
				set.Cmds = append(set.Cmds, dsipanel.Descriptor{Type: dsipanel.DCSLongWrite, Payload: make([]byte, 1+FlatModeParams)})
				set.Cmds[1].Payload[0] = 0xB9
			case dsipanel.CmdSetCupDBI:
				set.Cmds = append(set.Cmds, dsipanel.Descriptor{Type: dsipanel.DCSLongWrite, Payload: make([]byte, 12)})
				set.Cmds[1].Payload[0] = 0xD2
			case dsipanel.CmdSetLP1, dsipanel.CmdSetLP2, dsipanel.CmdSetNoLP:
				set.State = dsipanel.LP
			}
			set.Cmds[len(set.Cmds)-1].Last = true
			t.Add(m, set)
		}
	}
	return t
}

// Msg is a recorded transfer.
type Msg struct {
	Type  byte
	Flags dsipanel.MsgFlags
	Tx    []byte
	Read  int
}

// Host is a dsipanel.Host that records transfers.
//
// Reads are answered from Reads, keyed by the first byte sent.
type Host struct {
	sync.Mutex
	Msgs  []Msg
	Reads map[byte][]byte
	// Err is returned by every transfer from FailAt on.
	Err    error
	FailAt int
	// Negative makes writes report a negative length.
	Negative bool
	// VBlanks counts WaitVBlank calls.
	VBlanks int
}

// Transfer implements dsipanel.Host.
func (h *Host) Transfer(m *dsipanel.Msg) (int, error) {
	h.Lock()
	defer h.Unlock()
	i := len(h.Msgs)
	h.Msgs = append(h.Msgs, Msg{Type: m.Type, Flags: m.Flags, Tx: append([]byte(nil), m.Tx...), Read: len(m.Rx)})
	if h.Err != nil && i >= h.FailAt {
		return 0, h.Err
	}
	if len(m.Rx) != 0 {
		if len(m.Tx) == 0 {
			return 0, errors.New("dsitest: read without command")
		}
		r, ok := h.Reads[m.Tx[0]]
		if !ok {
			return 0, errors.New("dsitest: unexpected read")
		}
		return copy(m.Rx, r), nil
	}
	if h.Negative {
		return -1, nil
	}
	return len(m.Tx), nil
}

// WaitVBlank implements dsipanel.VBlankWaiter.
func (h *Host) WaitVBlank() error {
	h.Lock()
	defer h.Unlock()
	h.VBlanks++
	return nil
}

// Sets returns the command sets started so far, decoded from their marker
// packet.
func (h *Host) Sets() []dsipanel.CmdSetType {
	h.Lock()
	defer h.Unlock()
	var out []dsipanel.CmdSetType
	for _, m := range h.Msgs {
		if len(m.Tx) == 2 && m.Tx[0] == Marker {
			out = append(out, dsipanel.CmdSetType(m.Tx[1]))
		}
	}
	return out
}

// Brightness returns the payloads of the set display brightness commands
// sent outside of command sets.
func (h *Host) Brightness() [][]byte {
	h.Lock()
	defer h.Unlock()
	var out [][]byte
	for _, m := range h.Msgs {
		if m.Type == dsipanel.DCSLongWrite && m.Flags&dsipanel.MsgLastCommand == 0 && len(m.Tx) == 3 && m.Tx[0] == 0x51 {
			out = append(out, m.Tx[1:])
		}
	}
	return out
}

// Reset forgets the recorded transfers.
func (h *Host) Reset() {
	h.Lock()
	defer h.Unlock()
	h.Msgs = nil
}

// Engine is a dsipanel.Engine counting its calls.
type Engine struct {
	sync.Mutex
	Enables  int
	Disables int
	Err      error
}

// Enable implements dsipanel.Engine.
func (e *Engine) Enable() error {
	e.Lock()
	defer e.Unlock()
	e.Enables++
	return e.Err
}

// Disable implements dsipanel.Engine.
func (e *Engine) Disable() error {
	e.Lock()
	defer e.Unlock()
	e.Disables++
	return nil
}

var _ dsipanel.Host = &Host{}
var _ dsipanel.VBlankWaiter = &Host{}
var _ dsipanel.Engine = &Engine{}
