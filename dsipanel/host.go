// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel

// DSI data types used by the panel.
const (
	DCSShortWrite      byte = 0x05
	DCSShortWriteParam byte = 0x15
	DCSRead            byte = 0x06
	DCSLongWrite       byte = 0x39
)

// DCS commands the panel builds itself.
const (
	dcsSetDisplayBrightness byte = 0x51
	dcsReadFlatModeParams   byte = 0xB8
)

// MsgFlags qualify a DSI message.
type MsgFlags uint8

// Message flags.
const (
	// MsgUseLPM sends the message in low power mode.
	MsgUseLPM MsgFlags = 1 << iota
	// MsgLastCommand marks the end of a batch.
	MsgLastCommand
)

// Msg is a DSI message handed to the host.
type Msg struct {
	Type  byte
	Flags MsgFlags
	Tx    []byte
	// Rx receives the response of a read.
	Rx []byte
}

// Host transfers DSI messages.
//
// Transfer returns the number of bytes sent, or received for a read. A
// negative count is a failure.
type Host interface {
	Transfer(m *Msg) (int, error)
}

// VBlankWaiter is implemented by hosts that can wait for the next vertical
// blanking period. Fences use it when available.
type VBlankWaiter interface {
	WaitVBlank() error
}

// Engine is the command engine of the DSI host, with the link clocks it
// needs. Reads enable it for their duration.
type Engine interface {
	Enable() error
	Disable() error
}
