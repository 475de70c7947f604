// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package jpegdma

import (
	"fmt"
	"strconv"

	"github.com/GermanBionicSystems/hwcore/common"
)

// CmdType is a command of the hardware manager interface.
type CmdType uint8

// Commands accepted by ProcessCmd.
const (
	CmdCDMConfig CmdType = iota
	CmdSetIRQCallback
	CmdHWDump
	CmdGetNumPID
	CmdMatchPIDMID
)

func (c CmdType) String() string {
	switch c {
	case CmdCDMConfig:
		return "CDMConfig"
	case CmdSetIRQCallback:
		return "SetIRQCallback"
	case CmdHWDump:
		return "HWDump"
	case CmdGetNumPID:
		return "GetNumPID"
	case CmdMatchPIDMID:
		return "MatchPIDMID"
	default:
		return "CmdType(" + strconv.Itoa(int(c)) + ")"
	}
}

// Port classifies the port of a fault.
type Port uint8

// Ports of the block.
const (
	PortInput Port = iota
	PortOutput
)

func (p Port) String() string {
	if p == PortInput {
		return "Input"
	}
	return "Output"
}

// MatchResult is the answer of MatchFault.
type MatchResult struct {
	Found bool
	Port  Port
}

// IRQCallbackArgs is the argument of CmdSetIRQCallback.
type IRQCallbackArgs struct {
	IRQCallback
	Enable bool
}

// MatchArgs is the argument of CmdMatchPIDMID. Result is filled in.
type MatchArgs struct {
	PID      uint32
	FaultMID uint32
	Result   MatchResult
}

// NumProcessIDs returns the number of process ids of the block.
func (d *Dev) NumProcessIDs() uint32 {
	return uint32(len(d.opts.PIDs))
}

// MatchFault classifies a bus fault raised by process pid on module mid.
//
// A fault matches when pid belongs to the block and mid is either the read
// module (PortInput) or the write module (PortOutput).
func (d *Dev) MatchFault(pid, mid uint32) MatchResult {
	for _, p := range d.opts.PIDs {
		if p != pid {
			continue
		}
		switch mid {
		case d.opts.ReadMID:
			return MatchResult{Found: true, Port: PortInput}
		case d.opts.WriteMID:
			return MatchResult{Found: true, Port: PortOutput}
		}
		return MatchResult{}
	}
	return MatchResult{}
}

// ProcessCmd executes a hardware manager command.
//
// args is *IRQCallbackArgs for CmdSetIRQCallback, *uint32 for CmdGetNumPID
// and *MatchArgs for CmdMatchPIDMID. The DMA block has no CDM and no dump
// support, those commands fail with common.ErrInvalidArgument.
func (d *Dev) ProcessCmd(cmd CmdType, args any) error {
	var ok bool
	switch cmd {
	case CmdSetIRQCallback:
		var a *IRQCallbackArgs
		if a, ok = args.(*IRQCallbackArgs); ok && a != nil {
			d.SetIRQCallback(a.IRQCallback, a.Enable)
		}
	case CmdGetNumPID:
		var n *uint32
		if n, ok = args.(*uint32); ok && n != nil {
			*n = d.NumProcessIDs()
		}
	case CmdMatchPIDMID:
		var m *MatchArgs
		if m, ok = args.(*MatchArgs); ok && m != nil {
			m.Result = d.MatchFault(m.PID, m.FaultMID)
		}
	}
	if !ok {
		d.log.Error("jpegdma: bad command", "cmd", cmd, "args", fmt.Sprintf("%T", args))
		return fmt.Errorf("jpegdma: %s: %w", cmd, common.ErrInvalidArgument)
	}
	return nil
}
