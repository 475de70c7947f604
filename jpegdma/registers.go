// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package jpegdma

import (
	"periph.io/x/conn/v3/mmr"
)

// Registers is the register window of the DMA block.
//
// *mmr.Dev16 implements it.
type Registers interface {
	ReadUint32(reg uint16) (uint32, error)
	WriteUint32(reg uint16, v uint32) error
}

// HWInfo describes the register layout of one revision of the block.
type HWInfo struct {
	// Register offsets.
	HWCmd       uint16
	ResetCmdReg uint16
	IntClear    uint16
	IntStatus   uint16
	IntMask     uint16

	// Register values.
	Start          uint32
	Stop           uint32
	ResetCmd       uint32
	MaskDisableAll uint32
	MaskEnableAll  uint32
	ClearAll       uint32
	StartIntMask   uint32

	// Interrupt status bits.
	FrameDone uint32
	ResetAck  uint32
	StopDone  uint32
}

// DefaultHWInfo is a generic layout. Real revisions pass their own.
var DefaultHWInfo = HWInfo{
	HWCmd:       0x10,
	ResetCmdReg: 0x08,
	IntClear:    0x18,
	IntStatus:   0x1C,
	IntMask:     0x14,

	Start:          0x1,
	Stop:           0x2,
	ResetCmd:       0x1,
	MaskDisableAll: 0x0,
	MaskEnableAll:  0xFFFFFFFF,
	ClearAll:       0xFFFFFFFF,
	StartIntMask:   0x00000601,

	FrameDone: 1 << 0,
	ResetAck:  1 << 10,
	StopDone:  1 << 9,
}

func (h *HWInfo) validate() bool {
	ev := []uint32{h.FrameDone, h.ResetAck, h.StopDone}
	for i, a := range ev {
		if a == 0 {
			return false
		}
		for _, b := range ev[i+1:] {
			if a&b != 0 {
				return false
			}
		}
	}
	return true
}

// regWriter issues a register sequence and keeps the first error. Once a
// write failed the remaining ones are skipped.
type regWriter struct {
	r   Registers
	err error
}

func (w *regWriter) write(reg uint16, v uint32) {
	if w.err != nil {
		return
	}
	w.err = w.r.WriteUint32(reg, v)
}

var _ Registers = &mmr.Dev16{}
