// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package jpegdmatest is meant to be used to test drivers over a simulated
// JPEG DMA block.
package jpegdmatest

import (
	"sync"

	"github.com/GermanBionicSystems/hwcore/jpegdma"
	"periph.io/x/conn/v3/physic"
)

// Write is a register write recorded by Regs.
type Write struct {
	Reg   uint16
	Value uint32
}

// Regs is a simulated register window of a DMA block.
//
// Writing to HW.IntClear clears the written status bits. When AutoAck is set
// the simulated engine answers the reset command with HW.ResetAck, the
// start command with HW.FrameDone and the stop command with HW.StopDone.
type Regs struct {
	sync.Mutex
	HW      jpegdma.HWInfo
	AutoAck bool
	// IRQ is called from a new goroutine every time Raise sets status bits.
	IRQ func()
	// Err is returned by every access when set.
	Err error

	Writes []Write

	status uint32
	values map[uint16]uint32
}

// ReadUint32 implements jpegdma.Registers.
func (r *Regs) ReadUint32(reg uint16) (uint32, error) {
	r.Lock()
	defer r.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	if reg == r.HW.IntStatus {
		return r.status, nil
	}
	return r.values[reg], nil
}

// WriteUint32 implements jpegdma.Registers.
func (r *Regs) WriteUint32(reg uint16, v uint32) error {
	r.Lock()
	if r.Err != nil {
		r.Unlock()
		return r.Err
	}
	r.Writes = append(r.Writes, Write{Reg: reg, Value: v})
	if r.values == nil {
		r.values = map[uint16]uint32{}
	}
	r.values[reg] = v
	var ack uint32
	switch {
	case reg == r.HW.IntClear:
		r.status &^= v
	case !r.AutoAck:
	case reg == r.HW.ResetCmdReg && v == r.HW.ResetCmd:
		ack = r.HW.ResetAck
	case reg == r.HW.HWCmd && v == r.HW.Start:
		ack = r.HW.FrameDone
	case reg == r.HW.HWCmd && v == r.HW.Stop:
		ack = r.HW.StopDone
	}
	r.Unlock()
	if ack != 0 {
		r.Raise(ack)
	}
	return nil
}

// Set sets status bits without raising the interrupt.
func (r *Regs) Set(bits uint32) {
	r.Lock()
	defer r.Unlock()
	r.status |= bits
}

// Raise sets status bits and calls IRQ asynchronously.
func (r *Regs) Raise(bits uint32) {
	r.Lock()
	r.status |= bits
	irq := r.IRQ
	r.Unlock()
	if irq != nil {
		go irq()
	}
}

// Status returns the pending status bits.
func (r *Regs) Status() uint32 {
	r.Lock()
	defer r.Unlock()
	return r.status
}

// Count returns how many times v was written to reg.
func (r *Regs) Count(reg uint16, v uint32) int {
	r.Lock()
	defer r.Unlock()
	n := 0
	for _, w := range r.Writes {
		if w.Reg == reg && w.Value == v {
			n++
		}
	}
	return n
}

// Power is a fake jpegdma.PowerManager recording its calls.
type Power struct {
	sync.Mutex
	Ops   []string
	Votes []jpegdma.Vote
	Rates []physic.Frequency

	VoteErr    error
	UnvoteErr  error
	EnableErr  error
	DisableErr error

	enabled bool
}

// Vote implements jpegdma.PowerManager.
func (p *Power) Vote(v jpegdma.Vote) error {
	p.Lock()
	defer p.Unlock()
	p.Ops = append(p.Ops, "vote")
	p.Votes = append(p.Votes, v)
	return p.VoteErr
}

// Unvote implements jpegdma.PowerManager.
func (p *Power) Unvote() error {
	p.Lock()
	defer p.Unlock()
	p.Ops = append(p.Ops, "unvote")
	return p.UnvoteErr
}

// Enable implements jpegdma.PowerManager.
func (p *Power) Enable(rate physic.Frequency) error {
	p.Lock()
	defer p.Unlock()
	p.Ops = append(p.Ops, "enable")
	p.Rates = append(p.Rates, rate)
	if p.EnableErr != nil {
		return p.EnableErr
	}
	p.enabled = true
	return nil
}

// Disable implements jpegdma.PowerManager.
func (p *Power) Disable() error {
	p.Lock()
	defer p.Unlock()
	p.Ops = append(p.Ops, "disable")
	p.enabled = false
	return p.DisableErr
}

// Enabled reports whether the clocks are on.
func (p *Power) Enabled() bool {
	p.Lock()
	defer p.Unlock()
	return p.enabled
}

var _ jpegdma.Registers = &Regs{}
var _ jpegdma.PowerManager = &Power{}
