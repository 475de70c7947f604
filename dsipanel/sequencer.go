// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/hwcore/common"
	"github.com/jonboulle/clockwork"
)

// Transmit sends the packets of set in order and returns the number of bytes
// transferred.
//
// An empty or nil set is a no-op. The first failed packet aborts the
// sequence; packets already sent are not retried. A packet with a PostWait
// delays the next one by at least that duration.
func Transmit(h Host, clk clockwork.Clock, set *CommandSet) (int, error) {
	if set == nil || len(set.Cmds) == 0 {
		return 0, nil
	}
	total := 0
	for i := range set.Cmds {
		c := &set.Cmds[i]
		m := Msg{Type: c.Type, Tx: c.Payload}
		if set.State == LP {
			m.Flags |= MsgUseLPM
		}
		if c.Last {
			m.Flags |= MsgLastCommand
		}
		n, err := h.Transfer(&m)
		if err == nil && n < 0 {
			err = fmt.Errorf("negative length %d", n)
		}
		if err != nil {
			return total, fmt.Errorf("dsipanel: %s packet %d: %w", set.Type, i, err)
		}
		total += n
		if c.PostWait > 0 {
			clk.Sleep(c.PostWait)
		}
	}
	return total, nil
}

// Patch overwrites payload bytes of packet index of set starting at offset.
//
// The first payload byte of the packet must be tag, otherwise
// common.ErrProtocolMismatch is returned and nothing is written. Offset 0,
// the command byte itself, cannot be patched.
func Patch(set *CommandSet, index int, tag byte, offset int, data []byte) error {
	if set == nil || index < 0 || index >= len(set.Cmds) {
		return fmt.Errorf("dsipanel: patch packet %d: %w", index, common.ErrInvalidArgument)
	}
	p := set.Cmds[index].Payload
	if len(p) == 0 || p[0] != tag {
		got := "empty"
		if len(p) != 0 {
			got = fmt.Sprintf("%#02x", p[0])
		}
		return fmt.Errorf("dsipanel: patch %s packet %d: %w: command %s, want %#02x", set.Type, index, common.ErrProtocolMismatch, got, tag)
	}
	if offset < 1 || offset+len(data) > len(p) {
		return fmt.Errorf("dsipanel: patch %s packet %d: %w: %d bytes at offset %d of %d", set.Type, index, common.ErrInvalidArgument, len(data), offset, len(p))
	}
	copy(p[offset:], data)
	return nil
}

// brightness encodes level as the two parameter bytes of a set display
// brightness command, keeping only the bits in mask.
//
// Panels with an inverted DBV take the low byte first.
func (p *Panel) brightness(level int, mask uint16) []byte {
	b := make([]byte, 2)
	v := uint16(level) & mask
	if p.opts.InvertedDBV {
		binary.LittleEndian.PutUint16(b, v)
	} else {
		binary.BigEndian.PutUint16(b, v)
	}
	return b
}

// send transmits a set of the current mode. Must be called with mu held.
func (p *Panel) send(t CmdSetType) error {
	set := p.table.CommandSet(p.mode, t)
	if set == nil || len(set.Cmds) == 0 {
		p.log.Debug("dsipanel: empty set", "set", t)
		return nil
	}
	_, err := Transmit(p.host, p.clk, set)
	if err != nil {
		p.log.Error("dsipanel: send", "set", t, "err", err)
		return err
	}
	p.log.Debug("dsipanel: sent", "set", t)
	return nil
}

// patch51 writes level in the 0x51 packet of set t configured at index. A
// negative index means the panel has no such packet and is not an error.
func (p *Panel) patch51(t CmdSetType, index, level int) error {
	if index < 0 {
		return nil
	}
	set := p.table.CommandSet(p.mode, t)
	if set == nil {
		return fmt.Errorf("dsipanel: patch %s: %w: no such set in mode %s", t, common.ErrInvalidArgument, p.mode)
	}
	return Patch(set, index, dcsSetDisplayBrightness, 1, p.brightness(level, 0x0fff))
}

// writeBrightness sends a set display brightness command. Must be called
// with mu held.
func (p *Panel) writeBrightness(level int) error {
	m := Msg{
		Type: DCSLongWrite,
		Tx:   append([]byte{dcsSetDisplayBrightness}, p.brightness(level, 0xffff)...),
	}
	if p.opts.BacklightLP {
		m.Flags |= MsgUseLPM
	}
	n, err := p.host.Transfer(&m)
	if err == nil && n < 0 {
		err = fmt.Errorf("negative length %d", n)
	}
	if err != nil {
		return fmt.Errorf("dsipanel: brightness %d: %w", level, err)
	}
	return nil
}

// EnableReads permits or forbids ReadCommandSet.
func (p *Panel) EnableReads(enable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readsEnabled = enable
}

// ReadCommandSet sends set and reads n bytes of response from its last
// packet.
//
// It fails with common.ErrRecoveryPending while an ESD recovery is pending,
// common.ErrNotReady when the panel is not enabled and common.ErrPermission
// unless reads were enabled with EnableReads. The command engine is held for
// the duration of the read. The response is also kept for LastRead.
func (p *Panel) ReadCommandSet(set *CommandSet, n int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.recoveryPending:
		return nil, fmt.Errorf("dsipanel: read: %w", common.ErrRecoveryPending)
	case !p.initialized:
		return nil, fmt.Errorf("dsipanel: read: %w", common.ErrNotReady)
	case !p.readsEnabled:
		return nil, fmt.Errorf("dsipanel: read: %w", common.ErrPermission)
	case set == nil || len(set.Cmds) == 0 || n <= 0:
		return nil, fmt.Errorf("dsipanel: read: %w", common.ErrInvalidArgument)
	}
	buf := make([]byte, n)
	err := p.withEngine(func() error {
		last := len(set.Cmds) - 1
		if _, err := Transmit(p.host, p.clk, &CommandSet{Type: set.Type, State: set.State, Cmds: set.Cmds[:last]}); err != nil {
			return err
		}
		c := set.Cmds[last]
		m := Msg{Type: c.Type, Tx: c.Payload, Rx: buf, Flags: MsgLastCommand}
		if set.State == LP {
			m.Flags |= MsgUseLPM
		}
		got, err := p.host.Transfer(&m)
		if err == nil && got <= 0 {
			err = fmt.Errorf("read returned %d bytes", got)
		}
		if err != nil {
			return err
		}
		buf = buf[:min(got, n)]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dsipanel: read %s: %w", set.Type, err)
	}
	p.lastRead = append(p.lastRead[:0], buf...)
	return buf, nil
}

// LastRead returns a copy of the response of the last successful
// ReadCommandSet.
func (p *Panel) LastRead() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.lastRead...)
}

// readDCS reads len(buf) bytes of DCS register cmd. Must be called with mu
// held.
func (p *Panel) readDCS(cmd byte, buf []byte) error {
	return p.withEngine(func() error {
		m := Msg{Type: DCSRead, Flags: MsgUseLPM | MsgLastCommand, Tx: []byte{cmd}, Rx: buf}
		n, err := p.host.Transfer(&m)
		if err == nil && n != len(buf) {
			err = fmt.Errorf("read %#02x: got %d bytes, want %d", cmd, n, len(buf))
		}
		return err
	})
}

// withEngine runs f with a command engine reference held. The reference is
// released on every path.
func (p *Panel) withEngine(f func() error) error {
	if err := p.engine.Get(); err != nil {
		return fmt.Errorf("%w: command engine: %w", common.ErrPermission, err)
	}
	err := f()
	if err2 := p.engine.Put(); err2 != nil {
		p.log.Error("dsipanel: release command engine", "err", err2)
		err = errors.Join(err, err2)
	}
	return err
}

// WriteCommandSet sends a set built by the caller, such as a register write
// requested through a debug interface.
func (p *Panel) WriteCommandSet(set *CommandSet) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return 0, fmt.Errorf("dsipanel: write: %w", common.ErrNotReady)
	}
	if set == nil || set.State > LP {
		return 0, fmt.Errorf("dsipanel: write: %w", common.ErrInvalidArgument)
	}
	return Transmit(p.host, p.clk, set)
}
