// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel

import (
	"fmt"

	"github.com/GermanBionicSystems/hwcore/common"
)

const (
	dcsFlatModeParams byte = 0xB9
	dcsCupDBI         byte = 0xD2
)

// UpdateFlatModeParams reads the flat mode calibration from the panel OTP
// and writes it in the FlatModeOn set of every mode.
//
// It is done once per power cycle; later calls return nil.
func (p *Panel) UpdateFlatModeParams() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opts.FlatModeIndex < 0 || p.opts.FlatModeParams <= 0 {
		return fmt.Errorf("dsipanel: flat mode params: %w: not supported", common.ErrInvalidArgument)
	}
	if !p.initialized {
		return fmt.Errorf("dsipanel: flat mode params: %w", common.ErrNotReady)
	}
	if p.flatUpdated {
		return nil
	}
	if err := p.send(CmdSetFlatModeReadPre); err != nil {
		return fmt.Errorf("dsipanel: flat mode params: %w", err)
	}
	params := make([]byte, p.opts.FlatModeParams)
	if err := p.readDCS(dcsReadFlatModeParams, params); err != nil {
		return fmt.Errorf("dsipanel: flat mode params: %w", err)
	}
	for _, m := range p.table.Modes() {
		set := p.table.CommandSet(m, CmdSetFlatModeOn)
		if set == nil || p.opts.FlatModeIndex >= len(set.Cmds) {
			continue
		}
		n := min(len(params), len(set.Cmds[p.opts.FlatModeIndex].Payload)-1)
		if n <= 0 {
			continue
		}
		if err := Patch(set, p.opts.FlatModeIndex, dcsFlatModeParams, 1, params[:n]); err != nil {
			return fmt.Errorf("dsipanel: flat mode params in %s: %w", m, err)
		}
	}
	p.log.Info("dsipanel: flat mode params updated", "params", fmt.Sprintf("% x", params))
	p.flatUpdated = true
	return nil
}

// setCupDBI writes value in the four DBI bytes of the CupDBI set and sends
// it. Must be called with mu held.
func (p *Panel) setCupDBI(value int) error {
	if p.opts.CupDBIIndex < 0 {
		return fmt.Errorf("cup dbi: %w: not supported", common.ErrInvalidArgument)
	}
	set := p.table.CommandSet(p.mode, CmdSetCupDBI)
	if set == nil {
		return nil
	}
	b := byte(value)
	if err := Patch(set, p.opts.CupDBIIndex, dcsCupDBI, 8, []byte{b, b, b, b}); err != nil {
		return err
	}
	return p.send(CmdSetCupDBI)
}
