// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel

import (
	"fmt"

	"github.com/GermanBionicSystems/hwcore/common"
)

// PanelDeadEvent is delivered through Opts.OnPanelDead when the panel stops
// responding. The display framework is expected to re-initialize it.
type PanelDeadEvent struct {
	// Power is the power mode the panel was in.
	Power PowerMode
}

// SetESDIRQ enables or disables ESD detection. Enabling requires an enabled
// panel.
func (p *Panel) SetESDIRQ(enable bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if enable && !p.initialized {
		return fmt.Errorf("dsipanel: esd irq: %w", common.ErrNotReady)
	}
	if p.esdEnabled == enable {
		return nil
	}
	p.esdEnabled = enable
	p.log.Info("dsipanel: esd irq", "enabled", enable)
	return nil
}

// TriggerESD reports an ESD detected by other means than the ESD line, for
// example a failed status register read.
func (p *Panel) TriggerESD() error {
	p.mu.Lock()
	initialized := p.initialized
	p.mu.Unlock()
	if !initialized {
		return fmt.Errorf("dsipanel: esd: %w", common.ErrNotReady)
	}
	p.panelDead()
	return nil
}

// handleESD is called on a falling edge of the ESD line.
func (p *Panel) handleESD() {
	p.mu.Lock()
	enabled := p.esdEnabled
	p.esdEnabled = false
	p.mu.Unlock()
	if !enabled {
		return
	}
	p.panelDead()
}

// panelDead reports the panel dead once per episode. The episode ends with
// Enable.
func (p *Panel) panelDead() {
	p.mu.Lock()
	if !p.initialized || p.recoveryPending || p.dead {
		p.mu.Unlock()
		p.log.Info("dsipanel: esd already pending")
		return
	}
	p.recoveryPending = true
	p.dead = true
	ev := PanelDeadEvent{Power: p.power}
	p.mu.Unlock()
	p.log.Error("dsipanel: panel dead", "power", ev.Power)
	if p.opts.OnPanelDead != nil {
		p.opts.OnPanelDead(ev)
	}
}
