// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel

import (
	"fmt"
	"sort"

	"github.com/GermanBionicSystems/hwcore/common"
	"periph.io/x/conn/v3/display"
)

// Backlight implements display.DisplayBacklight.
func (p *Panel) Backlight(intensity display.Intensity) error {
	return p.SetBacklight(int(intensity))
}

// SetBacklight sets the panel brightness, from 0 (off) to MaxBrightness.
//
// While DC is on, levels between 0 and the DC threshold are left to DC and
// not sent. Raising the level from 0 schedules a dimming restore.
func (p *Panel) SetBacklight(level int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return fmt.Errorf("dsipanel: backlight: %w", common.ErrNotReady)
	}
	if level < 0 || level > p.opts.MaxBrightness {
		return fmt.Errorf("dsipanel: backlight %d: %w", level, common.ErrInvalidArgument)
	}
	if p.dcOwnsBacklight(level) {
		p.log.Info("dsipanel: backlight left to DC", "level", level)
		return nil
	}
	if err := p.updateDCStatus(level); err != nil {
		return fmt.Errorf("dsipanel: backlight %d: %w", level, err)
	}
	if err := p.writeBrightness(level); err != nil {
		return err
	}
	p.demura(level)
	p.updateLastBL(level)
	return nil
}

func (p *Panel) dcOwnsBacklight(level int) bool {
	return p.features[FeatureDC] == FeatureOn && p.opts.DCThreshold > 0 &&
		level != 0 && level < p.opts.DCThreshold
}

// updateDCStatus leaves CRC off when the backlight comes back on, and drops
// DC once the backlight is off.
func (p *Panel) updateDCStatus(level int) error {
	if p.opts.DCThreshold == 0 {
		return nil
	}
	if level > 0 && p.lastBL == 0 {
		if err := p.send(CmdSetCRCOff); err != nil {
			return err
		}
	}
	if level == 0 {
		p.features[FeatureDC] = FeatureOff
	}
	return nil
}

// updateLastBL tracks the backlight and schedules the dimming restore.
func (p *Panel) updateLastBL(level int) {
	if (p.lastBL == 0 || p.dimming == DimmingRestore) && level > 0 {
		p.scheduleDimmingRestore()
		if p.dimming == DimmingRestore {
			p.dimming = DimmingNone
		}
	}
	p.lastBL = level
	if level != 0 {
		p.lastNonZeroBL = level
	}
}

// scheduleDimmingRestore turns dimming on after DimmingRestoreDelay, from its
// own goroutine. Every call schedules a restore of its own; a restore still
// pending is neither cancelled nor merged with the new one.
func (p *Panel) scheduleDimmingRestore() {
	p.clk.AfterFunc(p.opts.DimmingRestoreDelay, func() {
		if err := p.SetFeature(FeatureDimming, FeatureOn); err != nil {
			p.log.Warn("dsipanel: dimming restore", "err", err)
		}
	})
}

// demura sends the demura compensation of the bucket level falls in, unless
// DC is on or the bucket is already applied. A bucket that failed to send is
// sent again on the next change.
func (p *Panel) demura(level int) {
	levels := p.opts.DemuraLevels
	if len(levels) == 0 || p.features[FeatureDC] == FeatureOn {
		return
	}
	if level == 0 {
		p.demuraMask = 0
		return
	}
	i := sort.SearchInts(levels, level)
	if i == len(levels) || p.demuraMask&(1<<i) != 0 {
		return
	}
	if err := p.send(CmdSetDemuraL1 + CmdSetType(i)); err != nil {
		p.log.Warn("dsipanel: demura", "level", level, "err", err)
		return
	}
	p.demuraMask = 1 << i
}

// setDC sends DC on or off. Turning DC off forgets the applied demura bucket
// so the next backlight change sends it again.
func (p *Panel) setDC(on bool) error {
	if !on {
		p.demuraMask = 0
	}
	t := CmdSetDCOff
	if on {
		t = CmdSetDCOn
	}
	if err := p.send(t); err != nil {
		return err
	}
	p.dcEnabled = on
	return nil
}

// updateBacklightInAOD writes the backlight directly while in doze: the last
// level when restore is set, the doze tier level otherwise.
func (p *Panel) updateBacklightInAOD(restore bool) error {
	level := p.lastBL
	if !restore {
		switch p.dozeBackup {
		case DozeHBM:
			level = p.opts.DozeHBMLevel
		case DozeLBM:
			level = p.opts.DozeLBMLevel
		default:
			return nil
		}
	}
	return p.writeBrightness(level)
}
