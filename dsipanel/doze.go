// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel

import (
	"fmt"
	"strconv"

	"github.com/GermanBionicSystems/hwcore/common"
)

// DozeBrightness is the brightness tier used while in doze.
type DozeBrightness uint8

// Doze tiers.
const (
	DozeToNormal DozeBrightness = iota
	DozeHBM
	DozeLBM
)

func (d DozeBrightness) String() string {
	switch d {
	case DozeToNormal:
		return "ToNormal"
	case DozeHBM:
		return "HBM"
	case DozeLBM:
		return "LBM"
	default:
		return "DozeBrightness(" + strconv.Itoa(int(d)) + ")"
	}
}

// SetDozeBrightness selects the doze tier, restoring the last non zero
// backlight in it.
//
// A doze tier requested while the panel is not dozing is not sent: the tier
// is reset to DozeToNormal and nil is returned.
func (p *Panel) SetDozeBrightness(d DozeBrightness) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d > DozeLBM {
		return fmt.Errorf("dsipanel: doze brightness %s: %w", d, common.ErrInvalidArgument)
	}
	if d != DozeToNormal && !p.inDoze() {
		p.log.Warn("dsipanel: skip doze brightness", "doze", d, "power", p.power, "initialized", p.initialized)
		p.doze = DozeToNormal
		return nil
	}
	if d == DozeToNormal {
		p.aodActive = false
	} else {
		p.aodActive = true
		if err := p.enterDoze(d, p.lastNonZeroBL); err != nil {
			return fmt.Errorf("dsipanel: doze brightness %s: %w", d, err)
		}
	}
	p.doze = d
	return nil
}

// DozeBrightness returns the current doze tier.
func (p *Panel) DozeBrightness() DozeBrightness {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doze
}

// dozeSet returns the set, 0x51 packet index and flags event of tier d.
func (p *Panel) dozeSet(d DozeBrightness) (CmdSetType, int, event) {
	if d == DozeLBM {
		return CmdSetDozeLBM, p.opts.DozeLBM51Index, eventDozeLow
	}
	return CmdSetDozeHBM, p.opts.DozeHBM51Index, eventDozeHigh
}

// enterDoze sends the doze set of tier d with level patched in.
func (p *Panel) enterDoze(d DozeBrightness, level int) error {
	t, index, e := p.dozeSet(d)
	if err := p.patch51(t, index, level); err != nil {
		return err
	}
	if err := p.send(t); err != nil {
		return err
	}
	p.updateFlags(e)
	p.dozeBackup = d
	return nil
}

// restoreDozeBrightness resends the doze tier when entering a doze mode.
func (p *Panel) restoreDozeBrightness() error {
	if p.doze != DozeHBM && p.doze != DozeLBM {
		return nil
	}
	return p.enterDoze(p.doze, p.lastNonZeroBL)
}

// noLP leaves doze with the set matching the tier in use.
func (p *Panel) noLP() error {
	t := CmdSetNoLP
	switch p.dozeBackup {
	case DozeHBM:
		t = CmdSetDozeHBMNoLP
	case DozeLBM:
		t = CmdSetDozeLBMNoLP
	}
	err := p.send(t)
	p.dozeBackup = DozeToNormal
	return err
}

// setDozeFeature applies FeatureDozeBrightness. Tiers are only sent while
// dozing; otherwise the tier is forced back to DozeToNormal.
func (p *Panel) setDozeFeature(d DozeBrightness) error {
	switch {
	case d != DozeToNormal && p.inDoze():
		level := p.opts.DozeHBMLevel
		if d == DozeLBM {
			level = p.opts.DozeLBMLevel
		}
		if err := p.enterDoze(d, level); err != nil {
			return err
		}
		p.doze = d
	case d != DozeToNormal:
		p.log.Warn("dsipanel: doze brightness while not dozing", "doze", d, "power", p.power)
		p.doze = DozeToNormal
		p.dozeBackup = DozeToNormal
		d = DozeToNormal
	default:
		if p.inDoze() {
			if err := p.noLP(); err != nil {
				return err
			}
			p.dimming = DimmingRestore
		}
		p.doze = DozeToNormal
		p.dozeBackup = DozeToNormal
	}
	p.features[FeatureDozeBrightness] = int(d)
	return nil
}

// setAODToNormal leaves (on) or re-enters (off) the doze tier while the
// display stays in a doze power mode, as done around fingerprint
// authentication.
func (p *Panel) setAODToNormal(on bool) error {
	if p.fingerprintStopped() {
		p.log.Info("dsipanel: fingerprint stopped, skip aod to normal", "on", on)
		return nil
	}
	d := p.dozeBackup
	if d != DozeHBM && d != DozeLBM {
		p.log.Info("dsipanel: aod to normal without doze tier", "on", on)
		return nil
	}
	if !on {
		level := p.opts.DozeHBMLevel
		if d == DozeLBM {
			level = p.opts.DozeLBMLevel
		}
		return p.enterDoze(d, level)
	}
	if err := p.updateBacklightInAOD(false); err != nil {
		return err
	}
	t := CmdSetDozeHBMNoLP
	if d == DozeLBM {
		t = CmdSetDozeLBMNoLP
	}
	if err := p.send(t); err != nil {
		return err
	}
	p.updateFlags(eventNoLP)
	return nil
}
