// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel

import "fmt"

// GIRFence applies a pending GIR change. It is meant to be called at frame
// commit time.
func (p *Panel) GIRFence() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	want := p.features[FeatureGIR] == FeatureOn
	if err := p.fence(want, &p.girEnabled, CmdSetFlatModeOn, CmdSetFlatModeOff); err != nil {
		return fmt.Errorf("dsipanel: gir fence: %w", err)
	}
	return nil
}

// DCFence applies a pending DC change. It is meant to be called at frame
// commit time.
func (p *Panel) DCFence() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	want := p.features[FeatureDC] == FeatureOn
	if err := p.fence(want, &p.dcEnabled, CmdSetDCOn, CmdSetDCOff); err != nil {
		return fmt.Errorf("dsipanel: dc fence: %w", err)
	}
	return nil
}

// fence sends on or off when *enabled differs from want, then waits for the
// next vblank if the host can. Turning on is skipped in doze.
func (p *Panel) fence(want bool, enabled *bool, on, off CmdSetType) error {
	if want == *enabled {
		return nil
	}
	t := off
	if want {
		if p.inDoze() {
			p.log.Info("dsipanel: skip fence in doze", "set", on)
			return nil
		}
		t = on
	}
	if err := p.send(t); err != nil {
		return err
	}
	if v, ok := p.host.(VBlankWaiter); ok {
		if err := v.WaitVBlank(); err != nil {
			return err
		}
	}
	*enabled = want
	return nil
}
