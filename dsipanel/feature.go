// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel

import (
	"fmt"
	"io"
	"strconv"

	"github.com/GermanBionicSystems/hwcore/common"
)

// FeatureID names a panel feature applied with SetFeature.
type FeatureID uint8

// Panel features.
const (
	FeatureDimming FeatureID = iota
	FeatureHBM
	FeatureHBMFOD
	FeatureDozeBrightness
	FeatureFlatMode
	FeatureNatureFlatMode
	FeatureCRC
	FeatureDC
	FeatureSensorLux
	FeatureLowBrightnessFOD
	FeatureFPStatus
	FeatureFoldStatus
	FeatureSPRRender
	FeatureAODToNormal
	FeatureColorInvert
	FeatureDCBacklight
	FeatureGIR
	FeatureDBI
	featureCount
)

var featureName = [featureCount]string{
	"DISP_FEATURE_DIMMING",
	"DISP_FEATURE_HBM",
	"DISP_FEATURE_HBM_FOD",
	"DISP_FEATURE_DOZE_BRIGHTNESS",
	"DISP_FEATURE_FLAT_MODE",
	"DISP_FEATURE_NATURE_FLAT_MODE",
	"DISP_FEATURE_CRC",
	"DISP_FEATURE_DC",
	"DISP_FEATURE_SENSOR_LUX",
	"DISP_FEATURE_LOW_BRIGHTNESS_FOD",
	"DISP_FEATURE_FP_STATUS",
	"DISP_FEATURE_FOLD_STATUS",
	"DISP_FEATURE_SPR_RENDER",
	"DISP_FEATURE_AOD_TO_NORMAL",
	"DISP_FEATURE_COLOR_INVERT",
	"DISP_FEATURE_DC_BACKLIGHT",
	"DISP_FEATURE_GIR",
	"DISP_FEATURE_DBI",
}

func (f FeatureID) String() string {
	if f < featureCount {
		return featureName[f]
	}
	return "FeatureID(" + strconv.Itoa(int(f)) + ")"
}

// Feature values.
const (
	FeatureOff = 0
	FeatureOn  = 1
)

// Fingerprint status values of FeatureFPStatus.
const (
	FPNone           = 0
	FPEnrollStart    = 1
	FPEnrollStop     = 2
	FPAuthStart      = 3
	FPAuthStop       = 4
	FPHeartRateStart = 5
	FPHeartRateStop  = 6
)

// SPR rendering values of FeatureSPRRender.
const (
	SPR1D = 1
	SPR2D = 2
)

// SetFeature applies value to feature id.
//
// Only FeatureSensorLux, FeatureFoldStatus, FeatureFPStatus and
// FeatureLowBrightnessFOD may be set while the panel is not enabled; they
// are bookkeeping only. When sending the commands of a feature fails, its
// tracked value is left unchanged.
func (p *Panel) SetFeature(id FeatureID, value int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id >= featureCount {
		return fmt.Errorf("dsipanel: feature %s: %w", id, common.ErrInvalidArgument)
	}
	if !p.initialized && !stateOnlyFeature(id) {
		p.log.Warn("dsipanel: panel not initialized", "feature", id, "value", value)
		return fmt.Errorf("dsipanel: feature %s: %w", id, common.ErrNotReady)
	}
	p.log.Info("dsipanel: set feature", "feature", id, "value", value)
	if err := p.applyFeature(id, value); err != nil {
		return fmt.Errorf("dsipanel: feature %s=%d: %w", id, value, err)
	}
	return nil
}

func stateOnlyFeature(id FeatureID) bool {
	switch id {
	case FeatureSensorLux, FeatureFoldStatus, FeatureFPStatus, FeatureLowBrightnessFOD:
		return true
	}
	return false
}

// applyFeature dispatches one feature. Must be called with mu held.
func (p *Panel) applyFeature(id FeatureID, value int) error {
	on := value == FeatureOn
	switch id {
	case FeatureDimming:
		if p.dimming == DimmingBlock {
			p.log.Info("dsipanel: skip dimming", "value", value)
			return nil
		}
		return p.toggle(id, value, CmdSetDimmingOn, CmdSetDimmingOff)

	case FeatureHBM:
		if p.fingerprintHBM() {
			p.log.Info("dsipanel: fingerprint HBM active, skip HBM", "value", value)
		} else if on {
			if err := p.send(CmdSetHBMOn); err != nil {
				return err
			}
			p.dimming = DimmingBlock
		} else {
			if err := p.patch51(CmdSetHBMOff, p.opts.HBMOff51Index, p.lastBL); err != nil {
				return err
			}
			if err := p.send(CmdSetHBMOff); err != nil {
				return err
			}
			p.dimming = DimmingRestore
		}
		p.features[id] = value

	case FeatureHBMFOD:
		return p.toggle(id, value, CmdSetHBMFODOn, CmdSetHBMFODOff)

	case FeatureDozeBrightness:
		if value < int(DozeToNormal) || value > int(DozeLBM) {
			return common.ErrInvalidArgument
		}
		return p.setDozeFeature(DozeBrightness(value))

	case FeatureFlatMode:
		return p.toggle(id, value, CmdSetFlatModeOn, CmdSetFlatModeOff)

	case FeatureNatureFlatMode:
		return p.toggle(id, value, CmdSetNatureFlatModeOn, CmdSetNatureFlatModeOff)

	case FeatureCRC:
		if value == FeatureOff {
			return p.send(CmdSetCRCOff)
		}

	case FeatureDC:
		if !p.opts.DCSyncTE {
			if err := p.setDC(on); err != nil {
				return err
			}
		}
		p.features[id] = value

	case FeatureSensorLux, FeatureLowBrightnessFOD:
		p.features[id] = value

	case FeatureFPStatus:
		p.features[id] = value
		if p.fingerprintStopped() && p.inDoze() {
			return p.updateBacklightInAOD(true)
		}

	case FeatureFoldStatus:
		p.fold.SetFolded(value != 0)
		p.features[id] = value

	case FeatureSPRRender:
		switch value {
		case SPR1D:
			if err := p.send(CmdSetSPR1D); err != nil {
				return err
			}
		case SPR2D:
			if err := p.send(CmdSetSPR2D); err != nil {
				return err
			}
		default:
			return common.ErrInvalidArgument
		}
		p.features[id] = value

	case FeatureAODToNormal:
		return p.setAODToNormal(on)

	case FeatureColorInvert:
		return p.toggle(id, value, CmdSetColorInvertOn, CmdSetColorInvertOff)

	case FeatureDCBacklight:
		if value < 0 || value > p.opts.MaxBrightness {
			return common.ErrInvalidArgument
		}
		if err := p.writeBrightness(value); err != nil {
			return err
		}
		p.features[id] = value

	case FeatureGIR:
		if p.aodActive {
			p.log.Info("dsipanel: skip GIR in aod", "value", value)
			return nil
		}
		p.features[id] = value
		if on && p.girEnabled {
			// Sent again by the next GIRFence.
			p.girEnabled = false
		}

	case FeatureDBI:
		if err := p.setCupDBI(value); err != nil {
			return err
		}
		p.features[id] = value
	}
	return nil
}

// toggle sends on or off and records value.
func (p *Panel) toggle(id FeatureID, value int, on, off CmdSetType) error {
	t := off
	if value == FeatureOn {
		t = on
	}
	if err := p.send(t); err != nil {
		return err
	}
	p.features[id] = value
	return nil
}

// fingerprintHBM reports whether HBM is driven by fingerprint capture.
func (p *Panel) fingerprintHBM() bool {
	if p.features[FeatureHBMFOD] == FeatureOn {
		return true
	}
	switch p.features[FeatureFPStatus] {
	case FPEnrollStart, FPAuthStart, FPHeartRateStart:
		return true
	}
	return false
}

func (p *Panel) fingerprintStopped() bool {
	switch p.features[FeatureFPStatus] {
	case FPEnrollStop, FPAuthStop, FPHeartRateStop:
		return true
	}
	return false
}

// Feature returns the tracked value of id.
func (p *Panel) Feature(id FeatureID) int {
	if id >= featureCount {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.features[id]
}

// SetDCBacklight writes level as brightness without touching the tracked
// backlight.
func (p *Panel) SetDCBacklight(level int) error {
	return p.SetFeature(FeatureDCBacklight, level)
}

// Report writes the tracked value of every feature, one per line.
func (p *Panel) Report(w io.Writer) error {
	p.mu.Lock()
	features := p.features
	p.mu.Unlock()
	if _, err := fmt.Fprintf(w, "%40s: feature value\n", "feature name[feature id]"); err != nil {
		return err
	}
	for i, v := range features {
		if _, err := fmt.Fprintf(w, "%36s[%02d]: %d\n", FeatureID(i), i, v); err != nil {
			return err
		}
	}
	return nil
}
