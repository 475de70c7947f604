// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/hwcore/common"
	"github.com/GermanBionicSystems/hwcore/dsipanel"
	"github.com/GermanBionicSystems/hwcore/dsipanel/dsitest"
	"github.com/google/go-cmp/cmp"
)

func TestFeatureNotInitialized(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.p.SetFeature(dsipanel.FeatureHBM, dsipanel.FeatureOn); !errors.Is(err, common.ErrNotReady) {
		t.Fatalf("SetFeature(HBM) = %v", err)
	}
	for _, tc := range []struct {
		id    dsipanel.FeatureID
		value int
	}{
		{dsipanel.FeatureSensorLux, 300},
		{dsipanel.FeatureLowBrightnessFOD, 1},
		{dsipanel.FeatureFPStatus, dsipanel.FPAuthStart},
		{dsipanel.FeatureFoldStatus, 1},
	} {
		if err := f.p.SetFeature(tc.id, tc.value); err != nil {
			t.Fatalf("SetFeature(%s) = %v", tc.id, err)
		}
		if v := f.p.Feature(tc.id); v != tc.value {
			t.Fatalf("Feature(%s) = %d, want %d", tc.id, v, tc.value)
		}
	}
	f.sets(t)
	if !f.p.Folded() {
		t.Fatal("not folded")
	}
	if err := f.p.SetFeature(dsipanel.FeatureID(99), 1); !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("unknown feature: %v", err)
	}
}

func TestSharedFold(t *testing.T) {
	fold := &dsipanel.SharedFold{}
	a := newFixture(t, func(o *dsipanel.Opts) { o.Fold = fold })
	b := newFixture(t, func(o *dsipanel.Opts) { o.Fold = fold })
	if err := a.p.SetFeature(dsipanel.FeatureFoldStatus, 1); err != nil {
		t.Fatal(err)
	}
	if !b.p.Folded() || !fold.Folded() {
		t.Fatal("fold state not shared")
	}
}

func TestHBMSuppressedByFingerprint(t *testing.T) {
	for _, tc := range []struct {
		name  string
		setup func(p *dsipanel.Panel) error
	}{
		{"fp status", func(p *dsipanel.Panel) error {
			return p.SetFeature(dsipanel.FeatureFPStatus, dsipanel.FPAuthStart)
		}},
		{"hbm fod", func(p *dsipanel.Panel) error {
			return p.SetFeature(dsipanel.FeatureHBMFOD, dsipanel.FeatureOn)
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.enable(t)
			if err := tc.setup(f.p); err != nil {
				t.Fatal(err)
			}
			f.host.Reset()
			if err := f.p.SetFeature(dsipanel.FeatureHBM, dsipanel.FeatureOn); err != nil {
				t.Fatal(err)
			}
			f.sets(t)
			if v := f.p.Feature(dsipanel.FeatureHBM); v != dsipanel.FeatureOn {
				t.Fatalf("HBM tracked as %d", v)
			}
			if err := f.p.SetFeature(dsipanel.FeatureHBM, dsipanel.FeatureOff); err != nil {
				t.Fatal(err)
			}
			f.sets(t)
		})
	}
}

func TestHBMBlocksDimming(t *testing.T) {
	f := newFixture(t, nil)
	f.enable(t)
	if err := f.p.SetBacklight(0x2AB); err != nil {
		t.Fatal(err)
	}
	if err := f.p.SetFeature(dsipanel.FeatureHBM, dsipanel.FeatureOn); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetHBMOn)
	if d := f.p.Status().Dimming; d != dsipanel.DimmingBlock {
		t.Fatalf("dimming %s", d)
	}
	if err := f.p.SetFeature(dsipanel.FeatureDimming, dsipanel.FeatureOn); err != nil {
		t.Fatal(err)
	}
	f.sets(t)
	if v := f.p.Feature(dsipanel.FeatureDimming); v != dsipanel.FeatureOff {
		t.Fatalf("dimming tracked as %d while blocked", v)
	}

	if err := f.p.SetFeature(dsipanel.FeatureHBM, dsipanel.FeatureOff); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetHBMOff)
	if diff := cmp.Diff(f.table.CommandSet(m60, dsipanel.CmdSetHBMOff).Cmds[dsitest.Index51].Payload, []byte{0x51, 0x02, 0xAB}); diff != "" {
		t.Fatalf("HBM off 0x51 (-got +want)\n%s", diff)
	}
	if d := f.p.Status().Dimming; d != dsipanel.DimmingRestore {
		t.Fatalf("dimming %s", d)
	}
	if err := f.p.SetFeature(dsipanel.FeatureDimming, dsipanel.FeatureOn); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetDimmingOn)
}

func TestDozeBrightnessOutsideDoze(t *testing.T) {
	f := newFixture(t, nil)
	f.enable(t)
	for _, d := range []dsipanel.DozeBrightness{dsipanel.DozeHBM, dsipanel.DozeLBM} {
		if err := f.p.SetFeature(dsipanel.FeatureDozeBrightness, int(d)); err != nil {
			t.Fatal(err)
		}
		if len(f.host.Msgs) != 0 {
			t.Fatalf("sent %v", f.host.Msgs)
		}
		if got := f.p.DozeBrightness(); got != dsipanel.DozeToNormal {
			t.Fatalf("doze brightness %s", got)
		}
		if v := f.p.Feature(dsipanel.FeatureDozeBrightness); v != int(dsipanel.DozeToNormal) {
			t.Fatalf("tracked %d", v)
		}
	}
	// The framework path follows the same rule.
	if err := f.p.SetDozeBrightness(dsipanel.DozeHBM); err != nil {
		t.Fatal(err)
	}
	f.sets(t)
	if got := f.p.DozeBrightness(); got != dsipanel.DozeToNormal {
		t.Fatalf("doze brightness %s", got)
	}
	// Back to normal outside doze sends nothing either.
	if err := f.p.SetFeature(dsipanel.FeatureDozeBrightness, int(dsipanel.DozeToNormal)); err != nil {
		t.Fatal(err)
	}
	f.sets(t)
	if err := f.p.SetFeature(dsipanel.FeatureDozeBrightness, 7); !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("invalid tier: %v", err)
	}
}

func TestDozeToNormal(t *testing.T) {
	f := newFixture(t, nil)
	f.enable(t)
	if err := f.p.SetPowerMode(dsipanel.PowerLP1); err != nil {
		t.Fatal(err)
	}
	if err := f.p.SetFeature(dsipanel.FeatureDozeBrightness, int(dsipanel.DozeLBM)); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetLP1, dsipanel.CmdSetDozeLBM)
	// 15 == 0x0F.
	if diff := cmp.Diff(f.table.CommandSet(m60, dsipanel.CmdSetDozeLBM).Cmds[dsitest.Index51].Payload, []byte{0x51, 0x00, 0x0F}); diff != "" {
		t.Fatalf("doze LBM 0x51 (-got +want)\n%s", diff)
	}
	if err := f.p.SetFeature(dsipanel.FeatureDozeBrightness, int(dsipanel.DozeToNormal)); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetDozeLBMNoLP)
	s := f.p.Status()
	if s.Doze != dsipanel.DozeToNormal || s.DozeBackup != dsipanel.DozeToNormal || s.Dimming != dsipanel.DimmingRestore {
		t.Fatalf("after to normal: %+v", s)
	}
}

func TestAODToNormal(t *testing.T) {
	f := newFixture(t, nil)
	f.enable(t)
	if err := f.p.SetBacklight(0x123); err != nil {
		t.Fatal(err)
	}
	if err := f.p.SetPowerMode(dsipanel.PowerLP1); err != nil {
		t.Fatal(err)
	}
	if err := f.p.SetFeature(dsipanel.FeatureDozeBrightness, int(dsipanel.DozeLBM)); err != nil {
		t.Fatal(err)
	}
	f.host.Reset()

	if err := f.p.SetFeature(dsipanel.FeatureAODToNormal, dsipanel.FeatureOn); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f.host.Brightness(), [][]byte{{0x00, 0x0F}}); diff != "" {
		t.Fatalf("brightness (-got +want)\n%s", diff)
	}
	f.sets(t, dsipanel.CmdSetDozeLBMNoLP)
	if s := f.p.Status().State; s != dsipanel.StateOn {
		t.Fatalf("state %s", s)
	}

	if err := f.p.SetFeature(dsipanel.FeatureAODToNormal, dsipanel.FeatureOff); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetDozeLBM)
	if s := f.p.Status().State; s != dsipanel.StateDozeLow {
		t.Fatalf("state %s", s)
	}

	// A fingerprint stop restores the backlight and disables the toggle.
	if err := f.p.SetFeature(dsipanel.FeatureFPStatus, dsipanel.FPAuthStop); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f.host.Brightness(), [][]byte{{0x01, 0x23}}); diff != "" {
		t.Fatalf("brightness (-got +want)\n%s", diff)
	}
	f.host.Reset()
	if err := f.p.SetFeature(dsipanel.FeatureAODToNormal, dsipanel.FeatureOn); err != nil {
		t.Fatal(err)
	}
	if len(f.host.Msgs) != 0 {
		t.Fatalf("sent %v", f.host.Msgs)
	}
}

func TestFeatureFailureKeepsValue(t *testing.T) {
	for _, tc := range []struct {
		id    dsipanel.FeatureID
		value int
	}{
		{dsipanel.FeatureFlatMode, dsipanel.FeatureOn},
		{dsipanel.FeatureNatureFlatMode, dsipanel.FeatureOn},
		{dsipanel.FeatureColorInvert, dsipanel.FeatureOn},
		{dsipanel.FeatureHBM, dsipanel.FeatureOn},
		{dsipanel.FeatureSPRRender, dsipanel.SPR2D},
		{dsipanel.FeatureDC, dsipanel.FeatureOn},
		{dsipanel.FeatureDCBacklight, 100},
		{dsipanel.FeatureDBI, 0x20},
	} {
		t.Run(tc.id.String(), func(t *testing.T) {
			f := newFixture(t, nil)
			f.enable(t)
			f.host.Err = errors.New("nack")
			if err := f.p.SetFeature(tc.id, tc.value); err == nil {
				t.Fatal("expected error")
			}
			if v := f.p.Feature(tc.id); v != 0 {
				t.Fatalf("tracked %d after failure", v)
			}
		})
	}
}

func TestSPRRender(t *testing.T) {
	f := newFixture(t, nil)
	f.enable(t)
	if err := f.p.SetFeature(dsipanel.FeatureSPRRender, dsipanel.SPR1D); err != nil {
		t.Fatal(err)
	}
	if err := f.p.SetFeature(dsipanel.FeatureSPRRender, dsipanel.SPR2D); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetSPR1D, dsipanel.CmdSetSPR2D)
	if err := f.p.SetFeature(dsipanel.FeatureSPRRender, 3); !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("SetFeature(SPR, 3) = %v", err)
	}
	if v := f.p.Feature(dsipanel.FeatureSPRRender); v != dsipanel.SPR2D {
		t.Fatalf("tracked %d", v)
	}
}

func TestColorInvert(t *testing.T) {
	f := newFixture(t, nil)
	f.enable(t)
	if err := f.p.SetFeature(dsipanel.FeatureColorInvert, dsipanel.FeatureOn); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetColorInvertOn)
	if b := f.host.Brightness(); len(b) != 0 {
		t.Fatalf("brightness written: %v", b)
	}
}

func TestCRC(t *testing.T) {
	f := newFixture(t, nil)
	f.enable(t)
	if err := f.p.SetFeature(dsipanel.FeatureCRC, dsipanel.FeatureOn); err != nil {
		t.Fatal(err)
	}
	f.sets(t)
	if err := f.p.SetFeature(dsipanel.FeatureCRC, dsipanel.FeatureOff); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetCRCOff)
}

func TestDCBacklight(t *testing.T) {
	f := newFixture(t, func(o *dsipanel.Opts) { o.InvertedDBV = true })
	f.enable(t)
	if err := f.p.SetDCBacklight(0x123); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f.host.Brightness(), [][]byte{{0x23, 0x01}}); diff != "" {
		t.Fatalf("brightness (-got +want)\n%s", diff)
	}
	if s := f.p.Status(); s.LastBL != 0 {
		t.Fatalf("backlight tracked as %d", s.LastBL)
	}
	if err := f.p.SetDCBacklight(5000); !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("out of range: %v", err)
	}
}

func TestCupDBI(t *testing.T) {
	f := newFixture(t, nil)
	f.enable(t)
	if err := f.p.SetFeature(dsipanel.FeatureDBI, 0x22); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetCupDBI)
	want := []byte{0xD2, 0, 0, 0, 0, 0, 0, 0, 0x22, 0x22, 0x22, 0x22}
	if diff := cmp.Diff(f.table.CommandSet(m60, dsipanel.CmdSetCupDBI).Cmds[dsitest.CupDBIIndex].Payload, want); diff != "" {
		t.Fatalf("(-got +want)\n%s", diff)
	}
	if v := f.p.Feature(dsipanel.FeatureDBI); v != 0x22 {
		t.Fatalf("tracked %#x", v)
	}

	g := newFixture(t, func(o *dsipanel.Opts) { o.CupDBIIndex = -1 })
	g.enable(t)
	if err := g.p.SetFeature(dsipanel.FeatureDBI, 0x22); !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("unsupported: %v", err)
	}
	g.sets(t)
}

func TestGIRFence(t *testing.T) {
	f := newFixture(t, nil)
	f.enable(t)
	if err := f.p.SetFeature(dsipanel.FeatureGIR, dsipanel.FeatureOn); err != nil {
		t.Fatal(err)
	}
	f.sets(t)
	if err := f.p.GIRFence(); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetFlatModeOn)
	if f.host.VBlanks != 1 {
		t.Fatalf("%d vblanks", f.host.VBlanks)
	}
	if err := f.p.GIRFence(); err != nil {
		t.Fatal(err)
	}
	f.sets(t)

	// GIR uses its own timing switch.
	if err := f.p.SwitchMode(m120); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetTimingSwitchGIR)

	// Setting it on again forces it to be resent.
	if err := f.p.SetFeature(dsipanel.FeatureGIR, dsipanel.FeatureOn); err != nil {
		t.Fatal(err)
	}
	if err := f.p.GIRFence(); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetFlatModeOn)

	if err := f.p.SetFeature(dsipanel.FeatureGIR, dsipanel.FeatureOff); err != nil {
		t.Fatal(err)
	}
	if err := f.p.GIRFence(); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetFlatModeOff)
}

func TestDCFence(t *testing.T) {
	f := newFixture(t, func(o *dsipanel.Opts) { o.DCSyncTE = true })
	f.enable(t)
	if err := f.p.SetPowerMode(dsipanel.PowerLP1); err != nil {
		t.Fatal(err)
	}
	f.host.Reset()
	if err := f.p.SetFeature(dsipanel.FeatureDC, dsipanel.FeatureOn); err != nil {
		t.Fatal(err)
	}
	if err := f.p.DCFence(); err != nil {
		t.Fatal(err)
	}
	f.sets(t)

	if err := f.p.SetPowerMode(dsipanel.PowerOn); err != nil {
		t.Fatal(err)
	}
	f.host.Reset()
	if err := f.p.DCFence(); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetDCOn)
	if err := f.p.SetFeature(dsipanel.FeatureDC, dsipanel.FeatureOff); err != nil {
		t.Fatal(err)
	}
	f.sets(t)
	if err := f.p.DCFence(); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetDCOff)
	if f.host.VBlanks != 2 {
		t.Fatalf("%d vblanks", f.host.VBlanks)
	}
}

func TestUpdateFlatModeParams(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.p.UpdateFlatModeParams(); !errors.Is(err, common.ErrNotReady) {
		t.Fatalf("not enabled: %v", err)
	}
	f.enable(t)
	f.host.Reads = map[byte][]byte{0xB8: {1, 2, 3, 4}}
	if err := f.p.UpdateFlatModeParams(); err != nil {
		t.Fatal(err)
	}
	f.sets(t, dsipanel.CmdSetFlatModeReadPre)
	for _, m := range []dsipanel.Mode{m60, m120} {
		got := f.table.CommandSet(m, dsipanel.CmdSetFlatModeOn).Cmds[dsitest.FlatModeIndex].Payload
		if diff := cmp.Diff(got, []byte{0xB9, 1, 2, 3, 4}); diff != "" {
			t.Fatalf("%s (-got +want)\n%s", m, diff)
		}
	}
	if f.engine.Enables != 1 || f.engine.Disables != 1 {
		t.Fatalf("engine enabled %d disabled %d", f.engine.Enables, f.engine.Disables)
	}
	// Once per power cycle.
	if err := f.p.UpdateFlatModeParams(); err != nil {
		t.Fatal(err)
	}
	f.sets(t)

	g := newFixture(t, func(o *dsipanel.Opts) { o.FlatModeIndex = -1 })
	g.enable(t)
	if err := g.p.UpdateFlatModeParams(); !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("unsupported: %v", err)
	}
}

func TestReport(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.p.SetFeature(dsipanel.FeatureSensorLux, 42); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.p.Report(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 19 {
		t.Fatalf("%d lines:\n%s", len(lines), buf.String())
	}
	want := []string{
		"                feature name[feature id]: feature value",
		fmt.Sprintf("%36s[08]: 42", "DISP_FEATURE_SENSOR_LUX"),
		fmt.Sprintf("%36s[17]: 0", "DISP_FEATURE_DBI"),
	}
	if diff := cmp.Diff([]string{lines[0], lines[9], lines[18]}, want); diff != "" {
		t.Fatalf("(-got +want)\n%s", diff)
	}
}
