// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/GermanBionicSystems/hwcore/brightnessbar"
	"github.com/GermanBionicSystems/hwcore/dsipanel"
	"github.com/GermanBionicSystems/hwcore/dsipanel/dsitest"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/display"
)

func newPanelCmd() *cobra.Command {
	var levels []int
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Walk a simulated DSI panel through backlight levels and doze.",
		Long: "`panel --levels 0,100,...` enables a panel, sets each level, " +
			"enters doze and prints the feature report.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPanel(cmd.OutOrStdout(), levels)
		},
	}
	cmd.Flags().IntSliceVar(&levels, "levels", []int{100, 512, 2047, 300}, "backlight levels to set")
	return cmd
}

// barHost shows the brightness written to the panel on a brightnessbar.
type barHost struct {
	dsitest.Host
	bar *brightnessbar.Dev
}

func (h *barHost) Transfer(m *dsipanel.Msg) (int, error) {
	n, err := h.Host.Transfer(m)
	if err != nil || m.Type != dsipanel.DCSLongWrite || m.Flags&dsipanel.MsgLastCommand != 0 || len(m.Tx) != 3 || m.Tx[0] != 0x51 {
		return n, err
	}
	return n, h.bar.Backlight(display.Intensity(binary.BigEndian.Uint16(m.Tx[1:])))
}

func runPanel(w io.Writer, levels []int) error {
	bopts := brightnessbar.DefaultOpts
	bopts.Max = display.Intensity(dsipanel.DefaultOpts.MaxBrightness)
	if w != os.Stdout {
		bopts.W = w
	}
	bar, err := brightnessbar.New(&bopts)
	if err != nil {
		return err
	}
	defer bar.Halt()

	h := &barHost{bar: bar}
	table := dsitest.NewTable(dsipanel.DefaultOpts.Mode)
	p, err := dsipanel.New(h, &dsitest.Engine{}, table, &dsipanel.DefaultOpts)
	if err != nil {
		return err
	}
	defer p.Halt()
	if err := p.Enable(); err != nil {
		return err
	}
	defer p.Disable()

	for _, l := range levels {
		if err := p.SetBacklight(l); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if err := p.SetPowerMode(dsipanel.PowerLP1); err != nil {
		return err
	}
	if err := p.SetFeature(dsipanel.FeatureDozeBrightness, int(dsipanel.DozeHBM)); err != nil {
		return err
	}
	s := p.Status()
	fmt.Fprintf(w, "%s: %s, doze %s\n", p, s.State, s.Doze)
	if err := p.SetPowerMode(dsipanel.PowerOn); err != nil {
		return err
	}
	s = p.Status()
	fmt.Fprintf(w, "%s: %s, dimming %s, sets sent %d\n", p, s.State, s.Dimming, len(h.Sets()))
	return p.Report(w)
}
