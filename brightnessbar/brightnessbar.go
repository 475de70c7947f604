// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package brightnessbar implements a display.DisplayBacklight that shows the
// backlight level as a bar on the terminal using ANSI color codes.
//
// Useful to watch a simulated panel dim and brighten.
package brightnessbar

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	// X is the width of the bar in cells.
	X int
	// Max is the brightness of a full bar.
	Max     display.Intensity
	Palette *ansi256.Palette
	// W defaults to stdout.
	W io.Writer

	_ struct{}
}

// DefaultOpts is a 32 cells bar for 11 bits of brightness.
var DefaultOpts = Opts{X: 32, Max: 2047}

// Dev is a backlight emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	l       int
	max     display.Intensity
	palette ansi256.Palette

	mu    sync.Mutex
	level display.Intensity
	buf   bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.X <= 0 || opts.Max <= 0 {
		return nil, errors.New("brightnessbar: width and max brightness are required")
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{w: w, l: opts.X, max: opts.Max, palette: *p}, nil
}

func (d *Dev) String() string {
	return "BrightnessBar"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the console is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Backlight implements display.DisplayBacklight.
func (d *Dev) Backlight(intensity display.Intensity) error {
	if intensity < 0 || intensity > d.max {
		return fmt.Errorf("brightnessbar: intensity %d out of [0, %d]", intensity, d.max)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.level = intensity
	return d.refresh()
}

// Level returns the last intensity set.
func (d *Dev) Level() display.Intensity {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.level
}

func (d *Dev) refresh() error {
	// Lit cells take a gray matching the level, the rest stay black.
	lit := int(uint64(d.level) * uint64(d.l) / uint64(d.max))
	g := byte(uint64(d.level) * 255 / uint64(d.max))
	on := d.palette.Block(color.NRGBA{g, g, g, 255})
	off := d.palette.Block(color.NRGBA{0, 0, 0, 255})
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := 0; i < d.l; i++ {
		if i < lit {
			_, _ = io.WriteString(&d.buf, on)
		} else {
			_, _ = io.WriteString(&d.buf, off)
		}
	}
	_, _ = d.buf.WriteString("\033[0m " + strconv.Itoa(int(d.level)) + " ")
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ conn.Resource = &Dev{}
var _ display.DisplayBacklight = &Dev{}
