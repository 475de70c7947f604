// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package brightnessbar

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/maruel/ansi256"
)

func TestNew(t *testing.T) {
	for _, opts := range []Opts{{X: 0, Max: 10}, {X: 4}} {
		if _, err := New(&opts); err == nil {
			t.Fatalf("New(%+v) succeeded", opts)
		}
	}
}

func TestBacklight(t *testing.T) {
	var buf bytes.Buffer
	d, err := New(&Opts{X: 4, Max: 100, W: &buf})
	if err != nil {
		t.Fatal(err)
	}
	if s := d.String(); s != "BrightnessBar" {
		t.Fatal(s)
	}
	if err := d.Backlight(50); err != nil {
		t.Fatal(err)
	}
	// 50/100 of 4 cells, gray 127.
	on := ansi256.Default.Block(color.NRGBA{127, 127, 127, 255})
	off := ansi256.Default.Block(color.NRGBA{0, 0, 0, 255})
	want := "\r\033[0m" + on + on + off + off + "\033[0m 50 "
	if got := buf.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if l := d.Level(); l != 50 {
		t.Fatalf("Level() = %d", l)
	}

	if err := d.Backlight(101); err == nil {
		t.Fatal("expected error")
	}
	if l := d.Level(); l != 50 {
		t.Fatalf("Level() = %d", l)
	}

	buf.Reset()
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\033[0m") {
		t.Fatalf("Halt() wrote %q", buf.String())
	}
}
