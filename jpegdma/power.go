// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package jpegdma

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// VoteLevel is an AHB bus clock corner.
type VoteLevel uint8

// AHB corners, lowest first.
const (
	LevelSuspend VoteLevel = iota
	LevelLowSVS
	LevelSVS
	LevelNominal
	LevelTurbo
)

// Vote is the bus bandwidth requested while the block is powered.
type Vote struct {
	AHB VoteLevel
	// AXI bandwidth in bytes per second, per direction.
	AXIRead  uint64
	AXIWrite uint64
}

// PowerManager votes bus bandwidth and gates clocks and regulators of the
// block. The policy behind the votes is out of this package's hands.
type PowerManager interface {
	Vote(v Vote) error
	Unvote() error
	Enable(rate physic.Frequency) error
	Disable() error
}

// DefaultVote is the vote of a JPEG DMA session.
var DefaultVote = Vote{
	AHB:      LevelLowSVS,
	AXIRead:  640000000,
	AXIWrite: 640000000,
}

// powerUp runs on the first Init.
func (d *Dev) powerUp() error {
	if err := d.pwr.Vote(d.opts.Vote); err != nil {
		return fmt.Errorf("vote: %w", err)
	}
	if err := d.pwr.Enable(d.opts.ClockRate); err != nil {
		if err2 := d.pwr.Unvote(); err2 != nil {
			d.log.Error("jpegdma: unvote after failed enable", "err", err2)
		}
		return fmt.Errorf("enable: %w", err)
	}
	return nil
}

// powerDown runs on the last Deinit. Both steps are attempted.
func (d *Dev) powerDown() error {
	var errs []error
	if err := d.pwr.Disable(); err != nil {
		d.log.Error("jpegdma: disable", "err", err)
		errs = append(errs, fmt.Errorf("disable: %w", err))
	}
	if err := d.pwr.Unvote(); err != nil {
		d.log.Error("jpegdma: unvote", "err", err)
		errs = append(errs, fmt.Errorf("unvote: %w", err))
	}
	return errors.Join(errs...)
}
