// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/GermanBionicSystems/hwcore/jpegdma"
	"github.com/GermanBionicSystems/hwcore/jpegdma/jpegdmatest"
	"github.com/spf13/cobra"
)

func newJPEGDMACmd() *cobra.Command {
	var frames int
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "jpegdma",
		Short: "Run frames through a simulated JPEG DMA engine.",
		Long: "`jpegdma --frames N` resets the engine and runs N jobs, " +
			"printing the result delivered to the interrupt callback.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if frames <= 0 {
				return errors.New("--frames must be positive")
			}
			return runJPEGDMA(cmd.OutOrStdout(), frames, timeout)
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 3, "number of jobs to run")
	cmd.Flags().DurationVar(&timeout, "timeout", jpegdma.DefaultOpts.Timeout, "acknowledgement timeout")
	return cmd
}

func runJPEGDMA(w io.Writer, frames int, timeout time.Duration) error {
	regs := &jpegdmatest.Regs{HW: jpegdma.DefaultHWInfo, AutoAck: true}
	opts := jpegdma.DefaultOpts
	opts.Timeout = timeout
	dev, err := jpegdma.New(regs, &jpegdmatest.Power{}, &opts)
	if err != nil {
		return err
	}
	defer dev.Halt()
	regs.IRQ = dev.HandleIRQ

	results := make(chan int32, 1)
	dev.SetIRQCallback(jpegdma.IRQCallback{
		Handler: func(status uint32, result int32, data any) int {
			results <- result
			return 0
		},
	}, true)

	if err := dev.Init(); err != nil {
		return err
	}
	defer dev.Deinit()
	fmt.Fprintf(w, "%s: %s\n", dev, dev.State())
	for i := 1; i <= frames; i++ {
		if err := dev.Reset(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if err := dev.Start(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		select {
		case r := <-results:
			fmt.Fprintf(w, "frame %d: result %d, state %s\n", i, r, dev.State())
		case <-time.After(timeout):
			return fmt.Errorf("frame %d: no callback", i)
		}
	}
	return nil
}
