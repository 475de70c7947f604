// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// hwsim drives the JPEG DMA and DSI panel cores against their simulators.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"periph.io/x/host/v3"
)

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "hwsim",
		Short: "hwsim runs the hardware cores against simulated hardware.",
		Long: `hwsim runs the hardware cores against simulated hardware. ` +
			`It supports the JPEG DMA engine and the DSI panel.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelError
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			_, err := host.Init()
			return err
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log the device traffic")
	root.AddCommand(newJPEGDMACmd(), newPanelCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
