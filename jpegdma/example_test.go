// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package jpegdma_test

import (
	"fmt"
	"log"

	"github.com/GermanBionicSystems/hwcore/jpegdma"
	"github.com/GermanBionicSystems/hwcore/jpegdma/jpegdmatest"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// A simulated block stands in for the register window here. On hardware
	// use jpegdma.NewMMR with the bus the block sits on.
	regs := &jpegdmatest.Regs{HW: jpegdma.DefaultHWInfo, AutoAck: true}
	dev, err := jpegdma.New(regs, &jpegdmatest.Power{}, &jpegdma.DefaultOpts)
	if err != nil {
		log.Fatalf("failed to initialize jpeg dma: %v", err)
	}
	regs.IRQ = dev.HandleIRQ

	done := make(chan int32)
	dev.SetIRQCallback(jpegdma.IRQCallback{
		Handler: func(status uint32, result int32, data any) int {
			done <- result
			return 0
		},
	}, true)

	if err := dev.Init(); err != nil {
		log.Fatal(err)
	}
	defer dev.Deinit()
	if err := dev.Reset(); err != nil {
		log.Fatal(err)
	}
	if err := dev.Start(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("frame done, result %d\n", <-done)
}
