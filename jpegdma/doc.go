// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package jpegdma drives the DMA block of a JPEG engine.
//
// The block is controlled through a handful of 32 bit registers and reports
// completion of reset, stop and frame transfers through an interrupt. Dev
// tracks the engine through the states NotReady, Ready, Resetting,
// ResettingOnDone and Aborting. Operations that need an acknowledgement from
// the engine (Reset and Stop) block until HandleIRQ delivers it or a timeout
// expires.
//
// The engine resets itself after every frame; the job result is reported to
// the registered IRQ callback only once that reset is acknowledged.
package jpegdma
