// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hwcore is a container for interrupt driven hardware cores.
//
// jpegdma drives a JPEG DMA engine through its reset, start and stop
// handshakes. dsipanel sequences MIPI-DSI command sets for a display panel
// (backlight, doze, HBM, dimming, DC) and watches its ESD line.
package hwcore
