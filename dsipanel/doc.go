// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dsipanel controls an OLED panel behind a MIPI-DSI host.
//
// The panel is driven by named command sets (HBM on, doze HBM, dimming on,
// ...) provided per display mode by a CommandTable. Panel sequences them for
// backlight changes, doze (AOD) brightness, HBM, dimming, DC and the other
// features of Feature, and keeps the tracked value of each feature.
//
// Dimming is blocked while in HBM or doze and restored with a delay once the
// backlight comes back up.
//
// An ESD detection line, when provided, is watched for the panel dead
// condition; the condition is reported once until the panel is enabled
// again.
package dsipanel
