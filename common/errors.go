// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import (
	"errors"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotReady          = errors.New("not ready")
	ErrTimeout           = errors.New("timed out waiting for hardware")
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrRefCountFault     = errors.New("reference count went negative")
	ErrProtocolMismatch  = errors.New("payload tag mismatch")
	ErrUnexpectedEvent   = errors.New("unexpected event for state")
	ErrPermission        = errors.New("operation not permitted")
	ErrRecoveryPending   = errors.New("recovery pending")
)

// Status codes returned by Status. They follow the errno values the
// hardware manager layer expects.
const (
	StatusOK              = 0
	StatusPermission      = -1
	StatusFault           = -14
	StatusNoDevice        = -19
	StatusInvalidArgument = -22
	StatusProtocol        = -71
	StatusTimeout         = -110
	StatusBusy            = -16
	StatusIO              = -5
)

// Status converts err into the integer status of the entry point contract.
//
// ErrAlreadyInProgress is a success. Unknown errors map to StatusIO.
func Status(err error) int {
	switch {
	case err == nil, errors.Is(err, ErrAlreadyInProgress):
		return StatusOK
	case errors.Is(err, ErrInvalidArgument):
		return StatusInvalidArgument
	case errors.Is(err, ErrNotReady):
		return StatusNoDevice
	case errors.Is(err, ErrTimeout):
		return StatusTimeout
	case errors.Is(err, ErrRefCountFault):
		return StatusFault
	case errors.Is(err, ErrProtocolMismatch):
		return StatusProtocol
	case errors.Is(err, ErrPermission):
		return StatusPermission
	case errors.Is(err, ErrRecoveryPending):
		return StatusBusy
	default:
		return StatusIO
	}
}
