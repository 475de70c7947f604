// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatus(t *testing.T) {
	for _, test := range []struct {
		err  error
		want int
	}{
		{nil, StatusOK},
		{ErrAlreadyInProgress, StatusOK},
		{fmt.Errorf("jpegdma: reset: %w", ErrTimeout), StatusTimeout},
		{ErrInvalidArgument, StatusInvalidArgument},
		{ErrNotReady, StatusNoDevice},
		{ErrRefCountFault, StatusFault},
		{fmt.Errorf("dsipanel: patch: %w", ErrProtocolMismatch), StatusProtocol},
		{ErrPermission, StatusPermission},
		{ErrRecoveryPending, StatusBusy},
		{errors.New("bus error"), StatusIO},
	} {
		if got := Status(test.err); got != test.want {
			t.Errorf("Status(%v) = %d, want %d", test.err, got, test.want)
		}
	}
}
