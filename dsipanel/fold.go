// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel

import "sync/atomic"

// FoldState is the fold state of a foldable device. It is shared by the
// panels of the device and owned by the caller.
type FoldState interface {
	SetFolded(folded bool)
	Folded() bool
}

// SharedFold is a FoldState safe for concurrent use.
type SharedFold struct {
	folded atomic.Bool
}

func (s *SharedFold) SetFolded(folded bool) {
	s.folded.Store(folded)
}

func (s *SharedFold) Folded() bool {
	return s.folded.Load()
}

// Folded returns the fold state seen by the panel.
func (p *Panel) Folded() bool {
	return p.fold.Folded()
}
