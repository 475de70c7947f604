// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Completion is a single slot rendezvous between an operation waiting for a
// hardware acknowledgement and the interrupt handler delivering it.
//
// At most one wait may be in flight. Arm must not be called again before the
// previous Wait returned; callers guarantee this with their state checks.
type Completion struct {
	mu     sync.Mutex
	done   chan struct{}
	armed  bool
	result int
}

// Arm prepares the completion for a new wait and clears the previous result.
func (c *Completion) Arm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = make(chan struct{})
	c.armed = true
	c.result = 0
}

// Armed reports whether a Complete is expected.
func (c *Completion) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Complete wakes up the waiter with result.
//
// It returns false when nothing was armed, in which case result is dropped.
// It never blocks and is safe to call from an interrupt handler.
func (c *Completion) Complete(result int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed {
		return false
	}
	c.armed = false
	c.result = result
	close(c.done)
	return true
}

// Wait blocks until Complete is called or timeout elapses on clk.
//
// On timeout the completion is disarmed so a late acknowledgement is
// ignored, and ErrTimeout is returned.
func (c *Completion) Wait(clk clockwork.Clock, timeout time.Duration) (int, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return 0, ErrNotReady
	}
	t := clk.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
	case <-t.Chan():
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-done:
		return c.result, nil
	default:
		c.armed = false
		return 0, ErrTimeout
	}
}
