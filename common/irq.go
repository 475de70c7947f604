// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// edgePoll bounds how long Stop waits for the watcher goroutine.
const edgePoll = 50 * time.Millisecond

// Watcher calls a handler for every edge detected on an interrupt line.
type Watcher struct {
	pin  gpio.PinIn
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// WatchEdges configures pin for edge detection and calls handle from a
// dedicated goroutine on each detected edge until Stop is called.
//
// handle runs on the watcher goroutine; it must not call Stop.
func WatchEdges(pin gpio.PinIn, pull gpio.Pull, edge gpio.Edge, handle func()) (*Watcher, error) {
	if edge == gpio.NoEdge {
		return nil, fmt.Errorf("common: %s: %w: edge detection required", pin, ErrInvalidArgument)
	}
	if err := pin.In(pull, edge); err != nil {
		return nil, fmt.Errorf("common: %s: %w", pin, err)
	}
	w := &Watcher{
		pin:  pin,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.loop(handle)
	return w, nil
}

func (w *Watcher) String() string {
	return w.pin.String()
}

// Stop terminates the watcher and waits for its goroutine to exit. The pin
// is left configured.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
	})
	<-w.done
}

func (w *Watcher) loop(handle func()) {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		default:
		}
		if !w.pin.WaitForEdge(edgePoll) {
			continue
		}
		select {
		case <-w.stop:
			return
		default:
		}
		handle()
	}
}
