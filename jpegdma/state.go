// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package jpegdma

import (
	"strconv"

	"github.com/GermanBionicSystems/hwcore/common"
)

// State is the state of the DMA engine as seen by the driver.
type State uint8

// Engine states.
const (
	NotReady State = iota
	Ready
	Resetting
	ResettingOnDone
	Aborting
)

const stateName = "NotReadyReadyResettingResettingOnDoneAborting"

var stateIndex = [...]uint8{0, 8, 13, 22, 37, 45}

func (s State) String() string {
	if s >= State(len(stateIndex)-1) {
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
	return stateName[stateIndex[s]:stateIndex[s+1]]
}

// Event drives a State transition.
type Event uint8

// Events are either requested by an operation or reported by the engine.
const (
	EventStart Event = iota
	EventResetRequest
	EventStopRequest
	EventTimeout
	EventFrameDone
	EventResetAck
	EventStopAck
)

var eventName = [...]string{
	EventStart:        "start",
	EventResetRequest: "reset-request",
	EventStopRequest:  "stop-request",
	EventTimeout:      "timeout",
	EventFrameDone:    "frame-done",
	EventResetAck:     "reset-ack",
	EventStopAck:      "stop-ack",
}

func (e Event) String() string {
	if int(e) >= len(eventName) {
		return "Event(" + strconv.Itoa(int(e)) + ")"
	}
	return eventName[e]
}

// Next returns the state reached from s on event e.
//
// A reset request while Resetting and a stop request while Aborting return
// common.ErrAlreadyInProgress with s unchanged. A start outside of Ready
// returns common.ErrNotReady with s unchanged. An engine event that s does
// not expect returns common.ErrUnexpectedEvent and NotReady, so the engine
// never stays in a state waiting for an acknowledgement that will not come.
//
// A stop request is accepted from every state but Aborting, including
// Resetting and ResettingOnDone: the abort supersedes the pending reset.
func Next(s State, e Event) (State, error) {
	switch e {
	case EventStart:
		if s == Ready {
			return Ready, nil
		}
		return s, common.ErrNotReady
	case EventResetRequest:
		if s == Resetting {
			return s, common.ErrAlreadyInProgress
		}
		return Resetting, nil
	case EventStopRequest:
		if s == Aborting {
			return s, common.ErrAlreadyInProgress
		}
		return Aborting, nil
	case EventTimeout:
		return NotReady, nil
	case EventFrameDone:
		if s == Ready {
			return ResettingOnDone, nil
		}
	case EventResetAck:
		switch s {
		case Resetting:
			return Ready, nil
		case ResettingOnDone:
			return NotReady, nil
		}
	case EventStopAck:
		if s == Aborting {
			return NotReady, nil
		}
	default:
		return NotReady, common.ErrInvalidArgument
	}
	return NotReady, common.ErrUnexpectedEvent
}
