// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package jpegdma

// ResultNone is the job result reported for aborted jobs and when no job
// result is latched.
const ResultNone int32 = -1

// IRQHandler is called with the raw interrupt status, the job result and the
// data registered alongside it.
type IRQHandler func(status uint32, result int32, data any) int

// IRQCallback is the listener notified when a job completes or is aborted.
// The device does not own Data.
type IRQCallback struct {
	Handler IRQHandler
	Data    any
}

// SetIRQCallback registers cb when enable is true and clears the listener
// otherwise. A job that resolves without a listener is only logged.
func (d *Dev) SetIRQCallback(cb IRQCallback, enable bool) {
	d.hwLock.Lock()
	defer d.hwLock.Unlock()
	if enable {
		d.cb = cb
	} else {
		d.cb = IRQCallback{}
	}
}

// HandleIRQ services the block interrupt.
//
// It reads the status register and writes the same value to the clear
// register, so bits raised after the read stay pending for the next
// interrupt. Frame done, reset ack and stop done are then handled in that
// order. It never blocks on an operation in progress and reports failures
// only through the log.
func (d *Dev) HandleIRQ() {
	status, err := d.regs.ReadUint32(d.hw.IntStatus)
	if err != nil {
		d.log.Error("jpegdma: read irq status", "err", err)
		return
	}
	if err := d.regs.WriteUint32(d.hw.IntClear, status); err != nil {
		d.log.Error("jpegdma: clear irq status", "status", status, "err", err)
	}

	var notify []func()
	d.hwLock.Lock()
	if status&d.hw.FrameDone != 0 {
		d.frameDone(status)
	}
	if status&d.hw.ResetAck != 0 {
		notify = append(notify, d.resetAck(status)...)
	}
	if status&d.hw.StopDone != 0 {
		notify = append(notify, d.stopDone(status)...)
	}
	d.hwLock.Unlock()

	// Listeners run without the lock so they may query the device. The
	// waiting operation was already released by the transition.
	for _, f := range notify {
		f()
	}
}

// transition applies e under hwLock and logs unexpected events.
func (d *Dev) transition(e Event, status uint32) bool {
	next, err := Next(d.state, e)
	if err != nil {
		d.log.Warn("jpegdma: unexpected event", "event", e, "state", d.state, "status", status)
	}
	d.state = next
	return err == nil
}

// frameDone latches the job result and issues the reset the engine requires
// before the next job.
func (d *Dev) frameDone(status uint32) {
	if !d.transition(EventFrameDone, status) {
		return
	}
	d.result = 1
	if err := d.regs.WriteUint32(d.hw.ResetCmdReg, d.hw.ResetCmd); err != nil {
		d.log.Error("jpegdma: reset on done", "err", err)
		d.state = NotReady
	}
}

// resetAck returns the listener calls to make. A waiting Reset is released
// here, under hwLock, so the acknowledgement can only complete the wait that
// armed it.
func (d *Dev) resetAck(status uint32) []func() {
	prev := d.state
	if !d.transition(EventResetAck, status) {
		return nil
	}
	if prev == Resetting {
		d.result = ResultNone
		d.done.Complete(0)
		return nil
	}
	// ResettingOnDone: the frame is complete.
	result := d.result
	d.result = ResultNone
	return d.callback(status, result)
}

func (d *Dev) stopDone(status uint32) []func() {
	if !d.transition(EventStopAck, status) {
		return nil
	}
	d.done.Complete(0)
	return d.callback(status, ResultNone)
}

func (d *Dev) callback(status uint32, result int32) []func() {
	cb := d.cb
	if cb.Handler == nil {
		d.log.Warn("jpegdma: no irq callback", "status", status, "result", result)
		return nil
	}
	return []func(){func() {
		cb.Handler(status, result, cb.Data)
	}}
}
