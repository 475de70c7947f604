// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package jpegdma

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GermanBionicSystems/hwcore/common"
	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/mmr"
	"periph.io/x/conn/v3/physic"
)

// MaxPIDs is the number of process ids a block can be matched against.
const MaxPIDs = 2

// Opts holds the configuration of a DMA block.
type Opts struct {
	Name string
	HW   HWInfo

	Vote      Vote
	ClockRate physic.Frequency

	// PIDs are the bus process ids of the block; ReadMID and WriteMID the
	// module ids of its read and write ports. Used by MatchFault.
	PIDs     []uint32
	ReadMID  uint32
	WriteMID uint32

	// Timeout bounds the wait for reset and stop acknowledgements.
	Timeout time.Duration

	// IRQ, when set, is watched for rising edges and HandleIRQ is called on
	// each of them. Leave nil when the interrupt is dispatched by the caller.
	IRQ gpio.PinIn

	Clock  clockwork.Clock
	Logger *slog.Logger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Name:      "jpeg-dma",
	HW:        DefaultHWInfo,
	Vote:      DefaultVote,
	ClockRate: 600 * physic.MegaHertz,
	Timeout:   500 * time.Millisecond,
}

// Dev is a handle to a JPEG DMA block.
type Dev struct {
	regs Registers
	pwr  PowerManager
	opts Opts
	hw   HWInfo
	clk  clockwork.Clock
	log  *slog.Logger

	// mu is held for the whole duration of an operation, including the wait
	// for an acknowledgement. HandleIRQ never takes it.
	mu    sync.Mutex
	power common.RefCount

	// hwLock guards the fields below. It is shared with HandleIRQ and is
	// never held while sleeping.
	hwLock sync.Mutex
	state  State
	result int32
	cb     IRQCallback
	done   common.Completion

	irq *common.Watcher
}

// New returns a Dev driving the block behind regs.
func New(regs Registers, pwr PowerManager, opts *Opts) (*Dev, error) {
	if regs == nil || pwr == nil || opts == nil {
		return nil, fmt.Errorf("jpegdma: %w: registers, power and opts are required", common.ErrInvalidArgument)
	}
	if !opts.HW.validate() {
		return nil, fmt.Errorf("jpegdma: %w: interrupt bits must be non zero and disjoint", common.ErrInvalidArgument)
	}
	if len(opts.PIDs) > MaxPIDs {
		return nil, fmt.Errorf("jpegdma: %w: %d process ids, at most %d", common.ErrInvalidArgument, len(opts.PIDs), MaxPIDs)
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("jpegdma: %w: timeout %s", common.ErrInvalidArgument, opts.Timeout)
	}
	d := &Dev{
		regs:   regs,
		pwr:    pwr,
		opts:   *opts,
		hw:     opts.HW,
		clk:    opts.Clock,
		log:    opts.Logger,
		state:  NotReady,
		result: ResultNone,
	}
	d.opts.PIDs = append([]uint32(nil), opts.PIDs...)
	if d.clk == nil {
		d.clk = clockwork.NewRealClock()
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	d.log = d.log.With("dev", d.String())
	d.power = common.RefCount{Enable: d.powerUp, Disable: d.powerDown}
	if opts.IRQ != nil {
		w, err := common.WatchEdges(opts.IRQ, gpio.PullNoChange, gpio.RisingEdge, d.HandleIRQ)
		if err != nil {
			return nil, fmt.Errorf("jpegdma: irq: %w", err)
		}
		d.irq = w
	}
	return d, nil
}

// NewMMR returns a Dev whose registers are accessed over c with 16 bit
// register addresses and little endian 32 bit values.
//
// c must be half duplex.
func NewMMR(c conn.Conn, pwr PowerManager, opts *Opts) (*Dev, error) {
	if c == nil {
		return nil, fmt.Errorf("jpegdma: %w: nil connection", common.ErrInvalidArgument)
	}
	return New(&mmr.Dev16{Conn: c, Order: binary.LittleEndian}, pwr, opts)
}

func (d *Dev) String() string {
	if d.opts.Name == "" {
		return "jpeg-dma"
	}
	return d.opts.Name
}

// Halt implements conn.Resource.
//
// It stops watching the interrupt line. The engine itself is left alone, use
// Stop and Deinit for that.
func (d *Dev) Halt() error {
	if d.irq != nil {
		d.irq.Stop()
	}
	return nil
}

// State returns the current engine state.
func (d *Dev) State() State {
	d.hwLock.Lock()
	defer d.hwLock.Unlock()
	return d.state
}

// Init takes a power reference. The first reference votes bandwidth and
// enables the clocks.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.power.Get(); err != nil {
		return fmt.Errorf("jpegdma: init: %w", err)
	}
	d.log.Debug("jpegdma: init", "refs", d.power.Count())
	return nil
}

// Deinit releases a power reference. Releasing the last one powers the block
// down and leaves the engine NotReady.
//
// Calling Deinit more times than Init returns common.ErrRefCountFault.
func (d *Dev) Deinit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.power.Put()
	if errors.Is(err, common.ErrRefCountFault) {
		d.log.Error("jpegdma: deinit without init", "err", err)
		return fmt.Errorf("jpegdma: deinit: %w", err)
	}
	if d.power.Count() == 0 {
		d.hwLock.Lock()
		d.state = NotReady
		d.hwLock.Unlock()
	}
	if err != nil {
		return fmt.Errorf("jpegdma: deinit: %w", err)
	}
	d.log.Debug("jpegdma: deinit", "refs", d.power.Count())
	return nil
}

// Reset resets the engine and waits for the acknowledgement.
//
// A Reset issued while another one is waiting returns nil immediately and
// does not touch the hardware. On timeout the engine is NotReady and
// common.ErrTimeout is returned.
func (d *Dev) Reset() error {
	if d.inFlight(Resetting) {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.hwLock.Lock()
	next, err := Next(d.state, EventResetRequest)
	if err != nil {
		d.hwLock.Unlock()
		return nil
	}
	d.done.Arm()
	d.state = next
	w := regWriter{r: d.regs}
	w.write(d.hw.IntMask, d.hw.MaskDisableAll)
	w.write(d.hw.IntClear, d.hw.ClearAll)
	w.write(d.hw.IntMask, d.hw.MaskEnableAll)
	w.write(d.hw.ResetCmdReg, d.hw.ResetCmd)
	if w.err != nil {
		d.state = NotReady
		d.hwLock.Unlock()
		return fmt.Errorf("jpegdma: reset: %w", w.err)
	}
	d.hwLock.Unlock()

	return d.wait("reset")
}

// Start arms the interrupts and kicks the engine. The engine must be Ready.
func (d *Dev) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hwLock.Lock()
	defer d.hwLock.Unlock()
	if _, err := Next(d.state, EventStart); err != nil {
		return fmt.Errorf("jpegdma: start in state %s: %w", d.state, err)
	}
	w := regWriter{r: d.regs}
	w.write(d.hw.IntMask, d.hw.StartIntMask)
	w.write(d.hw.HWCmd, d.hw.Start)
	if w.err != nil {
		d.state = NotReady
		return fmt.Errorf("jpegdma: start: %w", w.err)
	}
	return nil
}

// Stop aborts the current transfer and waits for the acknowledgement.
//
// A Stop issued while another one is waiting returns nil immediately. On
// timeout the engine is NotReady and common.ErrTimeout is returned.
func (d *Dev) Stop() error {
	if d.inFlight(Aborting) {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.hwLock.Lock()
	next, err := Next(d.state, EventStopRequest)
	if err != nil {
		d.hwLock.Unlock()
		return nil
	}
	d.done.Arm()
	d.state = next
	if err := d.regs.WriteUint32(d.hw.HWCmd, d.hw.Stop); err != nil {
		d.state = NotReady
		d.hwLock.Unlock()
		return fmt.Errorf("jpegdma: stop: %w", err)
	}
	d.hwLock.Unlock()

	return d.wait("stop")
}

// inFlight reports whether the engine is already in s, which is only
// reached through an operation waiting for its acknowledgement.
func (d *Dev) inFlight(s State) bool {
	d.hwLock.Lock()
	defer d.hwLock.Unlock()
	if d.state != s {
		return false
	}
	d.log.Debug("jpegdma: already in progress", "state", s)
	return true
}

func (d *Dev) wait(op string) error {
	if _, err := d.done.Wait(d.clk, d.opts.Timeout); err != nil {
		d.hwLock.Lock()
		d.state, _ = Next(d.state, EventTimeout)
		d.hwLock.Unlock()
		d.log.Warn("jpegdma: "+op+" not acknowledged", "timeout", d.opts.Timeout)
		return fmt.Errorf("jpegdma: %s: %w", op, err)
	}
	return nil
}

var _ conn.Resource = &Dev{}
