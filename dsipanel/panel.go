// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dsipanel

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/GermanBionicSystems/hwcore/common"
	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// PowerMode is the display power mode requested by the display framework.
type PowerMode uint8

// Power modes. LP1 and LP2 are the doze modes.
const (
	PowerOff PowerMode = iota
	PowerOn
	PowerLP1
	PowerLP2
)

func (m PowerMode) String() string {
	switch m {
	case PowerOff:
		return "Off"
	case PowerOn:
		return "On"
	case PowerLP1:
		return "LP1"
	case PowerLP2:
		return "LP2"
	default:
		return "PowerMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// State is what the panel currently shows.
type State uint8

// Panel states.
const (
	StateOff State = iota
	StateOn
	StateDozeHigh
	StateDozeLow
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "Off"
	case StateOn:
		return "On"
	case StateDozeHigh:
		return "DozeHigh"
	case StateDozeLow:
		return "DozeLow"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Dimming is the dimming window.
type Dimming uint8

// Dimming states. While Block, dimming commands are not sent. Restore
// re-enables dimming on the next backlight raise.
const (
	DimmingNone Dimming = iota
	DimmingBlock
	DimmingRestore
)

func (d Dimming) String() string {
	switch d {
	case DimmingNone:
		return "None"
	case DimmingBlock:
		return "Block"
	case DimmingRestore:
		return "Restore"
	default:
		return "Dimming(" + strconv.Itoa(int(d)) + ")"
	}
}

// event updates the panel flags.
type event uint8

const (
	eventOff event = iota
	eventOn
	eventNoLP
	eventDozeHigh
	eventDozeLow
)

// Opts holds the configuration of a panel.
type Opts struct {
	Name string
	// Mode is the initial display mode.
	Mode Mode

	MaxBrightness int
	// InvertedDBV sends brightness values low byte first.
	InvertedDBV bool
	// BacklightLP sends brightness commands in low power mode.
	BacklightLP bool

	// Indexes of the 0x51 packet in the HBM and doze sets, patched with the
	// brightness to restore. -1 when the set has none.
	HBMOff51Index  int
	DozeHBM51Index int
	DozeLBM51Index int
	// Brightness of the doze HBM and LBM tiers.
	DozeHBMLevel int
	DozeLBMLevel int

	// DCThreshold is the brightness below which DC dimming takes over the
	// backlight. Zero disables DC.
	DCThreshold int
	// DCSyncTE defers DC on and off to DCFence instead of sending them from
	// SetFeature.
	DCSyncTE bool

	// DemuraLevels are the upper brightness bounds of the demura buckets,
	// ascending. At most 4.
	DemuraLevels []int

	// FlatModeIndex is the packet of the FlatModeOn set that receives the
	// OTP flat mode parameters, FlatModeParams their count. -1 disables the
	// update.
	FlatModeIndex  int
	FlatModeParams int
	// CupDBIIndex is the packet of the CupDBI set that receives the DBI
	// value. -1 when not supported.
	CupDBIIndex int

	DimmingRestoreDelay time.Duration
	AODExitDelay        time.Duration

	// ESDPin, when set, is watched for falling edges.
	ESDPin gpio.PinIn
	// OnPanelDead is called once per ESD episode.
	OnPanelDead func(PanelDeadEvent)
	// Fold is the fold state shared by the panels of a device. A private
	// one is used when nil.
	Fold FoldState

	Clock  clockwork.Clock
	Logger *slog.Logger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Name:                "dsi-panel",
	Mode:                Mode{Width: 1080, Height: 2400, RefreshRate: 60},
	MaxBrightness:       2047,
	HBMOff51Index:       -1,
	DozeHBM51Index:      -1,
	DozeLBM51Index:      -1,
	DozeHBMLevel:        242,
	DozeLBMLevel:        15,
	FlatModeIndex:       -1,
	CupDBIIndex:         -1,
	DimmingRestoreDelay: 120 * time.Millisecond,
}

// Panel is a handle to a DSI panel.
type Panel struct {
	host  Host
	table CommandTable
	opts  Opts
	clk   clockwork.Clock
	log   *slog.Logger
	fold  FoldState
	esd   *common.Watcher

	mu          sync.Mutex
	engine      common.RefCount
	mode        Mode
	initialized bool
	power       PowerMode
	state       State
	dimming     Dimming
	features    [featureCount]int

	lastBL        int
	lastNonZeroBL int
	doze          DozeBrightness
	dozeBackup    DozeBrightness
	aodActive     bool

	demuraMask  uint32
	dcEnabled   bool
	girEnabled  bool
	flatUpdated bool

	readsEnabled bool
	lastRead     []byte

	esdEnabled      bool
	recoveryPending bool
	dead            bool
}

// New returns a Panel sending commands through host. engine may be nil when
// the host needs no command engine reference for reads.
func New(host Host, engine Engine, table CommandTable, opts *Opts) (*Panel, error) {
	if host == nil || table == nil || opts == nil {
		return nil, fmt.Errorf("dsipanel: %w: host, table and opts are required", common.ErrInvalidArgument)
	}
	if opts.MaxBrightness <= 0 {
		return nil, fmt.Errorf("dsipanel: %w: max brightness %d", common.ErrInvalidArgument, opts.MaxBrightness)
	}
	if len(opts.DemuraLevels) > maxDemuraLevels || !sort.IntsAreSorted(opts.DemuraLevels) {
		return nil, fmt.Errorf("dsipanel: %w: demura levels %v", common.ErrInvalidArgument, opts.DemuraLevels)
	}
	p := &Panel{
		host:  host,
		table: table,
		opts:  *opts,
		clk:   opts.Clock,
		log:   opts.Logger,
		fold:  opts.Fold,
		mode:  opts.Mode,
	}
	p.opts.DemuraLevels = append([]int(nil), opts.DemuraLevels...)
	if p.clk == nil {
		p.clk = clockwork.NewRealClock()
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	p.log = p.log.With("panel", p.String())
	if p.fold == nil {
		p.fold = &SharedFold{}
	}
	if engine != nil {
		p.engine = common.RefCount{Enable: engine.Enable, Disable: engine.Disable}
	}
	if opts.ESDPin != nil {
		w, err := common.WatchEdges(opts.ESDPin, gpio.PullNoChange, gpio.FallingEdge, p.handleESD)
		if err != nil {
			return nil, fmt.Errorf("dsipanel: esd: %w", err)
		}
		p.esd = w
	}
	return p, nil
}

func (p *Panel) String() string {
	if p.opts.Name == "" {
		return "dsi-panel"
	}
	return p.opts.Name
}

// Halt implements conn.Resource.
//
// It stops watching the ESD line. The panel is left as is.
func (p *Panel) Halt() error {
	if p.esd != nil {
		p.esd.Stop()
	}
	return nil
}

// Enable sends the On set and marks the panel initialized. It ends an ESD
// episode and re-arms ESD detection.
func (p *Panel) Enable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.send(CmdSetOn); err != nil {
		return fmt.Errorf("dsipanel: enable: %w", err)
	}
	p.initialized = true
	p.power = PowerOn
	p.recoveryPending = false
	p.dead = false
	p.flatUpdated = false
	p.updateFlags(eventOn)
	p.esdEnabled = p.esd != nil
	return nil
}

// Disable sends the Off set. The panel is no longer initialized even if the
// set fails.
func (p *Panel) Disable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.esdEnabled = false
	err := p.send(CmdSetOff)
	p.initialized = false
	p.power = PowerOff
	p.updateFlags(eventOff)
	if err != nil {
		return fmt.Errorf("dsipanel: disable: %w", err)
	}
	return nil
}

// SetPowerMode moves the panel between On and the doze modes LP1 and LP2.
// PowerOff is Disable.
func (p *Panel) SetPowerMode(m PowerMode) error {
	if m == PowerOff {
		return p.Disable()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return fmt.Errorf("dsipanel: power %s: %w", m, common.ErrNotReady)
	}
	if m == p.power {
		return nil
	}
	switch m {
	case PowerLP1, PowerLP2:
		t := CmdSetLP1
		if m == PowerLP2 {
			t = CmdSetLP2
		}
		if err := p.send(t); err != nil {
			return fmt.Errorf("dsipanel: power %s: %w", m, err)
		}
		p.power = m
		return p.restoreDozeBrightness()
	case PowerOn:
		if p.opts.AODExitDelay > 0 {
			p.clk.Sleep(p.opts.AODExitDelay)
		}
		if err := p.noLP(); err != nil {
			return fmt.Errorf("dsipanel: power %s: %w", m, err)
		}
		p.power = PowerOn
		p.doze = DozeToNormal
		p.aodActive = false
		p.updateFlags(eventNoLP)
		return nil
	default:
		return fmt.Errorf("dsipanel: power %s: %w", m, common.ErrInvalidArgument)
	}
}

// SwitchMode makes m the display mode whose command sets are used.
//
// In doze only 60Hz modes are switched to.
func (p *Panel) SwitchMode(m Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inDoze() && m.RefreshRate != 60 {
		p.log.Info("dsipanel: skip mode switch in doze", "mode", m)
		return nil
	}
	prev := p.mode
	p.mode = m
	if !p.initialized {
		return nil
	}
	t := CmdSetTimingSwitch
	if p.girEnabled {
		t = CmdSetTimingSwitchGIR
	}
	if err := p.send(t); err != nil {
		p.mode = prev
		return fmt.Errorf("dsipanel: switch to %s: %w", m, err)
	}
	if !p.girEnabled {
		p.demuraMask = 0
		p.demura(p.lastBL)
	}
	return nil
}

// updateFlags moves the panel state and dimming window on e.
func (p *Panel) updateFlags(e event) {
	switch e {
	case eventOff:
		p.dimming = DimmingNone
		p.state = StateOff
		p.features[FeatureColorInvert] = FeatureOff
		p.features[FeatureHBM] = FeatureOff
	case eventOn:
		p.dimming = DimmingNone
		p.state = StateOn
	case eventNoLP:
		p.dimming = DimmingRestore
		p.state = StateOn
	case eventDozeHigh:
		p.dimming = DimmingBlock
		p.state = StateDozeHigh
	case eventDozeLow:
		p.dimming = DimmingBlock
		p.state = StateDozeLow
	}
}

// inDoze reports whether the panel is initialized and in a doze mode.
func (p *Panel) inDoze() bool {
	return p.initialized && (p.power == PowerLP1 || p.power == PowerLP2)
}

// Status is a snapshot of the panel state.
type Status struct {
	Initialized   bool
	Power         PowerMode
	State         State
	Dimming       Dimming
	Mode          Mode
	LastBL        int
	LastNonZeroBL int
	Doze          DozeBrightness
	DozeBackup    DozeBrightness
	DemuraMask    uint32
	Dead          bool
	Recovering    bool
}

// Status returns a snapshot of the panel state.
func (p *Panel) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Initialized:   p.initialized,
		Power:         p.power,
		State:         p.state,
		Dimming:       p.dimming,
		Mode:          p.mode,
		LastBL:        p.lastBL,
		LastNonZeroBL: p.lastNonZeroBL,
		Doze:          p.doze,
		DozeBackup:    p.dozeBackup,
		DemuraMask:    p.demuraMask,
		Dead:          p.dead,
		Recovering:    p.recoveryPending,
	}
}

var _ conn.Resource = &Panel{}
var _ display.DisplayBacklight = &Panel{}
