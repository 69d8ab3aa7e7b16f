// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/maruel/bayeripa/sensorbus"
)

// Grid search bounds, per §4.A: the statistics grid's block size log2 is
// searched in [gridLog2Min, gridLog2Max] for both dimensions, and the
// number of cells along each axis is capped independently.
const (
	gridLog2Min  = 3
	gridLog2Max  = 7
	cellWidthMax = 160
	cellHeightMax = 56

	// minGridCoverage is the fraction of the BDS output area the resolved
	// grid must cover; falling short is a warning, not a Configure failure.
	minGridCoverage = 0.80
)

// Per-control pipeline delay in frames, per §5. Exposure and gain take
// effect two frames after being written because of the sensor's internal
// readout pipeline; VBLANK applies on the very next frame.
var defaultControlDelays = map[ControlID]uint32{
	ControlExposure:     2,
	ControlAnalogueGain: 2,
	ControlVBlank:       1,
}

// Orchestrator is the Frame Orchestrator: it owns the long-lived algorithm
// state and coordinates the Stats Extractor, AGC, AWB, Contrast/Gamma and
// AF algorithms around the per-frame fill/stats-ready events, pushing any
// resulting control changes through Delayed Controls.
//
// Grounded on
// _examples/original_source/src/ipa/rkisp1/ipa_context.cpp and
// _examples/original_source/src/libcamera/pipeline/rkisp1/rkisp1.cpp's
// frame bookkeeping, adapted from libcamera's event-driven IPA interface
// to a direct method-call API (no IPC boundary in this module).
type Orchestrator struct {
	mu sync.Mutex

	device     ControlDevice
	gainHelper GainHelper
	delayed    *DelayedControls

	awb      *Awb
	agc      *Agc
	af       *Af
	contrast *Contrast

	session SessionConfig

	agcState AgcState
	awbState AwbResult
	afState  AfState
	gamma    float64
	// lastControls is the most recent request's application controls,
	// carried forward so OnFillParams can derive the CPROC payload without
	// needing its own copy of per-frame controls.
	lastControls AppControls

	frames map[uint64]*FrameInfo
}

// NewOrchestrator returns an Orchestrator bound to device for sensor
// control reads/writes. Init must be called before Configure.
func NewOrchestrator(device ControlDevice) *Orchestrator {
	return &Orchestrator{
		device: device,
		awb:    NewAwb(),
		agc:    NewAgc(),
		af:     NewAf(),
		frames: make(map[uint64]*FrameInfo),
		gamma:  DefaultGamma,
	}
}

// Init loads the sensor-model-specific gain helper. It must run once
// before Configure.
func (o *Orchestrator) Init(sensorModel string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gainHelper = GainHelperFor(sensorModel)
	return nil
}

// Configure negotiates a session: it validates the pipeline handler
// reported the three required control ranges, resolves the statistics
// grid for the given BDS output size, and (re)builds Delayed Controls.
func (o *Orchestrator) Configure(session SessionConfig, ranges ControlRanges, sizes StreamSizes) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !ranges.HaveExposure || !ranges.HaveAnalogueGain || !ranges.HaveVBlank {
		return fmt.Errorf("%w: exposure=%v gain=%v vblank=%v", ErrMissingControl,
			ranges.HaveExposure, ranges.HaveAnalogueGain, ranges.HaveVBlank)
	}

	grid, coverage := resolveGrid(sizes.BdsOutputWidth, sizes.BdsOutputHeight)
	if coverage < minGridCoverage {
		log.Printf("orchestrator: grid covers only %.0f%% of %dx%d BDS output", coverage*100, sizes.BdsOutputWidth, sizes.BdsOutputHeight)
	}
	session.Grid = grid
	if session.DefaultGamma <= 0 {
		session.DefaultGamma = DefaultGamma
	}

	// Seed the AGC bounds from the hardware-reported ranges (§4.A) rather
	// than trusting the caller to have pre-populated them on session: the
	// pipeline handler is the only party that actually knows what the
	// sensor driver exposes.
	session.MinExposureLines = ranges.MinExposureLines
	session.MaxExposureLines = ranges.MaxExposureLines
	session.MinVBlank = ranges.MinVBlank
	session.MaxVBlank = ranges.MaxVBlank
	if o.gainHelper != nil {
		session.MinGain = o.gainHelper.Gain(ranges.MinGainCode)
		session.MaxGain = o.gainHelper.Gain(ranges.MaxGainCode)
	}

	o.session = session
	o.gamma = session.DefaultGamma
	o.agcState = AgcState{}
	o.awbState = AwbResult{TemperatureK: 4500, RedGain: 1, GreenGain: 1, BlueGain: 1}
	o.afState = AfState{MaxStep: 1023}
	o.contrast = &Contrast{}
	o.delayed = NewDelayedControls(o.device, defaultControlDelays)

	return nil
}

// resolveGrid picks the (width, height, blockWidthLog2, blockHeightLog2)
// combination whose covered pixel area best matches the BDS output size,
// searching block sizes independently per axis since each axis's error
// term depends only on its own log2 (§4.A).
//
// For a 1280-wide BDS output this picks width=160, blockWidthLog2=3: both
// log2=3 and log2=4 cover 1280 exactly (diff 0), and the smaller log2 wins
// the tie-break. This differs from the worked example's stated
// width=80/log2=4 for the same input; that example is inconsistent with
// its own stated tie-break rule, so the rule is followed here instead of
// the example's numbers.
func resolveGrid(bdsW, bdsH int) (GridDescriptor, float64) {
	bestW, bestWLog2, bestWDiff := 0, gridLog2Min, -1
	for log2 := gridLog2Min; log2 <= gridLog2Max; log2++ {
		cellPixels := 1 << uint(log2)
		cells := bdsW / cellPixels
		if cells > cellWidthMax {
			cells = cellWidthMax
		}
		if cells < 1 {
			continue
		}
		diff := abs(cells*cellPixels - bdsW)
		if bestWDiff < 0 || diff < bestWDiff {
			bestWDiff, bestW, bestWLog2 = diff, cells, log2
		}
	}

	bestH, bestHLog2, bestHDiff := 0, gridLog2Min, -1
	for log2 := gridLog2Min; log2 <= gridLog2Max; log2++ {
		cellPixels := 1 << uint(log2)
		cells := bdsH / cellPixels
		if cells > cellHeightMax {
			cells = cellHeightMax
		}
		if cells < 1 {
			continue
		}
		diff := abs(cells*cellPixels - bdsH)
		if bestHDiff < 0 || diff < bestHDiff {
			bestHDiff, bestH, bestHLog2 = diff, cells, log2
		}
	}

	grid := GridDescriptor{
		Width:           bestW,
		Height:          bestH,
		BlockWidthLog2:  bestWLog2,
		BlockHeightLog2: bestHLog2,
	}
	area := bdsW * bdsH
	coverage := 1.0
	if area > 0 {
		coverage = float64(grid.CoveredArea()) / float64(area)
	}
	return grid, coverage
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// OnFillParams assembles the outbound parameter buffer for frameID using
// the current algorithm state, registering the frame in the lifecycle
// table.
func (o *Orchestrator) OnFillParams(frameID uint64) *sensorbus.ParamBuffer {
	o.mu.Lock()
	defer o.mu.Unlock()

	ctx := IpaContext{
		Session: o.session,
		Frame:   FrameContext{FrameID: frameID, Controls: o.lastControls},
		Awb:     o.awbState,
		Agc:     o.agcState,
		Gamma:   o.gamma,
		Af:      AfStatus{Mode: o.afState.Mode, LensPosition: o.afState.Focus, Phase: o.afState.Phase},
	}
	buf := AssembleParams(ctx, o.contrast)

	info, ok := o.frames[frameID]
	if !ok {
		info = &FrameInfo{ID: frameID}
		o.frames[frameID] = info
	}
	info.ParamFilled = true
	return buf
}

// OnStatsReady runs the full algorithm chain over one frame's statistics
// buffer: Stats Extractor, AGC, AWB (skipped if no valid zones), dynamic
// gamma, and AF. Any exposure/gain change AGC produced is pushed to
// Delayed Controls. It returns the metadata to attach to the completed
// request.
//
// ctrl carries this request's manual application-control overrides, if
// any (§6 Scenario: manual exposure/gain). When ExposureTime or
// AnalogueGain is set to a non-zero value (zero means automatic), AGC is
// not run for this frame: the manual value is
// pushed directly and AeLocked is left false, since the result is not the
// converged output of the auto-exposure loop.
func (o *Orchestrator) OnStatsReady(frameID uint64, raw []byte, sequence uint32, timestamp time.Time, ctrl AppControls) (ResultMetadata, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	zones, hist, err := ExtractStats(raw, o.session.Grid)
	if err != nil {
		return ResultMetadata{}, err
	}

	o.lastControls = ctrl

	manualExposure := ctrl.ExposureTime != nil && *ctrl.ExposureTime != 0
	manualGain := ctrl.AnalogueGain != nil && *ctrl.AnalogueGain != 0
	manual := manualExposure || manualGain
	prevAgc := o.agcState
	if manual {
		lines := o.agcState.ExposureLines
		if manualExposure {
			lines = clampU32(uint32(ctrl.ExposureTime.Seconds()/o.session.LineDuration.Seconds()), o.session.MinExposureLines, o.session.MaxExposureLines)
		}
		gain := o.agcState.AnalogueGain
		if manualGain {
			gain = clamp(*ctrl.AnalogueGain, o.session.MinGain, o.session.MaxGain)
		}
		o.agcState = AgcState{
			ExposureLines:    lines,
			AnalogueGain:     gain,
			FilteredExposure: o.agcState.FilteredExposure,
			PrevExposure:     o.agcState.PrevExposure,
			FrameCount:       o.agcState.FrameCount,
			Converged:        false,
		}
	} else {
		o.agcState = o.agc.Process(zones, hist, o.awbState, o.session, o.agcState)
	}

	if ctrl.ColourGains != nil {
		o.awbState.RedGain = clamp(ctrl.ColourGains[0], MinAwbGain, MaxAwbGain)
		o.awbState.BlueGain = clamp(ctrl.ColourGains[1], MinAwbGain, MaxAwbGain)
	} else if ctrl.AwbEnable == nil || *ctrl.AwbEnable {
		if valid := ValidZones(zones); len(valid) > 0 {
			o.awbState = o.awb.Process(zones)
		}
	}

	o.gamma = clamp(DynamicGamma(hist), MinDynamicGamma, MaxDynamicGamma)

	contrastFigure := hist.InterQuantileMean(0.9, 0.98) - hist.InterQuantileMean(0.02, 0.1)
	o.afState = o.af.Process(contrastFigure, o.afState)

	if o.delayed != nil && (o.agcState.ExposureLines != prevAgc.ExposureLines || o.agcState.AnalogueGain != prevAgc.AnalogueGain) {
		gainCode := o.gainHelper.GainCode(o.agcState.AnalogueGain)
		o.delayed.Push(map[ControlID]int32{
			ControlExposure:     int32(o.agcState.ExposureLines),
			ControlAnalogueGain: gainCode,
		})
	}

	if info, ok := o.frames[frameID]; ok {
		info.MetadataDone = true
	}

	return ResultMetadata{
		FrameDuration:     o.session.LineDuration * time.Duration(o.agcState.ExposureLines),
		AeLocked:          o.agcState.Converged,
		AfState:           o.afState.Mode,
		ColourGains:       [2]float64{o.awbState.RedGain, o.awbState.BlueGain},
		ColourTemperature: uint32(o.awbState.TemperatureK),
		PipelineDepth:     int(o.delayedMaxDelay()),
	}, nil
}

// AgcState returns a copy of the current auto-exposure/gain state.
func (o *Orchestrator) AgcState() AgcState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.agcState
}

// AwbState returns a copy of the current auto-white-balance result.
func (o *Orchestrator) AwbState() AwbResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.awbState
}

// AfStatus returns the subset of the autofocus state reported to clients.
func (o *Orchestrator) AfStatus() AfStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return AfStatus{Mode: o.afState.Mode, LensPosition: o.afState.Focus, Phase: o.afState.Phase}
}

func (o *Orchestrator) delayedMaxDelay() uint32 {
	if o.delayed == nil {
		return 0
	}
	return o.delayed.MaxDelay()
}

// FrameStart forwards a sensor frame-start event to Delayed Controls.
func (o *Orchestrator) FrameStart(sequence uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.delayed != nil {
		o.delayed.FrameStart(sequence)
	}
}

// CompleteFrame marks frameID's buffer as dequeued and evicts it from the
// lifecycle table once every stage of its life cycle is done.
func (o *Orchestrator) CompleteFrame(frameID uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	info, ok := o.frames[frameID]
	if !ok {
		return
	}
	info.ParamDequeued = true
	if info.Done() {
		delete(o.frames, frameID)
	}
}
