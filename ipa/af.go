// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import "log"

// Contrast-detection AF tunables, grounded on
// _examples/original_source/src/ipa/rkisp1/algorithms/af.cpp
// (Af::process, the coarse/fine scan step sizes and the contrast-drift
// reset threshold).
const (
	afCoarseStep  = 30
	afFineStep    = 1
	afFineRangePct = 0.05
	afMaxChange   = 0.5
)

// Af is the contrast-detection autofocus state machine.
//
// Phases: Idle -> CoarseScan -> FineScan -> Locked, with a Reset phase
// entered from Locked whenever the measured contrast drifts by more than
// afMaxChange relative to the value recorded at lock time (in Continuous
// mode, relative to the previous frame's contrast).
type Af struct{}

// NewAf returns a ready-to-use Af. All state lives in the caller-owned
// AfState.
func NewAf() *Af { return &Af{} }

// Process advances the AF state machine given this frame's contrast-detect
// figure of merit (derived from the Stats Extractor's whole-frame
// histogram; the AF window set by SetWindows is stored but not used here)
// and returns the updated state.
func (a *Af) Process(contrast float64, state AfState) AfState {
	if state.Mode == AfModeManual {
		return state
	}

	switch state.Phase {
	case AfIdle:
		if state.triggered || state.Mode == AfModeContinuous {
			state.Phase = AfCoarseScan
			state.Focus = 0
			state.MaxContrast = 0
			state.BestFocus = 0
		}
		return state

	case AfCoarseScan:
		if contrast > state.MaxContrast {
			state.MaxContrast = contrast
			state.BestFocus = state.Focus
		}
		next := state.Focus + afCoarseStep
		if next > state.MaxStep {
			state.Focus = state.BestFocus
			state.Phase = AfFineScan
			state.LowStep = subClampU32(state.BestFocus, uint32(float64(state.MaxStep)*afFineRangePct))
			state.HighStep = addClampU32(state.BestFocus, uint32(float64(state.MaxStep)*afFineRangePct), state.MaxStep)
			state.Focus = state.LowStep
			state.MaxContrast = 0
			return state
		}
		state.Focus = next
		return state

	case AfFineScan:
		if contrast > state.MaxContrast {
			state.MaxContrast = contrast
			state.BestFocus = state.Focus
		}
		next := state.Focus + afFineStep
		if next > state.HighStep {
			state.Focus = state.BestFocus
			state.Phase = AfLocked
			state.PrevContrast = state.MaxContrast
			state.triggered = false
			log.Printf("af: locked at focus=%d contrast=%.3f", state.BestFocus, state.MaxContrast)
			return state
		}
		state.Focus = next
		return state

	case AfLocked:
		if state.PrevContrast > 0 {
			drift := (state.PrevContrast - contrast) / state.PrevContrast
			if drift < 0 {
				drift = -drift
			}
			if drift > afMaxChange {
				log.Printf("af: contrast drift %.2f exceeds threshold, resetting", drift)
				state.Phase = AfReset
				return state
			}
		}
		if state.Mode == AfModeContinuous {
			state.PrevContrast = contrast
		}
		return state

	case AfReset:
		state.Phase = AfIdle
		state.triggered = state.Mode != AfModeManual
		return state

	default:
		return state
	}
}

// Trigger requests a new focus scan on the next Process call. Valid in
// Auto mode; a no-op in Manual or Continuous (continuous scans
// automatically).
func (a *Af) Trigger(state *AfState) {
	if state.Mode == AfModeAuto {
		state.triggered = true
		state.Phase = AfIdle
	}
}

// Cancel aborts any in-progress scan and returns to the last locked
// (or starting) focus position.
func (a *Af) Cancel(state *AfState) {
	state.triggered = false
	state.Phase = AfIdle
	state.Focus = state.BestFocus
}

// SetMode changes the focus control mode.
func (a *Af) SetMode(state *AfState, mode AfMode) {
	state.Mode = mode
	if mode == AfModeManual {
		state.Phase = AfIdle
		state.triggered = false
	}
}

// SetWindows sets the AF measurement window.
func (a *Af) SetWindows(state *AfState, window Rectangle) {
	state.Window = window
}

// SetRange sets the lens travel range in VCM steps.
func (a *Af) SetRange(state *AfState, maxStep uint32) {
	state.MaxStep = maxStep
}

// SetSpeed sets the lens movement speed factor.
func (a *Af) SetSpeed(state *AfState, speed float64) {
	state.Speed = speed
}

func subClampU32(v, delta uint32) uint32 {
	if delta > v {
		return 0
	}
	return v - delta
}

func addClampU32(v, delta, max uint32) uint32 {
	if v+delta > max {
		return max
	}
	return v + delta
}
