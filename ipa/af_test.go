// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import "testing"

func TestAf_Process_manualModeIsNoop(t *testing.T) {
	a := NewAf()
	state := AfState{Mode: AfModeManual, Phase: AfCoarseScan, Focus: 50}
	got := a.Process(0.9, state)
	if got != state {
		t.Errorf("Process() in manual mode = %+v, want unchanged %+v", got, state)
	}
}

func TestAf_Process_idleWaitsForTrigger(t *testing.T) {
	a := NewAf()
	state := AfState{Mode: AfModeAuto, Phase: AfIdle, MaxStep: 1023}
	got := a.Process(0.5, state)
	if got.Phase != AfIdle {
		t.Errorf("Phase = %v, want still Idle without a trigger", got.Phase)
	}
	a.Trigger(&state)
	got = a.Process(0.5, state)
	if got.Phase != AfCoarseScan {
		t.Errorf("Phase = %v, want CoarseScan after Trigger", got.Phase)
	}
}

func TestAf_Process_coarseScanAdvancesAndLocks(t *testing.T) {
	a := NewAf()
	state := AfState{Mode: AfModeAuto, Phase: AfCoarseScan, MaxStep: 100}
	contrasts := map[uint32]float64{0: 0.1, 30: 0.4, 60: 0.9, 90: 0.2}
	for i := 0; i < 10 && state.Phase == AfCoarseScan; i++ {
		state = a.Process(contrasts[state.Focus], state)
	}
	if state.Phase != AfFineScan {
		t.Fatalf("Phase = %v, want FineScan after coarse scan completes", state.Phase)
	}
	if state.BestFocus != 60 {
		t.Errorf("BestFocus = %d, want 60 (peak contrast)", state.BestFocus)
	}

	for i := 0; i < 50 && state.Phase == AfFineScan; i++ {
		state = a.Process(0.9, state)
	}
	if state.Phase != AfLocked {
		t.Fatalf("Phase = %v, want Locked after fine scan completes", state.Phase)
	}
}

func TestAf_Process_lockedDriftTriggersReset(t *testing.T) {
	a := NewAf()
	state := AfState{Mode: AfModeContinuous, Phase: AfLocked, PrevContrast: 1.0}
	got := a.Process(0.3, state)
	if got.Phase != AfReset {
		t.Errorf("Phase = %v, want Reset on large contrast drift", got.Phase)
	}
}

func TestAf_Process_lockedStableStaysLocked(t *testing.T) {
	a := NewAf()
	state := AfState{Mode: AfModeContinuous, Phase: AfLocked, PrevContrast: 1.0}
	got := a.Process(0.98, state)
	if got.Phase != AfLocked {
		t.Errorf("Phase = %v, want still Locked on small contrast drift", got.Phase)
	}
}

func TestAf_Cancel_returnsToBestFocus(t *testing.T) {
	a := NewAf()
	state := AfState{Mode: AfModeAuto, Phase: AfCoarseScan, Focus: 40, BestFocus: 15, triggered: true}
	a.Cancel(&state)
	if state.Phase != AfIdle || state.Focus != 15 || state.triggered {
		t.Errorf("Cancel() = %+v, want Idle at BestFocus with triggered cleared", state)
	}
}

func TestAf_SetMode_manualResetsScan(t *testing.T) {
	a := NewAf()
	state := AfState{Mode: AfModeAuto, Phase: AfCoarseScan, triggered: true}
	a.SetMode(&state, AfModeManual)
	if state.Phase != AfIdle || state.triggered {
		t.Errorf("SetMode(Manual) = %+v, want Idle with triggered cleared", state)
	}
}
