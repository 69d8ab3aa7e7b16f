// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import "testing"

// uniformZones returns n zones each carrying MinZonesCounted counted
// cells averaging (r,g,b) per cell, so every zone passes Zone.valid().
func uniformZones(n int, r, g, b float64) []Zone {
	out := make([]Zone, n)
	for i := range out {
		out[i] = Zone{
			RSum:    r * MinZonesCounted,
			GSum:    g * MinZonesCounted,
			BSum:    b * MinZonesCounted,
			Counted: MinZonesCounted,
		}
	}
	return out
}

func TestAwb_Process_degenerateReusesPrevious(t *testing.T) {
	a := NewAwb()
	seed := AwbResult{TemperatureK: 5000, RedGain: 1.5, GreenGain: 1, BlueGain: 2}
	a.previous = seed
	tooFew := uniformZones(3, 200, 100, 50)
	got := a.Process(tooFew)
	if got != seed {
		t.Errorf("Process() with too few valid zones = %+v, want previous %+v", got, seed)
	}
}

func TestAwb_Process_uniformScene(t *testing.T) {
	a := NewAwb()
	zones := uniformZones(80, 200, 100, 50)
	got := a.Process(zones)
	if got.RedGain < 0.49 || got.RedGain > 0.51 {
		t.Errorf("RedGain = %v, want near 0.5", got.RedGain)
	}
	if got.BlueGain < 1.99 || got.BlueGain > 2.01 {
		t.Errorf("BlueGain = %v, want near 2.0", got.BlueGain)
	}
	if got.GreenGain != 1.0 {
		t.Errorf("GreenGain = %v, want 1.0", got.GreenGain)
	}
}

func TestAwb_Process_zeroRedClampsToMax(t *testing.T) {
	a := NewAwb()
	zones := uniformZones(80, 0, 100, 50)
	got := a.Process(zones)
	if got.RedGain != MaxAwbGain {
		t.Errorf("RedGain = %v, want clamped to %v when sum(R) == 0", got.RedGain, MaxAwbGain)
	}
}

func TestAwb_Process_zeroBlueClampsToMax(t *testing.T) {
	a := NewAwb()
	zones := uniformZones(80, 200, 100, 0)
	got := a.Process(zones)
	if got.BlueGain != MaxAwbGain {
		t.Errorf("BlueGain = %v, want clamped to %v when sum(B) == 0", got.BlueGain, MaxAwbGain)
	}
}

func TestAwb_Process_gainsClampedToRange(t *testing.T) {
	a := NewAwb()
	// Extreme casts: G/R = 0.05 is below MinAwbGain and is clamped up to
	// it, G/B = 100 is above MaxAwbGain and is clamped down to it; both
	// raw ratios lie outside [0.125,8].
	zones := uniformZones(80, 2000, 100, 1)
	got := a.Process(zones)
	if got.RedGain < MinAwbGain || got.RedGain > MaxAwbGain {
		t.Errorf("RedGain = %v, out of [%v,%v]", got.RedGain, MinAwbGain, MaxAwbGain)
	}
	if got.BlueGain < MinAwbGain || got.BlueGain > MaxAwbGain {
		t.Errorf("BlueGain = %v, out of [%v,%v]", got.BlueGain, MinAwbGain, MaxAwbGain)
	}
}

func TestEstimateCCT_withinReasonableRange(t *testing.T) {
	// A warm (red-cast) scene should estimate a low correlated colour
	// temperature.
	got := estimateCCT(200, 100, 50)
	if got <= 0 || got > 10000 {
		t.Errorf("estimateCCT(200,100,50) = %d, want a plausible Kelvin value", got)
	}
}
