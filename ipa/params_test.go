// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import (
	"testing"

	"github.com/maruel/bayeripa/sensorbus"
)

func TestAssembleParams_enablesDrivenModules(t *testing.T) {
	ctx := IpaContext{
		Session: SessionConfig{MeteringMode: MeteringCentreWeighted},
		Awb:     AwbResult{RedGain: 1.5, GreenGain: 1.0, BlueGain: 0.8},
		Gamma:   1.2,
	}
	buf := AssembleParams(ctx, &Contrast{})

	for _, m := range []sensorbus.Module{
		sensorbus.ModuleAwbMeasure,
		sensorbus.ModuleAwbGains,
		sensorbus.ModuleAec,
		sensorbus.ModuleHistogramWeights,
		sensorbus.ModuleBls,
		sensorbus.ModuleCcm,
		sensorbus.ModuleCproc,
		sensorbus.ModuleBnr,
		sensorbus.ModuleLsc,
		sensorbus.ModuleDpcc,
		sensorbus.ModuleFlt,
		sensorbus.ModuleDpf,
		sensorbus.ModuleDpfStrength,
		sensorbus.ModuleGamma,
		sensorbus.ModuleIe,
		sensorbus.ModuleBdm,
	} {
		if !buf.Enabled(m) {
			t.Errorf("module %v not enabled by AssembleParams", m)
		}
	}
}

func TestAssembleParams_fixedDefaultPayloads(t *testing.T) {
	ctx := IpaContext{Gamma: 1.1}
	buf := AssembleParams(ctx, &Contrast{})
	if buf.BdmThreshold != 4 {
		t.Errorf("BdmThreshold = %d, want 4 per the spec's fixed default", buf.BdmThreshold)
	}
	if buf.IeEffect != 0 {
		t.Errorf("IeEffect = %d, want 0 per the spec's fixed default", buf.IeEffect)
	}
	if buf.Bls != ([4]uint16{0, 0, 0, 0}) {
		t.Errorf("Bls = %v, want all-zero fixed offsets", buf.Bls)
	}
}

func TestAssembleParams_cprocDefaultsToNeutral(t *testing.T) {
	ctx := IpaContext{Gamma: 1.1}
	buf := AssembleParams(ctx, &Contrast{})
	if buf.Cproc.Contrast != 128 || buf.Cproc.Brightness != 128 || buf.Cproc.Saturation != 128 {
		t.Errorf("Cproc = %+v, want neutral (128,128,128) with no controls set", buf.Cproc)
	}
}

func TestAssembleParams_cprocHonorsControls(t *testing.T) {
	contrast := 16.0
	ctx := IpaContext{
		Gamma: 1.1,
		Frame: FrameContext{Controls: AppControls{Contrast: &contrast}},
	}
	buf := AssembleParams(ctx, &Contrast{})
	if buf.Cproc.Contrast != 127 {
		t.Errorf("Cproc.Contrast = %d, want the midpoint of [0,32] (16) scaled to ~127", buf.Cproc.Contrast)
	}
}

func TestAssembleParams_gammaFallsBackToDefault(t *testing.T) {
	ctx := IpaContext{Gamma: 0}
	buf := AssembleParams(ctx, &Contrast{})
	want := (&Contrast{}).Apply(DefaultGamma)
	if buf.GammaLUT != want {
		t.Errorf("GammaLUT with Gamma=0 did not fall back to DefaultGamma's curve")
	}
}

func TestWeightsToBytes_normalizesToMax255(t *testing.T) {
	w := [15]float64{}
	w[0] = 1.0
	w[1] = 2.0
	got := weightsToBytes(w)
	if got[1] != 255 {
		t.Errorf("weightsToBytes max entry = %d, want 255", got[1])
	}
	if got[0] != 127 && got[0] != 128 {
		t.Errorf("weightsToBytes half-of-max entry = %d, want ~127", got[0])
	}
}
