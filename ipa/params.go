// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import "github.com/maruel/bayeripa/sensorbus"

// dpfStrengthDefault is the DPF (denoise pre-filter) strength written
// every frame: this control loop has no algorithm that tunes denoise
// strength per frame, so it is held at its weakest non-zero setting
// rather than driven to zero, which would leave DPF enabled but inert.
const dpfStrengthDefault = 1

// bdmThresholdDefault is the Bayer demosaic edge threshold §4.G fixes at
// 4 for every frame.
const bdmThresholdDefault = 4

// AssembleParams translates one frame's IpaContext into a sensorbus
// ParamBuffer, per §4.G: every module it enumerates is enabled and
// written every frame, whether its payload comes from an algorithm
// (AWB, AEC, histogram weights, CCM, CPROC, gamma) or is one of the
// fixed/default payloads the spec calls out by name (BLS, BNR, LSC,
// DPCC, FLT, DPF, DPF-strength, IE effect, BDM threshold). BNR, LSC,
// DPCC, and FLT carry no per-frame tunable in this buffer's layout, so
// enabling them is the entire payload; the fixed values for BLS, IE, and
// BDM are deliberately plain constants, not Open Questions left to the
// caller.
func AssembleParams(ctx IpaContext, contrast *Contrast) *sensorbus.ParamBuffer {
	p := &sensorbus.ParamBuffer{}

	p.Enable(sensorbus.ModuleAwbMeasure)
	p.Enable(sensorbus.ModuleAwbGains)
	p.AwbGains = sensorbus.AwbGainsPayload{
		RedGainCode:   sensorbus.QuantizeGain(ctx.Awb.RedGain),
		GreenGainCode: sensorbus.QuantizeGain(ctx.Awb.GreenGain),
		BlueGainCode:  sensorbus.QuantizeGain(ctx.Awb.BlueGain),
	}

	p.Enable(sensorbus.ModuleAec)
	p.AecWindow = sensorbus.AecWindowPayload{
		X: uint16(ctx.Session.Grid.XStart),
		Y: uint16(ctx.Session.Grid.YStart),
		W: uint16(ctx.Session.Grid.Width * ctx.Session.Grid.CellWidth()),
		H: uint16(ctx.Session.Grid.Height * ctx.Session.Grid.CellHeight()),
	}

	p.Enable(sensorbus.ModuleHistogramWeights)
	p.HistogramWeights = weightsToBytes(weightsFor(ctx.Session.MeteringMode))

	// BLS fixed values: no per-sensor black-level calibration is modeled
	// at this layer, so the offsets are left at zero (no correction)
	// while still turning the module on, per §4.G's "BLS fixed values".
	p.Enable(sensorbus.ModuleBls)
	p.Bls = [4]uint16{0, 0, 0, 0}

	p.Enable(sensorbus.ModuleCcm)
	p.Ccm = sensorbus.IdentityCcm

	p.Enable(sensorbus.ModuleCproc)
	p.Cproc = cprocFromControls(ctx.Frame.Controls)

	// BNR, LSC, DPCC, and FLT have no per-frame payload in this buffer;
	// enabling them switches the block on with its built-in defaults.
	p.Enable(sensorbus.ModuleBnr)
	p.Enable(sensorbus.ModuleLsc)
	p.Enable(sensorbus.ModuleDpcc)
	p.Enable(sensorbus.ModuleFlt)

	p.Enable(sensorbus.ModuleDpf)
	p.Enable(sensorbus.ModuleDpfStrength)
	p.DpfStrength = dpfStrengthDefault

	gamma := ctx.Gamma
	if gamma <= 0 {
		gamma = DefaultGamma
	}
	p.Enable(sensorbus.ModuleGamma)
	p.GammaLUT = contrast.Apply(gamma)

	p.Enable(sensorbus.ModuleIe)
	p.IeEffect = 0

	p.Enable(sensorbus.ModuleBdm)
	p.BdmThreshold = bdmThresholdDefault

	return p
}

// weightsToBytes quantizes the float metering weight table down to the
// [0,255] byte weights the histogram-weight hardware block expects,
// normalizing so the largest entry maps to 255.
func weightsToBytes(w [15]float64) []uint8 {
	max := 0.0
	for _, v := range w {
		if v > max {
			max = v
		}
	}
	out := make([]uint8, len(w))
	if max == 0 {
		return out
	}
	for i, v := range w {
		out[i] = uint8(v / max * 255)
	}
	return out
}

// cprocFromControls maps the user-facing AppControls knobs onto the
// hardware's [0,255] CPROC register range, defaulting to the neutral
// midpoint (128, i.e. no change) for anything unset.
func cprocFromControls(c AppControls) sensorbus.CprocPayload {
	p := sensorbus.CprocPayload{Contrast: 128, Brightness: 128, Saturation: 128, Hue: 128}
	if c.Contrast != nil {
		p.Contrast = scaleToByte(*c.Contrast, 0, 32)
	}
	if c.Brightness != nil {
		p.Brightness = scaleToByte(*c.Brightness, -1, 1)
	}
	if c.Saturation != nil {
		p.Saturation = scaleToByte(*c.Saturation, 0, 32)
	}
	return p
}

func scaleToByte(v, lo, hi float64) uint8 {
	v = clamp(v, lo, hi)
	return uint8((v - lo) / (hi - lo) * 255)
}
