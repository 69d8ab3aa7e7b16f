// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import (
	"log"
	"math"
	"time"
)

// Tunable constants for the mean-based AGC loop, grounded on
// _examples/original_source/src/ipa/rkisp1/algorithms/agc.cpp
// (Agc::process, Agc::computeExposure, Agc::filterExposure).
const (
	agcMaxIterations = 8
	agcConvergeTerm  = 1.01
	agcMaxGainStep   = 10.0
	agcTargetY       = 0.4
	agcStartupFrames = 10
	agcAlphaSmooth   = 0.2
	agcConvergedBand = 0.2
	agcConvergedTol  = 0.01
)

// Agc is the mean-based auto-exposure/gain algorithm. It iteratively
// refines a target scene luminance against the current exposure/gain
// split, then smooths the result across frames.
//
// Grounded on
// _examples/original_source/src/ipa/rkisp1/algorithms/agc.cpp.
type Agc struct{}

// NewAgc returns a ready-to-use Agc. It is stateless between calls; all
// running state lives in the caller-owned AgcState passed to Process.
func NewAgc() *Agc { return &Agc{} }

// Process runs one AGC iteration given this frame's zones, the AWB gains
// currently in effect, the session configuration (gain/exposure bounds,
// metering mode) and the running state, and returns the updated state.
// If hist is empty (AlgorithmDegenerate: "AGC histogram empty") the
// previous state is returned unchanged and a warning logged.
func (a *Agc) Process(zones []Zone, hist *Histogram, awb AwbResult, cfg SessionConfig, state AgcState) AgcState {
	if hist == nil || hist.Total() == 0 {
		log.Printf("agc: empty histogram, reusing previous exposure/gain")
		return state
	}

	weights := weightsFor(cfg.MeteringMode)

	currentGain := 1.0
	for i := 0; i < agcMaxIterations; i++ {
		initialY := computeInitialY(zones, weights, awb, currentGain)
		extra := math.Min(agcMaxGainStep, agcTargetY/(initialY+0.001))
		currentGain *= extra
		if extra < agcConvergeTerm {
			break
		}
	}

	prevExposure := state.PrevExposure
	if prevExposure <= 0 {
		prevExposure = cfg.MinShutter
	}
	target := prevExposure.Seconds() * currentGain
	maxTotal := cfg.MaxShutter.Seconds() * cfg.MaxGain
	if target > maxTotal {
		target = maxTotal
	}

	alpha := agcAlphaSmooth
	if state.FrameCount < agcStartupFrames {
		alpha = 1.0
	}
	var filteredSeconds float64
	if state.FilteredExposure <= 0 {
		filteredSeconds = target
	} else {
		prevFiltered := state.FilteredExposure.Seconds()
		if prevFiltered < 1.2*target && prevFiltered > 0.8*target {
			alpha = math.Sqrt(alpha)
		}
		filteredSeconds = alpha*target + (1-alpha)*prevFiltered
	}
	filtered := time.Duration(filteredSeconds * float64(time.Second))

	// Push the shutter time up to the maximum first, and only then raise
	// the gain (§4.D "Shutter/gain split").
	shutter := clamp(filteredSeconds/cfg.MinGain, cfg.MinShutter.Seconds(), cfg.MaxShutter.Seconds())
	gain := clamp(filteredSeconds/math.Max(shutter, 1e-12), cfg.MinGain, cfg.MaxGain)

	lines := uint32(shutter / cfg.LineDuration.Seconds())
	lines = clampU32(lines, cfg.MinExposureLines, cfg.MaxExposureLines)

	converged := math.Abs(filteredSeconds/target-1) < agcConvergedTol

	// PrevExposure carries forward the achievable total exposure (shutter
	// times gain, which can fall short of filteredSeconds once gain hits
	// its own clamp) so the next frame's target is anchored to what was
	// actually applied, not to an unreachable filtered value.
	return AgcState{
		ExposureLines:    lines,
		AnalogueGain:     gain,
		FilteredExposure: filtered,
		PrevExposure:     time.Duration(shutter * gain * float64(time.Second)),
		FrameCount:       state.FrameCount + 1,
		Converged:        converged,
	}
}

// computeInitialY applies the metering weights over each zone's AWB-
// corrected luma, scaled by currentGain and normalized to [0,1] (§4.D
// "compute_initial_Y"). The 15-entry weight table covers a 5x3 coarse
// split of the 16x12 analysis grid; each analysis zone maps into its
// coarse cell.
func computeInitialY(zones []Zone, weights [15]float64, awb AwbResult, currentGain float64) float64 {
	const coarseW, coarseH = 5, 3
	var sumWeighted, sumWeightCounted float64
	for ay := 0; ay < AnalysisGridHeight; ay++ {
		cy := ay * coarseH / AnalysisGridHeight
		for ax := 0; ax < AnalysisGridWidth; ax++ {
			cx := ax * coarseW / AnalysisGridWidth
			z := zones[ay*AnalysisGridWidth+ax]
			if z.Counted == 0 {
				continue
			}
			w := weights[cy*coarseW+cx]
			r := z.RSum / float64(z.Counted)
			g := z.GSum / float64(z.Counted)
			b := z.BSum / float64(z.Counted)
			luma := 0.299*r*awb.RedGain + 0.587*g*awb.GreenGain + 0.114*b*awb.BlueGain
			sumWeighted += w * luma * currentGain
			sumWeightCounted += w * float64(z.Counted)
		}
	}
	if sumWeightCounted == 0 {
		return 0
	}
	return sumWeighted / sumWeightCounted / 255.0
}

func clampU32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
