// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import (
	"log"
	"sort"
)

// minValidZonesForAwb is the degenerate-input threshold below which AWB
// reuses the previous result rather than computing a new one (§4.C point
// 6, ErrAlgorithmDegenerate).
const minValidZonesForAwb = 10

// Awb is the grey-world auto-white-balance algorithm.
//
// Grounded on
// _examples/original_source/src/ipa/libipa/awb.cpp (awbGreyWorld,
// estimateCCT).
type Awb struct {
	previous AwbResult
}

// NewAwb returns an Awb seeded with a neutral starting result.
func NewAwb() *Awb {
	return &Awb{previous: AwbResult{TemperatureK: 4500, RedGain: 1, GreenGain: 1, BlueGain: 1}}
}

// Process runs one grey-world pass over the valid zones extracted from
// this frame's statistics. On degenerate input (fewer than
// minValidZonesForAwb valid zones) it logs a warning and returns the
// previous result unchanged.
func (a *Awb) Process(zones []Zone) AwbResult {
	valid := ValidZones(zones)
	if len(valid) < minValidZonesForAwb {
		log.Printf("awb: only %d valid zones (need %d), reusing previous result", len(valid), minValidZonesForAwb)
		return a.previous
	}

	redSorted := make([]Zone, len(valid))
	copy(redSorted, valid)
	blueSorted := make([]Zone, len(valid))
	copy(blueSorted, valid)

	// Sort by G/R and G/B respectively, expressed without division as
	// cross-multiplication to avoid div-by-zero on R==0 or B==0.
	sort.Slice(redSorted, func(i, j int) bool {
		return redSorted[i].GSum*redSorted[j].RSum < redSorted[j].GSum*redSorted[i].RSum
	})
	sort.Slice(blueSorted, func(i, j int) bool {
		return blueSorted[i].GSum*blueSorted[j].BSum < blueSorted[j].GSum*blueSorted[i].BSum
	})

	discard := len(valid) / 4
	var sumRedR, sumRedG, sumRedB, sumBlueG, sumBlueB float64
	for i := discard; i < len(valid)-discard; i++ {
		sumRedR += redSorted[i].RSum / float64(redSorted[i].Counted)
		sumRedG += redSorted[i].GSum / float64(redSorted[i].Counted)
		sumRedB += redSorted[i].BSum / float64(redSorted[i].Counted)
		sumBlueG += blueSorted[i].GSum / float64(blueSorted[i].Counted)
		sumBlueB += blueSorted[i].BSum / float64(blueSorted[i].Counted)
	}

	// Sigma R or Sigma B zero clamps the corresponding gain to the upper
	// bound (§4.C point 6) instead of dividing by zero.
	redGain := MaxAwbGain
	if sumRedR != 0 {
		redGain = sumRedG / sumRedR
	}
	blueGain := MaxAwbGain
	if sumBlueB != 0 {
		blueGain = sumBlueG / sumBlueB
	}

	// CCT is estimated from the (R,G,B) triple of a single retained set
	// (§4.C point 5), not a mix of the two independently-trimmed subsets:
	// the G/R-sorted set's own B average (sumRedB) is used here rather
	// than the G/B-sorted set's sumBlueB, which belongs to a different
	// discard window.
	result := AwbResult{
		TemperatureK: float64(estimateCCT(sumRedR, sumRedG, sumRedB)),
		RedGain:      clamp(redGain, MinAwbGain, MaxAwbGain),
		GreenGain:    1.0,
		BlueGain:     clamp(blueGain, MinAwbGain, MaxAwbGain),
	}
	a.previous = result
	return result
}

// estimateCCT approximates correlated colour temperature from average
// RGB values via the Planckian locus approximation (§4.C point 5).
func estimateCCT(red, green, blue float64) int {
	x := -0.14282*red + 1.54924*green + -0.95641*blue
	y := -0.32466*red + 1.57837*green + -0.73191*blue
	z := -0.68202*red + 0.77073*green + 0.56332*blue

	sum := x + y + z
	if sum == 0 {
		return 0
	}
	cx := x / sum
	cy := y / sum

	denom := 0.1858 - cy
	if denom == 0 {
		return 0
	}
	n := (cx - 0.3320) / denom
	return int(449*n*n*n + 3525*n*n + 6823.3*n + 5520.33)
}
