// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

// Algorithm weight presets (§6). CentreWeighted favors the middle of the
// 15-zone metering grid, Spot uses only the first zone, Matrix weighs the
// whole frame evenly.
//
// Open question carried from spec.md section 9: the source's weights for
// Spot and Matrix are not consistently defined across versions; this
// follows the most literal reading (Spot == zone 0 only, Matrix == all
// ones) until clarified against a reference.
var (
	CentreWeightedWeights = [15]float64{3, 3, 3, 2, 2, 2, 2, 1, 1, 1, 1, 0, 0, 0, 0}
	SpotWeights           = [15]float64{1}
	MatrixWeights         = [15]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
)

// weightsFor returns the per-zone weight table for a metering mode.
func weightsFor(mode MeteringMode) [15]float64 {
	switch mode {
	case MeteringSpot:
		return SpotWeights
	case MeteringMatrix:
		return MatrixWeights
	default:
		return CentreWeightedWeights
	}
}
