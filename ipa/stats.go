// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import (
	"fmt"

	"github.com/maruel/bayeripa/sensorbus"
)

// Fixed analysis grid dimensions the raw ISP grid is downsampled into,
// regardless of the ISP's own grid resolution (§4.B).
const (
	AnalysisGridWidth  = 16
	AnalysisGridHeight = 12
	analysisZoneCount  = AnalysisGridWidth * AnalysisGridHeight
)

// sat_ratio threshold at or below which a cell is counted, 255*20/100.
const maxCellSatRatio = 255 * 20 / 100

// ExtractStats decodes a raw statistics buffer for an ISP grid of the given
// dimensions, downsamples it into the fixed 16x12 analysis grid, and
// builds a 256-bin histogram of counted cells' green average.
func ExtractStats(raw []byte, ispGrid GridDescriptor) ([]Zone, *Histogram, error) {
	cellCount := ispGrid.Width * ispGrid.Height
	if cellCount <= 0 {
		return nil, nil, fmt.Errorf("%w: empty isp grid", ErrInvalidStats)
	}

	stats, err := sensorbus.DecodeStatsBuffer(raw, cellCount)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidStats, err)
	}
	if stats.MeasType&sensorbus.MeasAwb == 0 {
		return nil, nil, fmt.Errorf("%w: meas_type lacks awb bit", ErrInvalidStats)
	}

	zones := make([]Zone, analysisZoneCount)
	bins := make([]uint32, 256)

	for cy := 0; cy < ispGrid.Height; cy++ {
		for cx := 0; cx < ispGrid.Width; cx++ {
			cell := stats.AwbCells[cy*ispGrid.Width+cx]
			if cell.SatRatio > maxCellSatRatio {
				continue
			}
			green := (float64(cell.GrAvg) + float64(cell.GbAvg)) / 2

			ax := cx * AnalysisGridWidth / ispGrid.Width
			ay := cy * AnalysisGridHeight / ispGrid.Height
			if ax >= AnalysisGridWidth {
				ax = AnalysisGridWidth - 1
			}
			if ay >= AnalysisGridHeight {
				ay = AnalysisGridHeight - 1
			}
			z := &zones[ay*AnalysisGridWidth+ax]
			z.RSum += float64(cell.RAvg)
			z.GSum += green
			z.BSum += float64(cell.BAvg)
			z.Counted++

			bin := int(green)
			if bin > 255 {
				bin = 255
			}
			bins[bin]++
		}
	}

	return zones, NewHistogram(bins), nil
}

// ValidZones filters zones down to those with enough signal for AWB
// (§4.B "Zones filter").
func ValidZones(zones []Zone) []Zone {
	out := make([]Zone, 0, len(zones))
	for _, z := range zones {
		if z.valid() {
			out = append(out, z)
		}
	}
	return out
}
