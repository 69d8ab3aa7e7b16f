// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package fakeisp is an in-memory stand-in for the ISP and sensor, for
// tests and the demo daemon where no real hardware is attached.
//
// Grounded on maruel/go-lepton's lepton.MakeFakeLepton and
// leptontest.Playback: a fake that implements the same narrow interface
// real hardware does, synthesizing plausible data rather than talking to
// a bus.
package fakeisp

import (
	"math/rand"
	"sync"

	"github.com/maruel/bayeripa/ipa"
	"github.com/maruel/bayeripa/sensorbus"
)

// Sensor is a fake sensor exposing the three controls the IPA drives,
// implementing ipa.ControlDevice in memory.
type Sensor struct {
	mu       sync.Mutex
	controls map[ipa.ControlID]int32
}

// NewSensor returns a Sensor seeded with a mid-range exposure and unity
// gain, ready to use as an ipa.ControlDevice.
func NewSensor() *Sensor {
	return &Sensor{
		controls: map[ipa.ControlID]int32{
			ipa.ControlExposure:     1000,
			ipa.ControlAnalogueGain: 16, // 1.0x at 1/16 step
			ipa.ControlVBlank:       32,
		},
	}
}

// GetControls implements ipa.ControlDevice.
func (s *Sensor) GetControls(ids []ipa.ControlID) (map[ipa.ControlID]int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[ipa.ControlID]int32, len(ids))
	for _, id := range ids {
		out[id] = s.controls[id]
	}
	return out, nil
}

// SetControls implements ipa.ControlDevice.
func (s *Sensor) SetControls(values map[ipa.ControlID]int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range values {
		s.controls[id] = v
	}
	return nil
}

// ISP synthesizes statistics buffers for a configured grid, simulating a
// scene of a given mean brightness and colour cast so the control loop has
// something non-degenerate to converge against.
type ISP struct {
	GridWidth, GridHeight int

	// MeanLuma in [0,255] is the scene's average green level before any
	// exposure/gain is applied.
	MeanLuma float64
	// RedCast and BlueCast bias the red/blue channel averages relative to
	// green, simulating a non-neutral light source for AWB to correct.
	RedCast, BlueCast float64

	rng *rand.Rand
}

// NewISP returns an ISP generating a neutral, mid-grey synthetic scene.
func NewISP(gridWidth, gridHeight int, seed int64) *ISP {
	return &ISP{
		GridWidth:  gridWidth,
		GridHeight: gridHeight,
		MeanLuma:   90,
		RedCast:    1.0,
		BlueCast:   1.0,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// GenerateStats produces a raw statistics buffer for the current scene
// parameters, decodable by sensorbus.DecodeStatsBuffer.
func (p *ISP) GenerateStats() ([]byte, error) {
	cells := make([]sensorbus.AwbCellRecord, p.GridWidth*p.GridHeight)
	for i := range cells {
		noise := p.rng.Float64()*8 - 4
		green := clampByte(p.MeanLuma + noise)
		cells[i] = sensorbus.AwbCellRecord{
			GrAvg:    green,
			GbAvg:    green,
			RAvg:     clampByte(p.MeanLuma * p.RedCast),
			BAvg:     clampByte(p.MeanLuma * p.BlueCast),
			SatRatio: 0,
		}
	}
	return sensorbus.EncodeStatsBuffer(cells, nil)
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
