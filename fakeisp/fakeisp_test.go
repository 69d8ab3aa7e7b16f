// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package fakeisp

import (
	"testing"

	"github.com/maruel/bayeripa/ipa"
	"github.com/maruel/bayeripa/sensorbus"
)

func TestSensor_GetSetControlsRoundTrip(t *testing.T) {
	s := NewSensor()
	if err := s.SetControls(map[ipa.ControlID]int32{ipa.ControlExposure: 555}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetControls([]ipa.ControlID{ipa.ControlExposure, ipa.ControlAnalogueGain})
	if err != nil {
		t.Fatal(err)
	}
	if got[ipa.ControlExposure] != 555 {
		t.Errorf("exposure = %d, want 555", got[ipa.ControlExposure])
	}
	if _, ok := got[ipa.ControlAnalogueGain]; !ok {
		t.Errorf("GetControls missing requested ControlAnalogueGain")
	}
}

func TestISP_GenerateStats_decodable(t *testing.T) {
	isp := NewISP(8, 6, 42)
	raw, err := isp.GenerateStats()
	if err != nil {
		t.Fatal(err)
	}
	stats, err := sensorbus.DecodeStatsBuffer(raw, 8*6)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.AwbCells) != 48 {
		t.Errorf("len(AwbCells) = %d, want 48", len(stats.AwbCells))
	}
}

func TestISP_GenerateStats_honorsColourCast(t *testing.T) {
	isp := NewISP(4, 4, 7)
	isp.RedCast = 2.0
	isp.BlueCast = 0.5
	raw, err := isp.GenerateStats()
	if err != nil {
		t.Fatal(err)
	}
	stats, err := sensorbus.DecodeStatsBuffer(raw, 16)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range stats.AwbCells {
		if c.RAvg <= c.BAvg {
			t.Fatalf("cell %+v: expected red cast (R>B) with RedCast=2.0 BlueCast=0.5", c)
		}
	}
}
