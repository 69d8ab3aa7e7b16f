// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorbus

import "testing"

func TestEncodeDecodeStatsBuffer_roundTrip(t *testing.T) {
	cells := []AwbCellRecord{
		{GrAvg: 10, GbAvg: 12, RAvg: 20, BAvg: 30, SatRatio: 1},
		{GrAvg: 40, GbAvg: 42, RAvg: 50, BAvg: 60, SatRatio: 2},
	}
	raw, err := EncodeStatsBuffer(cells, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeStatsBuffer(raw, len(cells))
	if err != nil {
		t.Fatal(err)
	}
	if got.MeasType&MeasAwb == 0 {
		t.Errorf("MeasType = %#x, want MeasAwb bit set", got.MeasType)
	}
	for i, c := range cells {
		if got.AwbCells[i] != c {
			t.Errorf("AwbCells[%d] = %+v, want %+v", i, got.AwbCells[i], c)
		}
	}
}

func TestEncodeDecodeStatsBuffer_withAeExpMean(t *testing.T) {
	cells := []AwbCellRecord{{GrAvg: 1, GbAvg: 1, RAvg: 1, BAvg: 1}}
	ae := []uint8{77}
	raw, err := EncodeStatsBuffer(cells, ae)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeStatsBuffer(raw, len(cells))
	if err != nil {
		t.Fatal(err)
	}
	if got.MeasType&MeasAe == 0 {
		t.Errorf("MeasType = %#x, want MeasAe bit set when ae samples are provided", got.MeasType)
	}
	if len(got.AeExpMean) != 1 || got.AeExpMean[0] != 77 {
		t.Errorf("AeExpMean = %v, want [77]", got.AeExpMean)
	}
}

func TestDecodeStatsBuffer_shortBufferRejected(t *testing.T) {
	if _, err := DecodeStatsBuffer([]byte{1, 2, 3}, 4); err == nil {
		t.Fatal("DecodeStatsBuffer() on a too-short buffer = nil error, want one")
	}
}
