// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensorbus is the narrow, safe adapter between the IPA control
// loop and two things it must otherwise treat as opaque: the ISP's packed
// C statistics/parameter buffers, and the sensor's register-level control
// bus.
//
// Grounded on maruel/go-lepton's lepton/bus.go and lepton/low.go, which
// play the same role for the FLIR Lepton's command-and-control interface:
// a small set of exported functions validate size and layout up front, and
// the rest of the IPA operates on normalized Go structs, never on the
// packed layout directly.
package sensorbus

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// AwbCellRecord is one ISP-grid cell's fixed-layout AWB/AE record, as
// delivered in the statistics buffer's awb block (§6).
//
// byteOrder is host byte order per the external interface contract; this
// build targets little-endian hosts (ARM/x86), matching every platform
// the upstream pipeline handler runs on.
type AwbCellRecord struct {
	GrAvg    uint8
	RAvg     uint8
	BAvg     uint8
	GbAvg    uint8
	SatRatio uint8
	_        [3]uint8 // padding, always zero on read
}

const awbCellRecordSize = 8

// MeasAe and MeasAwb are meas_type bits identifying which statistics
// modules produced data this frame.
const (
	MeasAe  uint32 = 1 << 0
	MeasAwb uint32 = 1 << 1
	MeasHistogram uint32 = 1 << 2
)

// ErrShortBuffer is returned when a stats or param buffer is smaller than
// its declared layout requires.
var ErrShortBuffer = errors.New("sensorbus: buffer shorter than declared layout")

// StatsBuffer is the decoded, normalized form of the opaque statistics
// byte blob (§6 inbound).
type StatsBuffer struct {
	MeasType   uint32
	AwbCells   []AwbCellRecord // one per ISP-grid cell, row-major
	AeExpMean  []uint8         // one 8-bit luma sample per ISP-grid cell
	Histogram  []uint32        // optional, variable width
}

// DecodeStatsBuffer parses a statistics buffer produced for an ISP grid of
// cellCount cells. It validates that the buffer is at least large enough
// to hold the fixed header and the AWB block; a buffer too short to do so
// is InvalidStats territory for the caller (recoverable, per §7), not a
// panic.
func DecodeStatsBuffer(raw []byte, cellCount int) (*StatsBuffer, error) {
	const headerSize = 4
	awbBlockSize := cellCount * awbCellRecordSize
	if len(raw) < headerSize+awbBlockSize {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrShortBuffer, headerSize+awbBlockSize, len(raw))
	}

	measType := binary.LittleEndian.Uint32(raw[0:4])
	out := &StatsBuffer{MeasType: measType}

	off := headerSize
	if measType&MeasAwb != 0 {
		out.AwbCells = make([]AwbCellRecord, cellCount)
		r := bytes.NewReader(raw[off : off+awbBlockSize])
		if err := binary.Read(r, binary.LittleEndian, out.AwbCells); err != nil {
			return nil, fmt.Errorf("sensorbus: decode awb block: %w", err)
		}
	}
	off += awbBlockSize

	if measType&MeasAe != 0 {
		if len(raw) < off+cellCount {
			return nil, fmt.Errorf("%w: ae block truncated", ErrShortBuffer)
		}
		out.AeExpMean = append([]uint8(nil), raw[off:off+cellCount]...)
		off += cellCount
	}

	if measType&MeasHistogram != 0 && len(raw) > off+4 {
		n := int(binary.LittleEndian.Uint32(raw[off : off+4]))
		off += 4
		if len(raw) < off+n*4 {
			return nil, fmt.Errorf("%w: histogram block truncated", ErrShortBuffer)
		}
		bins := make([]uint32, n)
		for i := 0; i < n; i++ {
			bins[i] = binary.LittleEndian.Uint32(raw[off+i*4 : off+i*4+4])
		}
		out.Histogram = bins
	}

	return out, nil
}

// EncodeStatsBuffer is used by test fixtures and the fake ISP to build
// synthetic statistics buffers without hand-rolling the byte layout.
func EncodeStatsBuffer(cells []AwbCellRecord, aeExpMean []uint8) ([]byte, error) {
	buf := &bytes.Buffer{}
	measType := MeasAwb
	if aeExpMean != nil {
		measType |= MeasAe
	}
	if err := binary.Write(buf, binary.LittleEndian, measType); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, cells); err != nil {
		return nil, err
	}
	if aeExpMean != nil {
		buf.Write(aeExpMean)
	}
	return buf.Bytes(), nil
}
