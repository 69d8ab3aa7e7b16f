// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import "testing"

// recordingDevice is a minimal in-memory ControlDevice that records every
// SetControls call in order, for asserting on DelayedControls' write
// timing.
type recordingDevice struct {
	controls map[ControlID]int32
	writes   []map[ControlID]int32
}

func newRecordingDevice(initial map[ControlID]int32) *recordingDevice {
	return &recordingDevice{controls: initial}
}

func (r *recordingDevice) GetControls(ids []ControlID) (map[ControlID]int32, error) {
	out := make(map[ControlID]int32, len(ids))
	for _, id := range ids {
		out[id] = r.controls[id]
	}
	return out, nil
}

func (r *recordingDevice) SetControls(values map[ControlID]int32) error {
	cp := make(map[ControlID]int32, len(values))
	for id, v := range values {
		r.controls[id] = v
		cp[id] = v
	}
	r.writes = append(r.writes, cp)
	return nil
}

func TestDelayedControls_MaxDelay(t *testing.T) {
	dev := newRecordingDevice(map[ControlID]int32{ControlExposure: 10})
	d := NewDelayedControls(dev, map[ControlID]uint32{ControlExposure: 2, ControlVBlank: 1})
	if got := d.MaxDelay(); got != 2 {
		t.Errorf("MaxDelay() = %d, want 2", got)
	}
}

func TestDelayedControls_writeDelayedByMaxDelay(t *testing.T) {
	dev := newRecordingDevice(map[ControlID]int32{ControlExposure: 10})
	d := NewDelayedControls(dev, map[ControlID]uint32{ControlExposure: 2})

	d.Push(map[ControlID]int32{ControlExposure: 500})

	for seq := uint32(0); seq < 5; seq++ {
		d.FrameStart(seq)
	}

	found := false
	for _, w := range dev.writes {
		if w[ControlExposure] == 500 {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("pushed value 500 was never written to the device across 5 frame starts; writes=%v", dev.writes)
	}
}

func TestDelayedControls_unknownControlRejected(t *testing.T) {
	dev := newRecordingDevice(map[ControlID]int32{ControlExposure: 10})
	d := NewDelayedControls(dev, map[ControlID]uint32{ControlExposure: 2})
	if ok := d.Push(map[ControlID]int32{ControlVBlank: 1}); ok {
		t.Errorf("Push() with an unregistered control id = true, want false")
	}
}

func TestDelayedControls_getReturnsRegisteredControls(t *testing.T) {
	dev := newRecordingDevice(map[ControlID]int32{ControlExposure: 10, ControlAnalogueGain: 16})
	d := NewDelayedControls(dev, map[ControlID]uint32{ControlExposure: 2, ControlAnalogueGain: 2})
	d.FrameStart(0)
	got := d.Get(0)
	if _, ok := got[ControlExposure]; !ok {
		t.Errorf("Get(0) missing ControlExposure: %v", got)
	}
	if _, ok := got[ControlAnalogueGain]; !ok {
		t.Errorf("Get(0) missing ControlAnalogueGain: %v", got)
	}
}
