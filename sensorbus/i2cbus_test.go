// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorbus

import (
	"testing"

	"periph.io/x/periph/conn/i2c/i2ctest"
)

func TestI2CControlDevice_GetControls(t *testing.T) {
	regs := map[ControlID]ControlRegister{
		ControlExposure:     0x0001,
		ControlAnalogueGain: 0x0002,
	}
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x36, W: []byte{0x0, 0x1}, R: []byte{0x3, 0xE8}},
			{Addr: 0x36, W: []byte{0x0, 0x2}, R: []byte{0x0, 0x10}},
		},
	}
	d := NewI2CControlDevice(&bus, 0x36, regs)
	got, err := d.GetControls([]ControlID{ControlExposure, ControlAnalogueGain})
	if err != nil {
		t.Fatal(err)
	}
	if got[ControlExposure] != 1000 {
		t.Errorf("exposure = %d, want 1000", got[ControlExposure])
	}
	if got[ControlAnalogueGain] != 16 {
		t.Errorf("gain = %d, want 16", got[ControlAnalogueGain])
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestI2CControlDevice_SetControls(t *testing.T) {
	regs := map[ControlID]ControlRegister{
		ControlVBlank: 0x0003,
	}
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x36, W: []byte{0x0, 0x3, 0x0, 0x20}},
		},
	}
	d := NewI2CControlDevice(&bus, 0x36, regs)
	if err := d.SetControls(map[ControlID]int32{ControlVBlank: 32}); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestI2CControlDevice_UnmappedControl(t *testing.T) {
	d := NewI2CControlDevice(&i2ctest.Playback{}, 0x36, nil)
	if _, err := d.GetControls([]ControlID{ControlExposure}); err == nil {
		t.Fatal("expected error for unmapped control")
	}
}
