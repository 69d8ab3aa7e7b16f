// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorbus

import "testing"

func TestQuantizeGain_clampsToHardwareRange(t *testing.T) {
	if got := QuantizeGain(1.0); got != 256 {
		t.Errorf("QuantizeGain(1.0) = %d, want 256", got)
	}
	if got := QuantizeGain(0.1); got != 128 {
		t.Errorf("QuantizeGain(0.1) = %d, want clamped to 128", got)
	}
	if got := QuantizeGain(10.0); got != 512 {
		t.Errorf("QuantizeGain(10.0) = %d, want clamped to 512", got)
	}
}

func TestParamBuffer_EnableAndEnabled(t *testing.T) {
	p := &ParamBuffer{}
	if p.Enabled(ModuleGamma) {
		t.Fatal("ModuleGamma reported enabled before any Enable call")
	}
	p.Enable(ModuleGamma)
	if !p.Enabled(ModuleGamma) {
		t.Error("ModuleGamma not enabled after Enable(ModuleGamma)")
	}
	if p.Enabled(ModuleCcm) {
		t.Error("ModuleCcm reported enabled after enabling only ModuleGamma")
	}
}

func TestParamBuffer_Encode_requiresMinimumSize(t *testing.T) {
	p := &ParamBuffer{}
	if err := p.Encode(make([]byte, 4)); err == nil {
		t.Fatal("Encode() into an undersized buffer = nil error, want ErrShortBuffer")
	}
}

func TestParamBuffer_Encode_writesBitmasks(t *testing.T) {
	p := &ParamBuffer{}
	p.Enable(ModuleAwbGains)
	p.AwbGains = AwbGainsPayload{RedGainCode: 300, GreenGainCode: 256, BlueGainCode: 200}
	out := make([]byte, RequiredSize())
	if err := p.Encode(out); err != nil {
		t.Fatal(err)
	}
	if out[0] == 0 && out[1] == 0 && out[2] == 0 && out[3] == 0 {
		t.Error("EnUpdate bitmask encoded as all zero after Enable()")
	}
}
