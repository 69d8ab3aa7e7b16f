// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import "github.com/maruel/bayeripa/sensorbus"

// ControlDevice is the narrow contract Delayed Controls needs against the
// sensor: read back the controls currently in effect, and write a new set.
// sensorbus.I2CControlDevice talks to the sensor over its register bus;
// fakeisp provides an in-memory one for tests and the demo daemon.
//
// Defined in sensorbus and aliased here for the same reason as ControlID
// in types.go: a ControlDevice implementation that lives in sensorbus must not
// import ipa, since ipa already imports sensorbus.
type ControlDevice = sensorbus.ControlDevice

// GainHelper converts between a floating-point analogue gain and the
// sensor-specific integer gain code the hardware register expects. Each
// sensor model has its own mapping (linear, log2, or a lookup table); the
// Frame Orchestrator loads one at Init time keyed by SessionConfig.SensorModel.
type GainHelper interface {
	GainCode(gain float64) int32
	Gain(code int32) float64
}

// LinearGainHelper implements GainHelper for sensors whose gain register is
// a simple linear multiple of a base step, which covers the common case
// (e.g. "gain code = round(gain / step)").
type LinearGainHelper struct {
	Step float64
}

// GainCode implements GainHelper.
func (l LinearGainHelper) GainCode(gain float64) int32 {
	if l.Step <= 0 {
		return int32(gain)
	}
	return int32(gain/l.Step + 0.5)
}

// Gain implements GainHelper.
func (l LinearGainHelper) Gain(code int32) float64 {
	return float64(code) * l.Step
}

// sensorHelpers is the fixed set of known sensor gain helpers, built at
// Init time rather than through a self-registering global map (design
// note in spec section 9): initialization order hazards from
// constructor-time self-registration are avoided by keeping this as a
// plain, explicit lookup built once.
var sensorHelpers = map[string]GainHelper{
	"imx219": LinearGainHelper{Step: 1.0 / 16},
	"imx477": LinearGainHelper{Step: 1.0 / 16},
	"ov5647": LinearGainHelper{Step: 1.0 / 8},
}

// GainHelperFor returns the GainHelper for a known sensor model, or a
// generic linear helper with step 1/16 if the model is unrecognized (the
// sensor is still usable, just with a coarser round-trip tolerance).
func GainHelperFor(sensorModel string) GainHelper {
	if h, ok := sensorHelpers[sensorModel]; ok {
		return h
	}
	return LinearGainHelper{Step: 1.0 / 16}
}
