// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import "errors"

// Error taxonomy, per the control loop's error handling design.
//
// UnsupportedHardware and MissingControl are fatal; MissingControl
// surfaces to the caller of Configure. The rest are recoverable: the frame
// completes with stale algorithm outputs and the error is only logged.
var (
	// ErrUnsupportedHardware marks an ISP hardware revision this build
	// does not know how to decode. Init takes no hardware revision, does
	// not check one, and never returns this error.
	ErrUnsupportedHardware = errors.New("ipa: unsupported hardware revision")

	// ErrMissingControl is returned by Configure when the sensor does not
	// report a control range this package requires (EXPOSURE,
	// ANALOGUE_GAIN or VBLANK).
	ErrMissingControl = errors.New("ipa: required sensor control range missing")

	// ErrInvalidStats marks a statistics buffer that is smaller than
	// expected or whose meas_type bitmask lacks a bit this frame's
	// pipeline needs. Recoverable.
	ErrInvalidStats = errors.New("ipa: invalid statistics buffer")

	// ErrBufferMappingFailed marks a failure to map a shared buffer.
	// Fatal for the frame that needed it.
	ErrBufferMappingFailed = errors.New("ipa: buffer mapping failed")

	// ErrUnknownEvent marks a pipeline event with an unrecognized opcode.
	// Logged and dropped.
	ErrUnknownEvent = errors.New("ipa: unknown pipeline event")

	// ErrAlgorithmDegenerate marks an algorithm falling back to its
	// previous result because its input was degenerate (AWB below 10
	// valid zones, AGC on an empty histogram, AF with zero contrast).
	ErrAlgorithmDegenerate = errors.New("ipa: algorithm input degenerate, reusing previous result")
)
