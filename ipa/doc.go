// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ipa implements the per-frame Image Processing Algorithms control
// loop for a raw-Bayer ISP: statistics extraction, auto-exposure/gain
// control (AGC), auto-white-balance (AWB), contrast/gamma, contrast-detection
// autofocus (AF), the hardware parameter assembler, and the delayed-controls
// state machine that aligns a sensor control with the frame it takes effect
// on.
//
// The package treats the ISP's statistics and parameter buffers as opaque,
// fixed-layout byte blobs (see package sensorbus for the codec) and the
// pipeline handler, V4L2 sub-device enumeration and buffer allocation as
// external collaborators outside its scope.
package ipa
