// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import (
	"time"

	"github.com/maruel/bayeripa/sensorbus"
)

// Zone is one analysis-grid cell's accumulated Bayer statistics.
//
// Counted is always >= 0. A zone with Counted == 0 contributes to no
// average and must be skipped by any consumer that divides by it.
type Zone struct {
	RSum      float64
	GSum      float64
	BSum      float64
	Counted   int
	Uncounted int
}

// valid reports whether z carries enough signal to be used by AWB: at
// least MinZonesCounted counted cells and a green level of at least
// MinGreenLevel.
func (z Zone) valid() bool {
	if z.Counted < MinZonesCounted {
		return false
	}
	return z.GSum/float64(z.Counted) >= MinGreenLevel
}

// Grid thresholds, from spec section 4.B.
const (
	MinZonesCounted = 16
	MinGreenLevel   = 16.0
)

// GridDescriptor maps an ISP output size to a valid statistics grid.
//
// Invariants: BlockWidthLog2 and BlockHeightLog2 are in [3,7];
// Width*2^BlockWidthLog2 <= image width (and likewise for height);
// XStart+Width*2^BlockWidthLog2 <= image width.
type GridDescriptor struct {
	Width          int
	Height         int
	BlockWidthLog2 int
	BlockHeightLog2 int
	XStart         int
	YStart         int
}

// CellWidth returns the width in pixels of one grid cell.
func (g GridDescriptor) CellWidth() int { return 1 << uint(g.BlockWidthLog2) }

// CellHeight returns the height in pixels of one grid cell.
func (g GridDescriptor) CellHeight() int { return 1 << uint(g.BlockHeightLog2) }

// CoveredArea returns the pixel area the grid actually covers.
func (g GridDescriptor) CoveredArea() int {
	return g.Width * g.CellWidth() * g.Height * g.CellHeight()
}

// AwbResult is the outcome of the grey-world auto-white-balance algorithm.
//
// Invariants: RedGain and BlueGain are in [0.125, 8.0] after clamping;
// GreenGain is always 1.0 on the grey-world path.
type AwbResult struct {
	TemperatureK float64
	RedGain      float64
	GreenGain    float64
	BlueGain     float64
}

// Gain clamp bounds, per spec section 3.
const (
	MinAwbGain = 0.125
	MaxAwbGain = 8.0
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AgcState is the Frame Orchestrator's running auto-exposure/gain state.
//
// Invariants: MinExposureLines <= ExposureLines <= MaxExposureLines and
// MinGain <= AnalogueGain <= MaxGain, where the bounds come from the
// ControlRanges seeded at Configure time.
type AgcState struct {
	ExposureLines    uint32
	AnalogueGain     float64
	FilteredExposure time.Duration
	PrevExposure     time.Duration
	FrameCount       uint64
	// Converged is true once |FilteredExposure/target - 1| < 0.01 has
	// held for at least one frame. Surfaced as the AeLocked metadata key.
	Converged bool
}

// AfPhase is the contrast-detection autofocus state machine's current
// phase.
type AfPhase int

// Valid values for AfPhase.
const (
	AfIdle AfPhase = iota
	AfCoarseScan
	AfFineScan
	AfLocked
	AfReset
)

func (p AfPhase) String() string {
	switch p {
	case AfIdle:
		return "Idle"
	case AfCoarseScan:
		return "CoarseScan"
	case AfFineScan:
		return "FineScan"
	case AfLocked:
		return "Locked"
	case AfReset:
		return "Reset"
	default:
		return "Unknown"
	}
}

// AfMode is the user-selectable focus control mode.
type AfMode int

// Valid values for AfMode.
const (
	AfModeManual AfMode = iota
	AfModeAuto
	AfModeContinuous
)

// AfState is the autofocus algorithm's internal state.
type AfState struct {
	Mode          AfMode
	Phase         AfPhase
	Focus         uint32
	BestFocus     uint32
	MaxContrast   float64
	PrevContrast  float64
	LowStep       uint32
	HighStep      uint32
	MaxStep       uint32
	Window        Rectangle
	Speed         float64
	triggered     bool
}

// Rectangle is a pixel region, used for AF and AEC/AWB measurement windows.
type Rectangle struct {
	X, Y, W, H int
}

// AfStatus is the subset of AfState reported to result metadata (§6).
type AfStatus struct {
	Mode          AfMode
	LensPosition  uint32
	Phase         AfPhase
}

// BufferID identifies a hardware buffer borrowed from the pipeline handler
// for the duration of one frame.
type BufferID uint64

// RequestRef is an opaque reference to the originating capture request,
// owned by the pipeline handler.
type RequestRef uint64

// FrameInfo tracks one in-flight frame's buffer lifecycle. It is created
// when a request is admitted and destroyed once ParamFilled, ParamDequeued
// and MetadataDone are all true.
type FrameInfo struct {
	ID            uint64
	RawBufID      BufferID
	ParamBufID    BufferID
	StatBufID     BufferID
	ParamFilled   bool
	ParamDequeued bool
	MetadataDone  bool
	RequestRef    RequestRef
	Cancelled     bool
}

// Done reports whether the frame has completed its full lifecycle.
func (f *FrameInfo) Done() bool {
	return f.ParamFilled && f.ParamDequeued && f.MetadataDone
}

// SessionConfig is the configuration negotiated once at Configure time and
// held constant until the next Configure call: control ranges, timing, and
// tuning defaults.
type SessionConfig struct {
	SensorModel string

	LineDuration time.Duration

	MinExposureLines uint32
	MaxExposureLines uint32
	MinGain          float64
	MaxGain          float64
	MaxShutter       time.Duration
	MinShutter       time.Duration

	// MinVBlank/MaxVBlank are the hardware-reported VBLANK range (in
	// lines), seeded from ControlRanges at Configure time alongside the
	// exposure/gain bounds above.
	MinVBlank uint32
	MaxVBlank uint32

	Grid GridDescriptor

	DefaultGamma float64
	MeteringMode MeteringMode
}

// MeteringMode selects the AGC per-zone weight preset (§6).
type MeteringMode int

// Valid values for MeteringMode.
const (
	MeteringCentreWeighted MeteringMode = iota
	MeteringSpot
	MeteringMatrix
)

// FrameContext carries the per-frame inputs that do not live in the
// long-lived algorithm state: the frame identity, its sensor sequence
// number, and any manual application control overrides for this request.
type FrameContext struct {
	FrameID        uint64
	SensorSequence uint32
	Timestamp      time.Time
	Controls       AppControls
}

// AppControls are the recognized inbound, per-request application
// controls (§6). A nil pointer field means "not set for this request".
type AppControls struct {
	AeEnable         *bool
	AeConstraintMode *AeConstraintMode
	AeExposureMode   *AeExposureMode
	AeMeteringMode   *MeteringMode
	AeExposureValue  *float64
	AnalogueGain     *float64 // >= 1.0; 0 means "return to auto"
	ExposureTime     *time.Duration // 0 means auto
	AwbEnable        *bool
	AwbMode          *AwbMode
	ColourGains      *[2]float64 // overrides AWB when set
	Brightness       *float64    // [-1,1]
	Contrast         *float64    // [0,32]
	Saturation       *float64    // [0,32]
	Sharpness        *float64    // [0,16]
	NoiseReduction   *NoiseReductionMode
}

// AeConstraintMode is the AE constraint control (§6).
type AeConstraintMode int

// Valid values for AeConstraintMode.
const (
	AeConstraintNormal AeConstraintMode = iota
	AeConstraintHighlight
	AeConstraintShadows
	AeConstraintCustom
)

// AeExposureMode is the AE exposure-profile control (§6).
type AeExposureMode int

// Valid values for AeExposureMode.
const (
	AeExposureNormal AeExposureMode = iota
	AeExposureShort
	AeExposureLong
	AeExposureCustom
)

// AwbMode is the AWB preset control (§6).
type AwbMode int

// Valid values for AwbMode.
const (
	AwbModeAuto AwbMode = iota
	AwbModeIncandescent
	AwbModeTungsten
	AwbModeFluorescent
	AwbModeIndoor
	AwbModeDaylight
	AwbModeCloudy
	AwbModeCustom
)

// NoiseReductionMode is the NR control (§6).
type NoiseReductionMode int

// Valid values for NoiseReductionMode.
const (
	NoiseReductionOff NoiseReductionMode = iota
	NoiseReductionFast
	NoiseReductionHighQuality
	NoiseReductionMinimal
	NoiseReductionZSL
)

// IpaContext is the strongly typed inter-algorithm exchange struct that
// replaces the source's string-keyed, type-erased metadata map (design
// note in spec section 9): the set of exchanged values is closed and known
// at compile time, so there is nothing dynamic typing buys here.
type IpaContext struct {
	Session SessionConfig
	Frame   FrameContext
	Awb     AwbResult
	Agc     AgcState
	Gamma   float64
	Af      AfStatus
}

// ResultMetadata is the recognized, per-frame outbound metadata (§6).
type ResultMetadata struct {
	FrameDuration      time.Duration
	AeLocked           bool
	AfState            AfMode
	ColourGains        [2]float64
	ColourTemperature  uint32
	PipelineDepth      int
}

// ControlID identifies a recognized outbound sensor control (§6). The IPA
// never writes an id outside this set.
//
// The type itself is defined in sensorbus, which a real ControlDevice
// (sensorbus.I2CControlDevice) must implement without importing ipa back;
// these are aliases so the rest of this package can keep writing the bare
// ControlID / ControlExposure names it always has.
type ControlID = sensorbus.ControlID

// Recognized sensor control ids.
const (
	ControlExposure     = sensorbus.ControlExposure
	ControlAnalogueGain = sensorbus.ControlAnalogueGain
	ControlVBlank       = sensorbus.ControlVBlank
)

// ControlRanges are the hardware-reported valid ranges for the recognized
// sensor controls, as surfaced by the pipeline handler at Configure time.
type ControlRanges struct {
	MinExposureLines uint32
	MaxExposureLines uint32
	MinGainCode      int32
	MaxGainCode      int32
	MinVBlank        uint32
	MaxVBlank        uint32
	// Present tracks which of the three required ranges were actually
	// reported, so Configure can tell MissingControl apart cleanly.
	HaveExposure     bool
	HaveAnalogueGain bool
	HaveVBlank       bool
}

// StreamSizes is the set of output sizes configured for this session; only
// the Bayer down-scaler (BDS) output size drives grid resolution, but the
// others are threaded through so a real pipeline handler can be slotted in
// without changing this package's surface.
type StreamSizes struct {
	BdsOutputWidth  int
	BdsOutputHeight int
	SensorWidth     int
	SensorHeight    int
}
