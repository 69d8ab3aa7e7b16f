// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorbus

import "encoding/binary"

// Module is one hardware block the parameter buffer can (re)configure,
// per §4.G. Its position is also its bit index in the three module
// bitmasks (module_en_update, module_ens, module_cfg_update).
type Module uint

// Recognized hardware modules, in the order §4.G enumerates their
// payloads.
const (
	ModuleAwbMeasure Module = iota
	ModuleAwbGains
	ModuleAec
	ModuleHistogramWeights
	ModuleBls
	ModuleCcm
	ModuleCproc
	ModuleBnr
	ModuleLsc
	ModuleDpcc
	ModuleFlt
	ModuleDpf
	ModuleDpfStrength
	ModuleGamma
	ModuleIe
	ModuleBdm
	numModules
)

func bit(m Module) uint32 { return 1 << uint(m) }

// AwbGainsPayload is the quantized AWB gain payload. Gains are fixed-point
// 8-bit fractional (gain_code = round(256*gain)), clamped to [128,512]
// which corresponds to a floating-point gain of [0.5, 2.0] in the
// hardware's representable range; callers must clamp the floating-point
// gain to the algorithm's own [0.125,8.0] bound before quantizing, the
// hardware clamp only protects the wire format.
type AwbGainsPayload struct {
	RedGainCode   uint16
	GreenGainCode uint16
	BlueGainCode  uint16
}

// QuantizeGain converts a floating-point gain into the hardware's 8-bit
// fractional fixed-point code, clamped rather than wrapped on overflow.
func QuantizeGain(gain float64) uint16 {
	code := int(gain*256 + 0.5)
	if code < 128 {
		code = 128
	}
	if code > 512 {
		code = 512
	}
	return uint16(code)
}

// AecWindowPayload is the AEC measurement window, in pixels.
type AecWindowPayload struct {
	X, Y, W, H uint16
}

// CprocPayload is the color-processing block's user-facing knobs.
type CprocPayload struct {
	Contrast, Brightness, Saturation, Hue uint8
}

// CcmPayload is a 3x3 colour-correction matrix in Q4.8 fixed point.
// Identity unless AWB overrides it.
type CcmPayload [9]int16

// IdentityCcm is the identity colour-correction matrix in Q4.8.
var IdentityCcm = CcmPayload{256, 0, 0, 0, 256, 0, 0, 0, 256}

// ParamBuffer is the normalized form of the outbound parameter blob.
// Only modules with their bit set in EnUpdate/Ens/CfgUpdate get encoded.
type ParamBuffer struct {
	EnUpdate uint32
	Ens      uint32
	CfgUpdate uint32

	AwbGains       AwbGainsPayload
	AecWindow      AecWindowPayload
	HistogramWeights []uint8 // one weight per zone, default all 1s
	Bls            [4]uint16
	Ccm            CcmPayload
	Cproc          CprocPayload
	DpfStrength    uint8
	GammaLUT       [256]uint16
	IeEffect       uint8
	BdmThreshold   uint8
}

// Enable marks module m as enabled and its enable/config bits updated this
// frame, matching §4.G: "for each enabled hardware module set its
// enable-update bit, its enable bit, and its config-update bit".
func (p *ParamBuffer) Enable(m Module) {
	p.EnUpdate |= bit(m)
	p.Ens |= bit(m)
	p.CfgUpdate |= bit(m)
}

// Enabled reports whether module m was turned on by a previous Enable
// call.
func (p *ParamBuffer) Enabled(m Module) bool {
	return p.Ens&bit(m) != 0
}

// paramBufferSize is the fixed size of the encoded blob: three bitmask
// words plus every module payload's worst case size (histogram weights
// capped at 15 zones, per the CentreWeighted preset).
const maxHistogramWeights = 15
const paramBufferSize = 4 + 4 + 4 + /* bitmasks */
	6 + /* awb gains */
	8 + /* aec window */
	maxHistogramWeights +
	8 + /* bls */
	18 + /* ccm */
	4 + /* cproc */
	1 + /* dpf strength */
	512 + /* gamma lut, 256 * uint16 */
	1 + /* ie effect */
	1 /* bdm threshold */

// Encode writes p into out, which must be at least paramBufferSize bytes.
// out is zeroed first so that no padding byte is written without being
// zeroed, per the external interface contract (§6).
func (p *ParamBuffer) Encode(out []byte) error {
	if len(out) < paramBufferSize {
		return ErrShortBuffer
	}
	for i := range out {
		out[i] = 0
	}

	binary.LittleEndian.PutUint32(out[0:4], p.EnUpdate)
	binary.LittleEndian.PutUint32(out[4:8], p.Ens)
	binary.LittleEndian.PutUint32(out[8:12], p.CfgUpdate)
	off := 12

	binary.LittleEndian.PutUint16(out[off:off+2], p.AwbGains.RedGainCode)
	binary.LittleEndian.PutUint16(out[off+2:off+4], p.AwbGains.GreenGainCode)
	binary.LittleEndian.PutUint16(out[off+4:off+6], p.AwbGains.BlueGainCode)
	off += 6

	binary.LittleEndian.PutUint16(out[off:off+2], p.AecWindow.X)
	binary.LittleEndian.PutUint16(out[off+2:off+4], p.AecWindow.Y)
	binary.LittleEndian.PutUint16(out[off+4:off+6], p.AecWindow.W)
	binary.LittleEndian.PutUint16(out[off+6:off+8], p.AecWindow.H)
	off += 8

	for i := 0; i < maxHistogramWeights; i++ {
		w := uint8(1)
		if i < len(p.HistogramWeights) {
			w = p.HistogramWeights[i]
		}
		out[off+i] = w
	}
	off += maxHistogramWeights

	for i, v := range p.Bls {
		binary.LittleEndian.PutUint16(out[off+2*i:off+2*i+2], v)
	}
	off += 8

	for i, v := range p.Ccm {
		binary.LittleEndian.PutUint16(out[off+2*i:off+2*i+2], uint16(v))
	}
	off += 18

	out[off] = p.Cproc.Contrast
	out[off+1] = p.Cproc.Brightness
	out[off+2] = p.Cproc.Saturation
	out[off+3] = p.Cproc.Hue
	off += 4

	out[off] = p.DpfStrength
	off++

	for i, v := range p.GammaLUT {
		binary.LittleEndian.PutUint16(out[off+2*i:off+2*i+2], v)
	}
	off += 512

	out[off] = p.IeEffect
	off++
	out[off] = p.BdmThreshold

	return nil
}

// RequiredSize returns the minimum buffer size Encode needs.
func RequiredSize() int { return paramBufferSize }
