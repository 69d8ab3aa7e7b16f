// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ipa

import (
	"log"
	"sync"
)

// ringSize is the depth of each control's history ring.
const ringSize = 16

// controlInfo is one entry of a control's ring: the value in effect from
// that queue index onward, and whether it was freshly pushed (vs. copied
// forward from the previous frame).
type controlInfo struct {
	value   int32
	updated bool
}

// DelayedControls compensates for the sensor's pipeline latency: it
// guarantees that the value observed as "in effect at frame F" is the one
// programmed max_delay frames earlier, where max_delay is the largest
// per-control delay registered.
//
// Grounded on
// _examples/original_source/src/libcamera/delayed_controls.cpp
// (DelayedControls::push/get/frameStart), generalized from a single V4L2
// device to the ControlDevice interface.
type DelayedControls struct {
	mu sync.Mutex

	device ControlDevice
	delays map[ControlID]uint32
	maxDelay uint32

	ring          map[ControlID]*[ringSize]controlInfo
	queueCount    uint32
	writeCount    uint32
	firstSequence uint32
	running       bool
}

// NewDelayedControls builds a DelayedControls for the given device and
// per-control delays (in frames). A delay for a control id the device
// doesn't expose is skipped and logged, matching the original's
// constructor behavior; this is recoverable, not fatal.
func NewDelayedControls(device ControlDevice, delays map[ControlID]uint32) *DelayedControls {
	d := &DelayedControls{
		device: device,
		delays: make(map[ControlID]uint32, len(delays)),
		ring:   make(map[ControlID]*[ringSize]controlInfo, len(delays)),
	}
	for id, delay := range delays {
		if _, err := device.GetControls([]ControlID{id}); err != nil {
			log.Printf("delayed_controls: skipping delay for %s: %s", id, err)
			continue
		}
		d.delays[id] = delay
		d.ring[id] = &[ringSize]controlInfo{}
		if delay > d.maxDelay {
			d.maxDelay = delay
		}
	}
	d.Reset(nil)
	return d
}

// MaxDelay returns the largest registered per-control delay.
func (d *DelayedControls) MaxDelay() uint32 { return d.maxDelay }

// Reset resets the state machine to a starting position based on control
// values read back from the device. If initial is non-nil it is written
// to the device first, matching the original's optional apply-then-seed
// behavior (supplemented from original_source, spec.md's own description
// only mentions the read-back half).
func (d *DelayedControls) Reset(initial map[ControlID]int32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.running = false
	d.firstSequence = 0
	d.queueCount = 0
	d.writeCount = 0

	if initial != nil {
		if err := d.device.SetControls(initial); err != nil {
			log.Printf("delayed_controls: reset: set initial controls: %s", err)
		}
	}

	ids := make([]ControlID, 0, len(d.delays))
	for id := range d.delays {
		ids = append(ids, id)
	}
	values, err := d.device.GetControls(ids)
	if err != nil {
		log.Printf("delayed_controls: reset: get controls: %s", err)
		values = map[ControlID]int32{}
	}

	for id, ring := range d.ring {
		*ring = [ringSize]controlInfo{}
		ring[0] = controlInfo{value: values[id], updated: true}
	}
	d.queueCount = 1
}

// Push queues a set of controls, overlaying them onto the previous frame's
// values. It returns false if any control id is unknown to this
// DelayedControls (i.e. it has no registered delay).
func (d *DelayedControls) Push(controls map[ControlID]int32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.push(controls)
}

func (d *DelayedControls) push(controls map[ControlID]int32) bool {
	for id := range controls {
		if _, ok := d.delays[id]; !ok {
			return false
		}
	}

	for _, ring := range d.ring {
		prev := ring[(d.queueCount-1)%ringSize]
		ring[d.queueCount%ringSize] = controlInfo{value: prev.value, updated: false}
	}
	for id, value := range controls {
		ring := d.ring[id]
		ring[d.queueCount%ringSize] = controlInfo{value: value, updated: true}
		log.Printf("delayed_controls: queuing %s to %d at index %d", id, value, d.queueCount)
	}
	d.queueCount++
	return true
}

// Get returns the control values that were in effect at sensor sequence
// number sequence.
func (d *DelayedControls) Get(sequence uint32) map[ControlID]int32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	adjustedSeq := sequence - d.firstSequence + 1
	index := int(adjustedSeq) - int(d.maxDelay)
	if index < 0 {
		index = 0
	}

	out := make(map[ControlID]int32, len(d.ring))
	for id, ring := range d.ring {
		out[id] = ring[uint32(index)%ringSize].value
	}
	return out
}

// FrameStart informs the state machine that a new frame has started at
// sensor sequence number sequence, writing to the device any control whose
// peeked-ahead value was freshly updated. frame_start events must be
// delivered in monotonically non-decreasing sequence order (§5); this is
// the caller's responsibility; FrameStart does not itself validate it.
func (d *DelayedControls) FrameStart(sequence uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		d.firstSequence = sequence
		d.running = true
	}

	out := make(map[ControlID]int32)
	for id, delay := range d.delays {
		delayDiff := d.maxDelay - delay
		index := int(d.writeCount) - int(delayDiff)
		if index < 0 {
			index = 0
		}
		info := d.ring[id][uint32(index)%ringSize]
		if info.updated {
			out[id] = info.value
			log.Printf("delayed_controls: setting %s to %d at index %d", id, info.value, index)
		}
	}

	d.writeCount++
	for d.writeCount >= d.queueCount {
		d.push(nil)
	}

	if len(out) > 0 {
		if err := d.device.SetControls(out); err != nil {
			log.Printf("delayed_controls: frame_start: set controls: %s", err)
		}
	}
}
