// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/maruel/bayeripa/ipa"
)

// TuningConfig is the on-disk tuning file: sensor identity, control ranges
// and the AGC/AWB/AF knobs an installer tunes per camera module without
// recompiling. watchTuningFile reloads it into the configStore whenever it
// changes on disk; mainImpl reads the store once at startup, so a reload
// does not reconfigure the running Orchestrator.
type TuningConfig struct {
	SensorModel string `json:"sensor_model"`

	LineDurationUs   int64   `json:"line_duration_us"`
	MinExposureLines uint32  `json:"min_exposure_lines"`
	MaxExposureLines uint32  `json:"max_exposure_lines"`
	MinGain          float64 `json:"min_gain"`
	MaxGain          float64 `json:"max_gain"`
	MaxShutterUs     int64   `json:"max_shutter_us"`
	MinShutterUs     int64   `json:"min_shutter_us"`
	MinVBlankLines   uint32  `json:"min_vblank_lines"`
	MaxVBlankLines   uint32  `json:"max_vblank_lines"`

	MeteringMode int `json:"metering_mode"`

	BdsOutputWidth  int `json:"bds_output_width"`
	BdsOutputHeight int `json:"bds_output_height"`
}

// defaultConfig is used when no tuning file is present on disk, tuned for
// the fake sensor/ISP the demo daemon runs against.
var defaultConfig = TuningConfig{
	SensorModel:      "imx219",
	LineDurationUs:   19, // ~52kHz line rate, typical for imx219 at 1080p
	MinExposureLines: 1,
	MaxExposureLines: 3000,
	MinGain:          1.0,
	MaxGain:          16.0,
	MaxShutterUs:     33000,
	MinShutterUs:     100,
	MinVBlankLines:   32,
	MaxVBlankLines:   32754,
	MeteringMode:     0,
	BdsOutputWidth:   1920,
	BdsOutputHeight:  1080,
}

// ToSessionConfig converts the on-disk tuning file into the ipa package's
// SessionConfig, leaving Grid for Configure to resolve.
func (c TuningConfig) ToSessionConfig() ipa.SessionConfig {
	return ipa.SessionConfig{
		SensorModel:      c.SensorModel,
		LineDuration:     time.Duration(c.LineDurationUs) * time.Microsecond,
		MinExposureLines: c.MinExposureLines,
		MaxExposureLines: c.MaxExposureLines,
		MinGain:          c.MinGain,
		MaxGain:          c.MaxGain,
		MaxShutter:       time.Duration(c.MaxShutterUs) * time.Microsecond,
		MinShutter:       time.Duration(c.MinShutterUs) * time.Microsecond,
		MeteringMode:     ipa.MeteringMode(c.MeteringMode),
	}
}

// configStore guards the active tuning config so the watcher goroutine and
// the request-serving goroutines can access it concurrently.
type configStore struct {
	mu  sync.Mutex
	cur TuningConfig
}

func newConfigStore(path string) *configStore {
	s := &configStore{cur: defaultConfig}
	if err := s.load(path); err != nil {
		// Missing or invalid tuning file is not fatal: the defaults above
		// keep the daemon usable against the fake sensor out of the box.
	}
	return s
}

func (s *configStore) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var cfg TuningConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = cfg
	s.mu.Unlock()
	return nil
}

func (s *configStore) get() TuningConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}
