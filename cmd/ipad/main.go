// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ipad is a demo daemon for the Bayer-ISP IPA control loop: it drives the
// package ipa Orchestrator against an in-memory fakeisp ISP and sensor,
// since no real V4L2/media-graph pipeline handler is in scope (§1), and
// serves a small HTTP status page with a live per-frame metadata stream.
//
// Structured like cmd/lepton: flag-parsed CLI, Ctrl-C handling via
// maruel/interrupt, an fsnotify-driven tuning-file watch, and a websocket
// debug viewer.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/maruel/bayeripa/fakeisp"
	"github.com/maruel/bayeripa/ipa"
	"github.com/maruel/bayeripa/sensorbus"
	"github.com/maruel/interrupt"
)

func mainImpl() error {
	cpuprofile := flag.String("cpuprofile", "", "dump CPU profile in file")
	port := flag.Int("port", 8020, "http port to listen on")
	tuningPath := flag.String("tuning", "", "path to a tuning JSON file; hot-reloaded on change")
	seed := flag.Int64("seed", 1, "fake scene RNG seed")
	flag.Parse()
	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	interrupt.HandleCtrlC()

	store := newConfigStore(*tuningPath)
	if *tuningPath != "" {
		go func() {
			if err := watchTuningFile(*tuningPath, store); err != nil {
				fmt.Fprintf(os.Stderr, "ipad: watch tuning file: %s\n", err)
			}
		}()
	}

	cfg := store.get()
	sensor := fakeisp.NewSensor()
	isp := fakeisp.NewISP(cfg.BdsOutputWidth/8, cfg.BdsOutputHeight/8, *seed)

	orch := ipa.NewOrchestrator(sensor)
	session := cfg.ToSessionConfig()
	if err := orch.Init(session.SensorModel); err != nil {
		return err
	}
	gainHelper := ipa.GainHelperFor(session.SensorModel)
	ranges := ipa.ControlRanges{
		MinExposureLines: session.MinExposureLines,
		MaxExposureLines: session.MaxExposureLines,
		MinGainCode:      gainHelper.GainCode(session.MinGain),
		MaxGainCode:      gainHelper.GainCode(session.MaxGain),
		MinVBlank:        cfg.MinVBlankLines,
		MaxVBlank:        cfg.MaxVBlankLines,
		HaveExposure:     true,
		HaveAnalogueGain: true,
		HaveVBlank:       true,
	}
	sizes := ipa.StreamSizes{
		BdsOutputWidth:  cfg.BdsOutputWidth,
		BdsOutputHeight: cfg.BdsOutputHeight,
		SensorWidth:     cfg.BdsOutputWidth,
		SensorHeight:    cfg.BdsOutputHeight,
	}
	if err := orch.Configure(session, ranges, sizes); err != nil {
		return err
	}

	web := StartWebServer(*port)

	paramBuf := make([]byte, sensorbus.RequiredSize())
	var frameID uint64
	var sequence uint32
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	for !interrupt.IsSet() {
		<-ticker.C
		frameID++

		params := orch.OnFillParams(frameID)
		if err := params.Encode(paramBuf); err != nil {
			fmt.Fprintf(os.Stderr, "ipad: encode params: %s\n", err)
		}

		stats, err := isp.GenerateStats()
		if err != nil {
			fmt.Fprintf(os.Stderr, "ipad: generate stats: %s\n", err)
			continue
		}
		metadata, err := orch.OnStatsReady(frameID, stats, sequence, time.Now(), ipa.AppControls{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "ipad: frame %d: %s\n", frameID, err)
		}
		orch.FrameStart(sequence)
		orch.CompleteFrame(frameID)
		sequence++

		web.AddReport(&frameReport{
			FrameID:  frameID,
			Metadata: metadata,
			Agc:      orch.AgcState(),
			Awb:      orch.AwbState(),
			Af:       orch.AfStatus(),
		})
	}
	fmt.Print("\nipad: stopped\n")
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nipad: %s.\n", err)
		os.Exit(1)
	}
}
