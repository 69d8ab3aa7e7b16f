// Copyright 2016 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/maruel/interrupt"
	fsnotify "gopkg.in/fsnotify.v1"
)

// watchTuningFile reloads store from path every time it changes on disk,
// until interrupted. A missing tuning file is watched on its parent
// directory so creating it later is still picked up.
func watchTuningFile(path string, store *configStore) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	target := path
	if _, err := os.Stat(path); os.IsNotExist(err) {
		target = filepath.Dir(path)
	}
	if err := watcher.Add(target); err != nil {
		return fmt.Errorf("watch tuning file: %w", err)
	}
	for {
		select {
		case <-interrupt.Channel:
			return nil
		case err := <-watcher.Errors:
			return err
		case ev := <-watcher.Events:
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if err := store.load(path); err != nil {
					log.Printf("ipad: reload tuning file: %s", err)
				} else {
					log.Printf("ipad: reloaded tuning file %s", path)
				}
			}
		}
	}
}
