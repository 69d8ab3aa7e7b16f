// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/maruel/bayeripa/ipa"
	"github.com/maruel/interrupt"
	"golang.org/x/net/websocket"
)

// frameReport is one frame's worth of algorithm state, pushed to the
// debug viewer over the /stream websocket and displayed on the status
// page. Mirrors cmd/lepton/server.go's image+metadata push, generalized
// from a thermal still to the IPA's per-frame metadata.
type frameReport struct {
	FrameID  uint64
	Metadata ipa.ResultMetadata
	Agc      ipa.AgcState
	Awb      ipa.AwbResult
	Af       ipa.AfStatus
}

// WebServer is the demo daemon's status and debug-stream HTTP server,
// structured like cmd/lepton/server.go's WebServer: a bounded ring of
// recent reports, a sync.Cond to wake up blocked websocket readers, and
// a logging middleware wrapping the mux.
type WebServer struct {
	cond      sync.Cond
	reports   [64]*frameReport // a few seconds of history at typical frame rates
	lastIndex int
}

// StartWebServer starts listening on port and returns the WebServer so
// the caller can push frame reports to it as frames complete.
func StartWebServer(port int) *WebServer {
	w := &WebServer{
		cond:      *sync.NewCond(&sync.Mutex{}),
		lastIndex: -1,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", w.root)
	mux.Handle("/stream", websocket.Handler(w.stream))
	fmt.Printf("ipad: listening on %d\n", port)
	go http.ListenAndServe(fmt.Sprintf(":%d", port), loggingHandler{mux})
	go func() {
		<-interrupt.Channel
		w.cond.Broadcast()
	}()
	return w
}

// AddReport records frame's algorithm state and wakes any blocked
// websocket stream readers.
func (s *WebServer) AddReport(r *frameReport) {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.lastIndex = (s.lastIndex + 1) % len(s.reports)
	s.reports[s.lastIndex] = r
	s.cond.Broadcast()
}

var rootTmpl = template.Must(template.New("root").Parse(`
	<html>
	<head><title>ipad</title></head>
	<body>
	<p>Bayer-ISP IPA control loop status.</p>
	<p>Connect to <code>/stream</code> for a live JSON feed of per-frame
	AGC/AWB/AF state.</p>
	<pre id="last"></pre>
	<script>
	var ws = new WebSocket("ws://" + location.host + "/stream");
	ws.onmessage = function(ev) {
		document.getElementById("last").textContent = ev.data;
	};
	</script>
	</body>
	</html>`))

func (s *WebServer) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	if err := rootTmpl.Execute(w, nil); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// stream sends each new frameReport as one JSON websocket frame.
func (s *WebServer) stream(ws *websocket.Conn) {
	log.Printf("ipad: websocket client connected from %s", ws.RemoteAddr())
	defer ws.Close()
	lastIndex := 0
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	for !interrupt.IsSet() {
		s.cond.Wait()
		for ; !interrupt.IsSet() && lastIndex != s.lastIndex; lastIndex = (lastIndex + 1) % len(s.reports) {
			report := s.reports[(lastIndex+1)%len(s.reports)]
			s.cond.L.Unlock()
			err := json.NewEncoder(ws).Encode(report)
			s.cond.L.Lock()
			if err != nil {
				log.Printf("ipad: websocket err: %s", err)
				break
			}
		}
	}
}

// Private details.

type loggingHandler struct {
	handler http.Handler
}

type loggingResponseWriter struct {
	http.ResponseWriter
	length int
	status int
}

func (l *loggingResponseWriter) Write(data []byte) (int, error) {
	size, err := l.ResponseWriter.Write(data)
	l.length += size
	return size, err
}

func (l *loggingResponseWriter) WriteHeader(status int) {
	l.ResponseWriter.WriteHeader(status)
	l.status = status
}

// Hijack is needed for websocket.
func (l *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h := l.ResponseWriter.(http.Hijacker)
	return h.Hijack()
}

// ServeHTTP logs every HTTP request, mirroring cmd/lepton's middleware.
func (l loggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lrw := &loggingResponseWriter{ResponseWriter: w}
	l.handler.ServeHTTP(lrw, r)
	log.Printf("%s - %3d %6db %4s %s\n", r.RemoteAddr, lrw.status, lrw.length, r.Method, r.RequestURI)
}
