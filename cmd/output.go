// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Thermoquad/nrfscope/pkg/nrf24"
)

// displayMode selects what is printed for decoded frames
type displayMode int

const (
	displaySummary displayMode = iota
	displayVerbose
	displayRetransmits
	displayNone
)

func parseDisplayMode(s string) (displayMode, error) {
	switch s {
	case "summary":
		return displaySummary, nil
	case "verbose":
		return displayVerbose, nil
	case "retransmits":
		return displayRetransmits, nil
	case "none":
		return displayNone, nil
	}
	return 0, fmt.Errorf("invalid value for --disp: %q (use verbose, retransmits, summary or none)", s)
}

// dumpMode selects which payloads are written raw to the dump output
type dumpMode int

const (
	dumpNone dumpMode = iota
	dumpData
	dumpAck
	dumpAll
)

func parseDumpMode(s string) (dumpMode, error) {
	switch s {
	case "":
		return dumpNone, nil
	case "data":
		return dumpData, nil
	case "ack":
		return dumpAck, nil
	case "all":
		return dumpAll, nil
	}
	return 0, fmt.Errorf("invalid value for --dump-payload: %q (use data, ack or all)", s)
}

// checkOutputOptions rejects output options the decoder configuration
// cannot honor.
func checkOutputOptions(cfg *nrf24.Config, disp displayMode, dump dumpMode) error {
	if cfg.Mode == nrf24.ModeCompatibility && (dump == dumpAck || dump == dumpAll) {
		return errors.New("--dump-payload ack|all is incompatible with --mode-compatibility")
	}
	if !cfg.Distinguishable() {
		if dump == dumpData || dump == dumpAck {
			return errors.New("--dump-payload data|ack requires distinguishable data and ACK payload sizes")
		}
		if disp == displayRetransmits {
			return errors.New("--disp retransmits requires distinguishable data and ACK payload sizes")
		}
	}
	return nil
}

// frameSink consumes reported frames
type frameSink interface {
	HandleFrame(f *nrf24.Frame) error
	Close() error
}

// statsObserver is handed the decoder statistics from the decode goroutine
type statsObserver interface {
	Sync(s *nrf24.Statistics)
}

// displaySink prints frames or the live counter
type displaySink struct {
	w               io.Writer
	cfg             *nrf24.Config
	mode            displayMode
	stats           *nrf24.Statistics
	withRetransmits bool
	live            bool // rewrite the counter in place
}

func newDisplaySink(w io.Writer, cfg *nrf24.Config, mode displayMode, stats *nrf24.Statistics, live bool) *displaySink {
	return &displaySink{
		w:               w,
		cfg:             cfg,
		mode:            mode,
		stats:           stats,
		withRetransmits: cfg.Distinguishable(),
		live:            live,
	}
}

func (d *displaySink) HandleFrame(f *nrf24.Frame) error {
	var err error
	switch d.mode {
	case displayVerbose:
		_, err = fmt.Fprintln(d.w, nrf24.FormatFrame(d.cfg, f))
	case displayRetransmits:
		if f.Type == nrf24.FrameData && f.Retransmit {
			_, err = fmt.Fprintln(d.w, nrf24.FormatFrame(d.cfg, f))
		}
	case displaySummary:
		if d.live {
			_, err = fmt.Fprintf(d.w, "%s\r", nrf24.FormatSummary(d.stats, d.withRetransmits))
		}
	}
	return err
}

func (d *displaySink) Close() error {
	if d.mode != displaySummary {
		return nil
	}
	_, err := fmt.Fprintln(d.w, nrf24.FormatSummary(d.stats, d.withRetransmits))
	return err
}

// dumpSink writes raw payload bytes
type dumpSink struct {
	w    io.Writer
	c    io.Closer
	mode dumpMode
}

func (d *dumpSink) HandleFrame(f *nrf24.Frame) error {
	switch d.mode {
	case dumpData:
		if f.Type != nrf24.FrameData {
			return nil
		}
	case dumpAck:
		if f.Type != nrf24.FrameAck {
			return nil
		}
	}
	if _, err := d.w.Write(f.Packet.Payload()); err != nil {
		return fmt.Errorf("failed to dump payload: %w", err)
	}
	return nil
}

func (d *dumpSink) Close() error {
	if d.c == nil {
		return nil
	}
	return d.c.Close()
}

// statsPrinter prints the full statistics every interval
type statsPrinter struct {
	w        io.Writer
	interval time.Duration
	last     time.Time
}

func (p *statsPrinter) Sync(s *nrf24.Statistics) {
	now := time.Now()
	if p.last.IsZero() {
		p.last = now
		return
	}
	if now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	fmt.Fprintf(p.w, "\n%s\n", s.String())
}

// hookReader calls fn after every read of the underlying source
type hookReader struct {
	r  io.Reader
	fn func()
}

func (h *hookReader) Read(p []byte) (int, error) {
	n, err := h.r.Read(p)
	h.fn()
	return n, err
}
