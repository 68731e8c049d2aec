// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Thermoquad/nrfscope/pkg/nrf24"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics exports decoder statistics to Prometheus
type Metrics struct {
	registry *prometheus.Registry

	samples      prometheus.Counter
	preambleHits prometheus.Counter
	frames       *prometheus.CounterVec // by frame type
	retransmits  prometheus.Counter
	rejects      *prometheus.CounterVec // by reason
	filtered     prometheus.Counter

	// last synced counters
	last   nrf24.Statistics
	server *http.Server
}

// NewMetrics registers the decoder metrics on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		samples: factory.NewCounter(prometheus.CounterOpts{
			Name: "nrfscope_samples_total",
			Help: "Bit-samples read from the source",
		}),
		preambleHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "nrfscope_preamble_hits_total",
			Help: "Windows that started with a valid preamble",
		}),
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nrfscope_frames_total",
			Help: "Reported frames by type",
		}, []string{"type"}),
		retransmits: factory.NewCounter(prometheus.CounterOpts{
			Name: "nrfscope_retransmits_total",
			Help: "Data frames identical to the previous data frame",
		}),
		rejects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nrfscope_rejects_total",
			Help: "Preamble hits that did not decode to a frame, by reason",
		}, []string{"reason"}),
		filtered: factory.NewCounter(prometheus.CounterOpts{
			Name: "nrfscope_filtered_frames_total",
			Help: "Valid frames dropped by the address filter",
		}),
	}
}

// Sync adds the statistics counted since the previous call
func (m *Metrics) Sync(s *nrf24.Statistics) {
	add := func(c prometheus.Counter, now, last uint64) {
		if now > last {
			c.Add(float64(now - last))
		}
	}

	add(m.samples, s.Samples, m.last.Samples)
	add(m.preambleHits, s.PreambleHits, m.last.PreambleHits)
	add(m.frames.WithLabelValues(nrf24.FrameData.String()), s.DataFrames, m.last.DataFrames)
	add(m.frames.WithLabelValues(nrf24.FrameAck.String()), s.AckFrames, m.last.AckFrames)
	add(m.frames.WithLabelValues(nrf24.FrameUndistinguishable.String()), s.UndistinguishableFrames, m.last.UndistinguishableFrames)
	add(m.retransmits, s.Retransmits, m.last.Retransmits)
	add(m.rejects.WithLabelValues("crc"), s.CRCRejects, m.last.CRCRejects)
	add(m.rejects.WithLabelValues("length"), s.LengthRejects, m.last.LengthRejects)
	add(m.filtered, s.FilteredFrames, m.last.FilteredFrames)

	m.last = *s
}

// Handler returns the /metrics handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics endpoint on addr
func (m *Metrics) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	m.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return nil
}

// Close stops the metrics endpoint
func (m *Metrics) Close() error {
	if m.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.server.Shutdown(ctx)
}
