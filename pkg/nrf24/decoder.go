// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// Decoder turns a stream of bit-samples into frames.
//
// It keeps the most recent samples in a ring. Once the ring holds a full
// maximum-length frame, every new sample triggers a preamble check at the
// start of the window. A valid frame is consumed whole; anything else moves
// the window forward by one sample, so a false preamble never hides a real
// frame starting inside it.
type Decoder struct {
	cfg        *Config
	ring       *SampleRing
	sampler    *BitSampler
	classifier *Classifier
	maxFrame   int
	position   uint64 // stream position of the ring's oldest sample
	stats      *Statistics
}

// NewDecoder creates a decoder for a validated configuration
func NewDecoder(cfg *Config) *Decoder {
	ring := NewSampleRing(cfg.BufferSamples())
	sampler := NewBitSampler(ring, cfg.SamplesPerBit)
	return &Decoder{
		cfg:        cfg,
		ring:       ring,
		sampler:    sampler,
		classifier: NewClassifier(cfg, sampler),
		maxFrame:   cfg.MaxFrameSamples(),
		stats:      NewStatistics(),
	}
}

// Stats returns the decoder's running statistics
func (d *Decoder) Stats() *Statistics {
	return d.stats
}

// Config returns the decoder configuration
func (d *Decoder) Config() *Config {
	return d.cfg
}

func (d *Decoder) discard(n int) error {
	if err := d.ring.Discard(n); err != nil {
		return err
	}
	d.position += uint64(n)
	return nil
}

// DecodeSample processes one input byte. It returns a frame when a valid,
// unfiltered frame has been decoded, nil otherwise. Errors are fatal.
func (d *Decoder) DecodeSample(b byte) (*Frame, error) {
	var s byte
	if b != 0 {
		s = 1
	}
	if err := d.ring.Append(s); err != nil {
		return nil, err
	}
	d.stats.Samples++

	if d.ring.Len() < d.maxFrame {
		return nil, nil
	}

	d.sampler.Reset()
	if !d.sampler.HasPreamble() {
		if err := d.sampler.Err(); err != nil {
			return nil, err
		}
		return nil, d.discard(1)
	}

	frame, err := d.classifier.Classify()
	if err != nil {
		return nil, err
	}
	frame.Offset = d.position
	d.stats.Update(&frame)

	if !frame.Valid() {
		return nil, d.discard(1)
	}
	if err := d.discard(frame.Samples); err != nil {
		return nil, err
	}
	if frame.Filtered {
		return nil, nil
	}
	return &frame, nil
}

// Run decodes samples from r until end of stream or until ctx is cancelled,
// calling fn for every reported frame. Cancellation is checked between
// samples only, never in the middle of a decode attempt.
//
// Run returns nil at end of stream and ctx.Err() on cancellation.
func (d *Decoder) Run(ctx context.Context, r io.Reader, fn func(*Frame)) error {
	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading samples: %w", err)
		}

		frame, err := d.DecodeSample(b)
		if err != nil {
			return fmt.Errorf("decoder halted at sample %d: %w", d.stats.Samples, err)
		}
		if frame != nil {
			fn(frame)
		}
	}
}
