// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Thermoquad/nrfscope/pkg/nrf24"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// A recording is a CBOR sequence: one RecordHeader followed by one
// FrameRecord per reported frame.

// recordEncMode keeps sub-second timestamps
var recordEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// RecordConfig is the decoder configuration stored in a recording
type RecordConfig struct {
	SamplesPerBit  int    `cbor:"1,keyasint"`
	AddressSize    int    `cbor:"2,keyasint"`
	Mode           int    `cbor:"3,keyasint"`
	LengthMode     int    `cbor:"4,keyasint"`
	PayloadSize    int    `cbor:"5,keyasint"`
	AckPayloadSize int    `cbor:"6,keyasint"`
	CRC            int    `cbor:"7,keyasint"`
	FilterAddress  []byte `cbor:"8,keyasint,omitempty"`
}

// RecordHeader opens a recording
type RecordHeader struct {
	Session string       `cbor:"1,keyasint"`
	Started time.Time    `cbor:"2,keyasint"`
	Source  string       `cbor:"3,keyasint"`
	Config  RecordConfig `cbor:"4,keyasint"`
}

// FrameRecord is one recorded frame
type FrameRecord struct {
	Offset     uint64    `cbor:"1,keyasint"`
	Timestamp  time.Time `cbor:"2,keyasint"`
	Type       int       `cbor:"3,keyasint"`
	Retransmit bool      `cbor:"4,keyasint"`
	Address    []byte    `cbor:"5,keyasint"`
	HasPCF     bool      `cbor:"6,keyasint"`
	PID        uint8     `cbor:"7,keyasint"`
	NoAck      bool      `cbor:"8,keyasint"`
	Payload    []byte    `cbor:"9,keyasint"`
	CRC        uint16    `cbor:"10,keyasint"`
	PCFLength  uint8     `cbor:"11,keyasint"`
}

func newRecordConfig(cfg *nrf24.Config) RecordConfig {
	return RecordConfig{
		SamplesPerBit:  cfg.SamplesPerBit,
		AddressSize:    cfg.AddressSize,
		Mode:           int(cfg.Mode),
		LengthMode:     int(cfg.LengthMode),
		PayloadSize:    cfg.PayloadSize,
		AckPayloadSize: cfg.AckPayloadSize,
		CRC:            int(cfg.CRC),
		FilterAddress:  cfg.FilterAddress,
	}
}

// DecoderConfig rebuilds and validates the recorded configuration
func (rc RecordConfig) DecoderConfig() (*nrf24.Config, error) {
	cfg := &nrf24.Config{
		SamplesPerBit:  rc.SamplesPerBit,
		AddressSize:    rc.AddressSize,
		Mode:           nrf24.Mode(rc.Mode),
		LengthMode:     nrf24.LengthMode(rc.LengthMode),
		PayloadSize:    rc.PayloadSize,
		AckPayloadSize: rc.AckPayloadSize,
		CRC:            nrf24.CRCWidth(rc.CRC),
		FilterAddress:  rc.FilterAddress,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("recording has an invalid configuration: %w", err)
	}
	return cfg, nil
}

func newFrameRecord(f *nrf24.Frame) FrameRecord {
	p := f.Packet
	pcf, hasPCF := p.ControlField()
	return FrameRecord{
		Offset:     f.Offset,
		Timestamp:  p.Timestamp(),
		Type:       int(f.Type),
		Retransmit: f.Retransmit,
		Address:    p.Address(),
		HasPCF:     hasPCF,
		PID:        pcf.PID,
		NoAck:      pcf.NoAck,
		Payload:    p.Payload(),
		CRC:        p.CRC(),
		PCFLength:  pcf.PayloadLength,
	}
}

// Frame rebuilds the recorded frame
func (r FrameRecord) Frame() *nrf24.Frame {
	var pcf *nrf24.ControlField
	if r.HasPCF {
		pcf = &nrf24.ControlField{
			PayloadLength: r.PCFLength,
			PID:           r.PID,
			NoAck:         r.NoAck,
		}
	}
	return &nrf24.Frame{
		Packet:     nrf24.NewPacketAt(r.Timestamp, r.Address, pcf, r.Payload, r.CRC),
		Type:       nrf24.FrameType(r.Type),
		Retransmit: r.Retransmit,
		Offset:     r.Offset,
	}
}

// Recorder writes reported frames to a recording
type Recorder struct {
	enc     *cbor.Encoder
	closers []func() error
	session string
	frames  int
}

// NewRecorder writes the recording header to w. Closing the recorder closes
// w.
func NewRecorder(w io.WriteCloser, cfg *nrf24.Config, source string) (*Recorder, error) {
	r := &Recorder{
		enc:     recordEncMode.NewEncoder(w),
		closers: []func() error{w.Close},
		session: uuid.NewString(),
	}

	header := RecordHeader{
		Session: r.session,
		Started: time.Now().UTC(),
		Source:  source,
		Config:  newRecordConfig(cfg),
	}
	if err := r.enc.Encode(header); err != nil {
		return nil, fmt.Errorf("failed to write recording header: %w", err)
	}
	return r, nil
}

// CreateRecorder creates a recording file. Paths ending in .zst are
// compressed.
func CreateRecorder(path string, cfg *nrf24.Config, source string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	var w io.WriteCloser = f
	var zw *zstd.Encoder
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".zst" || ext == ".zstd" {
		zw, err = zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to start zstd stream: %w", err)
		}
		w = zw
	}

	r, err := NewRecorder(w, cfg, source)
	if err != nil {
		f.Close()
		return nil, err
	}
	if zw != nil {
		r.closers = append(r.closers, f.Close)
	}
	return r, nil
}

// Session returns the recording's session id
func (r *Recorder) Session() string {
	return r.session
}

// Frames returns the number of recorded frames
func (r *Recorder) Frames() int {
	return r.frames
}

func (r *Recorder) HandleFrame(f *nrf24.Frame) error {
	if err := r.enc.Encode(newFrameRecord(f)); err != nil {
		return fmt.Errorf("failed to record frame: %w", err)
	}
	r.frames++
	return nil
}

func (r *Recorder) Close() error {
	logger.Info("recording closed", zap.String("session", r.session), zap.Int("frames", r.Frames()))

	var errs []error
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Replayer reads frames back from a recording
type Replayer struct {
	dec    *cbor.Decoder
	header RecordHeader
	cfg    *nrf24.Config
}

// OpenReplay reads and checks the recording header
func OpenReplay(r io.Reader) (*Replayer, error) {
	dec := cbor.NewDecoder(r)

	var header RecordHeader
	if err := dec.Decode(&header); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty recording")
		}
		return nil, fmt.Errorf("failed to read recording header: %w", err)
	}
	if _, err := uuid.Parse(header.Session); err != nil {
		return nil, fmt.Errorf("invalid recording session id: %w", err)
	}

	cfg, err := header.Config.DecoderConfig()
	if err != nil {
		return nil, err
	}
	return &Replayer{dec: dec, header: header, cfg: cfg}, nil
}

// Header returns the recording header
func (r *Replayer) Header() RecordHeader {
	return r.header
}

// Config returns the decoder configuration of the recording
func (r *Replayer) Config() *nrf24.Config {
	return r.cfg
}

// Next returns the next frame, or io.EOF at the end of the recording
func (r *Replayer) Next() (*nrf24.Frame, error) {
	var rec FrameRecord
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame record: %w", err)
	}
	return rec.Frame(), nil
}
