// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Thermoquad/nrfscope/pkg/nrf24"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	genAddress string
	genPayload string
	genPID     uint8
	genNoAck   bool
	genAck     bool
	genRepeat  int
	genGap     int
	genIdle    int
	genOutput  string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an oversampled sample stream for nRF24 frames",
	Long: `Synthesize the sample stream a receiver would capture for one frame,
optionally repeated, using the decoder settings.

Repeated frames are identical, so the decoder reports every copy after the
first as a retransmit. The stream starts with an idle gap and ends with
enough idle samples for the last frame to be decoded.

Examples:
  nrfscope generate --spb 4 --sz-addr 3 --sz-payload 2 --sz-ack-payload 0 \
      --address 010203 --payload aabb --pid 1 | nrfscope decode ... --disp verbose`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	flags := generateCmd.Flags()
	flags.StringVar(&genAddress, "address", "", "Frame address in hex (required)")
	flags.StringVar(&genPayload, "payload", "", "Payload in hex")
	flags.Uint8Var(&genPID, "pid", 0, "Packet id, 0-3 (normal mode)")
	flags.BoolVar(&genNoAck, "no-ack", false, "Set the no-ack flag (normal mode)")
	flags.BoolVar(&genAck, "ack", false, "Generate an ACK frame, sized by --sz-ack-payload")
	flags.IntVar(&genRepeat, "repeat", 1, "Number of copies of the frame")
	flags.IntVar(&genGap, "gap", 64, "Idle samples between frames")
	flags.IntVar(&genIdle, "idle", -1, "Idle level, 0 or 1 (default: the level of the first preamble bit)")
	flags.StringVarP(&genOutput, "output", "o", "", "Write samples to this file instead of stdout")
	generateCmd.MarkFlagRequired("address")
}

// generateOptions describes the frames to synthesize
type generateOptions struct {
	address []byte
	payload []byte
	pid     uint8
	noAck   bool
	ack     bool
	repeat  int
	gap     int
	idle    int // -1 selects the first preamble bit
}

// check validates the options against the decoder configuration
func (o *generateOptions) check(cfg *nrf24.Config) error {
	if len(o.address) != cfg.AddressSize {
		return fmt.Errorf("address has %d bytes but address size is %d", len(o.address), cfg.AddressSize)
	}
	if o.pid > 3 {
		return fmt.Errorf("PID must be 0-3, got %d", o.pid)
	}
	if o.repeat < 1 {
		return fmt.Errorf("repeat must be at least 1, got %d", o.repeat)
	}
	if o.gap < 0 {
		return fmt.Errorf("gap must not be negative, got %d", o.gap)
	}
	if o.idle < -1 || o.idle > 1 {
		return fmt.Errorf("idle level must be 0 or 1, got %d", o.idle)
	}
	if cfg.Mode == nrf24.ModeCompatibility && (o.ack || o.noAck || o.pid != 0) {
		return errors.New("--ack, --no-ack and --pid need normal mode")
	}

	switch {
	case cfg.LengthMode == nrf24.LengthDynamic:
		if len(o.payload) > nrf24.MaxPayloadSize {
			return fmt.Errorf("payload is %d bytes, at most %d fit", len(o.payload), nrf24.MaxPayloadSize)
		}
	case o.ack:
		if len(o.payload) != cfg.AckPayloadSize {
			return fmt.Errorf("ACK payload has %d bytes but ACK payload size is %d", len(o.payload), cfg.AckPayloadSize)
		}
	default:
		if len(o.payload) != cfg.PayloadSize {
			return fmt.Errorf("payload has %d bytes but payload size is %d", len(o.payload), cfg.PayloadSize)
		}
	}
	return nil
}

// generateSamples builds the sample stream: a leading gap, the frame
// repeated with gaps in between, and a trailing idle run of one maximum
// frame so the decoder hunts over the last frame.
func generateSamples(cfg *nrf24.Config, o *generateOptions) ([]byte, error) {
	if err := o.check(cfg); err != nil {
		return nil, err
	}

	pcf := &nrf24.ControlField{
		PayloadLength: uint8(len(o.payload)),
		PID:           o.pid,
		NoAck:         o.noAck,
	}

	enc := nrf24.NewEncoder(cfg)
	frame := enc.Encode(enc.Packet(o.address, pcf, o.payload))

	idle := byte(o.idle)
	if o.idle < 0 {
		idle = nrf24.Preamble(o.address) >> 7
	}
	gap := idleRun(o.gap, idle)

	samples := make([]byte, 0, (len(frame)+len(gap))*o.repeat+len(gap)+cfg.MaxFrameSamples())
	samples = append(samples, gap...)
	for i := 0; i < o.repeat; i++ {
		if i > 0 {
			samples = append(samples, gap...)
		}
		samples = append(samples, frame...)
	}
	return append(samples, idleRun(cfg.MaxFrameSamples(), idle)...), nil
}

func idleRun(n int, level byte) []byte {
	run := make([]byte, n)
	for i := range run {
		run[i] = level
	}
	return run
}

func parseHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadDecoderConfig(cmd.Flags())
	if err != nil {
		return err
	}

	address, err := nrf24.ParseAddress(genAddress)
	if err != nil {
		return err
	}
	payload, err := parseHexBytes(genPayload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	samples, err := generateSamples(cfg, &generateOptions{
		address: address,
		payload: payload,
		pid:     genPID,
		noAck:   genNoAck,
		ack:     genAck,
		repeat:  genRepeat,
		gap:     genGap,
		idle:    genIdle,
	})
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if genOutput != "" {
		f, err := os.Create(genOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(samples); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}

	logger.Info("generated samples",
		zap.Int("frames", genRepeat),
		zap.Int("samples", len(samples)),
		zap.String("address", nrf24.FormatHex(address)),
	)
	return nil
}
