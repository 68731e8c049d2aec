// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/nrfscope/pkg/nrf24"
	"github.com/spf13/cobra"
)

var (
	probeTimeout int
)

// Probe exit codes
const (
	probeFound      = 0
	probeNoFrame    = 1
	probeSetupError = 2
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test a sample source by waiting for a valid nRF24 frame",
	Long: `Wait for a valid nRF24 frame on the sample source until timeout.

This command opens the sample source and decodes it with the configured
decoder settings until the first valid frame passes its CRC check.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout or end of stream without a valid frame
  2 - Configuration or source error

Useful for checking capture settings (samples per bit, address size,
payload sizes) against a live or recorded stream.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

// probeResult is the outcome of a probe
type probeResult struct {
	code  int
	frame *nrf24.Frame
	err   error
}

// probe decodes r until the first frame, end of stream, a read error or
// timeout
func probe(ctx context.Context, cfg *nrf24.Config, r io.Reader, timeout time.Duration) probeResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dec := nrf24.NewDecoder(cfg)
	frameChan := make(chan *nrf24.Frame, 1)
	errChan := make(chan error, 1)

	// Decoder goroutine
	go func() {
		found := false
		err := dec.Run(ctx, r, func(f *nrf24.Frame) {
			if found {
				return
			}
			found = true
			frameChan <- f
			cancel()
		})
		if !found {
			errChan <- err
		}
	}()

	select {
	case f := <-frameChan:
		return probeResult{code: probeFound, frame: f}

	case err := <-errChan:
		if err != nil {
			return probeResult{code: probeSetupError, err: err}
		}
		return probeResult{code: probeNoFrame}

	case <-time.After(timeout):
		return probeResult{code: probeNoFrame, err: context.DeadlineExceeded}
	}
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadDecoderConfig(cmd.Flags())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(probeSetupError)
	}

	src, info, err := OpenSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(probeSetupError)
	}

	fmt.Printf("nrfscope - Probe\n")
	fmt.Printf("Source: %s\n", info)
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)
	fmt.Printf("Waiting for valid nRF24 frame...\n\n")

	res := probe(cmd.Context(), cfg, src, time.Duration(probeTimeout)*time.Second)
	src.Close()

	switch res.code {
	case probeFound:
		p := res.frame.Packet
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Type: %s\n", res.frame.Type)
		fmt.Printf("  Address: %s\n", nrf24.FormatHex(p.Address()))
		if pcf, ok := p.ControlField(); ok {
			fmt.Printf("  PID: %d\n", pcf.PID)
		}
		fmt.Printf("  Payload: %d bytes\n", len(p.Payload()))
		fmt.Printf("  CRC: 0x%0*X\n", cfg.CRC.Bytes()*2, p.CRC())
		fmt.Printf("  Offset: sample %d\n", res.frame.Offset)

	case probeSetupError:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", res.err)

	default:
		if res.err != nil {
			fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", probeTimeout)
		} else {
			fmt.Fprintf(os.Stderr, "END OF STREAM: No valid frame received\n")
		}
	}

	os.Exit(res.code)
	return nil
}
