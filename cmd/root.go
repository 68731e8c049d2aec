// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// File / stdin source flags
	inputPath string

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Decoder flags, merged with --config in loadDecoderConfig
	decoderOpts decoderOptions
	profilePath string

	// Logging flags
	logLevel string
	logJSON  bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "nrfscope",
	Short: "nRF24L01+ Frame Decoder",
	Long: `nrfscope - A CLI tool for passively decoding nRF24L01+ Enhanced ShockBurst frames.

Input is an oversampled, pre-binarized bit stream: one sample per byte, zero
for low and anything else for high, as produced by a logic analyzer or an SDR
demodulator followed by a slicer.

Sample sources:
  stdin:     cat capture.bin | nrfscope decode ...  (default)
  File:      --input capture.bin[.zst|.gz]
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Decoder settings come from flags, a YAML profile (--config) or both. Flags
that are set explicitly override the profile.

For WebSocket authentication, the password is read from the NRFSCOPE_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(logLevel, logJSON)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()

	// Sample source flags
	flags.StringVarP(&inputPath, "input", "i", "", "Read samples from a file (.zst and .gz are decompressed), - for stdin")
	flags.StringVarP(&portName, "port", "p", "", "Serial port device")
	flags.IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")
	flags.StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	flags.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Decoder flags
	flags.StringVarP(&profilePath, "config", "c", "", "YAML decoder profile")
	addDecoderFlags(flags, &decoderOpts)

	// Logging flags
	flags.StringVar(&logLevel, "log-level", "info", "Diagnostic log level (debug, info, warn, error)")
	flags.BoolVar(&logJSON, "log-json", false, "Write diagnostic logs as JSON")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
