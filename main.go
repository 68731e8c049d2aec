// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// nrfscope - nRF24L01+ Frame Decoder
//
// A CLI tool for passively decoding nRF24L01+ Enhanced ShockBurst frames
// from oversampled bit-sample captures.

package main

import (
	"fmt"
	"os"

	"github.com/Thermoquad/nrfscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
