// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Thermoquad/nrfscope/pkg/nrf24"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <recording>",
	Short: "Print the frames of a recording",
	Long: `Read a frame recording written by decode --record and print every frame
in the verbose display format. Compressed recordings (.zst, .gz) are read
transparently.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

// replay prints every frame of a recording to w and returns the frame count
func replay(r io.Reader, w io.Writer) (int, error) {
	rp, err := OpenReplay(r)
	if err != nil {
		return 0, err
	}

	h := rp.Header()
	fmt.Fprintf(w, "# session %s, started %s, source %s\n", h.Session, h.Started.Format("2006-01-02 15:04:05 MST"), h.Source)

	cfg := rp.Config()
	n := 0
	for {
		f, err := rp.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		fmt.Fprintln(w, nrf24.FormatFrame(cfg, f))
		n++
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	src, err := OpenFileSource(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	n, err := replay(src, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d frames\n", n)
	return nil
}
