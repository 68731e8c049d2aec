// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/nrfscope/pkg/nrf24"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	displayFlag   string
	dumpFlag      string
	dumpFile      string
	recordPath    string
	metricsAddr   string
	mqttBroker    string
	mqttTopic     string
	mqttUsername  string
	useTUI        bool
	statsInterval int
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode nRF24 frames from a sample stream",
	Long: `Continuously decode nRF24L01+ frames from the sample source.

Display modes (--disp, written to stderr):
  summary      live packet counter (default)
  verbose      one line per frame
  retransmits  only retransmitted data frames
  none         nothing

Payloads can be dumped raw to stdout or --dump-file with --dump-payload
data|ack|all. Frames can also be recorded (--record), exported as Prometheus
metrics (--metrics-addr) and published to MQTT (--mqtt-broker).`,
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	flags := decodeCmd.Flags()
	flags.StringVar(&displayFlag, "disp", "summary", "Display mode: verbose, retransmits, summary or none")
	flags.StringVar(&dumpFlag, "dump-payload", "", "Dump raw payloads: data, ack or all")
	flags.StringVar(&dumpFile, "dump-file", "", "Write dumped payloads to this file instead of stdout")
	flags.StringVar(&recordPath, "record", "", "Record frames to a CBOR file (.zst is compressed)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9110)")
	flags.StringVar(&mqttBroker, "mqtt-broker", "", "Publish frames to this MQTT broker (e.g. tcp://localhost:1883)")
	flags.StringVar(&mqttTopic, "mqtt-topic", "nrfscope", "MQTT topic prefix, frames go to <prefix>/<address>")
	flags.StringVar(&mqttUsername, "mqtt-username", "", "MQTT username (password from "+mqttPasswordEnv+")")
	flags.BoolVar(&useTUI, "tui", false, "Use terminal UI")
	flags.IntVar(&statsInterval, "stats-interval", 0, "Print full statistics every N seconds (0 disables)")
}

// pipeline runs the decoder and fans frames out to the sinks
type pipeline struct {
	dec       *nrf24.Decoder
	sinks     []frameSink
	observers []statsObserver
	err       error
	cancel    context.CancelFunc
	closed    bool
}

func (p *pipeline) sync() {
	for _, o := range p.observers {
		o.Sync(p.dec.Stats())
	}
}

func (p *pipeline) handle(f *nrf24.Frame) {
	for _, s := range p.sinks {
		if err := s.HandleFrame(f); err != nil && p.err == nil {
			p.err = err
			p.cancel()
		}
	}
	p.sync()
}

// run decodes r until end of stream, cancellation or a sink error
func (p *pipeline) run(ctx context.Context, r io.Reader) error {
	ctx, p.cancel = context.WithCancel(ctx)
	defer p.cancel()

	err := p.dec.Run(ctx, &hookReader{r: r, fn: p.sync}, p.handle)
	p.sync()
	if p.err != nil {
		return p.err
	}
	return err
}

// close closes every sink and joins their errors
func (p *pipeline) close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for _, s := range p.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadDecoderConfig(cmd.Flags())
	if err != nil {
		return err
	}
	disp, err := parseDisplayMode(displayFlag)
	if err != nil {
		return err
	}
	dump, err := parseDumpMode(dumpFlag)
	if err != nil {
		return err
	}
	if err := checkOutputOptions(cfg, disp, dump); err != nil {
		return err
	}
	if useTUI && dump != dumpNone && dumpFile == "" {
		return errors.New("--tui cannot dump payloads to stdout, use --dump-file")
	}

	src, info, err := OpenSource()
	if err != nil {
		return err
	}
	defer src.Close()

	logger.Info("decoding",
		zap.String("source", info),
		zap.Int("spb", cfg.SamplesPerBit),
		zap.Int("address_size", cfg.AddressSize),
		zap.Stringer("mode", cfg.Mode),
		zap.Stringer("lengths", cfg.LengthMode),
		zap.Int("payload_size", cfg.PayloadSize),
		zap.Int("ack_payload_size", cfg.AckPayloadSize),
		zap.Stringer("crc", cfg.CRC),
		zap.Bool("distinguishable", cfg.Distinguishable()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dec := nrf24.NewDecoder(cfg)
	p := &pipeline{dec: dec}
	defer func() {
		if err := p.close(); err != nil {
			logger.Error("failed to close outputs", zap.Error(err))
		}
	}()

	if err := buildOutputs(p, cfg, info, disp, dump); err != nil {
		return err
	}

	if useTUI {
		return runDecodeTUI(ctx, p, src, cfg, info)
	}

	err = finishDecode(p.run(ctx, src))
	if cerr := p.close(); cerr != nil {
		logger.Error("failed to close outputs", zap.Error(cerr))
	}
	fmt.Fprintln(os.Stderr, "all done, bye")
	return err
}

// buildOutputs attaches every output selected on the command line
func buildOutputs(p *pipeline, cfg *nrf24.Config, source string, disp displayMode, dump dumpMode) error {
	if !useTUI && disp != displayNone {
		live := term.IsTerminal(int(os.Stderr.Fd()))
		p.sinks = append(p.sinks, newDisplaySink(os.Stderr, cfg, disp, p.dec.Stats(), live))
	}

	if dump != dumpNone {
		sink := &dumpSink{w: os.Stdout, mode: dump}
		if dumpFile != "" {
			f, err := os.Create(dumpFile)
			if err != nil {
				return fmt.Errorf("failed to create dump file: %w", err)
			}
			sink.w, sink.c = f, f
		}
		p.sinks = append(p.sinks, sink)
	}

	if recordPath != "" {
		rec, err := CreateRecorder(recordPath, cfg, source)
		if err != nil {
			return err
		}
		logger.Info("recording frames", zap.String("path", recordPath), zap.String("session", rec.Session()))
		p.sinks = append(p.sinks, rec)
	}

	if mqttBroker != "" {
		pub, err := NewMQTTPublisher(mqttBroker, mqttTopic, mqttUsername)
		if err != nil {
			return err
		}
		p.sinks = append(p.sinks, pub)
	}

	if metricsAddr != "" {
		m := NewMetrics()
		if err := m.Serve(metricsAddr); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		p.observers = append(p.observers, m)
		p.sinks = append(p.sinks, closeOnly{m})
	}

	if statsInterval > 0 && !useTUI {
		p.observers = append(p.observers, &statsPrinter{
			w:        os.Stderr,
			interval: time.Duration(statsInterval) * time.Second,
		})
	}

	return nil
}

// closeOnly adapts a closer that takes no frames into a sink
type closeOnly struct {
	io.Closer
}

func (closeOnly) HandleFrame(*nrf24.Frame) error {
	return nil
}

// finishDecode maps the ways a decode run can end to the command result
func finishDecode(err error) error {
	switch {
	case err == nil:
		logger.Info("end of stream")
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("interrupted")
		return nil
	case errors.Is(err, ErrConnectionClosed):
		logger.Info("connection closed")
		return nil
	}
	return err
}

// runDecodeTUI runs the decoder in the background while the TUI owns the
// terminal
func runDecodeTUI(ctx context.Context, p *pipeline, src Source, cfg *nrf24.Config, info string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(initialModel(info, cfg), tea.WithContext(ctx))
	ui := &tuiSink{program: program, interval: 200 * time.Millisecond}
	p.sinks = append(p.sinks, ui)
	p.observers = append(p.observers, ui)

	done := make(chan error, 1)
	go func() {
		err := p.run(ctx, src)
		if ctx.Err() != nil {
			// Reads fail once the TUI has closed the source
			err = ctx.Err()
		}
		err = finishDecode(err)
		program.Send(statsMsg(*p.dec.Stats()))
		program.Send(decodeDoneMsg{err: err})
		done <- err
	}()

	_, runErr := program.Run()
	cancel()

	// Unblock a pending read so the decoder sees the cancellation
	src.Close()
	var err error
	select {
	case err = <-done:
	case <-time.After(time.Second):
		logger.Warn("decoder did not stop after the TUI exited")
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return err
}
