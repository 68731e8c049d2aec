// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/Thermoquad/nrfscope/pkg/nrf24"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Profile is a YAML decoder profile. Unset sizes are nil so that missing
// mandatory values can be told apart from zero.
type Profile struct {
	SamplesPerBit  *int   `yaml:"samples_per_bit"`
	AddressSize    *int   `yaml:"address_size"`
	PayloadSize    *int   `yaml:"payload_size"`
	AckPayloadSize *int   `yaml:"ack_payload_size"`
	DynamicLengths bool   `yaml:"dynamic_lengths"`
	Compatibility  bool   `yaml:"compatibility_mode"`
	CRC16          bool   `yaml:"crc16"`
	FilterAddress  string `yaml:"filter_address"`
}

// decoderOptions holds the decoder flag values
type decoderOptions struct {
	samplesPerBit  int
	addressSize    int
	payloadSize    int
	ackPayloadSize int
	dynamicLengths bool
	compatibility  bool
	crc16          bool
	filterAddress  string
}

// addDecoderFlags registers the decoder flags bound to o
func addDecoderFlags(flags *pflag.FlagSet, o *decoderOptions) {
	flags.IntVar(&o.samplesPerBit, "spb", 0, "Samples per bit (mandatory)")
	flags.IntVar(&o.addressSize, "sz-addr", 0, "Address size in bytes, 1-5 (mandatory)")
	flags.IntVar(&o.payloadSize, "sz-payload", 0, "Data payload size in bytes (fixed lengths)")
	flags.IntVar(&o.ackPayloadSize, "sz-ack-payload", 0, "ACK payload size in bytes (fixed lengths, normal mode)")
	flags.BoolVar(&o.dynamicLengths, "dyn-lengths", false, "Payload lengths are read from the packet control field")
	flags.BoolVar(&o.compatibility, "mode-compatibility", false, "Decode frames without packet control field")
	flags.BoolVar(&o.crc16, "crc16", false, "Frames carry a 2 byte CRC")
	flags.StringVar(&o.filterAddress, "filter-addr", "", "Only report frames sent to this address (hex)")
}

// LoadProfile reads a decoder profile from a YAML file
func LoadProfile(filename string) (*Profile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", filename, err)
	}
	return &p, nil
}

// applyFlags overrides profile values with every flag set on the command line
func (p *Profile) applyFlags(flags *pflag.FlagSet, o *decoderOptions) {
	intFlag := func(name string, v int, dst **int) {
		if flags.Changed(name) {
			*dst = &v
		}
	}
	intFlag("spb", o.samplesPerBit, &p.SamplesPerBit)
	intFlag("sz-addr", o.addressSize, &p.AddressSize)
	intFlag("sz-payload", o.payloadSize, &p.PayloadSize)
	intFlag("sz-ack-payload", o.ackPayloadSize, &p.AckPayloadSize)

	if flags.Changed("dyn-lengths") {
		p.DynamicLengths = o.dynamicLengths
	}
	if flags.Changed("mode-compatibility") {
		p.Compatibility = o.compatibility
	}
	if flags.Changed("crc16") {
		p.CRC16 = o.crc16
	}
	if flags.Changed("filter-addr") {
		p.FilterAddress = o.filterAddress
	}
}

// Config checks the profile for missing or conflicting settings and builds a
// validated decoder configuration. Settings that are present but ignored are
// returned as warnings.
func (p *Profile) Config() (*nrf24.Config, []string, error) {
	var warnings []string

	if p.SamplesPerBit == nil || *p.SamplesPerBit <= 0 {
		return nil, nil, fmt.Errorf("invalid value for or missing mandatory argument --spb")
	}
	if p.AddressSize == nil || *p.AddressSize <= 0 {
		return nil, nil, fmt.Errorf("invalid value for or missing mandatory argument --sz-addr")
	}

	cfg := &nrf24.Config{
		SamplesPerBit: *p.SamplesPerBit,
		AddressSize:   *p.AddressSize,
		Mode:          nrf24.ModeNormal,
		LengthMode:    nrf24.LengthFixed,
		CRC:           nrf24.CRC8,
	}
	if p.Compatibility {
		cfg.Mode = nrf24.ModeCompatibility
	}
	if p.CRC16 {
		cfg.CRC = nrf24.CRC16
	}

	if p.DynamicLengths {
		cfg.LengthMode = nrf24.LengthDynamic
		if p.PayloadSize != nil && *p.PayloadSize != 0 {
			warnings = append(warnings, "dynamic lengths are set, ignoring --sz-payload")
		}
		if p.AckPayloadSize != nil && *p.AckPayloadSize != 0 {
			warnings = append(warnings, "dynamic lengths are set, ignoring --sz-ack-payload")
		}
	} else {
		if p.PayloadSize == nil || *p.PayloadSize <= 0 {
			return nil, nil, fmt.Errorf("invalid value for or missing mandatory argument --sz-payload if --dyn-lengths is not specified")
		}
		cfg.PayloadSize = *p.PayloadSize

		// Compatibility mode has no ACK packets with payload
		if p.AckPayloadSize == nil && !p.Compatibility {
			return nil, nil, fmt.Errorf("invalid value for or missing mandatory argument --sz-ack-payload if --dyn-lengths is not specified in normal mode")
		}
		if p.AckPayloadSize != nil {
			cfg.AckPayloadSize = *p.AckPayloadSize
		}
	}

	if p.FilterAddress != "" {
		addr, err := nrf24.ParseAddress(p.FilterAddress)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid filter address: %w", err)
		}
		if len(addr) != cfg.AddressSize {
			return nil, nil, fmt.Errorf("size mismatch between address size (%d) and filter address %s (%d bytes)", cfg.AddressSize, p.FilterAddress, len(addr))
		}
		cfg.FilterAddress = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, warnings, nil
}

// loadDecoderConfig merges --config with the decoder flags set in flags
func loadDecoderConfig(flags *pflag.FlagSet) (*nrf24.Config, error) {
	p := &Profile{}
	if profilePath != "" {
		var err error
		p, err = LoadProfile(profilePath)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded decoder profile", zap.String("path", profilePath))
	}
	p.applyFlags(flags, &decoderOpts)

	cfg, warnings, err := p.Config()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}
	return cfg, nil
}
