// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/nrfscope/pkg/nrf24"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI model
type model struct {
	source   string
	cfg      *nrf24.Config
	stats    nrf24.Statistics
	frames   table.Model
	rows     []table.Row
	maxRows  int
	width    int
	height   int
	quitting bool
	done     bool
	err      error
}

// Messages
type tickMsg time.Time
type frameMsg struct {
	frame *nrf24.Frame
}
type statsMsg nrf24.Statistics
type decodeDoneMsg struct {
	err error
}

// formatElapsed formats a duration as a human-friendly string
func formatElapsed(d time.Duration) string {
	seconds := uint64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func frameColumns() []table.Column {
	return []table.Column{
		{Title: "Time", Width: 12},
		{Title: "Type", Width: 6},
		{Title: "Retx", Width: 4},
		{Title: "Address", Width: 14},
		{Title: "PID", Width: 3},
		{Title: "Payload", Width: 40},
		{Title: "CRC", Width: 4},
	}
}

// frameRow renders a frame as a table row
func frameRow(cfg *nrf24.Config, f *nrf24.Frame) table.Row {
	p := f.Packet

	retx := ""
	if f.Retransmit {
		retx = "yes"
	}
	pid := "-"
	if pcf, ok := p.ControlField(); ok {
		pid = fmt.Sprintf("%d", pcf.PID)
	}
	crc := fmt.Sprintf("%02x", p.CRC())
	if cfg.CRC == nrf24.CRC16 {
		crc = fmt.Sprintf("%04x", p.CRC())
	}

	return table.Row{
		p.Timestamp().Format("15:04:05.000"),
		f.Type.String(),
		retx,
		nrf24.FormatHex(p.Address()),
		pid,
		nrf24.FormatHex(p.Payload()),
		crc,
	}
}

func initialModel(source string, cfg *nrf24.Config) model {
	t := table.New(
		table.WithColumns(frameColumns()),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("10")).
		Bold(false)
	t.SetStyles(s)

	return model{
		source:  source,
		cfg:     cfg,
		stats:   *nrf24.NewStatistics(),
		frames:  t,
		rows:    make([]table.Row, 0),
		maxRows: 100,
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve space for header and stats
		m.frames.SetHeight(max(m.height-14, 5))

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case statsMsg:
		m.stats = nrf24.Statistics(msg)

	case frameMsg:
		m.rows = append(m.rows, frameRow(m.cfg, msg.frame))
		// Keep only last N rows
		if len(m.rows) > m.maxRows {
			m.rows = m.rows[len(m.rows)-m.maxRows:]
		}
		m.frames.SetRows(m.rows)
		m.frames.GotoBottom()

	case decodeDoneMsg:
		m.done = true
		m.err = msg.err
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("NRFSCOPE - nRF24 FRAME DECODER"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | %d spb, %d byte address, %s, %s lengths, %s | Press 'q' to quit",
		m.source, m.cfg.SamplesPerBit, m.cfg.AddressSize, m.cfg.Mode, m.cfg.LengthMode, m.cfg.CRC)))
	s.WriteString("\n\n")

	// Decoder status
	switch {
	case m.done && m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Decoder stopped: %v", m.err)))
	case m.done:
		s.WriteString(warningStyle.Render("ℹ End of stream"))
	case m.stats.ValidFrames == 0:
		s.WriteString(warningStyle.Render("⏳ Waiting for frames..."))
	default:
		s.WriteString(statsValueStyle.Render("✓ Receiving"))
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf(" (running %s)", formatElapsed(time.Since(m.stats.StartTime)))))
	s.WriteString("\n\n")

	// Statistics
	st := m.stats
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Frames:"), statsValueStyle.Render(fmt.Sprintf("%d", st.ValidFrames)),
		statsLabelStyle.Render("Samples:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Samples)),
		statsLabelStyle.Render("Preamble Hits:"), statsValueStyle.Render(fmt.Sprintf("%d", st.PreambleHits)),
	))

	if m.cfg.Distinguishable() {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("Data:"), statsValueStyle.Render(fmt.Sprintf("%d", st.DataFrames)),
			statsLabelStyle.Render("Ack:"), statsValueStyle.Render(fmt.Sprintf("%d", st.AckFrames)),
			statsLabelStyle.Render("Retransmits:"), warningStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.Retransmits, st.RetransmitRate*100.0)),
		))
	}

	if st.CRCRejects > 0 || st.LengthRejects > 0 || st.FilteredFrames > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("CRC Rejects:"), errorStyle.Render(fmt.Sprintf("%d", st.CRCRejects)),
			statsLabelStyle.Render("Length Rejects:"), errorStyle.Render(fmt.Sprintf("%d", st.LengthRejects)),
			statsLabelStyle.Render("Filtered:"), headerStyle.Render(fmt.Sprintf("%d", st.FilteredFrames)),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", st.FrameRate)),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Frame log
	s.WriteString(statsLabelStyle.Render("Recent Frames:"))
	s.WriteString("\n")

	if len(m.rows) == 0 {
		s.WriteString(boxStyle.Width(m.width - 4).Render(headerStyle.Render("  (no frames yet)")))
	} else {
		s.WriteString(boxStyle.Render(m.frames.View()))
	}

	return s.String()
}

// tuiSink forwards frames and statistics snapshots to the TUI
type tuiSink struct {
	program  *tea.Program
	interval time.Duration
	last     time.Time
}

func (t *tuiSink) HandleFrame(f *nrf24.Frame) error {
	t.program.Send(frameMsg{frame: f})
	return nil
}

func (t *tuiSink) Sync(s *nrf24.Statistics) {
	now := time.Now()
	if now.Sub(t.last) < t.interval {
		return
	}
	t.last = now
	t.program.Send(statsMsg(*s))
}

func (t *tuiSink) Close() error {
	return nil
}
