package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stackvity/tile-converter/internal/cli/hooks"
	"github.com/stackvity/tile-converter/pkg/converter"
)

const (
	maxRecentFailures = 5
	maxProgressWidth  = 80
	progressPadding   = 4
)

// Model represents the state of the TUI application.
type Model struct {
	spinner  spinner.Model
	progress progress.Model
	// width is the current terminal width, updated on WindowSizeMsg.
	width       int
	initialized bool

	version      string
	mode         converter.Mode
	phaseMessage string
	summary      Summary
	// inFlight maps tiles being worked on to their start time.
	inFlight map[string]time.Time
	// failures keeps the most recent failures, oldest first.
	failures []failure
	report   *converter.Report

	// cancel stops the run; the program quits independently.
	cancel   context.CancelFunc
	quitting bool
}

type failure struct {
	path    string
	message string
}

// Summary holds the aggregated counts displayed by the TUI.
type Summary struct {
	Queued    int
	Done      int
	Succeeded int
	Failed    int
	StartTime time.Time
}

// NewModel creates the initial model for the TUI. cancel is called when the
// user interrupts the run.
func NewModel(version string, mode converter.Mode, cancel context.CancelFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorStatusProcessing)

	return &Model{
		spinner:      s,
		progress:     progress.New(progress.WithDefaultGradient()),
		version:      version,
		mode:         mode,
		phaseMessage: "Initializing...",
		summary:      Summary{StartTime: time.Now()},
		inFlight:     make(map[string]time.Time),
		cancel:       cancel,
	}
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages (user input, hook events) and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(min(msg.Width-progressPadding*2, maxProgressWidth), 10)
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.quitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		if p, ok := pm.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd

	// --- Custom Messages from Library Hooks ---
	case hooks.TileQueuedMsg:
		m.summary.Queued++
		if m.phaseMessage == "Initializing..." {
			m.phaseMessage = "Scanning..."
		}
		return m, nil

	case hooks.TileStatusUpdateMsg:
		if msg.Status == converter.StatusProcessing {
			m.inFlight[msg.Path] = time.Now()
			m.phaseMessage = "Processing..."
			return m, nil
		}
		delete(m.inFlight, msg.Path)
		m.summary.Done++
		switch msg.Status {
		case converter.StatusSuccess:
			m.summary.Succeeded++
		case converter.StatusFailed:
			m.summary.Failed++
			m.failures = append(m.failures, failure{path: msg.Path, message: msg.Message})
			if len(m.failures) > maxRecentFailures {
				m.failures = m.failures[len(m.failures)-maxRecentFailures:]
			}
		}
		return m, m.progress.SetPercent(m.fraction())

	case hooks.RunCompleteMsg:
		report := msg.Report
		m.report = &report
		m.phaseMessage = "Complete"
		m.summary.Queued = report.Summary.Queued
		m.summary.Done = report.Summary.Attempted
		m.summary.Succeeded = report.Summary.Succeeded
		m.summary.Failed = report.Summary.Failed
		if report.Summary.Cancelled {
			m.phaseMessage = "Cancelled"
		}
		return m, tea.Quit
	}
	return m, nil
}

// fraction is the share of queued tiles that reached a final state.
func (m *Model) fraction() float64 {
	if m.summary.Queued == 0 {
		return 0
	}
	return float64(m.summary.Done) / float64(m.summary.Queued)
}

// View renders the current state of the TUI model to a string.
func (m *Model) View() string {
	if m.quitting && m.report == nil {
		return "Cancelling...\n"
	}
	if !m.initialized {
		return "Initializing..."
	}

	// --- Header ---
	headerLeft := fmt.Sprintf("tile-converter %s · %s", m.version, m.mode)
	headerRight := m.phaseMessage
	if m.report == nil && m.phaseMessage != "Initializing..." {
		headerRight = m.spinner.View() + " " + m.phaseMessage
	}
	gap := ""
	if w := m.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight) - 2; w > 0 {
		gap = strings.Repeat(" ", w)
	}
	header := HeaderStyle.Width(m.width).Render(headerLeft + gap + headerRight)

	// --- Progress ---
	bar := m.progress.ViewAs(m.fraction())
	if m.report == nil {
		bar = m.progress.View()
	}
	progressLine := fmt.Sprintf("%s  %d/%d", bar, m.summary.Done, m.summary.Queued)

	// --- Counts ---
	elapsed := time.Since(m.summary.StartTime).Round(time.Second)
	counts := fmt.Sprintf("%s %d   %s %d   %s %d   Elapsed: %s",
		StatusStyleSuccess.Render("✓"), m.summary.Succeeded,
		StatusStyleFailed.Render("✗"), m.summary.Failed,
		StatusStyleProcessing.Render("…"), len(m.inFlight),
		elapsed,
	)

	// --- Recent Failures ---
	var failures []string
	if len(m.failures) > 0 {
		failures = append(failures, "", "Recent failures:")
		for _, f := range m.failures {
			failures = append(failures, StatusStyleFailed.Render("  "+filepath.Base(f.path))+" "+StatusStylePending.Render(f.message))
		}
	}

	footer := FooterStyle.Width(m.width).Render("ctrl+c: cancel")
	if m.report != nil {
		footer = FooterStyle.Width(m.width).Render(fmt.Sprintf("Processed %d tiles in %.1f seconds", m.report.Summary.Attempted, m.report.Summary.DurationSeconds))
	}

	lines := []string{header, "", progressLine, counts}
	lines = append(lines, failures...)
	lines = append(lines, "", footer)
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

// --- Styles ---

const (
	ColorHeaderFg = lipgloss.Color("252") // Light Gray
	ColorHeaderBg = lipgloss.Color("62")  // Purple

	ColorFooterFg = lipgloss.Color("252")
	ColorFooterBg = lipgloss.Color("56") // Dark Pink/Purple

	ColorStatusSuccess    = lipgloss.Color("40")  // Green
	ColorStatusFailed     = lipgloss.Color("196") // Red
	ColorStatusPending    = lipgloss.Color("244") // Dim gray
	ColorStatusProcessing = lipgloss.Color("205") // Pink (matches spinner)
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHeaderFg).
			Background(ColorHeaderBg).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorFooterFg).
			Background(ColorFooterBg).
			Padding(0, 1)

	StatusStyleSuccess    = lipgloss.NewStyle().Foreground(ColorStatusSuccess)
	StatusStyleFailed     = lipgloss.NewStyle().Foreground(ColorStatusFailed)
	StatusStylePending    = lipgloss.NewStyle().Foreground(ColorStatusPending)
	StatusStyleProcessing = lipgloss.NewStyle().Foreground(ColorStatusProcessing)
)
