package ui

import (
	"fmt"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/tile-converter/internal/cli/hooks"
	"github.com/stackvity/tile-converter/pkg/converter"
)

// newTestModel returns an initialized model of the given width.
func newTestModel(width int, cancel func()) *Model {
	m := NewModel("test", converter.ModeConvert, cancel)
	m.Update(tea.WindowSizeMsg{Width: width, Height: 25})
	return m
}

func tilePath(i int) string {
	return fmt.Sprintf("/sim/Custom Scenery/zOrtho4XP_x/Earth nav data/+50+000/+51+%03d.dsf", i)
}

func TestModel_Init(t *testing.T) {
	m := newTestModel(80, nil)
	cmd := m.Init()
	require.NotNil(t, cmd)
	_, ok := cmd().(spinner.TickMsg)
	assert.True(t, ok, "Init should return a command that produces spinner.TickMsg")
}

func TestModel_Update_QuitCancelsRun(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			cancelled := false
			m := newTestModel(80, func() { cancelled = true })

			newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
			require.NotNil(t, cmd)
			updated, ok := newModel.(*Model)
			require.True(t, ok)
			assert.True(t, updated.quitting)
			assert.True(t, cancelled)
			assert.Equal(t, tea.Quit(), cmd())
		})
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	m := NewModel("test", converter.ModeUndo, nil)
	assert.False(t, m.initialized)

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 200, Height: 30})
	assert.Nil(t, cmd)
	assert.True(t, m.initialized)
	assert.Equal(t, 200, m.width)
	assert.Equal(t, maxProgressWidth, m.progress.Width)

	m.Update(tea.WindowSizeMsg{Width: 5, Height: 30})
	assert.Equal(t, 10, m.progress.Width)
}

func TestModel_Update_TileLifecycle(t *testing.T) {
	m := newTestModel(80, nil)

	for i := 0; i < 4; i++ {
		m.Update(hooks.TileQueuedMsg{Path: tilePath(i), Action: converter.ActionConvert})
	}
	assert.Equal(t, 4, m.summary.Queued)
	assert.Equal(t, "Scanning...", m.phaseMessage)

	m.Update(hooks.TileStatusUpdateMsg{Path: tilePath(0), Status: converter.StatusProcessing})
	m.Update(hooks.TileStatusUpdateMsg{Path: tilePath(1), Status: converter.StatusProcessing})
	assert.Equal(t, "Processing...", m.phaseMessage)
	assert.Len(t, m.inFlight, 2)

	_, cmd := m.Update(hooks.TileStatusUpdateMsg{Path: tilePath(0), Status: converter.StatusSuccess})
	assert.NotNil(t, cmd, "progress animation should be scheduled")
	m.Update(hooks.TileStatusUpdateMsg{Path: tilePath(1), Status: converter.StatusFailed, Message: "no reference tile"})

	assert.Empty(t, m.inFlight)
	assert.Equal(t, 2, m.summary.Done)
	assert.Equal(t, 1, m.summary.Succeeded)
	assert.Equal(t, 1, m.summary.Failed)
	assert.InDelta(t, 0.5, m.fraction(), 1e-9)
	require.Len(t, m.failures, 1)
	assert.Equal(t, "no reference tile", m.failures[0].message)
}

func TestModel_Update_RecentFailuresCapped(t *testing.T) {
	m := newTestModel(80, nil)
	for i := 0; i < maxRecentFailures+3; i++ {
		m.Update(hooks.TileStatusUpdateMsg{Path: tilePath(i), Status: converter.StatusFailed, Message: "boom"})
	}
	require.Len(t, m.failures, maxRecentFailures)
	assert.Equal(t, tilePath(3), m.failures[0].path, "oldest failures are dropped first")
	assert.Equal(t, maxRecentFailures+3, m.summary.Failed)
}

func TestModel_Update_RunCompleteQuits(t *testing.T) {
	m := newTestModel(80, nil)
	report := converter.Report{Summary: converter.ReportSummary{Queued: 3, Attempted: 3, Succeeded: 2, Failed: 1}}

	_, cmd := m.Update(hooks.RunCompleteMsg{Report: report})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	require.NotNil(t, m.report)
	assert.Equal(t, "Complete", m.phaseMessage)
	assert.Equal(t, 3, m.summary.Done)
	assert.Equal(t, 2, m.summary.Succeeded)

	m2 := newTestModel(80, nil)
	report.Summary.Cancelled = true
	m2.Update(hooks.RunCompleteMsg{Report: report})
	assert.Equal(t, "Cancelled", m2.phaseMessage)
}
