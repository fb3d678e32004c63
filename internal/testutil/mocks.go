// Package testutil provides mock implementations for interfaces defined in the
// tile-converter core library (pkg/converter and subpackages) and filesystem
// fixtures for tests.
package testutil

import (
	"context"
	"time"

	"github.com/stackvity/tile-converter/pkg/converter"
	"github.com/stackvity/tile-converter/pkg/converter/tile"
	"github.com/stackvity/tile-converter/pkg/converter/tool"
	"github.com/stretchr/testify/mock"
)

// MockHooks provides a mock implementation of the converter.Hooks interface.
// Configure expectations using testify/mock methods (e.g., .On("OnTileStatusUpdate", ...).Return(...)).
// IMPORTANT: hooks are invoked concurrently from workers; tests adding state
// to this mock must guard it themselves.
type MockHooks struct {
	mock.Mock
}

// OnTileQueued mocks the OnTileQueued method.
func (m *MockHooks) OnTileQueued(path string, action converter.Action) error {
	args := m.Called(path, action)
	return args.Error(0)
}

// OnTileStatusUpdate mocks the OnTileStatusUpdate method.
func (m *MockHooks) OnTileStatusUpdate(path string, status converter.Status, message string, duration time.Duration) error {
	args := m.Called(path, status, message, duration)
	return args.Error(0)
}

// OnRunComplete mocks the OnRunComplete method.
func (m *MockHooks) OnRunComplete(report converter.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

// MockOperator provides a mock implementation of the converter.Operator interface.
type MockOperator struct {
	mock.Mock
}

// Convert mocks the Convert method.
func (m *MockOperator) Convert(ctx context.Context, t *tile.Tile) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// Undo mocks the Undo method.
func (m *MockOperator) Undo(ctx context.Context, t *tile.Tile) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// Cleanup mocks the Cleanup method.
func (m *MockOperator) Cleanup(ctx context.Context, t *tile.Tile) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// MockToolRunner provides a mock implementation of the tool.Runner interface.
type MockToolRunner struct {
	mock.Mock
}

// Run mocks the Run method. Variadic args are recorded as one []string.
func (m *MockToolRunner) Run(ctx context.Context, name string, args ...string) (result tool.Result, err error) {
	called := m.Called(ctx, name, args)
	result, _ = called.Get(0).(tool.Result)
	err = called.Error(1)
	return
}
