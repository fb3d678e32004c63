package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewRootCmd ensures the command tree builds without panicking and can be
// built more than once, which the other tests rely on.
func TestNewRootCmd(t *testing.T) {
	assert.NotPanics(t, func() {
		first := newRootCmd()
		second := newRootCmd()
		assert.NotSame(t, first, second)
		assert.Len(t, first.Commands(), 5)
	})
}
