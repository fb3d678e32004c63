package testutil_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stackvity/tile-converter/internal/testutil"
	"github.com/stackvity/tile-converter/pkg/converter/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketDir(t *testing.T) {
	assert.Equal(t, "+50+000", testutil.BucketDir("+51+009"))
	assert.Equal(t, "-40-080", testutil.BucketDir("-34-071"))
	assert.Equal(t, "+50-010", testutil.BucketDir("+50-010"))
}

func TestFakeTools_CopiesThroughCodecAndArchiver(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.dsf")
	testutil.CreateDummyFile(t, src, testutil.OverlayTile)
	f := testutil.NewFakeTools()

	codec := tool.Codec{Runner: f, Path: "DSFTool", DecodeFlag: "-dsf2text", EncodeFlag: "-text2dsf"}
	require.NoError(t, codec.Decode(context.Background(), src, filepath.Join(dir, "a.txt")))
	arch := tool.Archiver{Runner: f, Path: "7z", Args: []string{"a", "-t7z"}}
	require.NoError(t, arch.Add(context.Background(), filepath.Join(dir, "a.7z"), filepath.Join(dir, "a.txt")))

	assert.Equal(t, testutil.OverlayTile, testutil.ReadFile(t, filepath.Join(dir, "a.7z")))
	assert.Equal(t, 2, len(f.Calls()))
	assert.Equal(t, 1, f.CountCalls("-dsf2text"))
}

func TestFakeTools_FailAndUnknownTool(t *testing.T) {
	f := testutil.NewFakeTools()
	f.Fail = func(name string, args []string) error { return errors.New("boom") }
	_, err := f.Run(context.Background(), "DSFTool", "-dsf2text", "a", "b")
	assert.True(t, errors.Is(err, tool.ErrNonZeroExit))

	f.Fail = nil
	_, err = f.Run(context.Background(), "unknown", "a", "b")
	assert.True(t, errors.Is(err, tool.ErrToolNotFound))
}
