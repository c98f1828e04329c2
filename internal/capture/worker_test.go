package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sudo-psc/keyai-desktop/internal/config"
	"github.com/Sudo-psc/keyai-desktop/internal/metrics"
)

func newTestStage(t *testing.T) (*Stage, Syntheticer) {
	t.Helper()
	src := NewSyntheticSource()
	cfg := config.NewStore(config.DefaultConfig())
	stage := NewStage(src, cfg, metrics.New())
	return stage, src
}

func TestStageStartStopIsIdempotent(t *testing.T) {
	stage, _ := newTestStage(t)
	ctx := context.Background()

	require.NoError(t, stage.Start(ctx))
	require.NoError(t, stage.Start(ctx)) // no-op, still running
	assert.True(t, stage.IsRunning())

	require.NoError(t, stage.Stop(ctx))
	require.NoError(t, stage.Stop(ctx)) // no-op, already stopped
	assert.False(t, stage.IsRunning())
}

func TestStageForwardsPrintablePressEvents(t *testing.T) {
	stage, src := newTestStage(t)
	ctx := context.Background()
	require.NoError(t, stage.Start(ctx))
	defer stage.Stop(ctx)

	src.SetWindow(WindowContext{Application: "notes", Title: "Untitled"})
	src.Inject(RawKeyEvent{TSMillis: 1000, KeyCode: 'a', Kind: KindPress})

	select {
	case evt := <-stage.Out():
		assert.Equal(t, "a", evt.Key)
		assert.Equal(t, "a", evt.Text)
		assert.False(t, evt.IsModifier)
		assert.Equal(t, stage.SessionID(), evt.SessionID)
		assert.NotEmpty(t, evt.SessionID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for captured event")
	}
}

func TestStageAssignsFreshSessionIDPerStart(t *testing.T) {
	stage, _ := newTestStage(t)
	ctx := context.Background()

	require.NoError(t, stage.Start(ctx))
	first := stage.SessionID()
	assert.NotEmpty(t, first)
	require.NoError(t, stage.Stop(ctx))

	require.NoError(t, stage.Start(ctx))
	second := stage.SessionID()
	require.NoError(t, stage.Stop(ctx))

	assert.NotEqual(t, first, second)
}

func TestStageDropsReleaseEvents(t *testing.T) {
	stage, src := newTestStage(t)
	ctx := context.Background()
	require.NoError(t, stage.Start(ctx))
	defer stage.Stop(ctx)

	src.Inject(RawKeyEvent{TSMillis: 1000, KeyCode: 'a', Kind: KindRelease})
	src.Inject(RawKeyEvent{TSMillis: 1001, KeyCode: 'b', Kind: KindPress})

	select {
	case evt := <-stage.Out():
		assert.Equal(t, "b", evt.Key)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for captured event")
	}
}

func TestStageFiltersIgnoredApplication(t *testing.T) {
	stage, src := newTestStage(t)
	cfg := config.DefaultConfig()
	cfg.Capture.IgnoredApplications = []string{"vault"}
	stage.cfg.Swap(cfg)

	ctx := context.Background()
	require.NoError(t, stage.Start(ctx))
	defer stage.Stop(ctx)

	src.SetWindow(WindowContext{Application: "MyVaultApp"})
	src.Inject(RawKeyEvent{TSMillis: 1, KeyCode: 'x', Kind: KindPress})

	select {
	case evt := <-stage.Out():
		t.Fatalf("expected event to be filtered, got %+v", evt)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStageFiltersModifiersWhenDisabled(t *testing.T) {
	stage, src := newTestStage(t)
	ctx := context.Background()
	require.NoError(t, stage.Start(ctx))
	defer stage.Stop(ctx)

	src.Inject(RawKeyEvent{TSMillis: 1, KeyCode: 0, Kind: KindPress}) // shift
	src.Inject(RawKeyEvent{TSMillis: 2, KeyCode: 'z', Kind: KindPress})

	select {
	case evt := <-stage.Out():
		assert.Equal(t, "z", evt.Key)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for captured event")
	}
}

func TestRingBufferDropsOldestWhenFull(t *testing.T) {
	rb := newRingBuffer(2)
	assert.False(t, rb.Push(RawKeyEvent{KeyCode: 1}))
	assert.False(t, rb.Push(RawKeyEvent{KeyCode: 2}))
	assert.True(t, rb.Push(RawKeyEvent{KeyCode: 3})) // evicts KeyCode 1

	first, ok := rb.Pop()
	require.True(t, ok)
	assert.Equal(t, uint16(2), first.KeyCode)

	second, ok := rb.Pop()
	require.True(t, ok)
	assert.Equal(t, uint16(3), second.KeyCode)

	assert.Equal(t, int64(1), rb.Dropped())
}

func TestClassifyModifierAndFunctionKeys(t *testing.T) {
	key, isMod, isFn := classify(0)
	assert.Equal(t, "shift", key)
	assert.True(t, isMod)
	assert.False(t, isFn)

	key, isMod, isFn = classify(200)
	assert.Equal(t, "f1", key)
	assert.False(t, isMod)
	assert.True(t, isFn)
}

func TestIsFunctionKeyBoundaries(t *testing.T) {
	assert.True(t, IsFunctionKey("f1"))
	assert.True(t, IsFunctionKey("f24"))
	assert.False(t, IsFunctionKey("f25"))
	assert.False(t, IsFunctionKey("f0"))
	assert.False(t, IsFunctionKey("shift"))
}
