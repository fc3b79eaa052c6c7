package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"reveal/internal/decision"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const waitFor = 5 * time.Second

func next(t *testing.T, ch <-chan *decision.WireNudgeDecision) *decision.WireNudgeDecision {
	t.Helper()
	select {
	case d, ok := <-ch:
		require.True(t, ok, "channel closed")
		return d
	case <-time.After(waitFor):
		t.Fatal("no decision published")
		return nil
	}
}

func quiet(t *testing.T, ch <-chan *decision.WireNudgeDecision, d time.Duration) {
	t.Helper()
	select {
	case got := <-ch:
		t.Fatalf("unexpected decision %+v", got)
	case <-time.After(d):
	}
}

func startFile(t *testing.T, path string) *FileSource {
	t.Helper()
	src, err := NewFileSource(path)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, src.Start(ctx))
	t.Cleanup(func() {
		src.Stop()
		cancel()
	})
	return src
}

func TestFileSourceLoadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decision.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"nudgeId":"n1","templateId":"tooltip"}`), 0644))

	src := startFile(t, path)
	d := next(t, src.Decisions())
	require.NotNil(t, d)
	assert.Equal(t, "n1", d.NudgeID)
}

func TestFileSourcePublishesChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions", "current.json")
	src := startFile(t, path)

	require.NoError(t, os.WriteFile(path, []byte(`{"nudgeId":"n1","templateId":"banner"}`), 0644))
	d := next(t, src.Decisions())
	require.NotNil(t, d)
	assert.Equal(t, decision.TemplateBanner, d.TemplateID)

	// Same bytes again: nothing new.
	require.NoError(t, os.WriteFile(path, []byte(`{"nudgeId":"n1","templateId":"banner"}`), 0644))
	quiet(t, src.Decisions(), 300*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(`{"nudgeId":"n2","templateId":"banner"}`), 0644))
	d = next(t, src.Decisions())
	require.NotNil(t, d)
	assert.Equal(t, "n2", d.NudgeID)

	require.NoError(t, os.Remove(path))
	assert.Nil(t, next(t, src.Decisions()))
}

func TestFileSourceSkipsInvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decision.json")
	src := startFile(t, path)

	require.NoError(t, os.WriteFile(path, []byte(`{"templateId":"tooltip"}`), 0644))
	quiet(t, src.Decisions(), 300*time.Millisecond)
	assert.GreaterOrEqual(t, src.Stats().DecodeErrors, 1)

	require.NoError(t, os.WriteFile(path, []byte(`{"nudgeId":"ok","templateId":"tooltip"}`), 0644))
	d := next(t, src.Decisions())
	require.NotNil(t, d)
	assert.Equal(t, "ok", d.NudgeID)
}

func TestFileSourceIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	src := startFile(t, filepath.Join(dir, "decision.json"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{"nudgeId":"x","templateId":"tooltip"}`), 0644))
	quiet(t, src.Decisions(), 300*time.Millisecond)
}

func TestFileSourceStopClosesChannel(t *testing.T) {
	src, err := NewFileSource(filepath.Join(t.TempDir(), "decision.json"))
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))
	require.NoError(t, src.Start(context.Background()), "second start is a no-op")

	src.Stop()
	src.Stop()
	_, ok := <-src.Decisions()
	assert.False(t, ok)
}

func TestFileSourceStopWithoutStartReleasesWatcher(t *testing.T) {
	src, err := NewFileSource(filepath.Join(t.TempDir(), "decision.json"))
	require.NoError(t, err)
	src.Stop()
	src.Stop()
	goleak.VerifyNone(t)
}

func TestFileSourceFailedStartReleasesWatcher(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	src, err := NewFileSource(filepath.Join(blocker, "decision.json"))
	require.NoError(t, err)
	assert.Error(t, src.Start(context.Background()))
	src.Stop()
	goleak.VerifyNone(t)
}

func TestChannelSourceAndForward(t *testing.T) {
	src := NewChannelSource(2)
	ctx := context.Background()
	require.NoError(t, src.Publish(ctx, &decision.WireNudgeDecision{NudgeID: "n1", TemplateID: decision.TemplateTooltip}))
	require.NoError(t, src.Publish(ctx, nil))
	src.Close()
	src.Close()

	var got []*decision.WireNudgeDecision
	require.NoError(t, Forward(ctx, src, func(d *decision.WireNudgeDecision) { got = append(got, d) }))
	require.Len(t, got, 2)
	assert.Equal(t, "n1", got[0].NudgeID)
	assert.Nil(t, got[1])

	assert.ErrorIs(t, src.Publish(ctx, nil), ErrClosed)
}

func TestPublishHonoursContext(t *testing.T) {
	src := NewChannelSource(0)
	t.Cleanup(src.Close)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, src.Publish(ctx, nil), context.DeadlineExceeded)
}

func TestForwardStopsOnCancel(t *testing.T) {
	src := NewChannelSource(0)
	t.Cleanup(src.Close)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Forward(ctx, src, func(*decision.WireNudgeDecision) {}), context.Canceled)
}
