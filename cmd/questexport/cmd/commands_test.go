package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/questexport/internal/logger"
	"github.com/dbsmedya/questexport/internal/snapshot"
)

func writeSnapshot(t *testing.T, path string, snap snapshot.Snapshot, at time.Time) {
	t.Helper()
	w := snapshot.NewWriter(logger.NewNop(), snapshot.WithClock(func() time.Time { return at }))
	require.NoError(t, w.WriteFile(snap, path))
}

func TestRunOnce_WritesSnapshot(t *testing.T) {
	env := newTestEnv(t, testFixture)

	var buf bytes.Buffer
	onceCmd.SetOut(&buf)
	defer onceCmd.SetOut(nil)

	require.NoError(t, runOnce(onceCmd, nil))

	out := buf.String()
	assert.Contains(t, out, "Quests: 2")
	assert.Contains(t, out, "Wrote: "+env.snapshotPath())

	doc, err := snapshot.Load(env.snapshotPath())
	require.NoError(t, err)
	require.Len(t, doc.Quests, 2)
	assert.Equal(t, "0x00000001", doc.Quests[0].FormID)
	assert.Equal(t, "Main Quest", doc.Quests[0].Name)
	assert.Equal(t, uint16(10), doc.Quests[0].Stage)
	assert.Equal(t, "0x00000005", doc.Quests[1].FormID)
	assert.Equal(t, "<unnamed>", doc.Quests[1].Name)
}

func TestRunOnce_FixtureFlagOverridesConfig(t *testing.T) {
	env := newTestEnv(t, testFixture)

	other := filepath.Join(env.dir, "other.yaml")
	require.NoError(t, os.WriteFile(other, []byte("runtime: 0.411.140.0\nrecords:\n  - form_id: 0x10\n    name: LOC_FN_Other\n"), 0o644))
	fixtureFile = other

	var buf bytes.Buffer
	onceCmd.SetOut(&buf)
	defer onceCmd.SetOut(nil)

	require.NoError(t, runOnce(onceCmd, nil))
	assert.Contains(t, buf.String(), "Quests: 1")
}

func TestRunOnce_EmptyRegistryWritesNothing(t *testing.T) {
	env := newTestEnv(t, "runtime: 0.411.140.0\nrecords: []\n")

	var buf bytes.Buffer
	onceCmd.SetOut(&buf)
	defer onceCmd.SetOut(nil)

	require.NoError(t, runOnce(onceCmd, nil))
	assert.Contains(t, buf.String(), "Nothing written, snapshot is empty")
	assert.NoFileExists(t, env.snapshotPath())
}

func TestRunOnce_IncompatibleRuntime(t *testing.T) {
	env := newTestEnv(t, "runtime: 0.412.0.0\nrecords:\n  - form_id: 1\n")

	err := runOnce(onceCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0.412.0.0 is not supported")
	assert.NoFileExists(t, env.snapshotPath())
}

func TestRunRun_RequiresFixture(t *testing.T) {
	env := newTestEnv(t, testFixture)
	require.NoError(t, os.WriteFile(env.config, []byte("logging:\n  output: stderr\n"), 0o644))

	err := runRun(runCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no host fixture")
}

func TestRunRun_IncompatibleRuntime(t *testing.T) {
	newTestEnv(t, "runtime: 1.0.0.0\nrecords: []\n")

	err := runRun(runCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused to load")
}

func TestRunRun_StopsWithContext(t *testing.T) {
	env := newTestEnv(t, testFixture)

	ctx, cancel := context.WithCancel(context.Background())
	runCmd.SetContext(ctx)
	defer runCmd.SetContext(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- runRun(runCmd, nil) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(env.snapshotPath())
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}

func TestRunShow(t *testing.T) {
	env := newTestEnv(t, testFixture)
	path := filepath.Join(env.dir, "snap.json")
	writeSnapshot(t, path, snapshot.Snapshot{
		{FormID: 0x1A2B3, Name: "Main Quest", Stage: 30},
		{FormID: 0xFF, Name: "<unnamed>", Stage: 0},
	}, time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	showCmd.SetOut(&buf)
	defer showCmd.SetOut(nil)

	require.NoError(t, runShow(showCmd, []string{path}))

	out := buf.String()
	assert.Contains(t, out, "Generated: 2025-05-01 12:00:00 UTC")
	assert.Contains(t, out, "Quests: 2")
	assert.Contains(t, out, "0x0001A2B3")
	assert.Contains(t, out, "Main Quest")
	assert.Contains(t, out, "<unnamed>")
}

func TestRunShow_DefaultPath(t *testing.T) {
	env := newTestEnv(t, testFixture)
	writeSnapshot(t, env.snapshotPath(), snapshot.Snapshot{{FormID: 7, Name: "Seven", Stage: 7}}, time.Now())

	var buf bytes.Buffer
	showCmd.SetOut(&buf)
	defer showCmd.SetOut(nil)

	require.NoError(t, runShow(showCmd, nil))
	assert.Contains(t, buf.String(), "Snapshot: "+env.snapshotPath())
	assert.Contains(t, buf.String(), "Seven")
}

func TestRunShow_MissingFile(t *testing.T) {
	env := newTestEnv(t, testFixture)

	err := runShow(showCmd, []string{filepath.Join(env.dir, "nope.json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open snapshot")
}

func TestRunDiff(t *testing.T) {
	env := newTestEnv(t, testFixture)
	before := filepath.Join(env.dir, "before.json")
	after := filepath.Join(env.dir, "after.json")
	now := time.Now()

	writeSnapshot(t, before, snapshot.Snapshot{
		{FormID: 1, Name: "One", Stage: 10},
		{FormID: 2, Name: "Two", Stage: 5},
	}, now)
	writeSnapshot(t, after, snapshot.Snapshot{
		{FormID: 1, Name: "One", Stage: 20},
		{FormID: 3, Name: "Three", Stage: 0},
	}, now.Add(45*time.Second))

	var buf bytes.Buffer
	diffCmd.SetOut(&buf)
	defer diffCmd.SetOut(nil)

	require.NoError(t, runDiff(diffCmd, []string{before, after}))

	out := buf.String()
	assert.Contains(t, out, "advanced")
	assert.Contains(t, out, "10 -> 20")
	assert.Contains(t, out, "added")
	assert.Contains(t, out, "removed")
	assert.Contains(t, out, "5 -> -")
}

func TestRunDiff_NoChanges(t *testing.T) {
	env := newTestEnv(t, testFixture)
	path := filepath.Join(env.dir, "same.json")
	writeSnapshot(t, path, snapshot.Snapshot{{FormID: 1, Name: "One", Stage: 10}}, time.Now())

	var buf bytes.Buffer
	diffCmd.SetOut(&buf)
	defer diffCmd.SetOut(nil)

	require.NoError(t, runDiff(diffCmd, []string{path, path}))
	assert.Contains(t, buf.String(), "No changes")
}

func TestSnapshotWatcher_Refresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quest_progress.json")

	var buf bytes.Buffer
	sw := &snapshotWatcher{path: path, out: &buf, style: newTableStyle(false)}

	sw.refresh()
	assert.Empty(t, buf.String(), "missing file is skipped silently")

	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	writeSnapshot(t, path, snapshot.Snapshot{{FormID: 1, Name: "One", Stage: 10}}, base)
	sw.refresh()
	assert.Contains(t, buf.String(), "1 quests")

	buf.Reset()
	writeSnapshot(t, path, snapshot.Snapshot{{FormID: 1, Name: "One", Stage: 20}}, base.Add(45*time.Second))
	require.NoError(t, os.Chtimes(path, base.Add(time.Hour), base.Add(time.Hour)))
	sw.refresh()

	out := buf.String()
	assert.Contains(t, out, "2025-05-01 12:00:45 UTC: 1 changes")
	assert.Contains(t, out, "10 -> 20")
}

func TestSnapshotWatcher_LoopFiltersEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quest_progress.json")
	writeSnapshot(t, path, snapshot.Snapshot{{FormID: 1, Name: "One", Stage: 1}}, time.Now())

	var buf bytes.Buffer
	sw := &snapshotWatcher{path: path, out: &buf, style: newTableStyle(false)}

	events := make(chan fsnotify.Event, 2)
	errs := make(chan error)

	events <- fsnotify.Event{Name: filepath.Join(dir, "other.json"), Op: fsnotify.Write}
	events <- fsnotify.Event{Name: path, Op: fsnotify.Create}
	close(events)

	require.NoError(t, sw.loop(context.Background(), events, errs, time.Hour))
	assert.True(t, sw.loaded)
	assert.Equal(t, 1, strings.Count(buf.String(), "quests"))
}

func TestRenderSnapshot_PadsWideNames(t *testing.T) {
	var buf bytes.Buffer
	renderSnapshot(&buf, snapshot.Snapshot{
		{FormID: 1, Name: "クエスト", Stage: 1},
		{FormID: 2, Name: "Quest", Stage: 2},
	}, newTableStyle(false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines[1:] {
		assert.Equal(t, runewidth.StringWidth(lines[0]), runewidth.StringWidth(line), line)
	}
}

func TestCell_Truncates(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := cell(long, 10)
	assert.Equal(t, "xxxxxxx...", got)
	assert.Equal(t, "ab        ", cell("ab", 10))
}
