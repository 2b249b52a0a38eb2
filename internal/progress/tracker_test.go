package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/pkg/logger"
)

const surface = "admin-1:system-prompt"

func newTestTracker(t *testing.T, fetcher StatusFetcher, clearDelay time.Duration) (*Tracker, *recordingNotifier, *recordingSink) {
	t.Helper()
	notifier := &recordingNotifier{}
	sink := &recordingSink{}
	poller := newTestPoller(fetcher, 5*time.Millisecond, 0)

	tracker := NewTracker(surface, poller, notifier, sink, clearDelay, logger.Nop())
	t.Cleanup(tracker.Close)
	return tracker, notifier, sink
}

func TestTracker_BeginCreatesInitializingSession(t *testing.T) {
	tracker, notifier, sink := newTestTracker(t, newScriptedFetcher(uploading(0, 1)), time.Second)

	id, err := tracker.Begin("")
	require.NoError(t, err)

	session, ok := tracker.Snapshot()
	require.True(t, ok)
	assert.Equal(t, id, session.SessionID)
	assert.Equal(t, domain.ProgressInitializing, session.Status)
	assert.Zero(t, session.Progress)
	assert.Equal(t, PreparingMessage, session.Message)
	assert.Equal(t, id, tracker.Active())

	assert.Equal(t, notice{kind: "loading", key: surface, message: PreparingMessage}, notifier.last())
	require.Eventually(t, func() bool { return len(sink.statuses()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []domain.ProgressStatus{domain.ProgressInitializing}, sink.statuses())
}

func TestTracker_CompletedClearsAfterDelay(t *testing.T) {
	fetcher := newScriptedFetcher(
		uploading(3, 10),
		jsonResponse(http.StatusOK, `{"success":true,"status":"completed","totalChunks":10,"processedChunks":10}`),
	)
	clearDelay := 150 * time.Millisecond
	tracker, notifier, sink := newTestTracker(t, fetcher, clearDelay)

	id, err := tracker.Begin("Uploading system prompt...")
	require.NoError(t, err)
	require.True(t, tracker.Start("token", id))

	require.Eventually(t, func() bool {
		session, ok := tracker.Snapshot()
		return ok && session.Status == domain.ProgressCompleted
	}, time.Second, time.Millisecond)
	completedAt := time.Now()

	session, _ := tracker.Snapshot()
	assert.Equal(t, 100, session.Progress)
	assert.Equal(t, 10, session.ProcessedChunks)

	require.Eventually(t, func() bool {
		_, ok := tracker.Snapshot()
		return !ok
	}, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(completedAt), clearDelay-20*time.Millisecond)

	// опрос остановился на терминальном ответе
	assert.Equal(t, int32(2), fetcher.calls.Load())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), fetcher.calls.Load())

	assert.Equal(t, []string{"loading", "success"}, notifier.kinds())
	assert.Equal(t, CompletedMessage, notifier.last().message)
	require.Eventually(t, func() bool { return len(sink.statuses()) == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, []domain.ProgressStatus{
		domain.ProgressInitializing,
		domain.ProgressUploading,
		domain.ProgressCompleted,
	}, sink.statuses())
}

func TestTracker_ErrorClearsImmediately(t *testing.T) {
	fetcher := newScriptedFetcher(
		jsonResponse(http.StatusOK, `{"success":true,"status":"error","error":"Embedding failed"}`),
	)
	tracker, notifier, _ := newTestTracker(t, fetcher, time.Minute)

	id, err := tracker.Begin("")
	require.NoError(t, err)
	require.True(t, tracker.Start("token", id))

	require.Eventually(t, func() bool { return tracker.Active() == "" }, time.Second, time.Millisecond)
	assert.Equal(t, notice{kind: "error", key: surface, message: "Embedding failed"}, notifier.last())
}

func TestTracker_NotFoundDismissesSilently(t *testing.T) {
	fetcher := newScriptedFetcher(jsonResponse(http.StatusNotFound, `{"success":false,"message":"Session not found"}`))
	tracker, notifier, _ := newTestTracker(t, fetcher, time.Minute)

	id, err := tracker.Begin("")
	require.NoError(t, err)
	require.True(t, tracker.Start("token", id))

	require.Eventually(t, func() bool { return tracker.Active() == "" }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"loading", "dismiss"}, notifier.kinds())
}

func TestTracker_EmptyTokenAbortsWithoutPolling(t *testing.T) {
	fetcher := newScriptedFetcher(uploading(1, 2))
	tracker, notifier, _ := newTestTracker(t, fetcher, time.Minute)

	id, err := tracker.Begin("")
	require.NoError(t, err)
	require.True(t, tracker.Start("", id))

	require.Eventually(t, func() bool { return tracker.Active() == "" }, time.Second, time.Millisecond)
	assert.Zero(t, fetcher.calls.Load())
	assert.Equal(t, "error", notifier.last().kind)
}

func TestTracker_FailTearsDownBeforePolling(t *testing.T) {
	fetcher := newScriptedFetcher(uploading(1, 2))
	tracker, notifier, _ := newTestTracker(t, fetcher, time.Minute)

	id, err := tracker.Begin("")
	require.NoError(t, err)

	tracker.Fail(id, "Prompt too large")

	_, ok := tracker.Snapshot()
	assert.False(t, ok)
	assert.False(t, tracker.Start("token", id))
	assert.Zero(t, fetcher.calls.Load())
	assert.Equal(t, notice{kind: "error", key: surface, message: "Prompt too large"}, notifier.last())
}

func TestTracker_StaleUpdateIsDiscarded(t *testing.T) {
	tracker, _, _ := newTestTracker(t, newScriptedFetcher(uploading(0, 1)), time.Minute)

	first, err := tracker.Begin("")
	require.NoError(t, err)
	second, err := tracker.Begin("")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// поздний ответ вытесненной сессии
	tracker.apply(first, domain.ProgressPayload{Status: domain.ProgressUploading, ProcessedChunks: 9, TotalChunks: 10})
	// ответ, в котором сервер указал чужую сессию
	tracker.apply(second, domain.ProgressPayload{SessionID: first, Status: domain.ProgressUploading, ProcessedChunks: 9, TotalChunks: 10})

	session, ok := tracker.Snapshot()
	require.True(t, ok)
	assert.Equal(t, second, session.SessionID)
	assert.Equal(t, domain.ProgressInitializing, session.Status)
	assert.Zero(t, session.Progress)
}

func TestTracker_SupersededLoopStops(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	fetcher := StatusFetcherFunc(func(_ context.Context, _, sessionID string) apiclient.Response[json.RawMessage] {
		mu.Lock()
		seen[sessionID]++
		mu.Unlock()
		return uploading(1, 10)
	})
	tracker, _, _ := newTestTracker(t, fetcher, time.Minute)

	first, err := tracker.Begin("")
	require.NoError(t, err)
	require.True(t, tracker.Start("token", first))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[first] >= 2
	}, time.Second, time.Millisecond)

	second, err := tracker.Begin("")
	require.NoError(t, err)
	require.True(t, tracker.Start("token", second))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[second] >= 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	firstCalls := seen[first]
	mu.Unlock()
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, seen[first], firstCalls+1)
	assert.Equal(t, second, tracker.Active())
}

func TestTracker_CloseStopsEverything(t *testing.T) {
	fetcher := newScriptedFetcher(uploading(1, 10))
	tracker, _, _ := newTestTracker(t, fetcher, time.Minute)

	id, err := tracker.Begin("")
	require.NoError(t, err)
	require.True(t, tracker.Start("token", id))
	require.Eventually(t, func() bool { return fetcher.calls.Load() >= 1 }, time.Second, time.Millisecond)

	tracker.Close()
	calls := fetcher.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, fetcher.calls.Load())

	tracker.apply(id, domain.ProgressPayload{Status: domain.ProgressUploading, ProcessedChunks: 5, TotalChunks: 10})
	_, ok := tracker.Snapshot()
	assert.False(t, ok)

	_, err = tracker.Begin("")
	assert.ErrorIs(t, err, ErrTrackerClosed)
	assert.False(t, tracker.Start("token", id))
}

func TestRegistry(t *testing.T) {
	poller := newTestPoller(newScriptedFetcher(uploading(0, 1)), time.Millisecond, 0)
	registry := NewRegistry(poller, &recordingNotifier{}, nil, time.Second, logger.Nop())

	a := registry.Tracker("admin-1:system-prompt")
	assert.Same(t, a, registry.Tracker("admin-1:system-prompt"))
	assert.NotSame(t, a, registry.Tracker("admin-2:system-prompt"))

	_, err := a.Begin("")
	require.NoError(t, err)

	registry.Release("admin-1:system-prompt")
	_, err = a.Begin("")
	assert.ErrorIs(t, err, ErrTrackerClosed)

	registry.Close()
	_, err = registry.Tracker("admin-3:system-prompt").Begin("")
	assert.ErrorIs(t, err, ErrTrackerClosed)
}

func TestTracker_BlockedSinkDoesNotStallPolling(t *testing.T) {
	fetcher := newScriptedFetcher(uploading(1, 100))
	sink := &blockingSink{release: make(chan struct{})}
	poller := NewPoller(fetcher, PollerConfig{Interval: 5 * time.Millisecond, MaxDuration: 5 * time.Second}, logger.Nop())
	tracker := NewTracker(surface, poller, &recordingNotifier{}, sink, time.Second, logger.Nop())
	t.Cleanup(tracker.Close)

	started := time.Now()
	id, err := tracker.Begin("")
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 100*time.Millisecond)

	require.True(t, tracker.Start("token", id))

	// получатель завис на первом событии, а опрос продолжает идти
	require.Eventually(t, func() bool { return fetcher.calls.Load() >= 10 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), sink.calls.Load())

	close(sink.release)
	require.Eventually(t, func() bool { return sink.calls.Load() > 1 }, time.Second, time.Millisecond)
}

func TestTracker_CloseStopsBlockedDelivery(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	poller := NewPoller(newScriptedFetcher(uploading(0, 1)), PollerConfig{Interval: time.Second, MaxDuration: time.Minute}, logger.Nop())
	tracker := NewTracker(surface, poller, &recordingNotifier{}, sink, time.Second, logger.Nop())

	_, err := tracker.Begin("")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sink.calls.Load() == 1 }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		tracker.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close waited for a blocked sink")
	}
}
