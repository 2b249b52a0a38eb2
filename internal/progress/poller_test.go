package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/pkg/logger"
)

func newTestPoller(fetcher StatusFetcher, interval, maxDuration time.Duration) *Poller {
	return NewPoller(fetcher, PollerConfig{Interval: interval, MaxDuration: maxDuration}, logger.Nop())
}

func collect(updates *[]domain.ProgressPayload) func(domain.ProgressPayload) {
	return func(p domain.ProgressPayload) { *updates = append(*updates, p) }
}

func TestPoller_StopsOnCompleted(t *testing.T) {
	fetcher := newScriptedFetcher(
		uploading(3, 10),
		uploading(7, 10),
		jsonResponse(http.StatusOK, `{"success":true,"status":"completed","totalChunks":10,"processedChunks":10,"message":"Done"}`),
		uploading(0, 10),
	)

	var updates []domain.ProgressPayload
	outcome := newTestPoller(fetcher, 5*time.Millisecond, 0).Run(context.Background(), "token", "session_1", collect(&updates))

	assert.Equal(t, Outcome{Reason: ReasonCompleted, Message: "Done"}, outcome)
	assert.Equal(t, int32(3), fetcher.calls.Load())
	require.Len(t, updates, 3)
	assert.Equal(t, 30, DeriveProgress(updates[0]))
	assert.Equal(t, domain.ProgressCompleted, updates[2].Status)
}

func TestPoller_FirstPollIsImmediate(t *testing.T) {
	fetcher := newScriptedFetcher(jsonResponse(http.StatusOK, `{"success":true,"status":"completed"}`))

	start := time.Now()
	outcome := newTestPoller(fetcher, time.Hour, 0).Run(context.Background(), "token", "session_1", func(domain.ProgressPayload) {})

	assert.Equal(t, ReasonCompleted, outcome.Reason)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPoller_NotFoundIsBenign(t *testing.T) {
	fetcher := newScriptedFetcher(jsonResponse(http.StatusNotFound, `{"success":false,"message":"Session not found"}`))

	var updates []domain.ProgressPayload
	outcome := newTestPoller(fetcher, 5*time.Millisecond, 0).Run(context.Background(), "token", "session_1", collect(&updates))

	assert.Equal(t, ReasonExpired, outcome.Reason)
	assert.Empty(t, outcome.Message)
	assert.Empty(t, updates)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestPoller_ServerError(t *testing.T) {
	tests := []struct {
		name    string
		resp    apiclient.Response[json.RawMessage]
		message string
	}{
		{
			name:    "error status with detail",
			resp:    jsonResponse(http.StatusOK, `{"success":true,"status":"error","error":"Embedding failed"}`),
			message: "Embedding failed",
		},
		{
			name:    "error status without detail",
			resp:    jsonResponse(http.StatusOK, `{"success":true,"status":"error"}`),
			message: DefaultFailureMessage,
		},
		{
			name:    "explicit failure envelope with error status",
			resp:    jsonResponse(http.StatusOK, `{"success":false,"status":"error","message":"Processing failed","error":"chunk 4 rejected"}`),
			message: "chunk 4 rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newScriptedFetcher(tt.resp)
			outcome := newTestPoller(fetcher, 5*time.Millisecond, 0).Run(context.Background(), "token", "session_1", func(domain.ProgressPayload) {})

			assert.Equal(t, ReasonFailed, outcome.Reason)
			assert.Equal(t, tt.message, outcome.Message)
			assert.Equal(t, int32(1), fetcher.calls.Load())
		})
	}
}

func TestPoller_TransientErrorsContinue(t *testing.T) {
	fetcher := newScriptedFetcher(
		apiclient.Failure[json.RawMessage](apiclient.NetworkErrorMessage, "connection refused"),
		apiclient.Normalize(http.StatusBadGateway, "text/html", []byte("<html>bad gateway</html>")),
		jsonResponse(http.StatusInternalServerError, `{"message":"boom"}`),
		jsonResponse(http.StatusOK, `{"success":true,"status":"completed"}`),
	)

	var updates []domain.ProgressPayload
	outcome := newTestPoller(fetcher, 2*time.Millisecond, 0).Run(context.Background(), "token", "session_1", collect(&updates))

	assert.Equal(t, ReasonCompleted, outcome.Reason)
	assert.Equal(t, int32(4), fetcher.calls.Load())
	assert.Len(t, updates, 1)
}

func TestPoller_EmptyTokenAborts(t *testing.T) {
	fetcher := newScriptedFetcher(uploading(1, 2))

	outcome := newTestPoller(fetcher, 2*time.Millisecond, 0).Run(context.Background(), "", "session_1", func(domain.ProgressPayload) {})

	assert.Equal(t, ReasonUnauthenticated, outcome.Reason)
	assert.Zero(t, fetcher.calls.Load())
}

func TestPoller_Cancelled(t *testing.T) {
	fetcher := newScriptedFetcher(uploading(1, 10))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan Outcome, 1)
	go func() {
		done <- newTestPoller(fetcher, 2*time.Millisecond, 0).Run(ctx, "token", "session_1", func(domain.ProgressPayload) {})
	}()

	require.Eventually(t, func() bool { return fetcher.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case outcome := <-done:
		assert.Equal(t, ReasonCancelled, outcome.Reason)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}

func TestPoller_MaxDuration(t *testing.T) {
	fetcher := newScriptedFetcher(uploading(1, 10))

	outcome := newTestPoller(fetcher, 2*time.Millisecond, 30*time.Millisecond).Run(context.Background(), "token", "session_1", func(domain.ProgressPayload) {})

	assert.Equal(t, ReasonTimedOut, outcome.Reason)
	assert.Equal(t, TimedOutMessage, outcome.Message)
}
