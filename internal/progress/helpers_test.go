package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
)

// scriptedFetcher отдает ответы по очереди, последний повторяется
type scriptedFetcher struct {
	calls     atomic.Int32
	mu        sync.Mutex
	responses []apiclient.Response[json.RawMessage]
}

func newScriptedFetcher(responses ...apiclient.Response[json.RawMessage]) *scriptedFetcher {
	return &scriptedFetcher{responses: responses}
}

func (f *scriptedFetcher) FetchProgress(_ context.Context, _, _ string) apiclient.Response[json.RawMessage] {
	n := int(f.calls.Add(1))

	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.responses) {
		return f.responses[len(f.responses)-1]
	}
	return f.responses[n-1]
}

func jsonResponse(status int, body string) apiclient.Response[json.RawMessage] {
	return apiclient.Normalize(status, "application/json", []byte(body))
}

func uploading(processed, total int) apiclient.Response[json.RawMessage] {
	payload, _ := json.Marshal(domain.ProgressPayload{
		Success:         true,
		Status:          domain.ProgressUploading,
		ProcessedChunks: processed,
		TotalChunks:     total,
	})
	return apiclient.Normalize(http.StatusOK, "application/json", payload)
}

type notice struct {
	kind    string
	key     string
	message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) add(kind, key, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{kind: kind, key: key, message: message})
}

func (n *recordingNotifier) Loading(key, message string) { n.add("loading", key, message) }
func (n *recordingNotifier) Success(key, message string) { n.add("success", key, message) }
func (n *recordingNotifier) Error(key, message string)   { n.add("error", key, message) }
func (n *recordingNotifier) Dismiss(key string)          { n.add("dismiss", key, "") }

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	kinds := make([]string, 0, len(n.notices))
	for _, item := range n.notices {
		kinds = append(kinds, item.kind)
	}
	return kinds
}

func (n *recordingNotifier) last() notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.notices) == 0 {
		return notice{}
	}
	return n.notices[len(n.notices)-1]
}

type recordingSink struct {
	mu       sync.Mutex
	sessions []domain.ProgressSession
}

func (s *recordingSink) SessionChanged(_ context.Context, _ string, session domain.ProgressSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, session)
}

func (s *recordingSink) statuses() []domain.ProgressStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ProgressStatus, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session.Status)
	}
	return out
}

// blockingSink зависает на каждом событии, пока не закрыт release или не отменен ctx
type blockingSink struct {
	calls   atomic.Int32
	release chan struct{}
}

func (s *blockingSink) SessionChanged(ctx context.Context, _ string, _ domain.ProgressSession) {
	s.calls.Add(1)
	select {
	case <-s.release:
	case <-ctx.Done():
	}
}
