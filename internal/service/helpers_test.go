package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/pkg/logger"
	"github.com/pryve/pryve-admin/pkg/validator"
)

const testToken = "admin-token"

// fakeBackend - REST API Pryve на httptest с подсчетом обращений по шаблону маршрута
type fakeBackend struct {
	t      *testing.T
	mux    *http.ServeMux
	server *httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{t: t, mux: http.NewServeMux(), hits: make(map[string]int)}
	b.server = httptest.NewServer(b.mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) handle(pattern string, h http.HandlerFunc) {
	b.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[pattern]++
		b.mu.Unlock()
		h(w, r)
	})
}

func (b *fakeBackend) count(pattern string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[pattern]
}

func (b *fakeBackend) client() *apiclient.Client {
	return apiclient.New(apiclient.Config{
		BaseURL:      b.server.URL,
		Timeout:      2 * time.Second,
		RetryMax:     1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
	}, logger.Nop())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Errorf("decode request body: %v", err)
	}
	return body
}

func newTestValidator() *validator.CustomValidator {
	return validator.NewValidator()
}
