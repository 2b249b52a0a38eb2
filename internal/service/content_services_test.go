package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/pkg/logger"
)

func TestToneService_CRUD(t *testing.T) {
	b := newFakeBackend(t)
	b.handle("GET /api/v1/ai-config/tones", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    []map[string]interface{}{{"id": "t1", "name": "Warm", "prompt": "Be warm", "isActive": true}},
		})
	})
	b.handle("POST /api/v1/ai-config/tones", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true, "message": "Tone created",
			"data": map[string]interface{}{"id": "t2", "name": body["name"], "prompt": body["prompt"]},
		})
	})
	b.handle("PATCH /api/v1/ai-config/tones/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{"id": r.PathValue("id"), "name": "Calm"}})
	})
	b.handle("DELETE /api/v1/ai-config/tones/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	svc := NewToneService(b.client(), newTestValidator(), logger.Nop())
	ctx := context.Background()

	list := svc.List(ctx)
	require.True(t, list.Success)
	require.Len(t, list.Data, 1)
	assert.True(t, list.Data[0].IsActive)

	created := svc.Create(ctx, domain.ToneProfileRequest{Name: "Direct", Prompt: "Be direct"})
	require.True(t, created.Success)
	assert.Equal(t, "t2", created.Data.ID)
	assert.Equal(t, "Tone created", created.Message)

	updated := svc.Update(ctx, "t2", domain.ToneProfileRequest{Name: "Calm", Prompt: "Be calm"})
	require.True(t, updated.Success)
	assert.Equal(t, "t2", updated.Data.ID)

	assert.True(t, svc.Delete(ctx, "t2").Success)

	invalid := svc.Create(ctx, domain.ToneProfileRequest{Name: "No prompt"})
	assert.False(t, invalid.Success)
	assert.Equal(t, 1, b.count("POST /api/v1/ai-config/tones"))
}

func TestNotificationService_ListAndSend(t *testing.T) {
	b := newFakeBackend(t)
	b.handle("GET /api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"data":       []map[string]interface{}{{"id": "n1", "title": "Hi", "message": "Hello", "audience": "ALL"}},
			"pagination": map[string]int{"currentPage": 2, "totalPages": 3, "totalItems": 11, "limit": 5},
			"counts":     map[string]int{"ALL": 7, "PREMIUM": 4},
		})
	})
	b.handle("POST /api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "PREMIUM", body["audience"])
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{"id": "n2", "recipients": 4}})
	})

	svc := NewNotificationService(b.client(), newTestValidator(), time.Hour, logger.Nop())
	ctx := context.Background()

	list := svc.List(ctx, "admin-1", 2, 5)
	require.True(t, list.Success)
	assert.Equal(t, 3, list.Pagination.TotalPages)
	var counts NotificationCounts
	require.NoError(t, json.Unmarshal(list.Counts, &counts))
	assert.Equal(t, NotificationCounts{"ALL": 7, "PREMIUM": 4}, counts)

	sent := svc.Send(ctx, "admin-1", domain.NotificationSendRequest{Title: "Offer", Message: "Premium offer", Audience: domain.AudiencePremium})
	require.True(t, sent.Success)
	assert.Equal(t, 4, sent.Data.Recipients)

	invalid := svc.Send(ctx, "admin-1", domain.NotificationSendRequest{Title: "Offer", Message: "x", Audience: "EVERYONE"})
	assert.False(t, invalid.Success)
	assert.Equal(t, 1, b.count("POST /api/v1/notifications"))
}

func TestSystemRuleService_ClientPagination(t *testing.T) {
	rules := make([]map[string]interface{}, 0, 12)
	for i := 1; i <= 12; i++ {
		rules = append(rules, map[string]interface{}{
			"id": fmt.Sprintf("r%d", i), "title": fmt.Sprintf("Rule %d", i), "content": "Never share secrets", "isActive": true,
		})
	}

	b := newFakeBackend(t)
	b.handle("GET /api/v1/system-rules", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": rules})
	})
	b.handle("POST /api/v1/system-rules", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "data": map[string]interface{}{"id": "r13", "title": "Rule 13", "content": "Be kind"}})
	})
	b.handle("PATCH /api/v1/system-rules/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{"id": r.PathValue("id")}})
	})
	b.handle("DELETE /api/v1/system-rules/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Deleted"})
	})

	svc := NewSystemRuleService(b.client(), newTestValidator(), time.Hour, logger.Nop())
	ctx := context.Background()

	page := svc.List(ctx, "admin-1", RuleQuery{Page: 3, Limit: 5})
	require.True(t, page.Success)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, domain.PaginationInfo{CurrentPage: 3, TotalPages: 3, TotalItems: 12, Limit: 5}, *page.Pagination)

	require.True(t, svc.Create(ctx, "admin-1", domain.SystemRuleRequest{Title: "Rule 13", Content: "Be kind"}).Success)
	page = svc.List(ctx, "admin-1", RuleQuery{Page: 3, Limit: 5})
	assert.Len(t, page.Data, 3)

	require.True(t, svc.Update(ctx, "admin-1", "r1", domain.SystemRuleRequest{Title: "Renamed", Content: "Updated"}).Success)
	page = svc.List(ctx, "admin-1", RuleQuery{Page: 1, Limit: 5, Search: "renamed"})
	require.Len(t, page.Data, 1)
	assert.Equal(t, "r1", page.Data[0].ID)
	assert.False(t, page.Data[0].IsActive)

	// сброс поиска тоже возвращает на первую страницу
	page = svc.List(ctx, "admin-1", RuleQuery{Page: 3, Limit: 5})
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 13, page.Pagination.TotalItems)

	for _, id := range []string{"r11", "r12", "r13"} {
		require.True(t, svc.Delete(ctx, "admin-1", id).Success)
	}
	page = svc.List(ctx, "admin-1", RuleQuery{Page: 3, Limit: 5})
	assert.Equal(t, 2, page.Pagination.CurrentPage)
	assert.Equal(t, 10, page.Pagination.TotalItems)

	assert.Equal(t, 1, b.count("GET /api/v1/system-rules"))
	svc.List(ctx, "admin-1", RuleQuery{Refresh: true})
	assert.Equal(t, 2, b.count("GET /api/v1/system-rules"))
}
