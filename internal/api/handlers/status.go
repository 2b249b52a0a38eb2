package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/notify"
	"github.com/pryve/pryve-admin/internal/service"
	"github.com/pryve/pryve-admin/pkg/loading"
	"github.com/pryve/pryve-admin/pkg/logger"
)

const healthTimeout = 2 * time.Second

// Pinger проверяет доступность зависимости
type Pinger interface {
	Ping(ctx context.Context) error
}

// LoadingState - число выполняющихся запросов к бэкенду
type LoadingState struct {
	InFlight int  `json:"inFlight"`
	Loading  bool `json:"loading"`
}

// StatusHandler отдает служебное состояние шлюза: индикатор загрузки, уведомления,
// сводку аналитики и health-check
type StatusHandler struct {
	BaseHandler
	loading   *loading.Counter
	feed      *notify.Feed
	analytics *service.AnalyticsService
	pingers   map[string]Pinger
}

// NewStatusHandler создает новый экземпляр StatusHandler. pingers проверяются в Health.
func NewStatusHandler(base BaseHandler, counter *loading.Counter, feed *notify.Feed,
	analytics *service.AnalyticsService, pingers map[string]Pinger) *StatusHandler {
	return &StatusHandler{
		BaseHandler: base,
		loading:     counter,
		feed:        feed,
		analytics:   analytics,
		pingers:     pingers,
	}
}

// Loading возвращает число запросов к бэкенду, которые еще не завершились
func (h *StatusHandler) Loading(w http.ResponseWriter, r *http.Request) {
	n := h.loading.Count()
	respond(&h.BaseHandler, w, r, apiclient.OK("", LoadingState{InFlight: n, Loading: n > 0}))
}

// Notices отдает накопившиеся уведомления администратора
func (h *StatusHandler) Notices(w http.ResponseWriter, r *http.Request) {
	notices := h.feed.Pending(h.GetOwner(r))
	if notices == nil {
		notices = []notify.Notice{}
	}
	respond(&h.BaseHandler, w, r, apiclient.OK("", notices))
}

// Overview возвращает сводку аналитики. refresh=true пропускает кеш.
func (h *StatusHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if queryBool(r, "refresh") {
		respond(&h.BaseHandler, w, r, h.analytics.Refresh(r.Context()))
		return
	}
	respond(&h.BaseHandler, w, r, h.analytics.Overview(r.Context()))
}

// Health проверяет зависимости шлюза
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.pingers))
	status := http.StatusOK
	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			h.Logger.Warn("Health check failed", logger.Fields{"dependency": name, "error": err.Error()})
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]interface{}{"status": "OK", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "DEGRADED"
	}
	h.Respond(w, r, status, body)
}
