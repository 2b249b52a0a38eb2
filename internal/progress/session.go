// Package progress отслеживает длительные операции бэкенда: создает идентификатор сессии,
// опрашивает эндпоинт прогресса и хранит состояние сессии для дашборда.
package progress

import (
	"fmt"
	"math"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/pryve/pryve-admin/internal/domain"
)

const sessionAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID возвращает идентификатор вида session_<epoch-ms>_<9 символов>
func NewSessionID(now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(sessionAlphabet, 9)
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), suffix), nil
}

// DeriveProgress возвращает процент выполнения в диапазоне [0, 100].
// Явное значение сервера используется как есть, иначе считается по чанкам.
func DeriveProgress(p domain.ProgressPayload) int {
	if p.Progress != nil {
		return clampPercent(math.Round(*p.Progress))
	}
	if p.TotalChunks <= 0 {
		return 0
	}
	return clampPercent(math.Round(float64(p.ProcessedChunks) / float64(p.TotalChunks) * 100))
}

func clampPercent(v float64) int {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v)
	}
}
