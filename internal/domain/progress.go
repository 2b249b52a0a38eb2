package domain

// ProgressStatus - состояние длительной операции загрузки
type ProgressStatus string

const (
	// ProgressInitializing - клиент создал идентификатор сессии и отправляет запрос
	ProgressInitializing ProgressStatus = "initializing"
	// ProgressUploading - сервер подтвердил сессию и сообщает о прогрессе
	ProgressUploading ProgressStatus = "uploading"
	// ProgressCompleted - операция завершена (терминальное состояние)
	ProgressCompleted ProgressStatus = "completed"
	// ProgressError - операция завершилась ошибкой (терминальное состояние)
	ProgressError ProgressStatus = "error"
)

// IsTerminal сообщает, является ли состояние конечным
func (s ProgressStatus) IsTerminal() bool {
	return s == ProgressCompleted || s == ProgressError
}

// ProgressSession представляет одну выполняющуюся длительную операцию
type ProgressSession struct {
	SessionID       string         `json:"sessionId"`
	Status          ProgressStatus `json:"status"`
	Progress        int            `json:"progress"`
	TotalChunks     int            `json:"totalChunks"`
	ProcessedChunks int            `json:"processedChunks"`
	CurrentBatch    int            `json:"currentBatch"`
	TotalBatches    int            `json:"totalBatches"`
	Message         string         `json:"message"`
	Error           string         `json:"error,omitempty"`
}

// ProgressPayload - ответ эндпоинта прогресса AI-конфигурации
type ProgressPayload struct {
	Success         bool           `json:"success"`
	SessionID       string         `json:"sessionId,omitempty"`
	Status          ProgressStatus `json:"status"`
	Progress        *float64       `json:"progress,omitempty"`
	TotalChunks     int            `json:"totalChunks"`
	ProcessedChunks int            `json:"processedChunks"`
	CurrentBatch    int            `json:"currentBatch"`
	TotalBatches    int            `json:"totalBatches"`
	Message         string         `json:"message"`
	Error           string         `json:"error,omitempty"`
}
