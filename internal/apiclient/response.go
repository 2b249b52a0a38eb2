package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"

	"github.com/pryve/pryve-admin/internal/domain"
)

// Сообщения по умолчанию, когда бэкенд их не прислал
const (
	DefaultSuccessMessage = "Success"
	DefaultErrorMessage   = "An error occurred"
	DefaultErrorDetail    = "Unknown error"
	NetworkErrorMessage   = "Network error occurred"
	NonJSONMessage        = "Server returned a non-JSON response"
	InvalidJSONMessage    = "Invalid JSON response from server"
	UnexpectedDataMessage = "Unexpected response format from server"
	TimeoutMessage        = "Request timed out"
)

// Response - единый контракт ответа любой сетевой операции.
// Data заполнено только при Success, Error - только при его отсутствии.
type Response[T any] struct {
	Success    bool
	Message    string
	Data       T
	Error      string
	Pagination *domain.PaginationInfo
	Counts     json.RawMessage
	// StatusCode - HTTP-статус ответа, 0 если ответа не было
	StatusCode int
	// Body - исходное JSON-тело ответа, в конверт не сериализуется
	Body json.RawMessage
}

// OK создает успешный ответ
func OK[T any](message string, data T) Response[T] {
	if message == "" {
		message = DefaultSuccessMessage
	}
	return Response[T]{Success: true, Message: message, Data: data}
}

// Failure создает неуспешный ответ
func Failure[T any](message, errDetail string) Response[T] {
	if message == "" {
		message = DefaultErrorMessage
	}
	if errDetail == "" {
		errDetail = message
	}
	return Response[T]{Success: false, Message: message, Error: errDetail}
}

// MarshalJSON сериализует ответ в конверт {success, message, data?, error?}
func (r Response[T]) MarshalJSON() ([]byte, error) {
	envelope := struct {
		Success    bool                   `json:"success"`
		Message    string                 `json:"message"`
		Data       interface{}            `json:"data,omitempty"`
		Error      string                 `json:"error,omitempty"`
		Pagination *domain.PaginationInfo `json:"pagination,omitempty"`
		Counts     json.RawMessage        `json:"counts,omitempty"`
	}{
		Success:    r.Success,
		Message:    r.Message,
		Pagination: r.Pagination,
		Counts:     r.Counts,
	}
	if r.Success {
		envelope.Data = r.Data
	} else {
		envelope.Error = r.Error
	}
	return json.Marshal(envelope)
}

// Decode переводит сырой ответ в типизированный. Ошибка разбора data превращается в неуспешный ответ.
func Decode[T any](raw Response[json.RawMessage]) Response[T] {
	out := Response[T]{
		Success:    raw.Success,
		Message:    raw.Message,
		Error:      raw.Error,
		Pagination: raw.Pagination,
		Counts:     raw.Counts,
		StatusCode: raw.StatusCode,
		Body:       raw.Body,
	}
	if !raw.Success || len(raw.Data) == 0 {
		return out
	}

	if err := json.Unmarshal(raw.Data, &out.Data); err != nil {
		failed := Failure[T](UnexpectedDataMessage, err.Error())
		failed.StatusCode = raw.StatusCode
		failed.Body = raw.Body
		return failed
	}
	return out
}

// Normalize приводит HTTP-ответ бэкенда к Response. Функция никогда не паникует
// и всегда возвращает значение.
func Normalize(statusCode int, contentType string, body []byte) Response[json.RawMessage] {
	resp := normalize(statusCode, contentType, body)
	resp.StatusCode = statusCode
	if !resp.Success && resp.Message == NonJSONMessage {
		return resp
	}
	if trimmed := bytes.TrimSpace(body); json.Valid(trimmed) {
		resp.Body = json.RawMessage(trimmed)
	}
	return resp
}

func normalize(statusCode int, contentType string, body []byte) Response[json.RawMessage] {
	ok := statusCode >= 200 && statusCode < 300
	body = bytes.TrimSpace(body)

	if len(body) == 0 {
		if ok {
			return OK[json.RawMessage]("", nil)
		}
		return Failure[json.RawMessage](DefaultErrorMessage, DefaultErrorDetail)
	}

	// HTML-страница логина или ошибки шлюза не должна доходить до json.Unmarshal
	if !isJSON(contentType, body) {
		return Failure[json.RawMessage](NonJSONMessage,
			fmt.Sprintf("unexpected content type %q (HTTP %d)", contentType, statusCode))
	}

	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Failure[json.RawMessage](InvalidJSONMessage, err.Error())
	}

	fields := map[string]json.RawMessage{}
	if _, isObject := parsed.(map[string]interface{}); isObject {
		_ = json.Unmarshal(body, &fields)
	}

	message, hasMessage := textField(fields, "message")
	errDetail, hasError := textField(fields, "error")

	var resp Response[json.RawMessage]
	switch rawSuccess, hasSuccess := fields["success"]; {
	case hasSuccess:
		var success bool
		_ = json.Unmarshal(rawSuccess, &success)
		resp.Success = success
		resp.Message = message
		if !hasMessage {
			resp.Message = DefaultErrorMessage
			if success {
				resp.Message = DefaultSuccessMessage
			}
		}
		if success {
			resp.Data = dataOrBody(fields, body)
		} else {
			resp.Error = resp.Message
			if hasError {
				resp.Error = errDetail
			}
		}
	case !ok:
		resp = Failure[json.RawMessage](DefaultErrorMessage, DefaultErrorDetail)
		if hasMessage {
			resp.Message = message
		}
		if hasError {
			resp.Error = errDetail
		}
	default:
		resp = OK[json.RawMessage](message, dataOrBody(fields, body))
	}

	if raw, found := present(fields, "pagination"); found {
		var info domain.PaginationInfo
		if err := json.Unmarshal(raw, &info); err == nil {
			resp.Pagination = &info
		}
	}
	if raw, found := present(fields, "counts"); found {
		resp.Counts = raw
	}

	return resp
}

func isJSON(contentType string, body []byte) bool {
	if contentType == "" {
		// Без заголовка доверяем только телу, похожему на JSON-объект или массив
		return body[0] == '{' || body[0] == '['
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// present возвращает поле, если оно есть и не равно null
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

// textField возвращает строковое значение поля; не строковые значения отдаются как JSON-текст
func textField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := present(fields, key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

func dataOrBody(fields map[string]json.RawMessage, body []byte) json.RawMessage {
	if raw, ok := present(fields, "data"); ok {
		return raw
	}
	return json.RawMessage(body)
}
