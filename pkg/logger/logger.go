package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Fields - дополнительные поля записи лога
type Fields = map[string]interface{}

// Logger - интерфейс для логирования
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(msg string, err error, fields ...Fields)
	Fatal(msg string, err error, fields ...Fields)
	With(key string, value interface{}) Logger
}

// ZeroLogger - реализация логгера на основе zerolog
type ZeroLogger struct {
	logger zerolog.Logger
}

// NewLogger создает новый экземпляр логгера, пишущего в stdout
func NewLogger(level string, isJSON bool) *ZeroLogger {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if !isJSON {
		// Для разработки используем консольный вывод
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04:05",
		}
	}

	return NewWithWriter(out, level)
}

// NewWithWriter создает логгер поверх произвольного writer
func NewWithWriter(w io.Writer, level string) *ZeroLogger {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}

	return &ZeroLogger{
		logger: zerolog.New(w).Level(logLevel).With().Timestamp().Logger(),
	}
}

// Nop возвращает логгер, который ничего не пишет
func Nop() *ZeroLogger {
	return &ZeroLogger{logger: zerolog.Nop()}
}

// Debug логирует отладочное сообщение
func (l *ZeroLogger) Debug(msg string, fields ...Fields) {
	withFields(l.logger.Debug(), fields).Msg(msg)
}

// Info логирует информационное сообщение
func (l *ZeroLogger) Info(msg string, fields ...Fields) {
	withFields(l.logger.Info(), fields).Msg(msg)
}

// Warn логирует предупреждение
func (l *ZeroLogger) Warn(msg string, fields ...Fields) {
	withFields(l.logger.Warn(), fields).Msg(msg)
}

// Error логирует ошибку
func (l *ZeroLogger) Error(msg string, err error, fields ...Fields) {
	event := l.logger.Error()
	if err != nil {
		event = event.Err(err)
	}
	withFields(event, fields).Msg(msg)
}

// Fatal логирует критическую ошибку и завершает программу
func (l *ZeroLogger) Fatal(msg string, err error, fields ...Fields) {
	event := l.logger.Fatal()
	if err != nil {
		event = event.Err(err)
	}
	withFields(event, fields).Msg(msg)
}

// With добавляет постоянное поле к логгеру
func (l *ZeroLogger) With(key string, value interface{}) Logger {
	return &ZeroLogger{
		logger: l.logger.With().Interface(key, value).Logger(),
	}
}

func withFields(event *zerolog.Event, fields []Fields) *zerolog.Event {
	for _, f := range fields {
		for k, v := range f {
			event = event.Interface(k, v)
		}
	}
	return event
}
