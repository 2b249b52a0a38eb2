package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pryve/pryve-admin/internal/app"
	"github.com/pryve/pryve-admin/pkg/config"
	"github.com/pryve/pryve-admin/pkg/logger"
)

func main() {
	// Создаем контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.App.Context = ctx

	// Инициализируем логгер
	log := logger.NewLogger(cfg.App.LogLevel, cfg.App.IsProduction())
	log.Info("Starting API gateway", logger.Fields{
		"app_name": cfg.App.Name,
		"env":      cfg.App.Environment,
		"backend":  cfg.Backend.BaseURL,
	})

	// Инициализируем приложение
	application, err := app.NewApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", err)
	}
	defer application.Close()

	server := application.Server()

	// Запуск сервера в горутине
	go func() {
		if err := server.Start(); err != nil {
			log.Error("HTTP server error", err)
			cancel()
		}
	}()

	// Настройка graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Ожидаем сигнал или отмену контекста
	select {
	case <-quit:
		log.Info("Shutting down server...")
	case <-ctx.Done():
		log.Info("Shutting down server due to context cancellation...")
	}

	// Создаем контекст с таймаутом для graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	log.Info("Server gracefully stopped")
}
