package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pryve/pryve-admin/internal/app"
	"github.com/pryve/pryve-admin/pkg/config"
	"github.com/pryve/pryve-admin/pkg/logger"
)

func main() {
	// Инициализируем контекст приложения
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
	log.Info("Starting scheduler service", logger.Fields{"env": cfg.App.Environment})

	// Инициализируем основное приложение
	application, err := app.NewApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", err)
	}
	defer application.Close()

	// Запускаем планировщик
	if err := application.Scheduler().Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler service", err)
	}

	// События смены статуса сбрасывают снимок аналитики
	var wg sync.WaitGroup
	if consumer := application.UserStatusConsumer(); consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Run(ctx)
		}()
	}

	// Блокируем основную горутину до получения сигнала остановки
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down scheduler service")
	cancel()
	wg.Wait()

	log.Info("Scheduler service stopped")
}
