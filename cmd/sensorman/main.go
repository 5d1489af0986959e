package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sensorman/internal/logs"
	"sensorman/internal/server"
	db "sensorman/repository/db"
	inmemory "sensorman/repository/inmemory"

	"github.com/joho/godotenv"
)

func main() {
	// .env удобен при локальной разработке, в бою его может не быть
	_ = godotenv.Load()

	cfg := server.ReadConfig()
	logs.Init(logs.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logs.Logger.Info("запуск сервиса управления датчиками...")

	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		logs.Logger.Warnf("ошибка применения миграций: %v", err)
	}

	var repo server.Repository

	dbStorage, err := db.NewStorage(cfg.DBStr)
	if err != nil {
		logs.Logger.Warnf("не удалось подключиться к БД, используем память: %v", err)
		repo = inmemory.NewStorage()
	} else {
		repo = dbStorage
	}

	api := server.NewSensorAPI(repo, cfg)
	if api == nil {
		logs.Logger.Fatal("не удалось инициализировать API")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logs.Logger.Infof("сервис запущен на %s:%d", cfg.Addr, cfg.Port)
		if err := api.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logs.Logger.Infof("получен сигнал %v, начинаем graceful shutdown...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			logs.Logger.Errorf("ошибка при graceful shutdown: %v", err)
		} else {
			logs.Logger.Info("graceful shutdown выполнен успешно")
		}

	case err := <-serverErr:
		logs.Logger.Errorf("ошибка сервера: %v", err)
	}

	if dbStorage != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = dbStorage.Close(closeCtx)
	}

	logs.Logger.Info("сервис завершен")
}
