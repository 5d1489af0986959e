package db

import (
	"errors"
	"fmt"

	"sensorman/internal/logs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration применяет SQL-миграции из каталога migratePath к базе dbStr.
// Отсутствие новых миграций ошибкой не считается.
func Migration(dbStr, migratePath string) error {
	if dbStr == "" {
		return errors.New("не задана строка подключения к БД")
	}
	if migratePath == "" {
		return errors.New("не задан путь к миграциям")
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", migratePath), dbStr)
	if err != nil {
		return fmt.Errorf("инициализация миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("применение миграций: %w", err)
	}

	logs.Logger.Info("миграции применены успешно")
	return nil
}
