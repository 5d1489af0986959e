package errors

import "errors"

var (
	ErrUserNotFound       = errors.New("пользователь не найден")
	ErrDeviceNotFound     = errors.New("устройство не найдено")
	ErrDbUserNotFound     = errors.New("учётная запись не найдена")
	ErrInvalidCredentials = errors.New("неверные учетные данные")
	ErrAlreadyExists      = errors.New("запись с таким значением уже существует")
	ErrValidationFailed   = errors.New("ошибка валидации")
	ErrInternalServer     = errors.New("внутренняя ошибка сервера")
	ErrBadRequest         = errors.New("неверный запрос")
	ErrNotFound           = errors.New("ресурс не найден")

	ErrConfigFileReadFailed = errors.New("не удалось прочитать файл конфигурации")
	ErrConfigParseFailed    = errors.New("не удалось разобрать файл конфигурации")
	ErrConfigInvalidFormat  = errors.New("некорректное значение конфигурации")
)
