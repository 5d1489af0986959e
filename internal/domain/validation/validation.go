// Package validation содержит явные валидаторы сущностей. Каждый валидатор
// возвращает список нарушений (поле + код), правила проверяются независимо
// друг от друга. Пустое значение даёт код "empty", проверка длины для такого
// поля пропускается.
package validation

import (
	"strings"
	"unicode/utf8"

	"sensorman/internal/domain/models"
)

const (
	CodeEmpty     = "empty"
	CodeSize      = "size"
	CodeDuplicate = "duplicate"
)

func checkRequiredText(violations []models.Violation, field, value string, min, max int) []models.Violation {
	if strings.TrimSpace(value) == "" {
		return append(violations, models.Violation{Field: field, Code: CodeEmpty})
	}
	if n := utf8.RuneCountInString(value); n < min || n > max {
		return append(violations, models.Violation{Field: field, Code: CodeSize})
	}
	return violations
}

func ValidateUser(user models.User) []models.Violation {
	var violations []models.Violation
	violations = checkRequiredText(violations, "firstname", user.Firstname, 3, 60)
	violations = checkRequiredText(violations, "lastname", user.Lastname, 3, 50)
	violations = checkRequiredText(violations, "email", user.Email, 6, 256)
	return violations
}

func ValidateDevice(device models.Device) []models.Violation {
	var violations []models.Violation
	violations = checkRequiredText(violations, "model", device.Model, 3, 60)
	violations = checkRequiredText(violations, "mac", device.Mac, 12, 17)
	violations = checkRequiredText(violations, "ip", device.IP, 7, 39)
	return violations
}

// ValidateDbUser дополнительно проверяет занятость имени через usernameExists
// (обычно это запрос к хранилищу). nil-функция отключает проверку.
func ValidateDbUser(user models.DbUser, usernameExists func(string) bool) []models.Violation {
	var violations []models.Violation
	violations = checkRequiredText(violations, "username", user.Username, 3, 32)
	if strings.TrimSpace(user.Username) != "" && usernameExists != nil && usernameExists(user.Username) {
		violations = append(violations, models.Violation{Field: "username", Code: CodeDuplicate})
	}
	violations = checkRequiredText(violations, "password", user.Password, 3, 32)
	return violations
}
