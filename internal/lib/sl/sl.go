// Package sl содержит вспомогательные функции для работы с логгером slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil пишет пустую строку, чтобы вызов в ветке ошибки никогда не паниковал.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Email маскирует локальную часть адреса для логов: "alice@example.com" -> "a***@example.com".
func Email(email string) slog.Attr {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			if i == 0 {
				return slog.String("email", "***"+email)
			}
			return slog.String("email", email[:1]+"***"+email[i:])
		}
	}
	return slog.String("email", "***")
}
