// creds определяет контракт персистентного хранилища учётных данных
// и его реализации (файл, Redis).
//
// Хранилище переживает перезапуск процесса и хранит ровно три ключа
// сессии (плюс опциональный кэш профиля). Инвариант KeyUserID ⟷ KeyAuthToken
// поддерживается вызывающим кодом: оба ключа записываются и удаляются вместе.
package creds

import "context"

// Ключи хранилища. Имена совпадают с ключами мобильного клиента,
// чтобы не плодить вторую номенклатуру в бэкофисе.
const (
	// KeyAuthToken — access-токен (JWT).
	KeyAuthToken = "AUTH_TOKEN"
	// KeyRefreshToken — refresh-токен.
	KeyRefreshToken = "REFRESH_TOKEN"
	// KeyUserID — идентификатор пользователя текущей сессии.
	KeyUserID = "USER_ID"
	// KeyProfileCache — опциональный кэш профиля (вне ядра авторизации).
	KeyProfileCache = "USER_PROFILE"
)

// SessionKeys — ключи, очищаемые при завершении сессии.
var SessionKeys = []string{KeyAuthToken, KeyRefreshToken, KeyUserID}

// Store задаёт контракт хранилища учётных данных.
//
// Реализации сериализуют собственные записи самостоятельно; вызывающему
// коду блокировки не нужны. Отсутствие значения — не ошибка:
// Get возвращает ("", nil).
type Store interface {
	// Get возвращает значение ключа или пустую строку, если ключа нет.
	Get(ctx context.Context, key string) (string, error)
	// Set сохраняет значение ключа.
	Set(ctx context.Context, key, value string) error
	// RemoveAll удаляет перечисленные ключи. Отсутствующие ключи не ошибка.
	RemoveAll(ctx context.Context, keys ...string) error
	// Close освобождает ресурсы хранилища.
	Close() error
}
