// Модели под REST-контракт бэкенда маркетплейса.
package models

// LoginRequest — запрос логина механика.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginData — полезная нагрузка успешного логина.
type LoginData struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
}

// RefreshRequest — запрос обновления access-токена.
// Refresh-токен передаётся в теле, а не в Authorization: запрос идёт
// мимо стандартного конвейера, чтобы не зациклить перехват 401.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshData — полезная нагрузка успешного обновления.
// RefreshToken опционален: бэкенд может ротировать refresh-токен.
type RefreshData struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
