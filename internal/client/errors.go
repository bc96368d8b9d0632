// Нормализация ошибок HTTP-слоя: фичевый код получает либо успешный
// ответ, либо *APIError с коротким машиночитаемым кодом — детали
// транспортного уровня наружу не утекают.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrSessionExpired — сессию невозможно продлить: refresh-токен
	// отсутствует, просрочен или отвергнут бэкендом. Всегда сопровождается
	// завершением сессии.
	ErrSessionExpired = errors.New("session expired")

	// ErrRefreshRejected — эндпойнт обновления ответил, но новый токен
	// выдать отказался (success=false или пустой data.token).
	ErrRefreshRejected = errors.New("token refresh rejected")
)

// APIError — единый формат ошибки бэкенда для фичевого кода.
// Code — короткий стабильный код; Message — безопасное описание;
// Status — исходный HTTP-статус.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// errFromResponse нормализует не-2xx ответ в *APIError.
// Тело ответа дочитывается и закрывается здесь.
func errFromResponse(resp *http.Response) *APIError {
	defer resp.Body.Close()

	msg := ""

	var env envelope
	// Тело ограничиваем: ошибочный ответ не повод читать мегабайты.
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&env); err == nil {
		msg = env.Message
	}

	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &APIError{
		Status:  resp.StatusCode,
		Code:    codeFromStatus(resp.StatusCode),
		Message: msg,
	}
}

// codeFromStatus — маппинг HTTP-статуса в короткий код для фронта.
// Таблица зеркалит серверную (gRPC -> HTTP) в обратную сторону.
func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "permission_denied"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "already_exists"
	case http.StatusPreconditionFailed:
		return "failed_precondition"
	case http.StatusTooManyRequests:
		return "resource_exhausted"
	case http.StatusNotImplemented:
		return "unimplemented"
	case http.StatusServiceUnavailable:
		return "unavailable"
	case http.StatusGatewayTimeout:
		return "deadline_exceeded"
	default:
		return "internal"
	}
}
