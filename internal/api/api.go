// api — фичевые обёртки над авторизованным клиентом: тонкие
// pass-through вызовы REST-эндпойнтов маркетплейса. Поведение
// refresh+retry наследуется от конвейера клиента прозрачно.
package api

import "github.com/RektefeMaster/mechanic-client/internal/client"

// API агрегирует фичевые обёртки.
type API struct {
	c *client.Client
}

// New создаёт набор обёрток поверх клиента.
func New(c *client.Client) *API {
	return &API{c: c}
}
