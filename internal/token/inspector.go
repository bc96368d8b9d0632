// token реализует клиентскую проверку срока действия bearer-токенов.
//
// Инспектор НЕ проверяет подпись: это эвристика на стороне клиента
// (стоит ли вообще отправлять токен на сервер), а не граница безопасности.
// Валидацию подписи выполняет бэкенд.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// parser переиспользуется всеми вызовами: ParseUnverified не хранит
// состояния, поэтому общий экземпляр безопасен для конкурентного доступа.
var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// ExpiresAt извлекает клейм exp из токена без проверки подписи.
// Возвращает нулевое время и ok=false, если токен не разбирается
// или клейм exp отсутствует.
func ExpiresAt(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// Expired сообщает, истёк ли срок действия токена.
// Нечитаемый токен или токен без exp считается просроченным (fail safe):
// лучше лишний раз переавторизоваться, чем отправить заведомо битый токен.
func Expired(raw string) bool {
	exp, ok := ExpiresAt(raw)
	if !ok {
		return true
	}

	return !exp.After(time.Now().UTC())
}
