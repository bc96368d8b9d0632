// metrics — счётчики Prometheus для клиента маркетплейса.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics агрегирует счётчики ядра авторизации.
// Нулевой указатель безопасен: все методы-инкременты проверяют nil,
// чтобы клиент работал и без подключённых метрик.
type Metrics struct {
	RefreshAttempts  prometheus.Counter
	RefreshFailures  prometheus.Counter
	RetriedRequests  prometheus.Counter
	SessionTeardowns prometheus.Counter
}

// New регистрирует счётчики в переданном registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RefreshAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mechanic_client_token_refresh_attempts_total",
			Help: "Количество запущенных операций обновления access-токена.",
		}),
		RefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mechanic_client_token_refresh_failures_total",
			Help: "Количество неуспешных операций обновления access-токена.",
		}),
		RetriedRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mechanic_client_requests_retried_total",
			Help: "Количество запросов, повторённых после обновления токена.",
		}),
		SessionTeardowns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mechanic_client_session_teardowns_total",
			Help: "Количество принудительных завершений сессии.",
		}),
	}

	reg.MustRegister(m.RefreshAttempts, m.RefreshFailures, m.RetriedRequests, m.SessionTeardowns)

	return m
}

// IncRefreshAttempts увеличивает счётчик запущенных refresh-операций.
func (m *Metrics) IncRefreshAttempts() {
	if m != nil {
		m.RefreshAttempts.Inc()
	}
}

// IncRefreshFailures увеличивает счётчик неуспешных refresh-операций.
func (m *Metrics) IncRefreshFailures() {
	if m != nil {
		m.RefreshFailures.Inc()
	}
}

// IncRetriedRequests увеличивает счётчик повторённых запросов.
func (m *Metrics) IncRetriedRequests() {
	if m != nil {
		m.RetriedRequests.Inc()
	}
}

// IncSessionTeardowns увеличивает счётчик завершений сессии.
func (m *Metrics) IncSessionTeardowns() {
	if m != nil {
		m.SessionTeardowns.Inc()
	}
}
