// session отвечает за завершение сессии: очистку хранилища учётных
// данных и уведомление внешнего наблюдателя состояния авторизации
// (в мобильном приложении — редирект на экран логина).
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/RektefeMaster/mechanic-client/internal/creds"
	"github.com/RektefeMaster/mechanic-client/internal/pkg/log"
)

// Notifier получает уведомление о завершении сессии.
// Семантика level-triggered: «сессии больше нет», а не «произошло событие» —
// поэтому при нескольких конкурентных причинах разлогина уведомление
// доставляется один раз до следующего Reset.
type Notifier func()

// Manager выполняет идемпотентное завершение сессии.
// Безопасен для конкурентного использования.
type Manager struct {
	store  creds.Store
	notify Notifier

	mu    sync.Mutex
	ended bool
}

// NewManager создаёт менеджер сессии. notify может быть nil.
func NewManager(store creds.Store, notify Notifier) *Manager {
	return &Manager{
		store:  store,
		notify: notify,
	}
}

// Teardown очищает учётные данные и уведомляет наблюдателя.
// Повторные и конкурентные вызовы безопасны: хранилище очищается каждый раз
// (RemoveAll идемпотентен), уведомление уходит не более одного раза
// на логическое завершение сессии.
func (m *Manager) Teardown(ctx context.Context) error {
	const op = "session.Teardown"

	lg := log.From(ctx)

	err := m.store.RemoveAll(ctx, creds.SessionKeys...)
	if err != nil {
		// Хранилище недоступно — сессия всё равно считается завершённой,
		// уведомление обязано дойти до презентационного слоя.
		lg.Warn("session_store_clear_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	m.mu.Lock()
	fire := !m.ended
	m.ended = true
	m.mu.Unlock()

	if fire {
		lg.Info("session_ended", slog.String("op", op))

		if m.notify != nil {
			m.notify()
		}
	}

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Reset возвращает менеджер в состояние «сессия активна».
// Вызывается после успешного логина, чтобы следующий Teardown снова уведомил.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.ended = false
	m.mu.Unlock()
}

// Ended сообщает, находится ли менеджер в состоянии «сессия завершена».
func (m *Manager) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ended
}
