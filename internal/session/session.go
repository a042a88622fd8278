// Package session отслеживает текущего пользователя клиента с двумя вариантами
// времени жизни: постоянным («запомнить меня») и до закрытия вкладки.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/hydracity/internal/localstore"
	"github.com/mmeshcher/hydracity/internal/model"
)

// UserWriter сохраняет обновлённого пользователя в каталоге.
type UserWriter interface {
	Update(ctx context.Context, user model.User) error
}

// Manager управляет сессией одного клиента: устройства deviceID и вкладки tabID.
type Manager struct {
	store    *localstore.Store
	users    UserWriter
	deviceID string
	tabID    string
	clock    func() time.Time
}

// NewManager создаёт менеджер сессии клиента.
func NewManager(store *localstore.Store, users UserWriter, deviceID, tabID string) *Manager {
	return &Manager{
		store:    store,
		users:    users,
		deviceID: deviceID,
		tabID:    tabID,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *Manager) durableKey() string { return localstore.SessionKey(m.deviceID) }
func (m *Manager) scopedKey() string  { return localstore.SessionKey(m.tabID) }

// Login обновляет lastLogin, сохраняет сессию в выбранное хранилище и записывает
// пользователя обратно в каталог.
func (m *Manager) Login(ctx context.Context, user model.User, rememberMe bool) (model.Session, error) {
	now := m.clock()
	user.LastLogin = now

	s := model.Session{User: user, RememberMe: rememberMe, LoginTime: now}

	scope, key := localstore.Scoped, m.scopedKey()
	if rememberMe {
		scope, key = localstore.Durable, m.durableKey()
	}
	if err := m.store.Set(ctx, scope, key, s); err != nil {
		return model.Session{}, fmt.Errorf("save session: %w", err)
	}

	if err := m.users.Update(ctx, user); err != nil {
		return model.Session{}, fmt.Errorf("update last login: %w", err)
	}
	return s, nil
}

// Logout удаляет сессию из обоих хранилищ.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Remove(ctx, localstore.Durable, m.durableKey()); err != nil {
		return err
	}
	return m.store.Remove(ctx, localstore.Scoped, m.scopedKey())
}

// Current возвращает активную сессию. Постоянное хранилище проверяется первым.
func (m *Manager) Current(ctx context.Context) (model.Session, bool) {
	var s model.Session
	if m.store.Get(ctx, localstore.Durable, m.durableKey(), &s) {
		return s, true
	}
	s = model.Session{}
	if m.store.Get(ctx, localstore.Scoped, m.scopedKey(), &s) {
		return s, true
	}
	return model.Session{}, false
}

// Refresh перезаписывает копию пользователя в той сессии, которая сейчас активна.
// Без активной сессии ничего не делает.
func (m *Manager) Refresh(ctx context.Context, user model.User) (model.Session, bool, error) {
	s, ok := m.Current(ctx)
	if !ok {
		return model.Session{}, false, nil
	}
	s.User = user

	scope, key := localstore.Scoped, m.scopedKey()
	if s.RememberMe {
		scope, key = localstore.Durable, m.durableKey()
	}
	if err := m.store.Set(ctx, scope, key, s); err != nil {
		return model.Session{}, false, fmt.Errorf("refresh session: %w", err)
	}
	return s, true, nil
}
