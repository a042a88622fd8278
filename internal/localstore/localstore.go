// Package localstore даёт типизированный JSON-доступ к двум хранилищам витрины:
// постоянному и ограниченному временем жизни вкладки.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/hydracity/internal/repository"
)

// Scope выбирает хранилище.
type Scope int

const (
	// Durable переживает перезапуск браузера и сервиса.
	Durable Scope = iota
	// Scoped живёт, пока жива вкладка.
	Scoped
)

func (s Scope) String() string {
	if s == Scoped {
		return "scoped"
	}
	return "durable"
}

const (
	usersKey        = "hydra_users"
	sessionKeyBase  = "hydra_user:"
	cartKeyBase     = "hydra_cart:"
	couponKeyBase   = "hydra_coupon:"
	ordersKeyPrefix = "hydra_orders_"
)

// UsersKey возвращает ключ каталога пользователей.
func UsersKey() string { return usersKey }

// SessionKey возвращает ключ сессии клиента (устройства или вкладки).
func SessionKey(clientID string) string { return sessionKeyBase + clientID }

// CartKey возвращает ключ корзины устройства.
func CartKey(deviceID string) string { return cartKeyBase + deviceID }

// CouponKey возвращает ключ применённого промокода вкладки.
func CouponKey(tabID string) string { return couponKeyBase + tabID }

// OrdersKey возвращает ключ истории заказов пользователя.
func OrdersKey(userID string) string { return ordersKeyPrefix + userID }

// Store читает и пишет JSON-значения в постоянное и вкладочное хранилища.
type Store struct {
	durable repository.Backend
	scoped  repository.Backend
	logger  *zap.Logger
}

// New создаёт адаптер поверх двух хранилищ.
func New(durable, scoped repository.Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{durable: durable, scoped: scoped, logger: logger}
}

func (s *Store) backend(scope Scope) repository.Backend {
	if scope == Scoped {
		return s.scoped
	}
	return s.durable
}

// Get читает значение по ключу в dst. Отсутствующее, нечитаемое или повреждённое
// значение считается отсутствующим: возвращается false, dst не меняется.
func (s *Store) Get(ctx context.Context, scope Scope, key string, dst any) bool {
	raw, err := s.backend(scope).Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("store read failed, treating as absent",
				zap.Stringer("scope", scope), zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("stored value is corrupt, treating as absent",
			zap.Stringer("scope", scope), zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set кодирует значение в JSON и целиком перезаписывает его.
func (s *Store) Set(ctx context.Context, scope Scope, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := s.backend(scope).Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s store: %w", scope, err)
	}
	return nil
}

// Remove удаляет ключ.
func (s *Store) Remove(ctx context.Context, scope Scope, key string) error {
	if err := s.backend(scope).Delete(ctx, key); err != nil {
		return fmt.Errorf("remove from %s store: %w", scope, err)
	}
	return nil
}

// List читает JSON-массив; при отсутствии возвращает пустой срез.
func List[T any](ctx context.Context, s *Store, scope Scope, key string) []T {
	var out []T
	if !s.Get(ctx, scope, key, &out) || out == nil {
		return []T{}
	}
	return out
}
