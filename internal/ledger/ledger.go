// Package ledger хранит историю заказов пользователей.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/hydracity/internal/localstore"
	"github.com/mmeshcher/hydracity/internal/model"
)

// ErrEmptyCart возвращается при оформлении пустой корзины.
var ErrEmptyCart = errors.New("cart is empty")

// Priced описывает корзину в том виде, в котором её видит оформление заказа.
type Priced interface {
	Items() []model.CartItem
	Subtotal() decimal.Decimal
	Discount() decimal.Decimal
	Total() decimal.Decimal
	CouponCode() *string
}

// Ledger дописывает заказы в список пользователя. Заказы не изменяются.
type Ledger struct {
	mu    sync.Mutex
	store *localstore.Store
	clock func() time.Time
	newID func() string
}

// New создаёт журнал заказов.
func New(store *localstore.Store) *Ledger {
	return &Ledger{
		store: store,
		clock: func() time.Time { return time.Now().UTC() },
		newID: newOrderID,
	}
}

func newOrderID() string {
	return "ORDER_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func (l *Ledger) load(ctx context.Context, userID string) []model.Order {
	return localstore.List[model.Order](ctx, l.store, localstore.Durable, localstore.OrdersKey(userID))
}

// Checkout создаёт заказ из снимка корзины. Корзину не очищает.
func (l *Ledger) Checkout(ctx context.Context, cart Priced, user model.User) (model.Order, error) {
	items := cart.Items()
	if len(items) == 0 {
		return model.Order{}, ErrEmptyCart
	}

	o := model.Order{
		ID:       l.newID(),
		UserID:   user.ID,
		Items:    items,
		Subtotal: cart.Subtotal(),
		Discount: cart.Discount(),
		Total:    cart.Total(),
		Coupon:   cart.CouponCode(),
		Status:   model.OrderStatusPending,
		Date:     l.clock(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	orders := append(l.load(ctx, user.ID), o)
	if err := l.store.Set(ctx, localstore.Durable, localstore.OrdersKey(user.ID), orders); err != nil {
		return model.Order{}, fmt.Errorf("save orders: %w", err)
	}
	return o, nil
}

// OrdersFor возвращает заказы пользователя, новые первыми.
func (l *Ledger) OrdersFor(ctx context.Context, userID string) []model.Order {
	l.mu.Lock()
	orders := l.load(ctx, userID)
	l.mu.Unlock()

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Date.After(orders[j].Date)
	})
	return orders
}

// Count возвращает количество заказов пользователя.
func (l *Ledger) Count(ctx context.Context, userID string) int {
	return len(l.OrdersFor(ctx, userID))
}

// TotalSpent суммирует total по всем заказам пользователя.
func (l *Ledger) TotalSpent(ctx context.Context, userID string) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range l.OrdersFor(ctx, userID) {
		sum = sum.Add(o.Total)
	}
	return sum
}

// Purge удаляет всю историю заказов пользователя.
func (l *Ledger) Purge(ctx context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Remove(ctx, localstore.Durable, localstore.OrdersKey(userID)); err != nil {
		return fmt.Errorf("purge orders: %w", err)
	}
	return nil
}
