// Package cart реализует корзину и расчёт стоимости с одним промокодом.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/hydracity/internal/localstore"
	"github.com/mmeshcher/hydracity/internal/model"
)

var (
	// ErrDuplicateItem возвращается при повторном добавлении товара.
	ErrDuplicateItem = errors.New("item already in cart")
	// ErrUnknownProduct возвращается, если товара нет в каталоге.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrCouponAlreadyApplied возвращается, если промокод уже применён.
	ErrCouponAlreadyApplied = errors.New("coupon already applied")
	// ErrInvalidCoupon возвращается, если промокода нет в каталоге.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrEmptyCouponCode возвращается для пустого промокода.
	ErrEmptyCouponCode = errors.New("empty coupon code")
	// ErrNegativePrice возвращается для позиции с отрицательной ценой.
	ErrNegativePrice = errors.New("negative price")
)

// Catalog отдаёт товары и промокоды.
type Catalog interface {
	Product(id string) (model.Product, bool)
	Coupon(code string) (model.Coupon, bool)
}

// Cart хранит корзину одного клиента. Позиции лежат в постоянном хранилище
// устройства, применённый промокод лежит в хранилище вкладки.
type Cart struct {
	store     *localstore.Store
	catalog   Catalog
	cartKey   string
	couponKey string

	items  []model.CartItem
	coupon *model.Coupon
}

// Load читает корзину устройства deviceID и промокод вкладки tabID.
func Load(ctx context.Context, store *localstore.Store, catalog Catalog, deviceID, tabID string) *Cart {
	c := &Cart{
		store:     store,
		catalog:   catalog,
		cartKey:   localstore.CartKey(deviceID),
		couponKey: localstore.CouponKey(tabID),
	}

	c.items = localstore.List[model.CartItem](ctx, store, localstore.Durable, c.cartKey)

	var code string
	if store.Get(ctx, localstore.Scoped, c.couponKey, &code) {
		if cp, ok := catalog.Coupon(code); ok {
			c.coupon = &cp
		}
	}
	return c
}

func (c *Cart) saveItems(ctx context.Context) error {
	if err := c.store.Set(ctx, localstore.Durable, c.cartKey, c.items); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Add добавляет позицию. Повторное добавление того же товара отклоняется.
func (c *Cart) Add(ctx context.Context, item model.CartItem) error {
	if item.Price.IsNegative() {
		return ErrNegativePrice
	}
	for _, it := range c.items {
		if it.ID == item.ID {
			return ErrDuplicateItem
		}
	}

	c.items = append(c.items, item)
	if err := c.saveItems(ctx); err != nil {
		c.items = c.items[:len(c.items)-1]
		return err
	}
	return nil
}

// AddProduct добавляет товар каталога по id.
func (c *Cart) AddProduct(ctx context.Context, productID string) (model.CartItem, error) {
	p, ok := c.catalog.Product(productID)
	if !ok {
		return model.CartItem{}, ErrUnknownProduct
	}
	item := p.Item()
	if err := c.Add(ctx, item); err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// Remove удаляет позицию по id товара; отсутствие позиции не ошибка.
func (c *Cart) Remove(ctx context.Context, productID string) error {
	for i, it := range c.items {
		if it.ID == productID {
			items := make([]model.CartItem, 0, len(c.items)-1)
			items = append(items, c.items[:i]...)
			items = append(items, c.items[i+1:]...)
			c.items = items
			return c.saveItems(ctx)
		}
	}
	return nil
}

// Clear очищает корзину и снимает промокод.
func (c *Cart) Clear(ctx context.Context) error {
	c.items = []model.CartItem{}
	if err := c.saveItems(ctx); err != nil {
		return err
	}
	return c.RemoveCoupon(ctx)
}

// ApplyCoupon применяет промокод. Одновременно может действовать только один.
func (c *Cart) ApplyCoupon(ctx context.Context, code string) (model.Coupon, error) {
	if c.coupon != nil {
		return model.Coupon{}, ErrCouponAlreadyApplied
	}
	if strings.TrimSpace(code) == "" {
		return model.Coupon{}, ErrEmptyCouponCode
	}

	cp, ok := c.catalog.Coupon(code)
	if !ok {
		return model.Coupon{}, ErrInvalidCoupon
	}

	if err := c.store.Set(ctx, localstore.Scoped, c.couponKey, cp.Code); err != nil {
		return model.Coupon{}, fmt.Errorf("save coupon: %w", err)
	}
	c.coupon = &cp
	return cp, nil
}

// RemoveCoupon снимает промокод; скидка становится нулевой.
func (c *Cart) RemoveCoupon(ctx context.Context) error {
	if err := c.store.Remove(ctx, localstore.Scoped, c.couponKey); err != nil {
		return fmt.Errorf("remove coupon: %w", err)
	}
	c.coupon = nil
	return nil
}

// Items возвращает копию позиций корзины.
func (c *Cart) Items() []model.CartItem {
	out := make([]model.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len возвращает количество позиций.
func (c *Cart) Len() int { return len(c.items) }

// Coupon возвращает применённый промокод.
func (c *Cart) Coupon() (model.Coupon, bool) {
	if c.coupon == nil {
		return model.Coupon{}, false
	}
	return *c.coupon, true
}

// CouponCode возвращает код применённого промокода или nil.
func (c *Cart) CouponCode() *string {
	if c.coupon == nil {
		return nil
	}
	code := c.coupon.Code
	return &code
}

// Subtotal возвращает сумму цен позиций.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.Price)
	}
	return sum
}

// Discount возвращает subtotal × ставку промокода; без промокода ноль.
func (c *Cart) Discount() decimal.Decimal {
	if c.coupon == nil {
		return decimal.Zero
	}
	return c.Subtotal().Mul(c.coupon.Rate)
}

// Total возвращает subtotal минус discount.
func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal().Sub(c.Discount())
}

// Snapshot возвращает состояние корзины для отображения.
func (c *Cart) Snapshot() model.CartSnapshot {
	s := model.CartSnapshot{
		Items:    c.Items(),
		Subtotal: c.Subtotal(),
		Discount: c.Discount(),
		Total:    c.Total(),
	}
	if cp, ok := c.Coupon(); ok {
		s.Coupon = &cp
	}
	return s
}
