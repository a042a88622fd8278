// Package model содержит доменные сущности витрины Hydra City.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VIPStatusNone означает отсутствие VIP-статуса у нового пользователя.
const VIPStatusNone = "None"

// Preferences описывает настройки рассылок пользователя.
type Preferences struct {
	EmailNotifications bool `json:"emailNotifications"`
	MarketingEmails    bool `json:"marketingEmails"`
}

// DefaultPreferences возвращает настройки, действующие, пока пользователь их не менял.
func DefaultPreferences() Preferences {
	return Preferences{EmailNotifications: true, MarketingEmails: false}
}

// User представляет зарегистрированного игрока.
type User struct {
	ID          string       `json:"id"`
	Nickname    string       `json:"nickname"`
	Email       string       `json:"email"`
	Password    string       `json:"password"`
	VIPStatus   string       `json:"vipStatus"`
	JoinDate    time.Time    `json:"joinDate"`
	LastLogin   time.Time    `json:"lastLogin"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// EffectivePreferences возвращает сохранённые настройки либо настройки по умолчанию.
func (u User) EffectivePreferences() Preferences {
	if u.Preferences == nil {
		return DefaultPreferences()
	}
	return *u.Preferences
}

// Public возвращает копию пользователя без пароля.
func (u User) Public() User {
	u.Password = ""
	if u.Preferences != nil {
		p := *u.Preferences
		u.Preferences = &p
	}
	return u
}

// UserUpdate перечисляет изменяемые поля пользователя. Nil означает «не менять».
type UserUpdate struct {
	Nickname    *string
	Email       *string
	Password    *string
	VIPStatus   *string
	Preferences *Preferences
}

// Session содержит копию пользователя и выбранное время жизни входа.
type Session struct {
	User
	RememberMe bool      `json:"rememberMe"`
	LoginTime  time.Time `json:"loginTime"`
}

// CartItem описывает позицию корзины. Один товар может встречаться в корзине только один раз.
type CartItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// Coupon описывает промокод из фиксированного каталога.
type Coupon struct {
	Code        string          `json:"code"`
	Rate        decimal.Decimal `json:"discountRate"`
	Description string          `json:"description"`
}

// Product описывает товар каталога.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Icon        string          `json:"icon"`
	Description string          `json:"description"`
}

// Item превращает товар в позицию корзины.
func (p Product) Item() CartItem {
	return CartItem{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Icon}
}

// CartSnapshot описывает состояние корзины для отображения.
type CartSnapshot struct {
	Items    []CartItem      `json:"items"`
	Coupon   *Coupon         `json:"coupon,omitempty"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

// OrderStatusPending присваивается каждому новому заказу.
const OrderStatusPending OrderStatus = "Pending"

// Order хранит неизменяемый снимок корзины на момент оформления.
type Order struct {
	ID       string          `json:"id"`
	UserID   string          `json:"userId"`
	Items    []CartItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Coupon   *string         `json:"coupon"`
	Status   OrderStatus     `json:"status"`
	Date     time.Time       `json:"date"`
}

// ActivityKind различает записи ленты активности профиля.
type ActivityKind string

const (
	ActivityAccountCreated ActivityKind = "account_created"
	ActivityPurchase       ActivityKind = "purchase"
)

// Activity описывает запись ленты активности.
type Activity struct {
	Kind    ActivityKind `json:"kind"`
	OrderID string       `json:"orderId,omitempty"`
	Time    time.Time    `json:"time"`
}

// ProfileStats содержит агрегаты для страницы профиля.
type ProfileStats struct {
	VIPStatus   string          `json:"vipStatus"`
	LastLogin   time.Time       `json:"lastLogin"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	TotalOrders int             `json:"totalOrders"`
}

// Profile собирает всё, что нужно странице профиля.
type Profile struct {
	User        User         `json:"user"`
	Preferences Preferences  `json:"preferences"`
	Stats       ProfileStats `json:"stats"`
	Activity    []Activity   `json:"activity"`
}
