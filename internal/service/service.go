// Package service реализует сценарии витрины Hydra City поверх ядра данных.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mmeshcher/hydracity/internal/cart"
	"github.com/mmeshcher/hydracity/internal/catalog"
	"github.com/mmeshcher/hydracity/internal/directory"
	"github.com/mmeshcher/hydracity/internal/ledger"
	"github.com/mmeshcher/hydracity/internal/localstore"
	"github.com/mmeshcher/hydracity/internal/model"
	"github.com/mmeshcher/hydracity/internal/serverstatus"
	"github.com/mmeshcher/hydracity/internal/session"
	"github.com/mmeshcher/hydracity/internal/validation"
)

var (
	// ErrNotAuthenticated возвращается, если у клиента нет активной сессии.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAuthenticationFailed возвращается, если нет пользователя с такими email и паролем.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrWrongPassword возвращается, если текущий пароль в настройках указан неверно.
	ErrWrongPassword = errors.New("wrong current password")
)

// Client идентифицирует устройство и вкладку, от имени которых выполняется сценарий.
type Client struct {
	DeviceID string
	TabID    string
}

// StatusSource отдаёт последнее известное состояние игрового сервера.
type StatusSource interface {
	Status() serverstatus.Status
}

// RegisterInput содержит данные формы регистрации.
type RegisterInput struct {
	Nickname        string
	Email           string
	Password        string
	ConfirmPassword string
	AcceptTerms     bool
}

// SettingsInput содержит данные формы настроек. Пустые строки и nil означают «не менять».
type SettingsInput struct {
	Nickname        string
	Email           string
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
	Preferences     *model.Preferences
}

// Service содержит сценарии витрины.
type Service struct {
	store   *localstore.Store
	users   *directory.Directory
	orders  *ledger.Ledger
	catalog *catalog.Catalog
	status  StatusSource
}

// NewService создаёт сервис витрины.
func NewService(store *localstore.Store, users *directory.Directory, orders *ledger.Ledger, cat *catalog.Catalog, status StatusSource) *Service {
	return &Service{
		store:   store,
		users:   users,
		orders:  orders,
		catalog: cat,
		status:  status,
	}
}

func (s *Service) sessions(c Client) *session.Manager {
	return session.NewManager(s.store, s.users, c.DeviceID, c.TabID)
}

func (s *Service) cart(ctx context.Context, c Client) *cart.Cart {
	return cart.Load(ctx, s.store, s.catalog, c.DeviceID, c.TabID)
}

// signedIn возвращает сессию клиента и актуальную запись её пользователя.
// Сессию удалённого пользователя закрывает.
func (s *Service) signedIn(ctx context.Context, c Client) (*session.Manager, model.Session, model.User, error) {
	sessions := s.sessions(c)
	sess, ok := sessions.Current(ctx)
	if !ok {
		return nil, model.Session{}, model.User{}, ErrNotAuthenticated
	}

	u, found := s.users.Get(ctx, sess.ID)
	if !found {
		if err := sessions.Logout(ctx); err != nil {
			return nil, model.Session{}, model.User{}, fmt.Errorf("close session of missing user: %w", err)
		}
		return nil, model.Session{}, model.User{}, ErrNotAuthenticated
	}
	return sessions, sess, u, nil
}

func public(sess model.Session) model.Session {
	sess.User = sess.User.Public()
	return sess
}

// Register регистрирует пользователя и сразу выполняет вход до закрытия вкладки.
func (s *Service) Register(ctx context.Context, c Client, in RegisterInput) (model.Session, error) {
	if err := validation.Registration(in.Nickname, in.Email, in.Password, in.ConfirmPassword, in.AcceptTerms); err != nil {
		return model.Session{}, err
	}

	u, err := s.users.Register(ctx, in.Nickname, in.Email, in.Password)
	if err != nil {
		return model.Session{}, err
	}

	sess, err := s.sessions(c).Login(ctx, u, false)
	if err != nil {
		return model.Session{}, err
	}
	return public(sess), nil
}

// Login проверяет форму и учётные данные и открывает сессию с выбранным временем жизни.
func (s *Service) Login(ctx context.Context, c Client, email, password string, rememberMe bool) (model.Session, error) {
	if err := validation.Login(email, password); err != nil {
		return model.Session{}, err
	}

	u, ok := s.users.Authenticate(ctx, email, password)
	if !ok {
		return model.Session{}, ErrAuthenticationFailed
	}

	sess, err := s.sessions(c).Login(ctx, u, rememberMe)
	if err != nil {
		return model.Session{}, err
	}
	return public(sess), nil
}

// Logout закрывает сессию клиента.
func (s *Service) Logout(ctx context.Context, c Client) error {
	return s.sessions(c).Logout(ctx)
}

// CurrentSession возвращает активную сессию клиента.
func (s *Service) CurrentSession(ctx context.Context, c Client) (model.Session, error) {
	_, sess, _, err := s.signedIn(ctx, c)
	if err != nil {
		return model.Session{}, err
	}
	return public(sess), nil
}

// Products возвращает каталог товаров.
func (s *Service) Products() []model.Product {
	return s.catalog.Products()
}

// ServerStatus возвращает число игроков онлайн.
func (s *Service) ServerStatus() serverstatus.Status {
	if s.status == nil {
		return serverstatus.Status{Online: serverstatus.BaseOnline}
	}
	return s.status.Status()
}

// Cart возвращает состояние корзины клиента.
func (s *Service) Cart(ctx context.Context, c Client) model.CartSnapshot {
	return s.cart(ctx, c).Snapshot()
}

// AddToCart добавляет товар каталога в корзину.
func (s *Service) AddToCart(ctx context.Context, c Client, productID string) (model.CartSnapshot, error) {
	crt := s.cart(ctx, c)
	if _, err := crt.AddProduct(ctx, productID); err != nil {
		return model.CartSnapshot{}, err
	}
	return crt.Snapshot(), nil
}

// RemoveFromCart удаляет позицию из корзины.
func (s *Service) RemoveFromCart(ctx context.Context, c Client, productID string) (model.CartSnapshot, error) {
	crt := s.cart(ctx, c)
	if err := crt.Remove(ctx, productID); err != nil {
		return model.CartSnapshot{}, err
	}
	return crt.Snapshot(), nil
}

// ClearCart очищает корзину и снимает промокод.
func (s *Service) ClearCart(ctx context.Context, c Client) (model.CartSnapshot, error) {
	crt := s.cart(ctx, c)
	if err := crt.Clear(ctx); err != nil {
		return model.CartSnapshot{}, err
	}
	return crt.Snapshot(), nil
}

// ApplyCoupon применяет промокод к корзине.
func (s *Service) ApplyCoupon(ctx context.Context, c Client, code string) (model.CartSnapshot, error) {
	crt := s.cart(ctx, c)
	if _, err := crt.ApplyCoupon(ctx, code); err != nil {
		return model.CartSnapshot{}, err
	}
	return crt.Snapshot(), nil
}

// RemoveCoupon снимает промокод.
func (s *Service) RemoveCoupon(ctx context.Context, c Client) (model.CartSnapshot, error) {
	crt := s.cart(ctx, c)
	if err := crt.RemoveCoupon(ctx); err != nil {
		return model.CartSnapshot{}, err
	}
	return crt.Snapshot(), nil
}

// Checkout оформляет заказ из корзины вошедшего пользователя. Корзина не очищается.
func (s *Service) Checkout(ctx context.Context, c Client) (model.Order, error) {
	_, _, u, err := s.signedIn(ctx, c)
	if err != nil {
		return model.Order{}, err
	}
	return s.orders.Checkout(ctx, s.cart(ctx, c), u)
}

// Orders возвращает заказы вошедшего пользователя, новые первыми.
func (s *Service) Orders(ctx context.Context, c Client) ([]model.Order, error) {
	_, _, u, err := s.signedIn(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.orders.OrdersFor(ctx, u.ID), nil
}

// Profile собирает данные страницы профиля.
func (s *Service) Profile(ctx context.Context, c Client) (model.Profile, error) {
	_, _, u, err := s.signedIn(ctx, c)
	if err != nil {
		return model.Profile{}, err
	}

	orders := s.orders.OrdersFor(ctx, u.ID)
	spent := s.orders.TotalSpent(ctx, u.ID)

	activity := make([]model.Activity, 0, len(orders)+1)
	activity = append(activity, model.Activity{Kind: model.ActivityAccountCreated, Time: u.JoinDate})
	for _, o := range orders {
		activity = append(activity, model.Activity{Kind: model.ActivityPurchase, OrderID: o.ID, Time: o.Date})
	}
	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].Time.After(activity[j].Time)
	})

	vip := u.VIPStatus
	if vip == "" {
		vip = model.VIPStatusNone
	}

	return model.Profile{
		User:        u.Public(),
		Preferences: u.EffectivePreferences(),
		Stats: model.ProfileStats{
			VIPStatus:   vip,
			LastLogin:   u.LastLogin,
			TotalSpent:  spent,
			TotalOrders: len(orders),
		},
		Activity: activity,
	}, nil
}

// UpdateProfile меняет никнейм и email и обновляет копию пользователя в сессии.
func (s *Service) UpdateProfile(ctx context.Context, c Client, nickname, email string) (model.User, error) {
	sessions, sess, _, err := s.signedIn(ctx, c)
	if err != nil {
		return model.User{}, err
	}

	u, err := s.users.Apply(ctx, sess.ID, model.UserUpdate{Nickname: &nickname, Email: &email})
	if err != nil {
		return model.User{}, err
	}
	if _, _, err := sessions.Refresh(ctx, u); err != nil {
		return model.User{}, err
	}
	return u.Public(), nil
}

// SaveSettings применяет форму настроек. Без Preferences настройки рассылок не меняются.
func (s *Service) SaveSettings(ctx context.Context, c Client, in SettingsInput) (model.User, error) {
	sessions, sess, current, err := s.signedIn(ctx, c)
	if err != nil {
		return model.User{}, err
	}

	if in.CurrentPassword != "" && !directory.CheckPassword(current, in.CurrentPassword) {
		return model.User{}, ErrWrongPassword
	}

	upd := model.UserUpdate{Preferences: in.Preferences}
	if nickname := strings.TrimSpace(in.Nickname); nickname != "" {
		upd.Nickname = &nickname
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		upd.Email = &email
	}
	if in.NewPassword != "" {
		if err := validation.NewPassword(in.NewPassword, in.ConfirmPassword); err != nil {
			return model.User{}, err
		}
		upd.Password = &in.NewPassword
	}

	u, err := s.users.Apply(ctx, sess.ID, upd)
	if err != nil {
		return model.User{}, err
	}
	if _, _, err := sessions.Refresh(ctx, u); err != nil {
		return model.User{}, err
	}
	return u.Public(), nil
}

// DeleteAccount удаляет пользователя и его заказы и закрывает сессию.
func (s *Service) DeleteAccount(ctx context.Context, c Client) error {
	sessions, sess, _, err := s.signedIn(ctx, c)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := s.orders.Purge(ctx, sess.ID); err != nil {
		return err
	}
	return sessions.Logout(ctx)
}
