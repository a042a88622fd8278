// Package directory реализует каталог зарегистрированных пользователей.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/hydracity/internal/localstore"
	"github.com/mmeshcher/hydracity/internal/model"
	"github.com/mmeshcher/hydracity/internal/validation"
)

var (
	// ErrDuplicateEmail возвращается, если e-mail уже занят другим пользователем.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateNickname возвращается, если никнейм (без учёта регистра) уже занят.
	ErrDuplicateNickname = errors.New("nickname already taken")
	// ErrUserNotFound возвращается, если пользователя с таким id нет.
	ErrUserNotFound = errors.New("user not found")
)

// Directory хранит всех пользователей одним JSON-массивом в постоянном хранилище.
// Каждая мутация перечитывает массив целиком и целиком записывает его обратно.
type Directory struct {
	mu    sync.Mutex
	store *localstore.Store
	cost  int
	clock func() time.Time
	newID func() string
}

// New создаёт каталог. cost задаёт стоимость bcrypt; 0 означает bcrypt.DefaultCost.
func New(store *localstore.Store, cost int) *Directory {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Directory{
		store: store,
		cost:  cost,
		clock: func() time.Time { return time.Now().UTC() },
		newID: newUserID,
	}
}

func newUserID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (d *Directory) load(ctx context.Context) []model.User {
	return localstore.List[model.User](ctx, d.store, localstore.Durable, localstore.UsersKey())
}

func (d *Directory) save(ctx context.Context, users []model.User) error {
	if err := d.store.Set(ctx, localstore.Durable, localstore.UsersKey(), users); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

// List возвращает всех пользователей; пустой срез, если их нет.
func (d *Directory) List(ctx context.Context) []model.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(ctx)
}

// Get возвращает пользователя по id.
func (d *Directory) Get(ctx context.Context, id string) (model.User, bool) {
	for _, u := range d.List(ctx) {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// Register проверяет поля, инварианты уникальности и добавляет пользователя.
func (d *Directory) Register(ctx context.Context, nickname, email, password string) (model.User, error) {
	if err := validation.Nickname(nickname); err != nil {
		return model.User{}, err
	}
	if err := validation.Email(email); err != nil {
		return model.User{}, err
	}
	if err := validation.Password(password); err != nil {
		return model.User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	users := d.load(ctx)
	if err := checkUnique(users, "", email, nickname); err != nil {
		return model.User{}, err
	}

	hash, err := d.hash(password)
	if err != nil {
		return model.User{}, err
	}

	now := d.clock()
	u := model.User{
		ID:        d.newID(),
		Nickname:  nickname,
		Email:     email,
		Password:  hash,
		VIPStatus: model.VIPStatusNone,
		JoinDate:  now,
		LastLogin: now,
	}

	if err := d.save(ctx, append(users, u)); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Authenticate ищет пользователя с точным e-mail и подходящим паролем.
// Неверный e-mail и неверный пароль не различаются.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (model.User, bool) {
	for _, u := range d.List(ctx) {
		if u.Email == email && CheckPassword(u, password) {
			return u, true
		}
	}
	return model.User{}, false
}

// Update заменяет запись с тем же id. Неизвестный id ошибкой не считается.
func (d *Directory) Update(ctx context.Context, user model.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	users := d.load(ctx)
	for i := range users {
		if users[i].ID == user.ID {
			users[i] = user
			return d.save(ctx, users)
		}
	}
	return nil
}

// Delete удаляет пользователя. История заказов не затрагивается.
func (d *Directory) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	users := d.load(ctx)
	kept := users[:0]
	for _, u := range users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(users) {
		return nil
	}
	return d.save(ctx, kept)
}

// Apply меняет только перечисленные в upd поля, сохраняя инварианты уникальности.
func (d *Directory) Apply(ctx context.Context, id string, upd model.UserUpdate) (model.User, error) {
	if upd.Nickname != nil {
		if err := validation.Nickname(*upd.Nickname); err != nil {
			return model.User{}, err
		}
	}
	if upd.Email != nil {
		if err := validation.Email(*upd.Email); err != nil {
			return model.User{}, err
		}
	}
	if upd.Password != nil {
		if err := validation.Password(*upd.Password); err != nil {
			return model.User{}, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	users := d.load(ctx)
	idx := -1
	for i := range users {
		if users[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.User{}, ErrUserNotFound
	}

	u := users[idx]
	email, nickname := u.Email, u.Nickname
	if upd.Email != nil {
		email = *upd.Email
	}
	if upd.Nickname != nil {
		nickname = *upd.Nickname
	}
	if err := checkUnique(users, id, email, nickname); err != nil {
		return model.User{}, err
	}

	u.Email, u.Nickname = email, nickname
	if upd.Password != nil {
		hash, err := d.hash(*upd.Password)
		if err != nil {
			return model.User{}, err
		}
		u.Password = hash
	}
	if upd.VIPStatus != nil {
		u.VIPStatus = *upd.VIPStatus
	}
	if upd.Preferences != nil {
		p := *upd.Preferences
		u.Preferences = &p
	}

	users[idx] = u
	if err := d.save(ctx, users); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func checkUnique(users []model.User, selfID, email, nickname string) error {
	for _, u := range users {
		if u.ID == selfID {
			continue
		}
		if u.Email == email {
			return ErrDuplicateEmail
		}
	}
	for _, u := range users {
		if u.ID == selfID {
			continue
		}
		if strings.EqualFold(u.Nickname, nickname) {
			return ErrDuplicateNickname
		}
	}
	return nil
}

func (d *Directory) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword сравнивает пароль с сохранённым. Записи, созданные до перехода
// на bcrypt, хранят пароль открытым текстом и сравниваются напрямую.
func CheckPassword(u model.User, password string) bool {
	if strings.HasPrefix(u.Password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
	}
	return u.Password != "" && u.Password == password
}
