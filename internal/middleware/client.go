// Package middleware содержит HTTP middleware для сервиса Hydra City.
package middleware

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const clientKey contextKey = "client"

const (
	// DeviceCookieName задаёт имя долгоживущего cookie устройства (аналог localStorage).
	DeviceCookieName = "hydra_device"
	// TabCookieName задаёт имя сессионного cookie вкладки (аналог sessionStorage).
	TabCookieName = "hydra_tab"

	deviceCookieTTL = 365 * 24 * time.Hour
)

var errInvalidToken = errors.New("invalid client token")

// Client идентифицирует браузер (устройство) и его вкладку.
type Client struct {
	DeviceID string
	TabID    string
}

// Identity выдаёт и проверяет подписанные cookie устройства и вкладки.
type Identity struct {
	secretKey []byte
	newID     func() string
}

// NewIdentity создаёт middleware идентификации клиента с указанным секретным ключом.
// При пустом ключе генерируется случайный, и cookie перестают быть валидными после перезапуска.
func NewIdentity(secret string) *Identity {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &Identity{
		secretKey: key,
		newID:     uuid.NewString,
	}
}

// Middleware читает cookie клиента, при отсутствии или порче выдаёт новые
// и кладёт Client в контекст запроса.
func (i *Identity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID, err := i.resolve(w, r, DeviceCookieName, deviceCookieTTL)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		tabID, err := i.resolve(w, r, TabCookieName, 0)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ctx := WithClient(r.Context(), Client{DeviceID: deviceID, TabID: tabID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (i *Identity) resolve(w http.ResponseWriter, r *http.Request, name string, ttl time.Duration) (string, error) {
	if cookie, err := r.Cookie(name); err == nil {
		if id, err := i.parse(cookie.Value); err == nil {
			return id, nil
		}
	}

	id := i.newID()
	token, err := i.sign(id, ttl)
	if err != nil {
		return "", err
	}

	cookie := &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		cookie.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, cookie)

	return id, nil
}

func (i *Identity) sign(id string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  id,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secretKey)
}

func (i *Identity) parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errInvalidToken
	}

	return claims.Subject, nil
}

// WithClient возвращает контекст с идентификатором клиента.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

// ClientFromContext извлекает идентификатор клиента из контекста запроса.
func ClientFromContext(ctx context.Context) (Client, bool) {
	c, ok := ctx.Value(clientKey).(Client)
	return c, ok
}
