// Package handler содержит HTTP-обработчики API витрины Hydra City.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/hydracity/internal/middleware"
	"github.com/mmeshcher/hydracity/internal/model"
	"github.com/mmeshcher/hydracity/internal/serverstatus"
	"github.com/mmeshcher/hydracity/internal/service"
)

// Service определяет контракт сценариев витрины, используемых HTTP-обработчиками.
type Service interface {
	Register(ctx context.Context, c service.Client, in service.RegisterInput) (model.Session, error)
	Login(ctx context.Context, c service.Client, email, password string, rememberMe bool) (model.Session, error)
	Logout(ctx context.Context, c service.Client) error
	CurrentSession(ctx context.Context, c service.Client) (model.Session, error)

	Products() []model.Product
	ServerStatus() serverstatus.Status

	Cart(ctx context.Context, c service.Client) model.CartSnapshot
	AddToCart(ctx context.Context, c service.Client, productID string) (model.CartSnapshot, error)
	RemoveFromCart(ctx context.Context, c service.Client, productID string) (model.CartSnapshot, error)
	ClearCart(ctx context.Context, c service.Client) (model.CartSnapshot, error)
	ApplyCoupon(ctx context.Context, c service.Client, code string) (model.CartSnapshot, error)
	RemoveCoupon(ctx context.Context, c service.Client) (model.CartSnapshot, error)
	Checkout(ctx context.Context, c service.Client) (model.Order, error)

	Orders(ctx context.Context, c service.Client) ([]model.Order, error)
	Profile(ctx context.Context, c service.Client) (model.Profile, error)
	UpdateProfile(ctx context.Context, c service.Client, nickname, email string) (model.User, error)
	SaveSettings(ctx context.Context, c service.Client, in service.SettingsInput) (model.User, error)
	DeleteAccount(ctx context.Context, c service.Client) error
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	service  Service
	logger   *zap.Logger
	identity *middleware.Identity
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, identity *middleware.Identity) *Handler {
	return &Handler{
		service:  s,
		logger:   logger,
		identity: identity,
	}
}

func clientFrom(r *http.Request) service.Client {
	c, _ := middleware.ClientFromContext(r.Context())
	return service.Client{DeviceID: c.DeviceID, TabID: c.TabID}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func decode(r *http.Request, dst any) bool {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst) == nil
}

type registerRequest struct {
	Nickname        string `json:"nickname"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AcceptTerms     bool   `json:"acceptTerms"`
}

// Register регистрирует пользователя и открывает сессию до закрытия вкладки.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(r, &req) {
		h.badRequest(w)
		return
	}

	sess, err := h.service.Register(r.Context(), clientFrom(r), service.RegisterInput{
		Nickname:        req.Nickname,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		AcceptTerms:     req.AcceptTerms,
	})
	if err != nil {
		h.fail(w, "register", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, sess)
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// Login выполняет аутентификацию пользователя.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(r, &req) {
		h.badRequest(w)
		return
	}

	sess, err := h.service.Login(r.Context(), clientFrom(r), req.Email, req.Password, req.RememberMe)
	if err != nil {
		h.fail(w, "login", err)
		return
	}

	h.writeJSON(w, http.StatusOK, sess)
}

// Logout закрывает сессию.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), clientFrom(r)); err != nil {
		h.fail(w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session возвращает текущую сессию.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.CurrentSession(r.Context(), clientFrom(r))
	if err != nil {
		h.fail(w, "current session", err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

// Products возвращает каталог товаров.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Products())
}

// ServerStatus возвращает число игроков онлайн.
func (h *Handler) ServerStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.ServerStatus())
}
