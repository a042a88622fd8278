package handler

import (
	"net/http"

	"github.com/mmeshcher/hydracity/internal/model"
	"github.com/mmeshcher/hydracity/internal/service"
)

// GetProfile возвращает данные страницы профиля.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Profile(r.Context(), clientFrom(r))
	if err != nil {
		h.fail(w, "get profile", err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

type profileRequest struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// UpdateProfile меняет никнейм и email.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decode(r, &req) {
		h.badRequest(w)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), clientFrom(r), req.Nickname, req.Email)
	if err != nil {
		h.fail(w, "update profile", err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

type settingsRequest struct {
	Nickname        string             `json:"nickname"`
	Email           string             `json:"email"`
	CurrentPassword string             `json:"currentPassword"`
	NewPassword     string             `json:"newPassword"`
	ConfirmPassword string             `json:"confirmPassword"`
	Preferences     *model.Preferences `json:"preferences"`
}

// SaveSettings сохраняет настройки профиля.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decode(r, &req) {
		h.badRequest(w)
		return
	}

	u, err := h.service.SaveSettings(r.Context(), clientFrom(r), service.SettingsInput{
		Nickname:        req.Nickname,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
		Preferences:     req.Preferences,
	})
	if err != nil {
		h.fail(w, "save settings", err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

// DeleteAccount удаляет учётную запись текущего пользователя.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAccount(r.Context(), clientFrom(r)); err != nil {
		h.fail(w, "delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOrders возвращает заказы текущего пользователя, новые первыми.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.Orders(r.Context(), clientFrom(r))
	if err != nil {
		h.fail(w, "get orders", err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}
