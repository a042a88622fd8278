package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetCart возвращает состояние корзины.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Cart(r.Context(), clientFrom(r)))
}

type addItemRequest struct {
	ID string `json:"id"`
}

// AddItem добавляет товар каталога в корзину.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decode(r, &req) || req.ID == "" {
		h.badRequest(w)
		return
	}

	snap, err := h.service.AddToCart(r.Context(), clientFrom(r), req.ID)
	if err != nil {
		h.fail(w, "add cart item", err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// RemoveItem удаляет позицию из корзины. Отсутствующая позиция не ошибка.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.RemoveFromCart(r.Context(), clientFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "remove cart item", err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// ClearCart очищает корзину.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.ClearCart(r.Context(), clientFrom(r))
	if err != nil {
		h.fail(w, "clear cart", err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

type couponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon применяет промокод.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decode(r, &req) {
		h.badRequest(w)
		return
	}

	snap, err := h.service.ApplyCoupon(r.Context(), clientFrom(r), req.Code)
	if err != nil {
		h.fail(w, "apply coupon", err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// RemoveCoupon снимает промокод.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.RemoveCoupon(r.Context(), clientFrom(r))
	if err != nil {
		h.fail(w, "remove coupon", err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// Checkout оформляет заказ.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Checkout(r.Context(), clientFrom(r))
	if err != nil {
		h.fail(w, "checkout", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, o)
}
