package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/hydracity/internal/cart"
	"github.com/mmeshcher/hydracity/internal/directory"
	"github.com/mmeshcher/hydracity/internal/ledger"
	"github.com/mmeshcher/hydracity/internal/service"
	"github.com/mmeshcher/hydracity/internal/validation"
)

// Коды ошибок в теле ответа.
const (
	KindBadRequest           = "bad_request"
	KindValidation           = "validation"
	KindDuplicateEmail       = "duplicate_email"
	KindDuplicateNickname    = "duplicate_nickname"
	KindAuthenticationFailed = "authentication_failed"
	KindNotAuthenticated     = "not_authenticated"
	KindUnknownProduct       = "unknown_product"
	KindDuplicateItem        = "duplicate_item"
	KindEmptyCoupon          = "empty_coupon"
	KindCouponApplied        = "coupon_already_applied"
	KindInvalidCoupon        = "invalid_coupon"
	KindEmptyCart            = "empty_cart"
	KindWrongPassword        = "wrong_password"
	KindInternal             = "internal"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Rule  string `json:"rule,omitempty"`
}

var sentinelErrors = []struct {
	err    error
	status int
	kind   string
	field  string
}{
	{directory.ErrDuplicateEmail, http.StatusConflict, KindDuplicateEmail, validation.FieldEmail},
	{directory.ErrDuplicateNickname, http.StatusConflict, KindDuplicateNickname, validation.FieldNickname},
	{directory.ErrUserNotFound, http.StatusUnauthorized, KindNotAuthenticated, ""},
	{service.ErrAuthenticationFailed, http.StatusUnauthorized, KindAuthenticationFailed, ""},
	{service.ErrNotAuthenticated, http.StatusUnauthorized, KindNotAuthenticated, ""},
	{service.ErrWrongPassword, http.StatusForbidden, KindWrongPassword, "currentPassword"},
	{cart.ErrUnknownProduct, http.StatusNotFound, KindUnknownProduct, ""},
	{cart.ErrDuplicateItem, http.StatusConflict, KindDuplicateItem, ""},
	{cart.ErrEmptyCouponCode, http.StatusBadRequest, KindEmptyCoupon, ""},
	{cart.ErrCouponAlreadyApplied, http.StatusConflict, KindCouponApplied, ""},
	{cart.ErrInvalidCoupon, http.StatusUnprocessableEntity, KindInvalidCoupon, ""},
	{ledger.ErrEmptyCart, http.StatusUnprocessableEntity, KindEmptyCart, ""},
}

func (h *Handler) badRequest(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: KindBadRequest})
}

// fail переводит ошибку сценария в HTTP-ответ. Неизвестные ошибки логируются как 500.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: KindValidation, Field: verr.Field, Rule: verr.Rule})
		return
	}

	for _, s := range sentinelErrors {
		if errors.Is(err, s.err) {
			h.writeJSON(w, s.status, errorResponse{Error: s.kind, Field: s.field})
			return
		}
	}

	h.logger.Error(op+" error", zap.Error(err))
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: KindInternal})
}
