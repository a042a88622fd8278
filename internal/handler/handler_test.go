package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/hydracity/internal/cart"
	"github.com/mmeshcher/hydracity/internal/directory"
	"github.com/mmeshcher/hydracity/internal/ledger"
	"github.com/mmeshcher/hydracity/internal/middleware"
	"github.com/mmeshcher/hydracity/internal/model"
	"github.com/mmeshcher/hydracity/internal/serverstatus"
	"github.com/mmeshcher/hydracity/internal/service"
	"github.com/mmeshcher/hydracity/internal/validation"
)

type stubService struct {
	err     error
	orders  []model.Order
	session model.Session

	lastClient   service.Client
	lastRegister service.RegisterInput
	lastSettings service.SettingsInput
	lastCode     string
	lastItem     string
}

func (s *stubService) Register(ctx context.Context, c service.Client, in service.RegisterInput) (model.Session, error) {
	s.lastClient, s.lastRegister = c, in
	return s.session, s.err
}

func (s *stubService) Login(ctx context.Context, c service.Client, email, password string, rememberMe bool) (model.Session, error) {
	s.lastClient = c
	return s.session, s.err
}

func (s *stubService) Logout(ctx context.Context, c service.Client) error {
	s.lastClient = c
	return s.err
}

func (s *stubService) CurrentSession(ctx context.Context, c service.Client) (model.Session, error) {
	s.lastClient = c
	return s.session, s.err
}

func (s *stubService) Products() []model.Product {
	return []model.Product{{ID: "vip-gold", Name: "VIP Gold"}}
}

func (s *stubService) ServerStatus() serverstatus.Status {
	return serverstatus.Status{Online: 251}
}

func (s *stubService) Cart(ctx context.Context, c service.Client) model.CartSnapshot {
	s.lastClient = c
	return model.CartSnapshot{Items: []model.CartItem{}}
}

func (s *stubService) AddToCart(ctx context.Context, c service.Client, productID string) (model.CartSnapshot, error) {
	s.lastClient, s.lastItem = c, productID
	return model.CartSnapshot{}, s.err
}

func (s *stubService) RemoveFromCart(ctx context.Context, c service.Client, productID string) (model.CartSnapshot, error) {
	s.lastClient, s.lastItem = c, productID
	return model.CartSnapshot{}, s.err
}

func (s *stubService) ClearCart(ctx context.Context, c service.Client) (model.CartSnapshot, error) {
	return model.CartSnapshot{}, s.err
}

func (s *stubService) ApplyCoupon(ctx context.Context, c service.Client, code string) (model.CartSnapshot, error) {
	s.lastCode = code
	return model.CartSnapshot{}, s.err
}

func (s *stubService) RemoveCoupon(ctx context.Context, c service.Client) (model.CartSnapshot, error) {
	return model.CartSnapshot{}, s.err
}

func (s *stubService) Checkout(ctx context.Context, c service.Client) (model.Order, error) {
	return model.Order{ID: "ORDER_1"}, s.err
}

func (s *stubService) Orders(ctx context.Context, c service.Client) ([]model.Order, error) {
	return s.orders, s.err
}

func (s *stubService) Profile(ctx context.Context, c service.Client) (model.Profile, error) {
	return model.Profile{}, s.err
}

func (s *stubService) UpdateProfile(ctx context.Context, c service.Client, nickname, email string) (model.User, error) {
	return model.User{Nickname: nickname, Email: email}, s.err
}

func (s *stubService) SaveSettings(ctx context.Context, c service.Client, in service.SettingsInput) (model.User, error) {
	s.lastSettings = in
	return model.User{}, s.err
}

func (s *stubService) DeleteAccount(ctx context.Context, c service.Client) error {
	return s.err
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	return NewHandler(svc, logger, middleware.NewIdentity("test-secret"))
}

func do(t *testing.T, h *Handler, method, path, body string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)
	return rec.Result()
}

func decodeError(t *testing.T, res *http.Response) errorResponse {
	t.Helper()
	defer res.Body.Close()

	var e errorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&e))
	return e
}

func TestRegister_Success(t *testing.T) {
	svc := &stubService{session: model.Session{User: model.User{ID: "user_1", Nickname: "Ana"}}}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodPost, "/api/auth/register",
		`{"nickname":"Ana","email":"ana@x.io","password":"secret1","confirmPassword":"secret1","acceptTerms":true}`)
	defer res.Body.Close()

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.True(t, svc.lastRegister.AcceptTerms)
	assert.Equal(t, "secret1", svc.lastRegister.ConfirmPassword)
	assert.NotEmpty(t, svc.lastClient.DeviceID)
	assert.NotEmpty(t, svc.lastClient.TabID)

	names := map[string]bool{}
	for _, c := range res.Cookies() {
		names[c.Name] = true
	}
	assert.True(t, names[middleware.DeviceCookieName])
	assert.True(t, names[middleware.TabCookieName])
}

func TestRegister_BadJSON(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res := do(t, h, http.MethodPost, "/api/auth/register", `{"nickname":`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, KindBadRequest, decodeError(t, res).Error)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		method string
		path   string
		body   string
		status int
		kind   string
		field  string
	}{
		{
			name:   "validation",
			err:    &validation.Error{Field: validation.FieldEmail, Rule: validation.RuleFormat},
			method: http.MethodPost, path: "/api/auth/register", body: `{}`,
			status: http.StatusBadRequest, kind: KindValidation, field: validation.FieldEmail,
		},
		{
			name:   "duplicate email",
			err:    directory.ErrDuplicateEmail,
			method: http.MethodPost, path: "/api/auth/register", body: `{}`,
			status: http.StatusConflict, kind: KindDuplicateEmail, field: validation.FieldEmail,
		},
		{
			name:   "duplicate nickname",
			err:    directory.ErrDuplicateNickname,
			method: http.MethodPut, path: "/api/profile", body: `{}`,
			status: http.StatusConflict, kind: KindDuplicateNickname, field: validation.FieldNickname,
		},
		{
			name:   "authentication failed",
			err:    service.ErrAuthenticationFailed,
			method: http.MethodPost, path: "/api/auth/login", body: `{}`,
			status: http.StatusUnauthorized, kind: KindAuthenticationFailed,
		},
		{
			name:   "not authenticated",
			err:    service.ErrNotAuthenticated,
			method: http.MethodGet, path: "/api/session",
			status: http.StatusUnauthorized, kind: KindNotAuthenticated,
		},
		{
			name:   "unknown product",
			err:    cart.ErrUnknownProduct,
			method: http.MethodPost, path: "/api/cart/items", body: `{"id":"x"}`,
			status: http.StatusNotFound, kind: KindUnknownProduct,
		},
		{
			name:   "duplicate item",
			err:    cart.ErrDuplicateItem,
			method: http.MethodPost, path: "/api/cart/items", body: `{"id":"vip-gold"}`,
			status: http.StatusConflict, kind: KindDuplicateItem,
		},
		{
			name:   "empty coupon",
			err:    cart.ErrEmptyCouponCode,
			method: http.MethodPost, path: "/api/cart/coupon", body: `{"code":""}`,
			status: http.StatusBadRequest, kind: KindEmptyCoupon,
		},
		{
			name:   "coupon already applied",
			err:    cart.ErrCouponAlreadyApplied,
			method: http.MethodPost, path: "/api/cart/coupon", body: `{"code":"VIP20"}`,
			status: http.StatusConflict, kind: KindCouponApplied,
		},
		{
			name:   "invalid coupon",
			err:    cart.ErrInvalidCoupon,
			method: http.MethodPost, path: "/api/cart/coupon", body: `{"code":"NOPE"}`,
			status: http.StatusUnprocessableEntity, kind: KindInvalidCoupon,
		},
		{
			name:   "empty cart",
			err:    ledger.ErrEmptyCart,
			method: http.MethodPost, path: "/api/cart/checkout",
			status: http.StatusUnprocessableEntity, kind: KindEmptyCart,
		},
		{
			name:   "wrong password",
			err:    service.ErrWrongPassword,
			method: http.MethodPut, path: "/api/profile/settings", body: `{}`,
			status: http.StatusForbidden, kind: KindWrongPassword,
		},
		{
			name:   "unexpected",
			err:    errors.New("disk on fire"),
			method: http.MethodDelete, path: "/api/profile",
			status: http.StatusInternalServerError, kind: KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{err: tt.err})

			res := do(t, h, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, res.StatusCode)

			e := decodeError(t, res)
			assert.Equal(t, tt.kind, e.Error)
			assert.Equal(t, tt.field, e.Field)
		})
	}
}

func TestAddItem_RequiresID(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res := do(t, h, http.MethodPost, "/api/cart/items", `{}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestRemoveItem_PathParam(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodDelete, "/api/cart/items/vip-bronze", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "vip-bronze", svc.lastItem)
}

func TestSaveSettings_PreferencesOptional(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := do(t, h, http.MethodPut, "/api/profile/settings", `{"currentPassword":"secret1","newPassword":"secret2","confirmPassword":"secret2"}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "secret2", svc.lastSettings.NewPassword)
	assert.Nil(t, svc.lastSettings.Preferences, "absent preferences must not overwrite stored ones")

	res = do(t, h, http.MethodPut, "/api/profile/settings", `{"nickname":"Bea","preferences":{"emailNotifications":false,"marketingEmails":true}}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Bea", svc.lastSettings.Nickname)
	require.NotNil(t, svc.lastSettings.Preferences)
	assert.Equal(t, model.Preferences{EmailNotifications: false, MarketingEmails: true}, *svc.lastSettings.Preferences)
}

func TestGetOrders_NoContent(t *testing.T) {
	h := newTestHandler(t, &stubService{orders: []model.Order{}})

	res := do(t, h, http.MethodGet, "/api/profile/orders", "")
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestGetOrders_JSONResponse(t *testing.T) {
	h := newTestHandler(t, &stubService{orders: []model.Order{{ID: "ORDER_1", Status: model.OrderStatusPending}}})

	res := do(t, h, http.MethodGet, "/api/profile/orders", "")
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var orders []model.Order
	require.NoError(t, json.NewDecoder(res.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "ORDER_1", orders[0].ID)
}

func TestPublicEndpoints(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res := do(t, h, http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, res.Cookies(), "catalog does not need a client identity")

	res = do(t, h, http.MethodGet, "/api/server/status", "")
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var st serverstatus.Status
	require.NoError(t, json.NewDecoder(res.Body).Decode(&st))
	assert.Equal(t, 251, st.Online)
}

func TestUnknownRoute(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res := do(t, h, http.MethodGet, "/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = do(t, h, http.MethodPatch, "/api/cart/checkout", "")
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestGzipResponse(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)

	assert.Equal(t, "gzip", rec.Result().Header.Get("Content-Encoding"))
	assert.False(t, strings.Contains(rec.Body.String(), "vip-gold"), "body must be compressed")
}

func gzipPost(t *testing.T, h *Handler, path, body string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)
	return rec.Result()
}

func TestGzipAddItem(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := gzipPost(t, h, "/api/cart/items", `{"id":"vip-gold"}`)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "vip-gold", svc.lastItem, "compressed request body is decoded")
	assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))

	zr, err := gzip.NewReader(res.Body)
	require.NoError(t, err)
	defer zr.Close()

	var snap model.CartSnapshot
	require.NoError(t, json.NewDecoder(zr).Decode(&snap))
}

func TestGzipAddItem_ErrorUncompressed(t *testing.T) {
	h := newTestHandler(t, &stubService{err: cart.ErrUnknownProduct})

	res := gzipPost(t, h, "/api/cart/items", `{"id":"vip-none"}`)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Empty(t, res.Header.Get("Content-Encoding"))
	assert.Equal(t, KindUnknownProduct, decodeError(t, res).Error)
}
