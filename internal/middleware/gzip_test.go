package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addItemHandler отвечает снимком корзины на {"id":"..."} и 404 на неизвестный товар.
func addItemHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad_request"}`))
		return
	}
	if req.ID != "vip-gold" {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"unknown_product"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"items":[{"id":"vip-gold","name":"VIP Gold","price":"50"}],"total":"50"}`))
}

func gzipBody(t *testing.T, s string) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return &buf
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()

	var r io.Reader = res.Body
	if res.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(res.Body)
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	}
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestGzipMiddleware_CartRequests(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		gzipRequest    bool
		acceptGzip     bool
		wantStatus     int
		wantCompressed bool
		wantBody       string
	}{
		{
			name:           "compressed request and response",
			body:           `{"id":"vip-gold"}`,
			gzipRequest:    true,
			acceptGzip:     true,
			wantStatus:     http.StatusOK,
			wantCompressed: true,
			wantBody:       `"total":"50"`,
		},
		{
			name:           "plain request, compressed response",
			body:           `{"id":"vip-gold"}`,
			acceptGzip:     true,
			wantStatus:     http.StatusOK,
			wantCompressed: true,
			wantBody:       `"id":"vip-gold"`,
		},
		{
			name:        "client without gzip support",
			body:        `{"id":"vip-gold"}`,
			gzipRequest: true,
			wantStatus:  http.StatusOK,
			wantBody:    `"total":"50"`,
		},
		{
			name:        "error status stays uncompressed",
			body:        `{"id":"vip-none"}`,
			gzipRequest: true,
			acceptGzip:  true,
			wantStatus:  http.StatusNotFound,
			wantBody:    `unknown_product`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = bytes.NewBufferString(tt.body)
			if tt.gzipRequest {
				body = gzipBody(t, tt.body)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/cart/items", body)
			req.Header.Set("Content-Type", "application/json")
			if tt.gzipRequest {
				req.Header.Set("Content-Encoding", "gzip")
			}
			if tt.acceptGzip {
				req.Header.Set("Accept-Encoding", "gzip")
			}

			rec := httptest.NewRecorder()
			GzipMiddleware(http.HandlerFunc(addItemHandler)).ServeHTTP(rec, req)

			res := rec.Result()
			defer res.Body.Close()

			assert.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
			if tt.wantCompressed {
				assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
			} else {
				assert.Empty(t, res.Header.Get("Content-Encoding"))
			}
			assert.Contains(t, readBody(t, res), tt.wantBody)
		})
	}
}

func TestGzipMiddleware_BrokenGzipBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", bytes.NewBufferString(`{"id":"vip-gold"}`))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()

	called := false
	GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called, "handler must not see an unreadable body")
}

func TestGzipMiddleware_SkipsNonJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})).ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", rec.Body.String())
}
