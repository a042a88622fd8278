// Package serverstatus отслеживает число игроков онлайн на игровом сервере.
package serverstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Client инкапсулирует HTTP-взаимодействие с игровым сервером.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// NewClient создаёт клиент игрового сервера по указанному адресу.
// Ошибки соединения и ответы 5xx повторяются, 429 возвращается вызывающему вместе с Retry-After.
func NewClient(baseURL string) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	hc := retryablehttp.NewClient()
	hc.Logger = nil
	hc.RetryMax = 2
	hc.RetryWaitMin = 200 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	hc.HTTPClient.Timeout = 5 * time.Second
	hc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	return &Client{baseURL: base, httpClient: hc}
}

// GetPlayers запрашивает список игроков (players.json) и возвращает их количество,
// код ответа и паузу из Retry-After для ответа 429.
func (c *Client) GetPlayers(ctx context.Context) (int, int, time.Duration, error) {
	if c == nil || c.baseURL == "" {
		return 0, 0, 0, fmt.Errorf("game server client not configured")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/players.json", nil)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return 0, resp.StatusCode, retryAfter, nil
	}

	if resp.StatusCode != http.StatusOK {
		return 0, resp.StatusCode, 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var players []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&players); err != nil {
		return 0, resp.StatusCode, 0, fmt.Errorf("decode response: %w", err)
	}

	return len(players), resp.StatusCode, 0, nil
}
