package serverstatus

import (
	"context"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// BaseOnline задаёт стартовое значение счётчика игроков.
	BaseOnline = 247
	// MinOnline задаёт нижнюю границу имитируемого счётчика.
	MinOnline = 200
	// DefaultInterval задаёт период обновления счётчика.
	DefaultInterval = 30 * time.Second
)

// Status описывает последнее известное состояние игрового сервера.
type Status struct {
	Online    int       `json:"online"`
	Live      bool      `json:"live"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tracker периодически обновляет счётчик игроков онлайн.
// Без клиента или при недоступности сервера счётчик имитируется.
type Tracker struct {
	client   *Client
	interval time.Duration
	logger   *zap.Logger
	intn     func(int) int
	clock    func() time.Time

	mu     sync.RWMutex
	status Status
}

// NewTracker создаёт трекер. client может быть nil.
func NewTracker(client *Client, interval time.Duration, logger *zap.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		client:   client,
		interval: interval,
		logger:   logger,
		intn:     rand.Intn,
		clock:    func() time.Time { return time.Now().UTC() },
	}
	t.status = Status{Online: BaseOnline, UpdatedAt: t.clock()}
	return t
}

// Status возвращает копию текущего состояния.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Online возвращает текущее число игроков.
func (t *Tracker) Online() int {
	return t.Status().Online
}

// Run обновляет счётчик до отмены контекста.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.refresh(ctx)
		}
	}
}

func (t *Tracker) refresh(ctx context.Context) {
	if t.client == nil {
		t.simulate()
		return
	}

	n, statusCode, retryAfter, err := t.client.GetPlayers(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		t.logger.Debug("game server unavailable, simulating online count", zap.Error(err))
		t.simulate()
		return
	}

	if statusCode == http.StatusTooManyRequests {
		t.logger.Debug("game server rate limited", zap.Duration("retry_after", retryAfter))
		if retryAfter > 0 {
			timer := time.NewTimer(retryAfter)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
		return
	}

	t.set(n, true)
}

// simulate колеблет счётчик вокруг BaseOnline в пределах ±7.
func (t *Tracker) simulate() {
	t.set(max(MinOnline, BaseOnline+t.intn(15)-7), false)
}

func (t *Tracker) set(online int, live bool) {
	t.mu.Lock()
	t.status = Status{Online: online, Live: live, UpdatedAt: t.clock()}
	t.mu.Unlock()
}
