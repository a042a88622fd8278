// Package main запускает HTTP-сервер витрины Hydra City.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/hydracity/internal/catalog"
	"github.com/mmeshcher/hydracity/internal/config"
	"github.com/mmeshcher/hydracity/internal/directory"
	"github.com/mmeshcher/hydracity/internal/handler"
	"github.com/mmeshcher/hydracity/internal/ledger"
	"github.com/mmeshcher/hydracity/internal/localstore"
	"github.com/mmeshcher/hydracity/internal/middleware"
	"github.com/mmeshcher/hydracity/internal/repository"
	"github.com/mmeshcher/hydracity/internal/serverstatus"
	"github.com/mmeshcher/hydracity/internal/service"
)

const sweepInterval = time.Minute

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	durable, err := repository.Open(ctx, cfg.StoreDSN)
	if err != nil {
		sugar.Fatalw("durable store initialization error", "error", err.Error())
	}
	defer durable.Close()

	scoped, err := repository.Open(ctx, cfg.ScopedStoreDSN, repository.WithTTL(cfg.ScopedTTL))
	if err != nil {
		sugar.Fatalw("scoped store initialization error", "error", err.Error())
	}
	defer scoped.Close()

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		cat, err = catalog.Load(cfg.CatalogFile)
		if err != nil {
			sugar.Fatalw("catalog load error", "error", err.Error(), "file", cfg.CatalogFile)
		}
	}

	var gameServer *serverstatus.Client
	if cfg.GameServerAddress != "" {
		gameServer = serverstatus.NewClient(cfg.GameServerAddress)
	}
	tracker := serverstatus.NewTracker(gameServer, cfg.StatusInterval, logger.Named("serverstatus"))

	store := localstore.New(durable, scoped, logger.Named("localstore"))
	svc := service.NewService(
		store,
		directory.New(store, cfg.BcryptCost),
		ledger.New(store),
		cat,
		tracker,
	)

	identity := middleware.NewIdentity(cfg.SecretKey)
	if cfg.SecretKey == "" {
		sugar.Warn("SECRET_KEY is empty, client cookies will not survive a restart")
	}
	h := handler.NewHandler(svc, logger, identity)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Счётчик игроков онлайн
	g.Go(func() error {
		return tracker.Run(ctx)
	})

	// Очистка просроченных значений хранилищ в памяти
	g.Go(func() error {
		sweepExpired(ctx, sugar, durable, scoped)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting hydracity server", "addr", cfg.RunAddress, "catalog", len(cat.Products()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func sweepExpired(ctx context.Context, sugar *zap.SugaredLogger, backends ...repository.Backend) {
	var stores []*repository.MemoryStore
	for _, b := range backends {
		if m, ok := b.(*repository.MemoryStore); ok {
			stores = append(stores, m)
		}
	}
	if len(stores) == 0 {
		return
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, m := range stores {
				if n := m.Sweep(); n > 0 {
					sugar.Debugw("expired values removed", "count", n)
				}
			}
		}
	}
}
