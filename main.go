package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"drawcollab/internal/config"
	"drawcollab/internal/enhance"
	"drawcollab/internal/http/enhancehandler"
	"drawcollab/internal/http/http_server"
	"drawcollab/internal/registry"
	"drawcollab/internal/room"
	"drawcollab/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Shared state: connection registry and room store
	reg := registry.New()
	rooms := room.NewStore()

	// 4. Coordinator: websocket server and message router
	wsSrv := ws.NewServer(reg, rooms)

	// 5. Canvas-image side channel
	enhanceSvc, err := enhance.NewService(cfg.ImageDir, cfg.EnhancedDir, cfg.EnhanceAPIURL, cfg.EnhanceAPIKey)
	if err != nil {
		Log.Fatal("Failed to init enhance service", zap.Error(err))
	}

	// 6. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.ListenHost, cfg.ListenPort,
		wsSrv, rooms, enhancehandler.New(enhanceSvc), cfg.ImageDir, cfg.EnhancedDir)

	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	Log.Info("Shutting down")
	_ = httpServer.Dispose()
}
