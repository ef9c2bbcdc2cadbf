package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/refloapp/reflo/backend/internal/config"
	"github.com/refloapp/reflo/backend/internal/handler"
	"github.com/refloapp/reflo/backend/internal/service/conversation"
	"github.com/refloapp/reflo/backend/internal/service/enrichment"
	historyservice "github.com/refloapp/reflo/backend/internal/service/history"
	"github.com/refloapp/reflo/backend/internal/service/session"
	settingsservice "github.com/refloapp/reflo/backend/internal/service/settings"
	"github.com/refloapp/reflo/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	kv := store.New(cfg.Journal.DataDir)
	sessions := session.NewService(kv)
	prefs := settingsservice.NewService(kv)
	history := historyservice.NewService(kv)

	var conv *conversation.Service
	var enrich *enrichment.Service
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing without replies and enrichment - check the ARK_* environment variables")
		} else {
			conv, err = conversation.NewService(ctx, chatModel, sessions)
			if err != nil {
				log.Fatalf("failed to initialize conversation service: %v", err)
			}
			enrich, err = enrichment.NewService(ctx, chatModel, sessions, kv)
			if err != nil {
				log.Fatalf("failed to initialize enrichment service: %v", err)
			}
			log.Println("conversation and enrichment services initialized")
		}
	} else {
		log.Println("model credentials not configured, journal replies and enrichment disabled")
	}

	router := handler.NewRouter(sessions, prefs, history, conv, enrich, cfg.AI.StreamResponse)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("reflo backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
