// Command gateway runs the Anthropic-shape <-> OpenAI-shape translation
// gateway.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ccbridge/gateway/internal/config"
	"github.com/ccbridge/gateway/internal/gateway"
	"github.com/ccbridge/gateway/internal/middleware"
	"github.com/ccbridge/gateway/internal/upstream"
	"github.com/ccbridge/gateway/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gateway: failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)

	client := upstream.New(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.Server.UpstreamTimeout)
	maxBodyBytes := cfg.Server.MaxRequestBodyMB * 1024 * 1024
	handler := gateway.New(client, log, cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey != "", maxBodyBytes)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(middleware.Logging(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())
	handler.RegisterRoutes(router)

	addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("gateway listening on %s, forwarding to %s", addr, cfg.OpenAI.BaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("gateway: server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("gateway: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("gateway: forced shutdown: %v", err)
	}
	log.Info("gateway: exited")
}
