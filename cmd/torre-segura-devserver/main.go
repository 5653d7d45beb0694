package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"torresegura/internal/config"
	"torresegura/internal/devserver/httpapi"
	"torresegura/internal/devserver/store/memory"
	"torresegura/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	shutdownTelemetry := telemetry.Setup(telemetry.Options{ServiceName: "torre-segura-devserver"})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	if cfg.DevSigningKey == "" {
		log.Printf("DEVSERVER_SIGNING_KEY not set; using a development key")
		cfg.DevSigningKey = "torre-segura-dev"
	}
	store, err := memory.New(memory.Options{
		SigningKey: cfg.DevSigningKey,
		TokenTTL:   cfg.DevTokenTTL,
	}, memory.DefaultSeed())
	if err != nil {
		log.Fatalf("seed store: %v", err)
	}

	handler := httpapi.NewHandler(store, httpapi.Options{})
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:       cfg.LoginRateLimitPerMinute,
		IPBurst:           cfg.LoginRateLimitBurst,
		UsernamePerMinute: cfg.UsernameRateLimitPerMinute,
		UsernameBurst:     cfg.UsernameRateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	mux.Handle("/", otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(handler.Routes())), "torre-segura-devserver"))

	server := &http.Server{
		Addr:         ":" + cfg.DevPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("torre-segura-devserver listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
