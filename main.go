package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collegetour/internal/cache"
	intconfig "collegetour/internal/config"
	intdb "collegetour/internal/db"
	router "collegetour/internal/http"
	"collegetour/internal/http/handlers"

	"github.com/gin-gonic/gin"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer intconfig.CloseDB()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := intdb.EnsureSchema(schemaCtx, db); err != nil {
		cancelSchema()
		log.Fatalf("schema setup failed: %v", err)
	}
	cancelSchema()

	handlers.Configure(handlers.Deps{
		DB:              db,
		Cache:           cache.NewBusCache(intconfig.ConnectRedis(env), env.BusCacheTTL),
		JWTSecret:       []byte(env.JWTSecret),
		JWTTTL:          env.JWTTTL,
		CookieSecure:    env.CookieSecure,
		MaxMainPackages: env.MaxMainPackages,
	})

	r := router.NewRouter(env)
	handlers.SetRouter(r)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
