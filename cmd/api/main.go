package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"taskdesk.org/internal/auth"
	"taskdesk.org/internal/httpapi"
	"taskdesk.org/internal/obs"
	"taskdesk.org/internal/task"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("TASKDESK_AUTH_SECRET")
	if secret == "" {
		log.Fatal("TASKDESK_AUTH_SECRET is required")
	}

	// Stores: Postgres when a DSN is configured, in-memory otherwise
	// (local development).
	var (
		db        *sql.DB
		userStore auth.Store
		taskStore task.Store
	)
	if dsn := os.Getenv("TASKDESK_PG_DSN"); dsn != "" {
		var err error
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		userStore = auth.NewPGStore(db)
		taskStore = task.NewPGStore(db)
	} else {
		log.Print("TASKDESK_PG_DSN not set, using in-memory store")
		userStore = auth.NewMemoryStore()
		taskStore = task.NewMemoryStore()
	}

	ctx := context.Background()
	if err := auth.EnsureRoles(ctx, userStore); err != nil {
		log.Fatalf("ensure roles: %v", err)
	}

	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	authSvc, err := auth.NewService(userStore, tokens)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	taskSvc, err := task.NewService(taskStore)
	if err != nil {
		log.Fatalf("task service: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, authSvc, tokens, taskSvc)

	addr := os.Getenv("TASKDESK_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting taskdesk-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
