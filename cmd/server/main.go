package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"towerdefense/internal/auth"
	"towerdefense/internal/balance"
	"towerdefense/internal/config"
	"towerdefense/internal/data"
	"towerdefense/internal/leaderboard"
	"towerdefense/internal/session"
)

func main() {
	cfg := config.FromEnv()

	// 1. Game table, hot reloaded for new matches when it lives in a file
	table := balance.Default()
	if cfg.BalancePath != "" {
		loaded, err := balance.Load(cfg.BalancePath)
		if err != nil {
			log.Fatalf("failed to load balance: %v", err)
		}
		table = loaded
	}
	source := balance.NewSource(table)
	if cfg.BalancePath != "" {
		watcher, err := balance.Watch(source, cfg.BalancePath)
		if err != nil {
			log.Printf("Warning: not watching %s: %v", cfg.BalancePath, err)
		} else {
			defer watcher.Close()
		}
	}

	// 2. Leaderboard storage
	var repo leaderboard.Repository
	if cfg.DatabaseURL != "" {
		store, err := data.NewStoreFromDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = store.Migrate(ctx)
		cancel()
		if err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		repo = store
	} else {
		log.Println("Warning: DATABASE_URL not set, scores are kept in memory")
		repo = data.NewMemoryStore()
	}
	board := leaderboard.NewService(repo)

	// 3. Routes
	identity := auth.New(cfg.SessionSecret)
	http.HandleFunc("/api/auth/anonymous", identity.AnonymousHandler)
	http.HandleFunc("/api/username", identity.UsernameHandler)

	http.HandleFunc("/api/leaderboard", board.TopHandler)
	http.HandleFunc("/ws/leaderboard", board.LiveHandler)
	http.HandleFunc("/healthz", board.HealthHandler)

	http.Handle("/ws/match", session.NewHandler(source, identity, board))

	http.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))

	log.Println("Server starting on port " + cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}
