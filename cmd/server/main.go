package main

import (
	"log"

	"collab-board-backend/internal/config"
	"collab-board-backend/internal/database"
	"collab-board-backend/internal/presence"
	"collab-board-backend/internal/server"
	"collab-board-backend/internal/store"
)

func main() {
	cfg := config.Load()

	var (
		st        store.Store
		pingStore func() error
	)
	switch cfg.Database.Driver {
	case "memory":
		log.Println("Using in-memory store (data will not survive restarts)")
		st = store.NewMemory()
	default:
		db, err := database.ConnectDB()
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		defer database.Close()

		if err := database.Ping(); err != nil {
			log.Fatalf("Database ping failed: %v", err)
		}
		log.Printf("Database connected successfully")

		var version string
		db.Raw("SELECT version()").Scan(&version)
		if len(version) > 50 {
			version = version[:50] + "..."
		}
		log.Printf("PostgreSQL: %s", version)

		st = store.NewGorm(db)
		pingStore = database.Ping
	}

	var pm *presence.Manager
	if cfg.Redis.Enabled {
		var err error
		pm, err = presence.NewManager(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ServerID)
		if err != nil {
			log.Printf("Redis presence unavailable: %v (continuing without it)", err)
			pm = nil
		} else {
			defer pm.Close()
		}
	} else {
		log.Println("Redis presence not configured")
	}

	srv := server.New(cfg, st, pingStore, pm)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
