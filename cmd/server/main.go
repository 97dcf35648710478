package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Romanticus/TRexpress/internal/config"
	"github.com/Romanticus/TRexpress/internal/database"
	"github.com/Romanticus/TRexpress/internal/handler"
	"github.com/Romanticus/TRexpress/internal/queue"
	"github.com/Romanticus/TRexpress/internal/repository"
	"github.com/Romanticus/TRexpress/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client just disables the lookup cache.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, user cache disabled")
	}
	users := repository.NewCachedUserRepo(repository.NewUserRepo(db), rdb, cfg.UserCacheTTL)

	// Background consumer writes account events to logs/account.log and
	// reconnects on its own; it never takes the server down.
	go func() {
		if err := queue.StartAccountConsumer(); err != nil {
			log.Printf("account consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	router.RegisterRoutes(e)
	router.RegisterUserRoutes(e, handler.NewAuthHandler(cfg, users), handler.NewUserHandler(users), cfg.AccessSecret, users)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
