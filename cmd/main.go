package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"apms-analytics-service/internal/config"
	"apms-analytics-service/internal/controller"
	"apms-analytics-service/internal/db"
	httpserver "apms-analytics-service/internal/http"
	"apms-analytics-service/internal/repository"
	"apms-analytics-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.NewConnection(ctx, cfg)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer conn.Close(context.Background())

	if err := db.EnsureIndexes(ctx, conn); err != nil {
		log.Fatalf("ensure indexes: %v", err)
	}

	repo := repository.NewAnalyticsRepository(conn.Database())
	analyticsService := service.NewAnalyticsService(repo)
	analyticsController := controller.NewAnalyticsController(analyticsService)

	server := httpserver.NewServer(cfg, analyticsController)

	log.Printf("starting server on %s", cfg.HTTPPort)
	if err := server.Listen(cfg.HTTPPort); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
