package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"warbler/confs"
	"warbler/db"
	"warbler/logger"
	"warbler/server"

	"github.com/sirupsen/logrus"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	logger.Init(cfg.LogLevel)

	// connect to database
	database, err := db.Connect(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to DB")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run server
	srv, err := server.NewServer(cfg, database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build server")
	}
	if err := srv.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("Server stopped")
	}
}
