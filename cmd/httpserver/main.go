package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/sevaergdm/tcpfileserver/internal/config"
	"github.com/sevaergdm/tcpfileserver/internal/filestore"
	"github.com/sevaergdm/tcpfileserver/internal/router"
	"github.com/sevaergdm/tcpfileserver/internal/server"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}

	log := logrus.New()
	log.SetLevel(cfg.LogLevel)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rt := router.New(filestore.Dir(cfg.Directory), log)
	server, err := server.Serve(rt.Serve, server.Config{
		Addr:         cfg.Addr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxConns:     cfg.MaxConns,
		Log:          log,
	})
	if err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
	defer server.Close()
	log.WithFields(logrus.Fields{
		"addr":      server.Addr().String(),
		"directory": cfg.Directory,
	}).Info("Server started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Server stopped accepting connections")
}
