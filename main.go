package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"order-management-api/config"
	"order-management-api/events"
	"order-management-api/handlers"
	"order-management-api/lifecycle"
	"order-management-api/middleware"
	"order-management-api/routes"
	"order-management-api/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected and migrated", "path", cfg.Database.Path)

	repo := storage.NewOrderRepository(db)

	sinks := []lifecycle.NotificationSink{events.NewLogSink(logger)}
	var amqpSink *events.AMQPSink
	if cfg.Events.AMQPURL != "" {
		amqpSink, err = events.NewAMQPSink(cfg.Events.AMQPURL)
		if err != nil {
			logger.Error("failed to connect notification broker", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, amqpSink)
		logger.Info("AMQP notification sink enabled")
	}
	emitter := events.NewEmitter(logger, cfg.Events.Buffer, sinks...)

	manager := lifecycle.NewManager(repo, emitter, logger)
	handler := handlers.NewOrderHandler(manager, repo, logger)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())

	// CORS for browser clients
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Order Management Service is running"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Order Management API",
			"version": "1.0.0",
		})
	})

	routes.SetupRoutes(r, handler, []byte(cfg.Auth.JWTSecret))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	emitter.Close()
	if amqpSink != nil {
		amqpSink.Close()
	}
}
