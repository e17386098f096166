package main

// ubuntu: nohup ./eco_shop > eco_shop.log 2>&1 &
import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/studieren/eco_shop/config"
	"github.com/studieren/eco_shop/database"
	"github.com/studieren/eco_shop/events"
	"github.com/studieren/eco_shop/gormtool"
	"github.com/studieren/eco_shop/handlers"
	"github.com/studieren/eco_shop/models"
	"github.com/studieren/eco_shop/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	level, err := gormtool.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := gormtool.NewLogger(os.Stdout, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}

	db, err := database.Open(database.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		log.Fatal(err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
	}

	publisher, err := events.Open(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Fatalf("events: %v", err)
	}

	cruder := gormtool.NewCRUDTool(db, rdb, logger)
	r := handlers.NewRouter(handlers.New(cruder, publisher))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		logger.Info(ctx, "listening", map[string]interface{}{"addr": cfg.HTTPAddr, "driver": cfg.DBDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "http shutdown", map[string]interface{}{"error": err.Error()})
	}
	_ = publisher.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "tracer shutdown", map[string]interface{}{"error": err.Error()})
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
