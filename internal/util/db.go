package util

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

const (
	defaultMaxOpenConns    = 16
	defaultMaxIdleConns    = 8
	defaultConnMaxLifetime = 30 * time.Minute
)

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

func NewDBConfig() *DBConfig {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	return &DBConfig{
		DSN:          dsn,
		MaxOpenConns: parseIntOrDefault("DB_MAX_OPEN_CONNS", defaultMaxOpenConns),
		MaxIdleConns: parseIntOrDefault("DB_MAX_IDLE_CONNS", defaultMaxIdleConns),
	}
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisConfig() *RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Fatal("REDIS_ADDR is not set")
	}

	return &RedisConfig{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       parseIntOrDefault("REDIS_DB", 0),
	}
}

func NewDBConnection(logger *zap.SugaredLogger, cfg *DBConfig) (*sql.DB, func(), error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}

	// Checkout and order transitions hold row locks on products; a modest
	// pool keeps a burst from piling up lock waiters.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	if err = db.Ping(); err != nil {
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Infow("postgres connected", "max_open_conns", cfg.MaxOpenConns)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Errorw("closing postgres", "error", err)
		}
	}

	return db, cleanup, nil
}

func NewRedisClient(logger *zap.SugaredLogger, cfg *RedisConfig) (*redis.Client, func(), error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Infow("redis connected", "addr", cfg.Addr)

	cleanup := func() {
		if err := redisClient.Close(); err != nil {
			logger.Errorw("closing redis", "error", err)
		}
	}

	return redisClient, cleanup, nil
}
