package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

var (
	DB    *sql.DB
	Redis *redis.Client
	dsn   string
	dbMu  sync.Mutex
)

// ConnectDB initializes the shared DB connection (idempotent).
func ConnectDB(cfg Env) (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB, nil
	}
	return openLocked(cfg.DSN())
}

func openLocked(source string) (*sql.DB, error) {
	db, err := sql.Open("mysql", source)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	DB = db
	dsn = source
	log.Println("connected to MySQL")
	return DB, nil
}

// EnsureDB pings the shared connection, reopening it if it was closed.
func EnsureDB() error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB == nil {
		if dsn == "" {
			return fmt.Errorf("db not configured")
		}
		_, err := openLocked(dsn)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return DB.PingContext(ctx)
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
	if Redis != nil {
		_ = Redis.Close()
		Redis = nil
	}
}

// ConnectRedis returns nil when REDIS_ADDR is empty or unreachable; the bus
// cache then falls through to MySQL.
func ConnectRedis(cfg Env) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Println("REDIS_ADDR empty, bus cache disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		opts = &redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
	}
	opts.PoolSize = 20
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unreachable at %s, bus cache disabled: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}

	dbMu.Lock()
	Redis = client
	dbMu.Unlock()
	log.Println("connected to Redis")
	return client
}
