package client

import (
	"context"
	"database/sql"
	"time"

	"toolhub/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// PostgresClient 連接 PostgreSQL；未設定 DSN 時 DB() 為 nil
type PostgresClient struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresClient(logger *zap.Logger, config *config.Configuration) (*PostgresClient, func(), error) {
	postgresClient := &PostgresClient{logger: logger}
	if config.Postgres.DSN == "" {
		logger.Info("PostgreSQL DSN not set, skipping connection")
		return postgresClient, func() {}, nil
	}

	db, err := postgresClient.connectDB(config)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", zap.Error(err))
		return nil, nil, err
	}
	logger.Info("Connected to PostgreSQL")
	postgresClient.db = db

	cleanup := func() {
		logger.Info("closing the PostgreSQL resources")
		if err := postgresClient.Close(); err != nil {
			logger.Error("failed to close PostgreSQL client", zap.Error(err))
		}
	}
	return postgresClient, cleanup, nil
}

// NewPostgresClientFromDB 包裝既有 *sql.DB，供測試使用
func NewPostgresClientFromDB(logger *zap.Logger, db *sql.DB) *PostgresClient {
	return &PostgresClient{db: db, logger: logger}
}

func (client *PostgresClient) connectDB(config *config.Configuration) (*sql.DB, error) {
	db, err := sql.Open("pgx", config.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(config.Postgres.OpenConns())
	db.SetMaxIdleConns(config.Postgres.IdleConns())
	db.SetConnMaxLifetime(config.Postgres.ConnLifetime())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Configured 是否有設定 DSN
func (client *PostgresClient) Configured() bool {
	return client.db != nil
}

func (client *PostgresClient) Ping(ctx context.Context) error {
	return client.db.PingContext(ctx)
}

// Close 關閉 PostgreSQL 連線
func (client *PostgresClient) Close() error {
	if client.db == nil {
		return nil
	}
	return client.db.Close()
}

// DB 回傳連線池
func (client *PostgresClient) DB() *sql.DB {
	return client.db
}
