package service

import (
	"context"
	"testing"

	"toolhub/internal/core"
	"toolhub/internal/database/client"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errStoreDown }

func TestHealthReadiness(t *testing.T) {
	server := miniredis.RunT(t)
	redisClient := client.NewRedisClientFromConn(zap.NewNop(), redis.NewClient(&redis.Options{Addr: server.Addr()}))

	health := newHealthService(map[core.DatabaseType]Pinger{core.Redis: redisClient})
	assert.True(t, health.IsLive())

	ready, _ := health.Check(context.Background())
	assert.False(t, ready, "not ready before startup finishes")

	health.SetReady(true)
	ready, failures := health.Check(context.Background())
	assert.True(t, ready)
	assert.Empty(t, failures)

	server.Close()
	ready, failures = health.Check(context.Background())
	assert.False(t, ready)
	assert.Contains(t, failures, "redis")
}

func TestHealthReportsEachFailingDependency(t *testing.T) {
	health := newHealthService(map[core.DatabaseType]Pinger{core.Mongo: failingPinger{}})
	health.SetReady(true)

	ready, failures := health.Check(context.Background())
	assert.False(t, ready)
	assert.Equal(t, map[string]string{"mongo": errStoreDown.Error()}, failures)
}

func TestHealthPingsConfiguredPostgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	postgresClient := client.NewPostgresClientFromDB(zap.NewNop(), db)
	health := newHealthService(map[core.DatabaseType]Pinger{core.Postgres: postgresClient})
	health.SetReady(true)

	ready, failures := health.Check(context.Background())
	assert.True(t, ready)
	assert.Empty(t, failures)
	assert.NoError(t, mock.ExpectationsWereMet())
}
