package service

import (
	"context"
	"sync/atomic"
	"time"

	"toolhub/internal/core"
	"toolhub/internal/database/client"
)

// Pinger 依賴服務的連線檢查
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	live  atomic.Bool
	ready atomic.Bool
	// readiness 需要全部通過的依賴
	dependencies map[core.DatabaseType]Pinger
}

func NewHealthService(mongoClient *client.MongoClient, redisClient *client.RedisClient, postgresClient *client.PostgresClient) *HealthService {
	dependencies := map[core.DatabaseType]Pinger{
		core.Mongo: mongoClient,
		core.Redis: redisClient,
	}
	if postgresClient != nil && postgresClient.Configured() {
		dependencies[core.Postgres] = postgresClient
	}
	return newHealthService(dependencies)
}

func newHealthService(dependencies map[core.DatabaseType]Pinger) *HealthService {
	s := &HealthService{dependencies: dependencies}
	s.live.Store(true)
	s.ready.Store(false) // 啟動完成後再打開
	return s
}

func (s *HealthService) SetReady(v bool) {
	s.ready.Store(v)
}

func (s *HealthService) IsLive() bool {
	return s.live.Load()
}

// Check 回傳 ready 旗標與每個依賴的錯誤訊息；全部正常時 map 為空
func (s *HealthService) Check(ctx context.Context) (bool, map[string]string) {
	failures := map[string]string{}
	if !s.ready.Load() {
		return false, failures
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	for _, name := range core.Databases {
		dependency, ok := s.dependencies[name]
		if !ok {
			continue
		}
		if err := dependency.Ping(ctx); err != nil {
			failures[string(name)] = err.Error()
		}
	}
	return len(failures) == 0, failures
}
