package database

import (
	"fmt"

	"toolhub/config"
	client "toolhub/internal/database/client"
	fluentdRepo "toolhub/internal/database/fluentd/repository"
	mongoRepo "toolhub/internal/database/mongodb/repository"
	postgresRepo "toolhub/internal/database/postgres/repository"
	redisRepo "toolhub/internal/database/redis/repository"
	"toolhub/internal/quota"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// ProviderSet 定義所有 DB Client 的依賴
var ProviderSet = wire.NewSet(
	client.NewMongoClient,
	client.NewRedisClient,
	client.NewPostgresClient,
	client.NewFluentdClient,
	mongoRepo.ProviderSet,
	redisRepo.ProviderSet,
	postgresRepo.ProviderSet,
	fluentdRepo.ProviderSet,
	NewQuotaLedger,
)

// NewQuotaLedger 依 QUOTA.BACKEND 選擇額度 ledger 實作
func NewQuotaLedger(
	conf *config.Configuration,
	logger *zap.Logger,
	postgresClient *client.PostgresClient,
	redisLedger *redisRepo.QuotaLedgerRepository,
	postgresLedger *postgresRepo.QuotaLedgerRepository,
) (quota.Ledger, error) {
	switch conf.Quota.Backend {
	case "", config.QuotaBackendRedis:
		logger.Info("quota ledger backend", zap.String("backend", "redis"))
		return redisLedger, nil
	case config.QuotaBackendPostgres:
		if postgresClient.DB() == nil {
			return nil, fmt.Errorf("quota backend postgres requires POSTGRES.DSN")
		}
		logger.Info("quota ledger backend", zap.String("backend", "postgres"))
		return postgresLedger, nil
	default:
		return nil, fmt.Errorf("unknown quota backend %q", conf.Quota.Backend)
	}
}
