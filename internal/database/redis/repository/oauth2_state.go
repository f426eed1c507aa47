package repository

import (
	"context"
	"fmt"
	"time"

	"toolhub/internal/core"
	client "toolhub/internal/database/client"
	"toolhub/internal/telemetry"

	"github.com/redis/go-redis/v9"
)

// OAuth2StateRepository 暫存授權流程的 PKCE code_verifier，只能取用一次
type OAuth2StateRepository struct {
	trace  *telemetry.Trace
	client *redis.Client
}

func NewOAuth2StateRepository(trace *telemetry.Trace, client *client.RedisClient) *OAuth2StateRepository {
	return &OAuth2StateRepository{trace: trace, client: client.Client()}
}

// SaveVerifier 以 state 的 jti 為 key 保存 verifier
func (repository *OAuth2StateRepository) SaveVerifier(contextValue context.Context, stateID, codeVerifier string, ttl time.Duration) (returnedError error) {
	contextValue, _, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	saved, err := repository.client.SetNX(contextValue, repository.buildKey(stateID), codeVerifier, ttl).Result()
	if err != nil {
		return err
	}
	if !saved {
		return fmt.Errorf("oauth2 state %s already exists", stateID)
	}
	return nil
}

// ConsumeVerifier 取出並刪除 verifier；不存在時回傳空字串
func (repository *OAuth2StateRepository) ConsumeVerifier(contextValue context.Context, stateID string) (_ string, returnedError error) {
	contextValue, _, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	redisKey := repository.buildKey(stateID)
	var getCommand *redis.StringCmd
	_, err := repository.client.TxPipelined(contextValue, func(pipeline redis.Pipeliner) error {
		getCommand = pipeline.Get(contextValue, redisKey)
		pipeline.Del(contextValue, redisKey)
		return nil
	})
	if err != nil && err != redis.Nil {
		return "", err
	}
	value, err := getCommand.Result()
	if err == redis.Nil {
		return "", nil
	}
	return value, err
}

func (repository *OAuth2StateRepository) buildKey(stateID string) string {
	return fmt.Sprintf("%s:%s:%s", core.RedisKeyServerName, core.RedisKeyOAuth2State, stateID)
}
