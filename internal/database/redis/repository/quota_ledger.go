package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"toolhub/internal/core"
	client "toolhub/internal/database/client"
	"toolhub/internal/quota"
	"toolhub/internal/telemetry"

	"github.com/redis/go-redis/v9"
)

const ledgerBackendRedis = "redis"

// project hash 欄位
const (
	fieldDailyUsed        = "daily_used"
	fieldDailyResetAt     = "daily_reset_at"
	fieldMonthlyUsed      = "monthly_used"
	fieldMonthlyLastReset = "monthly_last_reset"
	fieldTotalUsed        = "total_used"
)

// KEYS: project hash, org project set
// ARGV: project id, now (unix), window (seconds)
var incrementDailyScript = redis.NewScript(`
redis.call('SADD', KEYS[2], ARGV[1])
local now = tonumber(ARGV[2])
local resetAt = tonumber(redis.call('HGET', KEYS[1], 'daily_reset_at') or '0')
local used
if resetAt == 0 or now >= resetAt + tonumber(ARGV[3]) then
  redis.call('HSET', KEYS[1], 'daily_used', 1, 'daily_reset_at', now)
  used = 1
  resetAt = now
else
  used = redis.call('HINCRBY', KEYS[1], 'daily_used', 1)
end
local total = redis.call('HINCRBY', KEYS[1], 'total_used', 1)
redis.call('HSETNX', KEYS[1], 'monthly_used', 0)
redis.call('HSETNX', KEYS[1], 'monthly_last_reset', now)
local monthly = tonumber(redis.call('HGET', KEYS[1], 'monthly_used'))
local lastReset = tonumber(redis.call('HGET', KEYS[1], 'monthly_last_reset'))
return {used, resetAt, monthly, lastReset, total}
`)

// org 的所有 key 共用同一個 hash tag，script 內讀取的 project key 與 KEYS 同 slot。
// KEYS: project hash, org project set
// ARGV: project id, limit, project key prefix, now (unix)
var incrementMonthlyScript = redis.NewScript(`
redis.call('SADD', KEYS[2], ARGV[1])
redis.call('HSETNX', KEYS[1], 'monthly_last_reset', ARGV[4])
local total = 0
for _, pid in ipairs(redis.call('SMEMBERS', KEYS[2])) do
  total = total + tonumber(redis.call('HGET', ARGV[3] .. pid, 'monthly_used') or '0')
end
if total + 1 > tonumber(ARGV[2]) then
  return 0
end
redis.call('HINCRBY', KEYS[1], 'monthly_used', 1)
return 1
`)

// KEYS: org project set
// ARGV: project key prefix, reset date (unix)
var resetMonthlyScript = redis.NewScript(`
local resetDate = tonumber(ARGV[2])
local affected = 0
for _, pid in ipairs(redis.call('SMEMBERS', KEYS[1])) do
  local key = ARGV[1] .. pid
  local last = tonumber(redis.call('HGET', key, 'monthly_last_reset') or '0')
  if last < resetDate then
    redis.call('HSET', key, 'monthly_used', 0, 'monthly_last_reset', resetDate)
    affected = affected + 1
  end
end
return affected
`)

// QuotaLedgerRepository 以 Redis hash 保存每個 project 的計數，
// 所有寫入都透過 Lua script 原子執行。
type QuotaLedgerRepository struct {
	trace  *telemetry.Trace
	client *redis.Client
}

func NewQuotaLedgerRepository(trace *telemetry.Trace, client *client.RedisClient) *QuotaLedgerRepository {
	return &QuotaLedgerRepository{trace: trace, client: client.Client()}
}

func (repository *QuotaLedgerRepository) Usage(contextValue context.Context, project quota.ProjectRef) (_ quota.Usage, returnedError error) {
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()
	repository.trace.ApplyTraceAttributes(span, core.TraceLedgerMeta{
		Backend: ledgerBackendRedis, Op: "usage", ProjectID: project.ID, OrgID: project.OrgID,
	})

	values, err := repository.client.HGetAll(contextValue, repository.projectKey(project)).Result()
	if err != nil {
		return quota.Usage{}, err
	}
	return usageFromHash(values), nil
}

func (repository *QuotaLedgerRepository) IncrementDaily(contextValue context.Context, project quota.ProjectRef, now time.Time) (_ quota.Usage, returnedError error) {
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	traceMetadata := core.TraceLedgerMeta{
		Backend: ledgerBackendRedis, Op: "increment_daily", ProjectID: project.ID, OrgID: project.OrgID,
	}

	result, err := incrementDailyScript.Run(contextValue, repository.client,
		[]string{repository.projectKey(project), repository.orgProjectsKey(project.OrgID)},
		project.ID, now.Unix(), int64(quota.DailyWindow/time.Second),
	).Int64Slice()
	if err != nil {
		return quota.Usage{}, err
	}
	if len(result) != 5 {
		return quota.Usage{}, fmt.Errorf("unexpected increment_daily reply length %d", len(result))
	}

	traceMetadata.Value, traceMetadata.Applied = result[0], true
	repository.trace.ApplyTraceAttributes(span, traceMetadata)
	return quota.Usage{
		DailyUsed:        result[0],
		DailyResetAt:     unixOrZero(result[1]),
		MonthlyUsed:      result[2],
		MonthlyLastReset: unixOrZero(result[3]),
		TotalUsed:        result[4],
	}, nil
}

func (repository *QuotaLedgerRepository) IncrementMonthlyIfWithinOrgLimit(contextValue context.Context, project quota.ProjectRef, limit int64, now time.Time) (_ bool, returnedError error) {
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	traceMetadata := core.TraceLedgerMeta{
		Backend: ledgerBackendRedis, Op: "increment_monthly", ProjectID: project.ID, OrgID: project.OrgID, Limit: limit,
	}

	applied, err := incrementMonthlyScript.Run(contextValue, repository.client,
		[]string{repository.projectKey(project), repository.orgProjectsKey(project.OrgID)},
		project.ID, limit, repository.projectKeyPrefix(project.OrgID), now.Unix(),
	).Int64()
	if err != nil {
		return false, err
	}

	traceMetadata.Applied = applied == 1
	repository.trace.ApplyTraceAttributes(span, traceMetadata)
	return traceMetadata.Applied, nil
}

func (repository *QuotaLedgerRepository) ResetMonthlyForOrg(contextValue context.Context, orgID string, resetDate time.Time) (_ int64, returnedError error) {
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	affected, err := resetMonthlyScript.Run(contextValue, repository.client,
		[]string{repository.orgProjectsKey(orgID)},
		repository.projectKeyPrefix(orgID), resetDate.Unix(),
	).Int64()
	if err != nil {
		return 0, err
	}

	repository.trace.ApplyTraceAttributes(span, core.TraceLedgerMeta{
		Backend: ledgerBackendRedis, Op: "reset_monthly", OrgID: orgID, Value: affected, Applied: affected > 0,
	})
	return affected, nil
}

func (repository *QuotaLedgerRepository) OrgMonthlyUsage(contextValue context.Context, orgID string) (_ quota.OrgUsage, returnedError error) {
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	projectIDs, err := repository.client.SMembers(contextValue, repository.orgProjectsKey(orgID)).Result()
	if err != nil {
		return quota.OrgUsage{}, err
	}

	// pipeline 一次取回所有 project 的 monthly_used
	pipeline := repository.client.Pipeline()
	commands := make([]*redis.StringCmd, 0, len(projectIDs))
	for _, projectID := range projectIDs {
		commands = append(commands, pipeline.HGet(contextValue, repository.projectKeyPrefix(orgID)+projectID, fieldMonthlyUsed))
	}
	if len(commands) > 0 {
		if _, execError := pipeline.Exec(contextValue); execError != nil && execError != redis.Nil {
			return quota.OrgUsage{}, execError
		}
	}

	usage := quota.OrgUsage{OrgID: orgID, Projects: len(projectIDs)}
	for _, command := range commands {
		value, _ := command.Int64()
		usage.MonthlyUsed += value
	}

	repository.trace.ApplyTraceAttributes(span, core.TraceLedgerMeta{
		Backend: ledgerBackendRedis, Op: "org_usage", OrgID: orgID, Value: usage.MonthlyUsed,
	})
	return usage, nil
}

func (repository *QuotaLedgerRepository) ResetProject(contextValue context.Context, project quota.ProjectRef) (returnedError error) {
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()
	repository.trace.ApplyTraceAttributes(span, core.TraceLedgerMeta{
		Backend: ledgerBackendRedis, Op: "reset_project", ProjectID: project.ID, OrgID: project.OrgID, Applied: true,
	})

	_, returnedError = repository.client.TxPipelined(contextValue, func(pipeline redis.Pipeliner) error {
		pipeline.SAdd(contextValue, repository.orgProjectsKey(project.OrgID), project.ID)
		pipeline.HSet(contextValue, repository.projectKey(project),
			fieldDailyUsed, 0,
			fieldDailyResetAt, 0,
			fieldMonthlyUsed, 0,
		)
		return nil
	})
	return returnedError
}

func (repository *QuotaLedgerRepository) Orgs(contextValue context.Context) (_ []string, returnedError error) {
	contextValue, _, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	prefix := fmt.Sprintf("%s:%s:{", core.RedisKeyServerName, core.RedisKeyQuota)
	var orgIDs []string
	seen := map[string]bool{}
	iterator := repository.client.Scan(contextValue, 0, prefix+"*}:projects", 100).Iterator()
	for iterator.Next(contextValue) {
		orgID := strings.TrimSuffix(strings.TrimPrefix(iterator.Val(), prefix), "}:projects")
		// SCAN 可能重複回傳同一個 key
		if !seen[orgID] {
			seen[orgID] = true
			orgIDs = append(orgIDs, orgID)
		}
	}
	if err := iterator.Err(); err != nil {
		return nil, err
	}
	return orgIDs, nil
}

// toolhub:quota:{org}:project:<id>
func (repository *QuotaLedgerRepository) projectKeyPrefix(orgID string) string {
	return fmt.Sprintf("%s:%s:{%s}:project:", core.RedisKeyServerName, core.RedisKeyQuota, orgID)
}

func (repository *QuotaLedgerRepository) projectKey(project quota.ProjectRef) string {
	return repository.projectKeyPrefix(project.OrgID) + project.ID
}

// toolhub:quota:{org}:projects
func (repository *QuotaLedgerRepository) orgProjectsKey(orgID string) string {
	return fmt.Sprintf("%s:%s:{%s}:projects", core.RedisKeyServerName, core.RedisKeyQuota, orgID)
}

func usageFromHash(values map[string]string) quota.Usage {
	parse := func(field string) int64 {
		value, _ := strconv.ParseInt(values[field], 10, 64)
		return value
	}
	return quota.Usage{
		DailyUsed:        parse(fieldDailyUsed),
		DailyResetAt:     unixOrZero(parse(fieldDailyResetAt)),
		MonthlyUsed:      parse(fieldMonthlyUsed),
		MonthlyLastReset: unixOrZero(parse(fieldMonthlyLastReset)),
		TotalUsed:        parse(fieldTotalUsed),
	}
}

func unixOrZero(seconds int64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}
