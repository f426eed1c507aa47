package core

// ─── Database Types ────────────────────────────────────────────────────────────

// DatabaseType defines the type of database
type DatabaseType string

const (
	Postgres DatabaseType = "postgres"
	Mongo    DatabaseType = "mongo"
	Redis    DatabaseType = "redis"
)

// Databases contains all supported database types
var Databases = []DatabaseType{Postgres, Mongo, Redis}

type MongoDatabaseName string
type MongoCollection string
type RedisKey string
type FluentdSubTag string

// ─── MongoDB ───────────────────────────────────────────────────────────────────
const (
	MongoDBToolhub MongoDatabaseName = "toolhub"
)

// MongoDB collections
const (
	MongoCollectionApps           MongoCollection = "apps"
	MongoCollectionFunctions      MongoCollection = "functions"
	MongoCollectionLinkedAccounts MongoCollection = "linked_accounts"
	MongoCollectionProjects       MongoCollection = "projects"
	MongoCollectionAPIKeys        MongoCollection = "api_keys"
	MongoCollectionPlans          MongoCollection = "plans"
	MongoCollectionSubscriptions  MongoCollection = "subscriptions"
)

// ─── Redis Keys ────────────────────────────────────────────────────────────────

const (
	RedisKeyServerName  RedisKey = "toolhub"      // 伺服器名稱
	RedisKeyQuota       RedisKey = "quota"        // 專案額度 hash
	RedisKeyOAuth2State RedisKey = "oauth2_state" // OAuth2 授權流程一次性 state
)

const (
	FluentdRequest       FluentdSubTag = "request_log"
	FluentdResponse      FluentdSubTag = "response_log"
	FluentdFunctionUsage FluentdSubTag = "function_usage_log"
	FluentdQuotaUsage    FluentdSubTag = "quota_usage_log"
)
