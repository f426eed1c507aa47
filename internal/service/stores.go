package service

import (
	"context"
	"time"

	"toolhub/internal/core"
	fluentdModel "toolhub/internal/database/fluentd/model"
	fluentdRepo "toolhub/internal/database/fluentd/repository"
	"toolhub/internal/database/mongodb/model"
	mongoRepo "toolhub/internal/database/mongodb/repository"
	redisRepo "toolhub/internal/database/redis/repository"

	"github.com/google/wire"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 服務層只依賴下列窄介面，測試以 in-memory 實作替換

type AppStore interface {
	Upsert(ctx context.Context, app *model.App) (*model.App, error)
	GetByName(ctx context.Context, name string) (*model.App, error)
	Search(ctx context.Context, intent string, categories []string, limit, offset int64) ([]*model.App, error)
	SetDefaultCredentials(ctx context.Context, name, scheme string, credentials bson.Raw) error
}

type FunctionStore interface {
	Upsert(ctx context.Context, function *model.Function) error
	GetByName(ctx context.Context, name string) (*model.Function, error)
	ListByApp(ctx context.Context, appName string, activeOnly bool) ([]*model.Function, error)
	Search(ctx context.Context, intent string, appNames []string, limit, offset int64) ([]*model.Function, error)
}

type LinkedAccountStore interface {
	Upsert(ctx context.Context, account *model.LinkedAccount) (*model.LinkedAccount, error)
	Get(ctx context.Context, projectID primitive.ObjectID, appName, ownerID string) (*model.LinkedAccount, error)
	GetByID(ctx context.Context, projectID, accountID primitive.ObjectID) (*model.LinkedAccount, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID, appName, ownerID string) ([]*model.LinkedAccount, error)
	CountByProjects(ctx context.Context, projectIDs []primitive.ObjectID) (int64, error)
	UpdateCredentials(ctx context.Context, accountID primitive.ObjectID, credentials bson.Raw) error
	SetEnabled(ctx context.Context, projectID, accountID primitive.ObjectID, enabled bool) error
	TouchLastUsed(ctx context.Context, accountID primitive.ObjectID, usedAt time.Time) error
	Delete(ctx context.Context, projectID, accountID primitive.ObjectID) error
}

type ProjectStore interface {
	Create(ctx context.Context, project *model.Project) (*model.Project, error)
	GetByID(ctx context.Context, projectID primitive.ObjectID) (*model.Project, error)
	ListByOrg(ctx context.Context, orgID string) ([]*model.Project, error)
	CountByOrg(ctx context.Context, orgID string) (int64, error)
}

type APIKeyStore interface {
	Create(ctx context.Context, apiKey *model.APIKey) (*model.APIKey, error)
	GetByID(ctx context.Context, apiKeyID primitive.ObjectID) (*model.APIKey, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]*model.APIKey, error)
	UpdateStatus(ctx context.Context, projectID, apiKeyID primitive.ObjectID, status core.Status) error
	UpdateLastUsed(ctx context.Context, apiKeyID primitive.ObjectID, lastUsedAt time.Time) error
}

type PlanStore interface {
	Upsert(ctx context.Context, plan *model.Plan) (*model.Plan, error)
	GetByID(ctx context.Context, planID primitive.ObjectID) (*model.Plan, error)
	GetByName(ctx context.Context, name string) (*model.Plan, error)
	List(ctx context.Context) ([]*model.Plan, error)
}

type SubscriptionStore interface {
	GetActiveByOrg(ctx context.Context, orgID string) (*model.Subscription, error)
	Upsert(ctx context.Context, subscription *model.Subscription) (*model.Subscription, error)
}

// OAuth2StateStore 保存授權流程的 PKCE verifier，只能取用一次
type OAuth2StateStore interface {
	SaveVerifier(ctx context.Context, stateID, codeVerifier string, ttl time.Duration) error
	ConsumeVerifier(ctx context.Context, stateID string) (string, error)
}

type UsageLogger interface {
	LogFunctionUsage(ctx context.Context, usage fluentdModel.FunctionUsageLog) error
	LogQuotaUsage(ctx context.Context, usage fluentdModel.QuotaUsageLog) error
}

var storeBindings = wire.NewSet(
	wire.Bind(new(AppStore), new(*mongoRepo.AppRepository)),
	wire.Bind(new(FunctionStore), new(*mongoRepo.FunctionRepository)),
	wire.Bind(new(LinkedAccountStore), new(*mongoRepo.LinkedAccountRepository)),
	wire.Bind(new(ProjectStore), new(*mongoRepo.ProjectRepository)),
	wire.Bind(new(APIKeyStore), new(*mongoRepo.APIKeyRepository)),
	wire.Bind(new(PlanStore), new(*mongoRepo.PlanRepository)),
	wire.Bind(new(SubscriptionStore), new(*mongoRepo.SubscriptionRepository)),
	wire.Bind(new(OAuth2StateStore), new(*redisRepo.OAuth2StateRepository)),
	wire.Bind(new(UsageLogger), new(*fluentdRepo.LogRepository)),
)
