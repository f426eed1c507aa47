package service

import (
	"context"
	"time"

	"toolhub/config"
	"toolhub/internal/core"
	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/telemetry"
	"toolhub/utils/apikey"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type APIKeyService struct {
	trace    *telemetry.Trace
	projects ProjectStore
	apiKeys  APIKeyStore
	config   *config.Configuration
	logger   *zap.Logger
}

func NewAPIKeyService(
	trace *telemetry.Trace,
	projects ProjectStore,
	apiKeys APIKeyStore,
	config *config.Configuration,
	logger *zap.Logger,
) *APIKeyService {
	return &APIKeyService{
		trace:    trace,
		projects: projects,
		apiKeys:  apiKeys,
		config:   config,
		logger:   logger,
	}
}

// Create 為專案簽發 API Key，完整的 key 只在這裡回傳一次
func (s *APIKeyService) Create(ctx context.Context, projectID primitive.ObjectID, req *dto.CreateAPIKeyDto) (_ *dto.APIKeyResponseDto, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb get project failed")
	}
	if project == nil {
		return nil, cErr.NotFound("project not found")
	}

	apiKeyID := primitive.NewObjectID()
	keyValue, err := apikey.GenerateAPIKey(projectID.Hex(), apiKeyID.Hex(), s.config.App.SecretKey)
	if err != nil {
		return nil, cErr.InternalServer("failed to generate api key: " + err.Error())
	}
	now := time.Now().UTC()
	created, err := s.apiKeys.Create(ctx, &model.APIKey{
		ID:        apiKeyID,
		ProjectID: projectID,
		KeyName:   req.KeyName,
		KeyValue:  keyValue,
		Status:    core.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, cErr.DatabaseError("mongodb create api key failed")
	}
	response := apiKeyToDto(created)
	response.KeyValue = keyValue
	return response, nil
}

func (s *APIKeyService) List(ctx context.Context, projectID primitive.ObjectID) ([]*dto.APIKeyResponseDto, error) {
	keys, err := s.apiKeys.ListByProject(ctx, projectID)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb list api keys failed")
	}
	out := make([]*dto.APIKeyResponseDto, 0, len(keys))
	for _, key := range keys {
		out = append(out, apiKeyToDto(key))
	}
	return out, nil
}

func (s *APIKeyService) UpdateStatus(ctx context.Context, projectID, apiKeyID primitive.ObjectID, status core.Status) error {
	if err := s.apiKeys.UpdateStatus(ctx, projectID, apiKeyID, status); err != nil {
		return cErr.DatabaseError("mongodb update api key status failed")
	}
	return nil
}

// ValidateKey 驗證簽章、專案與 key 是否存在且為 active，回傳 key 與所屬專案
func (s *APIKeyService) ValidateKey(ctx context.Context, rawKey string) (_ *model.APIKey, _ *model.Project, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	payload, err := apikey.ParseAndVerifyAPIKey(rawKey, s.config.App.SecretKey)
	if err != nil {
		return nil, nil, cErr.UnauthorizedApiKey("invalid api key: signature verification failed")
	}
	projectID, err := primitive.ObjectIDFromHex(payload.ProjectID)
	if err != nil {
		return nil, nil, cErr.UnauthorizedApiKey("invalid api key: project ID is not a valid ObjectID")
	}
	apiKeyID, err := primitive.ObjectIDFromHex(payload.ApiKeyID)
	if err != nil {
		return nil, nil, cErr.UnauthorizedApiKey("invalid api key: key ID is not a valid ObjectID")
	}

	key, err := s.apiKeys.GetByID(ctx, apiKeyID)
	if err != nil {
		return nil, nil, cErr.DatabaseError("mongodb get api key failed")
	}
	if key == nil || key.KeyValue != rawKey || key.ProjectID != projectID {
		return nil, nil, cErr.UnauthorizedApiKey("invalid api key: key not found")
	}
	if key.Status != core.StatusActive {
		return nil, nil, cErr.UnauthorizedApiKey("api key is " + string(key.Status))
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, nil, cErr.DatabaseError("mongodb get project failed")
	}
	if project == nil {
		return nil, nil, cErr.UnauthorizedApiKey("invalid api key: project not found")
	}

	if err := s.apiKeys.UpdateLastUsed(ctx, key.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("update api key last used failed", zap.String("apiKeyID", key.ID.Hex()), zap.Error(err))
	}
	return key, project, nil
}

func apiKeyToDto(key *model.APIKey) *dto.APIKeyResponseDto {
	return &dto.APIKeyResponseDto{
		ID:        key.ID.Hex(),
		ProjectID: key.ProjectID.Hex(),
		KeyName:   key.KeyName,
		KeyValue:  apikey.Mask(key.KeyValue),
		Status:    key.Status,
		CreatedAt: key.CreatedAt,
		UpdatedAt: key.UpdatedAt,
		LastUsed:  key.LastUsedAt,
	}
}
