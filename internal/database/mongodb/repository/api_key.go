package repository

import (
	"context"
	"fmt"
	"time"

	"toolhub/internal/core"
	client "toolhub/internal/database/client"
	"toolhub/internal/database/mongodb/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type APIKeyRepository struct {
	collection *mongo.Collection
}

func NewAPIKeyRepository(mongoClient *client.MongoClient) *APIKeyRepository {
	repository := &APIKeyRepository{
		collection: mongoClient.Client().Database(string(core.MongoDBToolhub)).Collection(string(core.MongoCollectionAPIKeys)),
	}
	_ = repository.EnsureIndexes(context.Background())
	return repository
}

// 建索引：
// 1) projectID+keyName 唯一（避免同專案同名重覆建立）
// 2) 依 projectID 列表
func (repository *APIKeyRepository) EnsureIndexes(contextValue context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "projectID", Value: 1},
				{Key: "keyName", Value: 1},
			},
			Options: options.Index().SetName("uniq_projectID_keyName").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "projectID", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_projectID_createdAt"),
		},
	}
	_, returnedError := repository.collection.Indexes().CreateMany(contextValue, models)
	return returnedError
}

// Create 新增一筆 API Key
func (repository *APIKeyRepository) Create(contextValue context.Context, apiKey *model.APIKey) (_ *model.APIKey, returnedError error) {
	nowUTC := time.Now().UTC()
	apiKey.CreatedAt = nowUTC
	apiKey.UpdatedAt = nowUTC

	insertResult, insertError := repository.collection.InsertOne(contextValue, apiKey)
	if insertError != nil {
		return nil, insertError
	}
	objectID, ok := insertResult.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected InsertedID type: %T", insertResult.InsertedID)
	}
	apiKey.ID = objectID
	return apiKey, nil
}

// GetByID 查無資料回傳 nil
func (repository *APIKeyRepository) GetByID(contextValue context.Context, apiKeyID primitive.ObjectID) (*model.APIKey, error) {
	return findOne[model.APIKey](contextValue, repository.collection, bson.M{"_id": apiKeyID})
}

func (repository *APIKeyRepository) ListByProject(contextValue context.Context, projectID primitive.ObjectID) ([]*model.APIKey, error) {
	return findAll[model.APIKey](contextValue, repository.collection, bson.M{"projectID": projectID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// UpdateStatus 撤銷或停用
func (repository *APIKeyRepository) UpdateStatus(contextValue context.Context, projectID, apiKeyID primitive.ObjectID, status core.Status) (returnedError error) {
	update := bson.M{"$set": bson.M{"status": status}}
	result, updateError := repository.collection.UpdateOne(contextValue, bson.M{"_id": apiKeyID, "projectID": projectID}, withUpdatedAt(update))
	if updateError != nil {
		return updateError
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateLastUsed 更新最後使用時間
func (repository *APIKeyRepository) UpdateLastUsed(contextValue context.Context, apiKeyID primitive.ObjectID, lastUsedAt time.Time) (returnedError error) {
	_, returnedError = repository.collection.UpdateOne(contextValue, bson.M{"_id": apiKeyID}, bson.M{"$set": bson.M{"lastUsedAt": lastUsedAt.UTC()}})
	return returnedError
}
