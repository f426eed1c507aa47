package repository

import (
	"context"
	"time"

	"toolhub/internal/core"
	client "toolhub/internal/database/client"
	"toolhub/internal/database/mongodb/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LinkedAccountRepository struct {
	collection *mongo.Collection
}

func NewLinkedAccountRepository(mongoClient *client.MongoClient) *LinkedAccountRepository {
	repository := &LinkedAccountRepository{
		collection: mongoClient.Client().Database(string(core.MongoDBToolhub)).Collection(string(core.MongoCollectionLinkedAccounts)),
	}
	_ = repository.EnsureIndexes(context.Background())
	return repository
}

// EnsureIndexes 同一專案同一 app 同一 owner 只能有一筆
func (repository *LinkedAccountRepository) EnsureIndexes(contextValue context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "projectID", Value: 1},
				{Key: "appName", Value: 1},
				{Key: "linkedAccountOwnerID", Value: 1},
			},
			Options: options.Index().SetName("uniq_project_app_owner").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "projectID", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_projectID_createdAt"),
		},
	}
	_, returnedError := repository.collection.Indexes().CreateMany(contextValue, models)
	return returnedError
}

// Upsert 重新授權時覆寫 scheme 與憑證並重新啟用
func (repository *LinkedAccountRepository) Upsert(contextValue context.Context, account *model.LinkedAccount) (_ *model.LinkedAccount, returnedError error) {
	filter := bson.M{
		"projectID":            account.ProjectID,
		"appName":              account.AppName,
		"linkedAccountOwnerID": account.LinkedAccountOwnerID,
	}
	set := bson.M{
		"securityScheme": account.SecurityScheme,
		"enabled":        true,
	}
	update := bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": time.Now().UTC()}}
	if len(account.SecurityCredentials) > 0 {
		set["securityCredentials"] = account.SecurityCredentials
	} else {
		update["$unset"] = bson.M{"securityCredentials": ""}
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.LinkedAccount
	returnedError = repository.collection.FindOneAndUpdate(contextValue, filter, withUpdatedAt(update), opts).Decode(&stored)
	if returnedError != nil {
		return nil, returnedError
	}
	return &stored, nil
}

// Get 查無資料回傳 nil
func (repository *LinkedAccountRepository) Get(contextValue context.Context, projectID primitive.ObjectID, appName, ownerID string) (*model.LinkedAccount, error) {
	return findOne[model.LinkedAccount](contextValue, repository.collection, bson.M{
		"projectID":            projectID,
		"appName":              appName,
		"linkedAccountOwnerID": ownerID,
	})
}

func (repository *LinkedAccountRepository) GetByID(contextValue context.Context, projectID, accountID primitive.ObjectID) (*model.LinkedAccount, error) {
	return findOne[model.LinkedAccount](contextValue, repository.collection, bson.M{"_id": accountID, "projectID": projectID})
}

// ListByProject appName / ownerID 為空代表不過濾
func (repository *LinkedAccountRepository) ListByProject(contextValue context.Context, projectID primitive.ObjectID, appName, ownerID string) ([]*model.LinkedAccount, error) {
	filter := bson.M{"projectID": projectID}
	if appName != "" {
		filter["appName"] = appName
	}
	if ownerID != "" {
		filter["linkedAccountOwnerID"] = ownerID
	}
	return findAll[model.LinkedAccount](contextValue, repository.collection, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// CountByProjects 計算多個專案的 linked account 總數（方案上限用）
func (repository *LinkedAccountRepository) CountByProjects(contextValue context.Context, projectIDs []primitive.ObjectID) (int64, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}
	return repository.collection.CountDocuments(contextValue, bson.M{"projectID": bson.M{"$in": projectIDs}})
}

// UpdateCredentials token 更新後寫回
func (repository *LinkedAccountRepository) UpdateCredentials(contextValue context.Context, accountID primitive.ObjectID, credentials bson.Raw) (returnedError error) {
	update := bson.M{"$set": bson.M{"securityCredentials": credentials}}
	result, updateError := repository.collection.UpdateOne(contextValue, bson.M{"_id": accountID}, withUpdatedAt(update))
	if updateError != nil {
		return updateError
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (repository *LinkedAccountRepository) SetEnabled(contextValue context.Context, projectID, accountID primitive.ObjectID, enabled bool) (returnedError error) {
	update := bson.M{"$set": bson.M{"enabled": enabled}}
	result, updateError := repository.collection.UpdateOne(contextValue, bson.M{"_id": accountID, "projectID": projectID}, withUpdatedAt(update))
	if updateError != nil {
		return updateError
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (repository *LinkedAccountRepository) TouchLastUsed(contextValue context.Context, accountID primitive.ObjectID, usedAt time.Time) (returnedError error) {
	_, returnedError = repository.collection.UpdateOne(contextValue, bson.M{"_id": accountID}, bson.M{"$set": bson.M{"lastUsedAt": usedAt.UTC()}})
	return returnedError
}

func (repository *LinkedAccountRepository) Delete(contextValue context.Context, projectID, accountID primitive.ObjectID) (returnedError error) {
	result, deleteError := repository.collection.DeleteOne(contextValue, bson.M{"_id": accountID, "projectID": projectID})
	if deleteError != nil {
		return deleteError
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
