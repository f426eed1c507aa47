package repository

import (
	"context"
	"regexp"
	"time"

	"toolhub/internal/core"
	client "toolhub/internal/database/client"
	"toolhub/internal/database/mongodb/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AppRepository struct {
	collection *mongo.Collection
}

func NewAppRepository(mongoClient *client.MongoClient) *AppRepository {
	repository := &AppRepository{
		collection: mongoClient.Client().Database(string(core.MongoDBToolhub)).Collection(string(core.MongoCollectionApps)),
	}
	_ = repository.EnsureIndexes(context.Background())
	return repository
}

// EnsureIndexes name 唯一；搜尋常用 active + categories
func (repository *AppRepository) EnsureIndexes(contextValue context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("uniq_name").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "categories", Value: 1}},
			Options: options.Index().SetName("idx_active_categories"),
		},
	}
	_, returnedError := repository.collection.Indexes().CreateMany(contextValue, models)
	return returnedError
}

// Upsert 以 name 為 key 新增或覆寫 app（預設憑證另外維護）
func (repository *AppRepository) Upsert(contextValue context.Context, app *model.App) (_ *model.App, returnedError error) {
	nowUTC := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"displayName":     app.DisplayName,
			"description":     app.Description,
			"categories":      app.Categories,
			"securitySchemes": app.SecuritySchemes,
			"active":          app.Active,
		},
		"$setOnInsert": bson.M{"createdAt": nowUTC},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.App
	returnedError = repository.collection.FindOneAndUpdate(contextValue, bson.M{"name": app.Name}, withUpdatedAt(update), opts).Decode(&stored)
	if returnedError != nil {
		return nil, returnedError
	}
	return &stored, nil
}

// GetByName 查無資料回傳 nil
func (repository *AppRepository) GetByName(contextValue context.Context, name string) (*model.App, error) {
	return findOne[model.App](contextValue, repository.collection, bson.M{"name": name})
}

// Search 依關鍵字與分類查詢 active app
func (repository *AppRepository) Search(contextValue context.Context, intent string, categories []string, limit, offset int64) ([]*model.App, error) {
	filter := bson.M{"active": true}
	if intent != "" {
		pattern := primitiveRegex(intent)
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"displayName": pattern},
			bson.M{"description": pattern},
		}
	}
	if len(categories) > 0 {
		filter["categories"] = bson.M{"$in": categories}
	}
	return findAll[model.App](contextValue, repository.collection, filter, paging(limit, offset).SetSort(bson.D{{Key: "name", Value: 1}}))
}

// SetDefaultCredentials 覆寫單一 scheme 的預設憑證
func (repository *AppRepository) SetDefaultCredentials(contextValue context.Context, name, scheme string, credentials bson.Raw) (returnedError error) {
	update := bson.M{"$set": bson.M{"defaultSecurityCredentialsByScheme." + scheme: credentials}}
	result, updateError := repository.collection.UpdateOne(contextValue, bson.M{"name": name}, withUpdatedAt(update))
	if updateError != nil {
		return updateError
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func primitiveRegex(text string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(text), "$options": "i"}
}
