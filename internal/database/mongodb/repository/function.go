package repository

import (
	"context"
	"time"

	"toolhub/internal/core"
	client "toolhub/internal/database/client"
	"toolhub/internal/database/mongodb/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FunctionRepository struct {
	collection *mongo.Collection
}

func NewFunctionRepository(mongoClient *client.MongoClient) *FunctionRepository {
	repository := &FunctionRepository{
		collection: mongoClient.Client().Database(string(core.MongoDBToolhub)).Collection(string(core.MongoCollectionFunctions)),
	}
	_ = repository.EnsureIndexes(context.Background())
	return repository
}

func (repository *FunctionRepository) EnsureIndexes(contextValue context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("uniq_name").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "appName", Value: 1}, {Key: "active", Value: 1}},
			Options: options.Index().SetName("idx_appName_active"),
		},
	}
	_, returnedError := repository.collection.Indexes().CreateMany(contextValue, models)
	return returnedError
}

// Upsert 以 name 為 key 覆寫 function 定義
func (repository *FunctionRepository) Upsert(contextValue context.Context, function *model.Function) (returnedError error) {
	update := bson.M{
		"$set": bson.M{
			"appName":      function.AppName,
			"description":  function.Description,
			"tags":         function.Tags,
			"protocol":     function.Protocol,
			"protocolData": function.ProtocolData,
			"parameters":   function.Parameters,
			"active":       function.Active,
		},
		"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
	}
	_, returnedError = repository.collection.UpdateOne(contextValue, bson.M{"name": function.Name}, withUpdatedAt(update), options.Update().SetUpsert(true))
	return returnedError
}

func (repository *FunctionRepository) GetByName(contextValue context.Context, name string) (*model.Function, error) {
	return findOne[model.Function](contextValue, repository.collection, bson.M{"name": name})
}

func (repository *FunctionRepository) ListByApp(contextValue context.Context, appName string, activeOnly bool) ([]*model.Function, error) {
	filter := bson.M{"appName": appName}
	if activeOnly {
		filter["active"] = true
	}
	return findAll[model.Function](contextValue, repository.collection, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// Search 只回傳 active function，appNames 為空代表不限 app
func (repository *FunctionRepository) Search(contextValue context.Context, intent string, appNames []string, limit, offset int64) ([]*model.Function, error) {
	filter := bson.M{"active": true}
	if intent != "" {
		pattern := primitiveRegex(intent)
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	if len(appNames) > 0 {
		filter["appName"] = bson.M{"$in": appNames}
	}
	return findAll[model.Function](contextValue, repository.collection, filter, paging(limit, offset).SetSort(bson.D{{Key: "name", Value: 1}}))
}
