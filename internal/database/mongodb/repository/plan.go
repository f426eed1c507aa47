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

type PlanRepository struct {
	collection *mongo.Collection
}

func NewPlanRepository(mongoClient *client.MongoClient) *PlanRepository {
	repository := &PlanRepository{
		collection: mongoClient.Client().Database(string(core.MongoDBToolhub)).Collection(string(core.MongoCollectionPlans)),
	}
	_ = repository.EnsureIndexes(context.Background())
	return repository
}

func (repository *PlanRepository) EnsureIndexes(contextValue context.Context) error {
	_, returnedError := repository.collection.Indexes().CreateOne(contextValue, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("uniq_name").SetUnique(true),
	})
	return returnedError
}

func (repository *PlanRepository) Upsert(contextValue context.Context, plan *model.Plan) (_ *model.Plan, returnedError error) {
	update := bson.M{
		"$set":         bson.M{"features": plan.Features, "isPublic": plan.IsPublic},
		"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.Plan
	returnedError = repository.collection.FindOneAndUpdate(contextValue, bson.M{"name": plan.Name}, withUpdatedAt(update), opts).Decode(&stored)
	if returnedError != nil {
		return nil, returnedError
	}
	return &stored, nil
}

func (repository *PlanRepository) GetByID(contextValue context.Context, planID primitive.ObjectID) (*model.Plan, error) {
	return findOne[model.Plan](contextValue, repository.collection, bson.M{"_id": planID})
}

func (repository *PlanRepository) GetByName(contextValue context.Context, name string) (*model.Plan, error) {
	return findOne[model.Plan](contextValue, repository.collection, bson.M{"name": name})
}

func (repository *PlanRepository) List(contextValue context.Context) ([]*model.Plan, error) {
	return findAll[model.Plan](contextValue, repository.collection, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}
