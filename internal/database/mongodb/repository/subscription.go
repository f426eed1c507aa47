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

// 視為有效訂閱的狀態
var activeSubscriptionStatuses = bson.A{core.SubscriptionActive, core.SubscriptionTrialing}

type SubscriptionRepository struct {
	collection *mongo.Collection
}

func NewSubscriptionRepository(mongoClient *client.MongoClient) *SubscriptionRepository {
	repository := &SubscriptionRepository{
		collection: mongoClient.Client().Database(string(core.MongoDBToolhub)).Collection(string(core.MongoCollectionSubscriptions)),
	}
	_ = repository.EnsureIndexes(context.Background())
	return repository
}

// EnsureIndexes 一個 org 只保留一筆訂閱紀錄
func (repository *SubscriptionRepository) EnsureIndexes(contextValue context.Context) error {
	_, returnedError := repository.collection.Indexes().CreateOne(contextValue, mongo.IndexModel{
		Keys:    bson.D{{Key: "orgID", Value: 1}},
		Options: options.Index().SetName("uniq_orgID").SetUnique(true),
	})
	return returnedError
}

// GetActiveByOrg 沒有有效訂閱時回傳 nil
func (repository *SubscriptionRepository) GetActiveByOrg(contextValue context.Context, orgID string) (*model.Subscription, error) {
	return findOne[model.Subscription](contextValue, repository.collection, bson.M{
		"orgID":  orgID,
		"status": bson.M{"$in": activeSubscriptionStatuses},
	})
}

// Upsert 以 orgID 覆寫訂閱
func (repository *SubscriptionRepository) Upsert(contextValue context.Context, subscription *model.Subscription) (_ *model.Subscription, returnedError error) {
	update := bson.M{
		"$set": bson.M{
			"planID":             subscription.PlanID,
			"status":             subscription.Status,
			"interval":           subscription.Interval,
			"currentPeriodStart": subscription.CurrentPeriodStart.UTC(),
			"currentPeriodEnd":   subscription.CurrentPeriodEnd.UTC(),
			"cancelAtPeriodEnd":  subscription.CancelAtPeriodEnd,
		},
		"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.Subscription
	returnedError = repository.collection.FindOneAndUpdate(contextValue, bson.M{"orgID": subscription.OrgID}, withUpdatedAt(update), opts).Decode(&stored)
	if returnedError != nil {
		return nil, returnedError
	}
	return &stored, nil
}
