package repository

import (
	"context"
	"errors"

	"github.com/google/wire"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Wire 依賴提供
var ProviderSet = wire.NewSet(
	NewAppRepository,
	NewFunctionRepository,
	NewLinkedAccountRepository,
	NewProjectRepository,
	NewAPIKeyRepository,
	NewPlanRepository,
	NewSubscriptionRepository,
)

func withUpdatedAt(update bson.M) bson.M {
	// 確保 $currentDate 存在
	currentDate, ok := update["$currentDate"].(bson.M)
	if !ok || currentDate == nil {
		currentDate = bson.M{}
	}
	currentDate["updatedAt"] = true
	update["$currentDate"] = currentDate
	return update
}

// findOne 查無資料時回傳 nil, nil
func findOne[T any](contextValue context.Context, collection *mongo.Collection, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var document T
	err := collection.FindOne(contextValue, filter, opts...).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &document, nil
}

func findAll[T any](contextValue context.Context, collection *mongo.Collection, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cursor, findError := collection.Find(contextValue, filter, opts...)
	if findError != nil {
		return nil, findError
	}
	defer cursor.Close(contextValue)

	var results []*T
	for cursor.Next(contextValue) {
		var document T
		if decodeError := cursor.Decode(&document); decodeError != nil {
			return nil, decodeError
		}
		results = append(results, &document)
	}
	if cursorError := cursor.Err(); cursorError != nil {
		return nil, cursorError
	}
	return results, nil
}

func paging(limit, offset int64) *options.FindOptions {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}
	return opts
}
