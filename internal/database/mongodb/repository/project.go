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

type ProjectRepository struct {
	collection *mongo.Collection
}

func NewProjectRepository(mongoClient *client.MongoClient) *ProjectRepository {
	repository := &ProjectRepository{
		collection: mongoClient.Client().Database(string(core.MongoDBToolhub)).Collection(string(core.MongoCollectionProjects)),
	}
	_ = repository.EnsureIndexes(context.Background())
	return repository
}

func (repository *ProjectRepository) EnsureIndexes(contextValue context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orgID", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("uniq_orgID_name").SetUnique(true),
		},
	}
	_, returnedError := repository.collection.Indexes().CreateMany(contextValue, models)
	return returnedError
}

func (repository *ProjectRepository) Create(contextValue context.Context, project *model.Project) (_ *model.Project, returnedError error) {
	nowUTC := time.Now().UTC()
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	project.CreatedAt = nowUTC
	project.UpdatedAt = nowUTC

	insertResult, insertError := repository.collection.InsertOne(contextValue, project)
	if insertError != nil {
		return nil, insertError
	}
	if _, ok := insertResult.InsertedID.(primitive.ObjectID); !ok {
		return nil, fmt.Errorf("unexpected InsertedID type: %T", insertResult.InsertedID)
	}
	return project, nil
}

func (repository *ProjectRepository) GetByID(contextValue context.Context, projectID primitive.ObjectID) (*model.Project, error) {
	return findOne[model.Project](contextValue, repository.collection, bson.M{"_id": projectID})
}

func (repository *ProjectRepository) ListByOrg(contextValue context.Context, orgID string) ([]*model.Project, error) {
	return findAll[model.Project](contextValue, repository.collection, bson.M{"orgID": orgID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (repository *ProjectRepository) CountByOrg(contextValue context.Context, orgID string) (int64, error) {
	return repository.collection.CountDocuments(contextValue, bson.M{"orgID": orgID})
}
