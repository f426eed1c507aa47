package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Plan struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Features  PlanFeatures       `json:"features" bson:"features"`
	IsPublic  bool               `json:"isPublic" bson:"isPublic"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type PlanFeatures struct {
	APICallsMonthly  int64 `json:"apiCallsMonthly" bson:"apiCallsMonthly"`
	LinkedAccounts   int64 `json:"linkedAccounts" bson:"linkedAccounts"`
	AgentCredentials int64 `json:"agentCredentials" bson:"agentCredentials"`
	DeveloperSeats   int64 `json:"developerSeats" bson:"developerSeats"`
	Projects         int64 `json:"projects" bson:"projects"`
}
