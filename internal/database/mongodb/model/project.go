package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project 額度計數不在這裡，統一由 quota ledger 維護
type Project struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrgID     string             `json:"orgID" bson:"orgID"`
	Name      string             `json:"name" bson:"name"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}
