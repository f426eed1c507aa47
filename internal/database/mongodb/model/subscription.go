package model

import (
	"time"

	"toolhub/internal/core"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription 每個 org 最多一筆 active；沒有代表 free 方案
type Subscription struct {
	ID                 primitive.ObjectID        `json:"id" bson:"_id,omitempty"`
	OrgID              string                    `json:"orgID" bson:"orgID"`
	PlanID             primitive.ObjectID        `json:"planID" bson:"planID"`
	Status             core.SubscriptionStatus   `json:"status" bson:"status"`
	Interval           core.SubscriptionInterval `json:"interval" bson:"interval"`
	CurrentPeriodStart time.Time                 `json:"currentPeriodStart" bson:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time                 `json:"currentPeriodEnd" bson:"currentPeriodEnd"`
	CancelAtPeriodEnd  bool                      `json:"cancelAtPeriodEnd" bson:"cancelAtPeriodEnd"`
	CreatedAt          time.Time                 `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time                 `json:"updatedAt" bson:"updatedAt"`
}
