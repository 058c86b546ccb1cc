package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus is the stored claim state of a (user, task) pair.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskProgress tracks completion per (wallet, task). At most one record
// exists per pair. For daily and weekly tasks the completed state only
// covers the period of CompletedAt; renewal is computed on read, the
// record is never reset or deleted.
type TaskProgress struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	WalletAddress string             `bson:"walletAddress" json:"walletAddress"`
	TaskID        string             `bson:"taskId" json:"taskId"`
	Status        TaskStatus         `bson:"status" json:"status"`
	CompletedAt   time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	LastClaimedAt time.Time          `bson:"lastClaimedAt,omitempty" json:"lastClaimedAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TaskWithStatus pairs a task config with its effective status for one
// user at the current instant.
type TaskWithStatus struct {
	Task     Task          `json:"task"`
	Status   TaskStatus    `json:"status"`
	Progress *TaskProgress `json:"progress,omitempty"`
}
