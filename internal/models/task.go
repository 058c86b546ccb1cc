package models

import "time"

// TaskFrequency controls how often a task can be claimed.
type TaskFrequency string

const (
	TaskFrequencyOnce   TaskFrequency = "once"
	TaskFrequencyDaily  TaskFrequency = "daily"
	TaskFrequencyWeekly TaskFrequency = "weekly"
)

// Task is an immutable-once-published task definition. Tasks are soft
// deleted via IsActive so completed history stays attributable.
type Task struct {
	ID          string        `bson:"_id" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Type        string        `bson:"type" json:"type"`
	Platform    string        `bson:"platform,omitempty" json:"platform,omitempty"`
	Action      string        `bson:"action,omitempty" json:"action,omitempty"`
	URL         string        `bson:"url,omitempty" json:"url,omitempty"`
	Icon        string        `bson:"icon,omitempty" json:"icon,omitempty"`
	Points      int           `bson:"points" json:"points"`
	Frequency   TaskFrequency `bson:"frequency" json:"frequency"`
	IsActive    bool          `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// TaskCompletionResult is returned by a successful claim.
type TaskCompletionResult struct {
	TaskID        string `json:"taskId"`
	PointsAwarded int    `json:"pointsAwarded"`
	NewTotal      int    `json:"newTotal"`
}
