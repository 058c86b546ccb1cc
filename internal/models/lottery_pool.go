package models

import "time"

// PoolType distinguishes the daily pools from the weekly jackpot pool.
type PoolType string

const (
	PoolTypeDaily  PoolType = "daily"
	PoolTypeWeekly PoolType = "weekly"
)

// PoolStatus is the lifecycle state of a pool. The open -> settling
// transition is the settlement serialization point: only the caller that
// wins that flip distributes prizes. Completed pools are immutable.
type PoolStatus string

const (
	PoolStatusOpen      PoolStatus = "open"
	PoolStatusSettling  PoolStatus = "settling"
	PoolStatusCompleted PoolStatus = "completed"
)

// PoolWinner records one prize paid out of a settled pool.
type PoolWinner struct {
	Wallet string `bson:"wallet" json:"wallet"`
	Amount int    `bson:"amount" json:"amount"`
}

// LotteryPool accumulates ticket purchases for one period. The ID is
// derived from the period: "daily_YYYY-MM-DD" for daily pools and
// "weekly_YYYY_WW" (ISO week) for the jackpot pool. Participants holds
// one entry per ticket, so a wallet's win probability scales with the
// tickets it bought.
type LotteryPool struct {
	ID           string       `bson:"_id" json:"id"`
	Type         PoolType     `bson:"type" json:"type"`
	Status       PoolStatus   `bson:"status" json:"status"`
	PrizePool    int          `bson:"prizePool" json:"prizePool"`
	Participants []string     `bson:"participants" json:"participants"`
	Winners      []PoolWinner `bson:"winners,omitempty" json:"winners,omitempty"`
	DrawnAt      time.Time    `bson:"drawnAt,omitempty" json:"drawnAt,omitempty"`
	CreatedAt    time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// TicketPurchaseResult is the outcome of a buy-ticket call. Business
// refusals come back with Success=false and a user-presentable Message.
type TicketPurchaseResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}
