package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a wallet-based account in the system. The wallet
// address is the external identity and is immutable once created.
//
// Level is derived from Points on every read and is deliberately not
// persisted, so the two can never drift apart.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	WalletAddress    string             `bson:"walletAddress" json:"walletAddress"`
	Username         string             `bson:"username,omitempty" json:"username,omitempty"`
	Points           int                `bson:"points" json:"points"`
	Level            int                `bson:"-" json:"level"`
	Streak           int                `bson:"streak" json:"streak"`
	LastCheckIn      string             `bson:"lastCheckIn,omitempty" json:"lastCheckIn,omitempty"`
	DailyTicketCount int                `bson:"dailyTicketCount" json:"dailyTicketCount"`
	LastTicketDate   string             `bson:"lastTicketDate,omitempty" json:"lastTicketDate,omitempty"`
	ReferralCode     string             `bson:"referralCode" json:"referralCode"`
	ReferredBy       string             `bson:"referredBy,omitempty" json:"referredBy,omitempty"`
	ReferralsCount   int                `bson:"referralsCount" json:"referralsCount"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LeaderboardEntry is a row in the points leaderboard.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	WalletAddress string `json:"walletAddress"`
	Username      string `json:"username,omitempty"`
	Points        int    `json:"points"`
	Level         int    `json:"level"`
}
