package models

import "time"

// LotteryTicket is an immutable purchase receipt. It exists for audit;
// settlement math runs over the pool's participant list, not tickets.
type LotteryTicket struct {
	ID            string    `bson:"_id" json:"id"`
	WalletAddress string    `bson:"walletAddress" json:"walletAddress"`
	PoolID        string    `bson:"poolId" json:"poolId"`
	PurchasedAt   time.Time `bson:"purchasedAt" json:"purchasedAt"`
}
