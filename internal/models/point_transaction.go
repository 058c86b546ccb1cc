package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PointTransaction is one entry in the append-only GEM ledger. A user's
// balance must always equal the sum of their transaction amounts; every
// balance mutation goes through a recorded transaction.
type PointTransaction struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	WalletAddress string             `bson:"walletAddress" json:"walletAddress"`
	Amount        int                `bson:"amount" json:"amount"`
	Reason        string             `bson:"reason" json:"reason"`
	// TxRef is an optional idempotency reference ("task:<id>:<period>",
	// "pool:<id>", "checkin:<date>", ...). It lets retries and the
	// reconciliation sweep recognise an award that already happened.
	TxRef     string    `bson:"txRef,omitempty" json:"txRef,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// LedgerReport is the result of cross-checking a user's running balance
// against the sum of their transaction history.
type LedgerReport struct {
	WalletAddress string `json:"walletAddress"`
	Balance       int    `json:"balance"`
	HistorySum    int    `json:"historySum"`
	Consistent    bool   `json:"consistent"`
}
