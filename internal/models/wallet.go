package models

import "time"

// Wallet transaction kinds
const (
	TxnTopUp    = "topup"
	TxnWithdraw = "withdraw"
	TxnFee      = "fee"
	TxnEarning  = "earning"
)

// Transaction is one row in a user's wallet ledger. Amount is always
// positive; Kind decides whether it credits or debits the balance.
type Transaction struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Kind      string    `json:"kind" db:"kind"`
	Amount    float64   `json:"amount" db:"amount"`
	Reference *string   `json:"reference,omitempty" db:"reference"` // checkout payment id
	UPI       *string   `json:"upi,omitempty" db:"upi"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// WalletSummary is the balance view derived from the ledger
type WalletSummary struct {
	Balance   float64 `json:"balance"`
	Earnings  float64 `json:"earnings"`
	UPILinked bool    `json:"upiLinked"`
}
