package models

import "time"

// KYC verification statuses
const (
	KYCApproved = "approved"
	KYCRejected = "rejected"
)

// KYCVerification records an identity verification attempt. Score is
// the face-match score between the selfie and the id card photo.
type KYCVerification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	SelfieURL string    `json:"selfieUrl" db:"selfie_url"`
	IDCardURL string    `json:"idCardUrl" db:"id_card_url"`
	Score     float64   `json:"score" db:"score"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
