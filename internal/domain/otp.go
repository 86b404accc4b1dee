package domain

import "time"

type OTPEntry struct {
	CodeHash  string    `json:"code_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

func (e OTPEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
