package models

import "time"

// AnalysisRecord is one persisted classification result. Records are
// append-only: built once per successful classification and never mutated.
type AnalysisRecord struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Result     string    `json:"result"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	SrcIP      *string   `json:"srcIp,omitempty"`
	DstIP      *string   `json:"dstIp,omitempty"`
	UserID     *int64    `json:"userId,omitempty"`
}

// User is a registered dashboard account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// ManualFeatures is the feature vector accepted by the manual probe. Keys
// mirror what the AI engine expects (pktcount, bytecount, duration, flows,
// pktpersec, prio).
type ManualFeatures map[string]interface{}
