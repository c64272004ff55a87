package models

import "time"

// MessageRow is a messages row with the counterpart still referenced by
// username.
type MessageRow struct {
	ID           string
	Counterparty string
	Body         string
	SentAt       time.Time
	ReadAt       *time.Time
}

// JoinedMessage is a messages row with the counterpart already resolved.
// Counterparty is nil when no users row matches.
type JoinedMessage struct {
	ID           string
	Counterparty *UserSummary
	Body         string
	SentAt       time.Time
	ReadAt       *time.Time
}

// SentMessage is a message as seen by its sender.
type SentMessage struct {
	ID     string       `json:"id"`
	ToUser *UserSummary `json:"to_user"`
	Body   string       `json:"body"`
	SentAt time.Time    `json:"sent_at"`
	ReadAt *time.Time   `json:"read_at"`
}

// ReceivedMessage is a message as seen by its recipient.
type ReceivedMessage struct {
	ID       string       `json:"id"`
	FromUser *UserSummary `json:"from_user"`
	Body     string       `json:"body"`
	SentAt   time.Time    `json:"sent_at"`
	ReadAt   *time.Time   `json:"read_at"`
}
