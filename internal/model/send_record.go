// internal/model/send_record.go
package model

import "time"

// SendStatus is the per-target outcome enum. Pending is the only
// non-terminal state; a record moves to Sent or Failed exactly once.
type SendStatus string

const (
	SendPending SendStatus = "pending"
	SendSent    SendStatus = "sent"
	SendFailed  SendStatus = "failed"
)

// Terminal reports whether the record has reached its final state.
func (s SendStatus) Terminal() bool {
	return s == SendSent || s == SendFailed
}

// SendRecord tracks one (campaign, friend) delivery outcome. Position fixes
// the FIFO attempt order from the target list at campaign start.
type SendRecord struct {
	ID               string     `db:"id" json:"id"`
	CampaignID       string     `db:"campaign_id" json:"campaign_id"`
	FriendID         string     `db:"friend_id" json:"friend_id"`
	Position         int        `db:"position" json:"position"`
	Status           SendStatus `db:"status" json:"status"`
	MessageVariation *int       `db:"message_variation" json:"message_variation,omitempty"`
	ScheduledAt      *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	SentAt           *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	Error            string     `db:"error" json:"error,omitempty"`
}

// PendingTarget is a pending send record joined with the friend it targets,
// as the scheduler consumes it.
type PendingTarget struct {
	Record SendRecord
	Friend Friend
}
