// internal/model/campaign.go
package model

import "time"

// CampaignStatus is the campaign state machine enum.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignComplete  CampaignStatus = "complete"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Terminal reports whether no further sends can happen for this status.
func (s CampaignStatus) Terminal() bool {
	return s == CampaignComplete || s == CampaignCancelled
}

// Campaign is one run of a template against a friend list. At most one
// campaign is active at a time.
type Campaign struct {
	ID                 string         `db:"id" json:"id"`
	ListID             string         `db:"list_id" json:"list_id"`
	TemplateID         string         `db:"template_id" json:"template_id"`
	Status             CampaignStatus `db:"status" json:"status"`
	SentToday          int            `db:"sent_today" json:"sent_today"`
	LastSendDate       string         `db:"last_send_date" json:"last_send_date"` // YYYY-MM-DD local
	LastVariationIndex *int           `db:"last_variation_index" json:"last_variation_index,omitempty"`
	StartedAt          time.Time      `db:"started_at" json:"started_at"`
	UpdatedAt          *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}
