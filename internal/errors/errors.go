// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// Validation errors reported synchronously to the caller of Start / manual
// operations. Never retried automatically.
var (
	ErrEmptyTargetList  = errors.New("the selected list has no friends")
	ErrCampaignActive   = errors.New("a campaign is already active")
	ErrNoActiveCampaign = errors.New("no active campaign")
	ErrSendInFlight     = errors.New("a send is already in flight")
	ErrRecordNotPending = errors.New("record not found or already sent")
	ErrTemplateNotFound = errors.New("message template not found")
	ErrListNotFound     = errors.New("friend list not found")
	ErrFriendNotFound   = errors.New("friend not found")
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// IsValidation reports whether err should surface as a 4xx rather than a 5xx.
func IsValidation(err error) bool {
	var nf *ErrCampaignNotFound
	return errors.Is(err, ErrEmptyTargetList) ||
		errors.Is(err, ErrCampaignActive) ||
		errors.Is(err, ErrNoActiveCampaign) ||
		errors.Is(err, ErrSendInFlight) ||
		errors.Is(err, ErrRecordNotPending) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrListNotFound) ||
		errors.Is(err, ErrFriendNotFound) ||
		errors.As(err, &nf)
}
