package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/faststart/inviter-backend/internal/errors"
	"github.com/faststart/inviter-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign aggregate
	Create(c *model.Campaign, friendIDs []string) error
	GetByID(id string) (*model.Campaign, error)
	GetActive() (*model.Campaign, error)
	UpdateStatus(campaignID string, status model.CampaignStatus) error
	UpdateCounters(campaignID string, sentToday int, lastSendDate string, lastVariationIndex *int) error

	// Send records
	NextPendingTarget(campaignID string) (*model.PendingTarget, error)
	GetPendingRecord(recordID string) (*model.PendingTarget, error)
	EnsureScheduled(recordID string, at time.Time) error
	MarkSent(recordID string, sentAt time.Time, variation int) error
	MarkFailed(recordID string, reason string, variation *int) error
	CountPending(campaignID string) (int, error)
	GetCampaignStats(campaignID string) (map[string]int, error)
	LastFailure(campaignID string) (string, error)
	ListRecords(campaignID string) ([]RecordDetail, error)
	SentFriendIDs(friendIDs []string) ([]string, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

// RecordDetail is a send record joined with its friend, for status screens.
type RecordDetail struct {
	model.SendRecord
	FriendName      string `json:"friend_name"`
	FirstName       string `json:"first_name"`
	ProfilePhotoURL string `json:"profile_photo_url"`
}

// ====================== Campaign aggregate ======================

// Create inserts the campaign and one pending send record per friend, in
// list order, inside one transaction.
func (r *CampaignRepository) Create(c *model.Campaign, friendIDs []string) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        INSERT INTO campaigns (id, list_id, template_id, status, sent_today, last_send_date, last_variation_index, started_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, c.ID, c.ListID, c.TemplateID, c.Status, c.SentToday, c.LastSendDate, c.LastVariationIndex, c.StartedAt)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
        INSERT INTO send_records (id, campaign_id, friend_id, position, status)
        VALUES ($1, $2, $3, $4, 'pending')
    `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, friendID := range friendIDs {
		if _, err := stmt.Exec(newID(), c.ID, friendID, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *CampaignRepository) GetByID(id string) (*model.Campaign, error) {
	row := r.DB.QueryRow(`
        SELECT id, list_id, template_id, status, sent_today, last_send_date, last_variation_index, started_at, updated_at
        FROM campaigns WHERE id=$1
    `, id)
	c, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

// GetActive returns the single active-or-paused campaign, or nil.
// Complete and cancelled campaigns are retained for audit only.
func (r *CampaignRepository) GetActive() (*model.Campaign, error) {
	row := r.DB.QueryRow(`
        SELECT id, list_id, template_id, status, sent_today, last_send_date, last_variation_index, started_at, updated_at
        FROM campaigns WHERE status IN ('active', 'paused')
        ORDER BY started_at DESC LIMIT 1
    `)
	c, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) UpdateStatus(campaignID string, status model.CampaignStatus) error {
	_, err := r.DB.Exec(`UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2`, status, campaignID)
	return err
}

func (r *CampaignRepository) UpdateCounters(campaignID string, sentToday int, lastSendDate string, lastVariationIndex *int) error {
	_, err := r.DB.Exec(`
        UPDATE campaigns SET sent_today=$1, last_send_date=$2, last_variation_index=$3, updated_at=NOW()
        WHERE id=$4
    `, sentToday, lastSendDate, lastVariationIndex, campaignID)
	return err
}

// ====================== Send records ======================

const pendingTargetQuery = `
    SELECT sr.id, sr.campaign_id, sr.friend_id, sr.position, sr.status, sr.message_variation,
           sr.scheduled_at, sr.sent_at, sr.error,
           f.id, f.name, f.first_name, f.profile_photo_url
    FROM send_records sr
    JOIN friends f ON sr.friend_id = f.id
`

// NextPendingTarget returns the earliest-positioned pending record. Failed
// records are skipped permanently; the scheduler never retries them.
func (r *CampaignRepository) NextPendingTarget(campaignID string) (*model.PendingTarget, error) {
	row := r.DB.QueryRow(pendingTargetQuery+`
        WHERE sr.campaign_id=$1 AND sr.status='pending'
        ORDER BY sr.position ASC LIMIT 1
    `, campaignID)
	return scanPendingTarget(row)
}

func (r *CampaignRepository) GetPendingRecord(recordID string) (*model.PendingTarget, error) {
	row := r.DB.QueryRow(pendingTargetQuery+`
        WHERE sr.id=$1 AND sr.status='pending'
    `, recordID)
	return scanPendingTarget(row)
}

// EnsureScheduled stamps scheduled_at once; later ticks for the same record
// leave the original value (the defer path depends on this).
func (r *CampaignRepository) EnsureScheduled(recordID string, at time.Time) error {
	_, err := r.DB.Exec(`
        UPDATE send_records SET scheduled_at=$1 WHERE id=$2 AND scheduled_at IS NULL
    `, at, recordID)
	return err
}

// MarkSent performs the Pending -> Sent terminal transition. The status
// guard makes the transition exactly-once.
func (r *CampaignRepository) MarkSent(recordID string, sentAt time.Time, variation int) error {
	_, err := r.DB.Exec(`
        UPDATE send_records SET status='sent', sent_at=$1, message_variation=$2, error=''
        WHERE id=$3 AND status='pending'
    `, sentAt, variation, recordID)
	return err
}

// MarkFailed performs the Pending -> Failed terminal transition. Failed is
// terminal: sent_at stays NULL and the record is never requeued.
func (r *CampaignRepository) MarkFailed(recordID string, reason string, variation *int) error {
	_, err := r.DB.Exec(`
        UPDATE send_records SET status='failed', error=$1, message_variation=$2, sent_at=NULL
        WHERE id=$3 AND status='pending'
    `, reason, variation, recordID)
	return err
}

func (r *CampaignRepository) CountPending(campaignID string) (int, error) {
	var count int
	err := r.DB.QueryRow(`
        SELECT COUNT(*) FROM send_records WHERE campaign_id=$1 AND status='pending'
    `, campaignID).Scan(&count)
	return count, err
}

func (r *CampaignRepository) GetCampaignStats(campaignID string) (map[string]int, error) {
	rows, err := r.DB.Query(`SELECT status, COUNT(*) FROM send_records WHERE campaign_id=$1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"pending": 0, "sent": 0, "failed": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// LastFailure returns the most recent failed record's error for operator
// visibility, or "" if nothing has failed.
func (r *CampaignRepository) LastFailure(campaignID string) (string, error) {
	var reason string
	err := r.DB.QueryRow(`
        SELECT error FROM send_records
        WHERE campaign_id=$1 AND status='failed'
        ORDER BY scheduled_at DESC NULLS LAST LIMIT 1
    `, campaignID).Scan(&reason)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return reason, err
}

func (r *CampaignRepository) ListRecords(campaignID string) ([]RecordDetail, error) {
	rows, err := r.DB.Query(pendingTargetQuery+`
        WHERE sr.campaign_id=$1
        ORDER BY sr.sent_at DESC NULLS LAST, sr.position ASC
    `, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []RecordDetail{}
	for rows.Next() {
		target, err := scanPendingTargetRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, RecordDetail{
			SendRecord:      target.Record,
			FriendName:      target.Friend.Name,
			FirstName:       target.Friend.FirstName,
			ProfilePhotoURL: target.Friend.ProfilePhotoURL,
		})
	}
	return records, rows.Err()
}

// SentFriendIDs returns which of the given friends already received a
// message in any campaign, so list building can exclude them.
func (r *CampaignRepository) SentFriendIDs(friendIDs []string) ([]string, error) {
	if len(friendIDs) == 0 {
		return []string{}, nil
	}
	rows, err := r.DB.Query(`
        SELECT DISTINCT friend_id FROM send_records
        WHERE friend_id = ANY($1) AND status='sent'
    `, pqStringArray(friendIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ====================== scan helpers ======================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	var lastVariation sql.NullInt64
	var updatedAt sql.NullTime
	err := row.Scan(&c.ID, &c.ListID, &c.TemplateID, &c.Status, &c.SentToday,
		&c.LastSendDate, &lastVariation, &c.StartedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if lastVariation.Valid {
		v := int(lastVariation.Int64)
		c.LastVariationIndex = &v
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		c.UpdatedAt = &t
	}
	return &c, nil
}

func scanPendingTarget(row *sql.Row) (*model.PendingTarget, error) {
	target, err := scanPendingTargetRows(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return target, nil
}

func scanPendingTargetRows(row rowScanner) (*model.PendingTarget, error) {
	var t model.PendingTarget
	var variation sql.NullInt64
	var scheduledAt, sentAt sql.NullTime
	err := row.Scan(
		&t.Record.ID, &t.Record.CampaignID, &t.Record.FriendID, &t.Record.Position,
		&t.Record.Status, &variation, &scheduledAt, &sentAt, &t.Record.Error,
		&t.Friend.ID, &t.Friend.Name, &t.Friend.FirstName, &t.Friend.ProfilePhotoURL,
	)
	if err != nil {
		return nil, err
	}
	if variation.Valid {
		v := int(variation.Int64)
		t.Record.MessageVariation = &v
	}
	if scheduledAt.Valid {
		at := scheduledAt.Time
		t.Record.ScheduledAt = &at
	}
	if sentAt.Valid {
		at := sentAt.Time
		t.Record.SentAt = &at
	}
	return &t, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
