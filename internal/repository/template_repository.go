package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/faststart/inviter-backend/internal/errors"
	"github.com/faststart/inviter-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(name, body string) (*model.MessageTemplate, error)
	Update(id, name, body string) error
	GetByID(id string) (*model.MessageTemplate, error)
	ListAll() ([]model.MessageTemplate, error)
	// Delete removes the template and every campaign that used it, with
	// their send records. Returns the ids of the removed campaigns so the
	// scheduler can detach if one of them was live.
	Delete(id string) ([]string, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) Create(name, body string) (*model.MessageTemplate, error) {
	t := &model.MessageTemplate{
		ID:        newID(),
		Name:      name,
		Body:      body,
		CreatedAt: time.Now(),
	}
	_, err := r.DB.Exec(`
        INSERT INTO message_templates (id, name, body, created_at) VALUES ($1, $2, $3, $4)
    `, t.ID, t.Name, t.Body, t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TemplateRepository) Update(id, name, body string) error {
	res, err := r.DB.Exec(`UPDATE message_templates SET name=$1, body=$2 WHERE id=$3`, name, body, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.ErrTemplateNotFound
	}
	return nil
}

func (r *TemplateRepository) GetByID(id string) (*model.MessageTemplate, error) {
	row := r.DB.QueryRow(`SELECT id, name, body, created_at FROM message_templates WHERE id=$1`, id)

	var t model.MessageTemplate
	if err := row.Scan(&t.ID, &t.Name, &t.Body, &t.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrTemplateNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) ListAll() ([]model.MessageTemplate, error) {
	rows, err := r.DB.Query(`SELECT id, name, body, created_at FROM message_templates ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []model.MessageTemplate{}
	for rows.Next() {
		var t model.MessageTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Body, &t.CreatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) Delete(id string) ([]string, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id FROM campaigns WHERE template_id=$1`, id)
	if err != nil {
		return nil, err
	}
	campaignIDs := []string{}
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			rows.Close()
			return nil, err
		}
		campaignIDs = append(campaignIDs, cid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// send_records go via ON DELETE CASCADE when campaigns are removed
	if _, err := tx.Exec(`DELETE FROM campaigns WHERE template_id=$1`, id); err != nil {
		return nil, err
	}

	res, err := tx.Exec(`DELETE FROM message_templates WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, appErrors.ErrTemplateNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return campaignIDs, nil
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
