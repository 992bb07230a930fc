package repository

import (
	"database/sql"

	"github.com/faststart/inviter-backend/internal/model"
)

// FriendRepositoryInterface defines methods used by services and handlers
type FriendRepositoryInterface interface {
	GetByID(id string) (*model.Friend, error)
	ListAll() ([]model.Friend, error)
	ReplaceAll(friends []model.Friend) error
}

type FriendRepository struct {
	DB *sql.DB
}

func (r *FriendRepository) GetByID(id string) (*model.Friend, error) {
	row := r.DB.QueryRow(`
        SELECT id, name, first_name, profile_photo_url FROM friends WHERE id=$1
    `, id)

	var f model.Friend
	if err := row.Scan(&f.ID, &f.Name, &f.FirstName, &f.ProfilePhotoURL); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &f, nil
}

func (r *FriendRepository) ListAll() ([]model.Friend, error) {
	rows, err := r.DB.Query(`SELECT id, name, first_name, profile_photo_url FROM friends ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := []model.Friend{}
	for rows.Next() {
		var f model.Friend
		if err := rows.Scan(&f.ID, &f.Name, &f.FirstName, &f.ProfilePhotoURL); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// ReplaceAll swaps the whole friend inventory for a fresh harvest.
// Upsert keeps ids stable so existing list memberships and send history
// survive a refresh.
func (r *FriendRepository) ReplaceAll(friends []model.Friend) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
        INSERT INTO friends (id, name, first_name, profile_photo_url)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
        SET name=EXCLUDED.name, first_name=EXCLUDED.first_name, profile_photo_url=EXCLUDED.profile_photo_url
    `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range friends {
		if _, err := stmt.Exec(f.ID, f.Name, f.FirstName, f.ProfilePhotoURL); err != nil {
			return err
		}
	}

	return tx.Commit()
}

var _ FriendRepositoryInterface = (*FriendRepository)(nil)
