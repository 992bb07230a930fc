package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/faststart/inviter-backend/internal/errors"
	"github.com/faststart/inviter-backend/internal/model"
)

type ListRepositoryInterface interface {
	Create(name string, friendIDs []string) (*model.FriendList, error)
	Update(id, name string, friendIDs []string) error
	Delete(id string) error
	GetByID(id string) (*model.FriendList, []model.Friend, error)
	ListAll() ([]model.FriendList, error)
	FriendIDs(listID string) ([]string, error)
}

type ListRepository struct {
	DB *sql.DB
}

func (r *ListRepository) Create(name string, friendIDs []string) (*model.FriendList, error) {
	now := time.Now()
	list := &model.FriendList{
		ID:          newID(),
		Name:        name,
		FriendCount: len(friendIDs),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        INSERT INTO lists (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)
    `, list.ID, list.Name, list.CreatedAt, list.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := insertListFriends(tx, list.ID, friendIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ListRepository) Update(id, name string, friendIDs []string) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE lists SET name=$1, updated_at=$2 WHERE id=$3`, name, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.ErrListNotFound
	}

	// Replace membership wholesale
	if _, err := tx.Exec(`DELETE FROM list_friends WHERE list_id=$1`, id); err != nil {
		return err
	}
	if err := insertListFriends(tx, id, friendIDs); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *ListRepository) Delete(id string) error {
	res, err := r.DB.Exec(`DELETE FROM lists WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.ErrListNotFound
	}
	return nil
}

func (r *ListRepository) GetByID(id string) (*model.FriendList, []model.Friend, error) {
	row := r.DB.QueryRow(`
        SELECT l.id, l.name, COUNT(lf.friend_id), l.created_at, l.updated_at
        FROM lists l
        LEFT JOIN list_friends lf ON l.id = lf.list_id
        WHERE l.id=$1
        GROUP BY l.id
    `, id)

	var list model.FriendList
	if err := row.Scan(&list.ID, &list.Name, &list.FriendCount, &list.CreatedAt, &list.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.ErrListNotFound
		}
		return nil, nil, err
	}

	rows, err := r.DB.Query(`
        SELECT f.id, f.name, f.first_name, f.profile_photo_url
        FROM friends f
        JOIN list_friends lf ON f.id = lf.friend_id
        WHERE lf.list_id=$1
        ORDER BY lf.position ASC
    `, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	friends := []model.Friend{}
	for rows.Next() {
		var f model.Friend
		if err := rows.Scan(&f.ID, &f.Name, &f.FirstName, &f.ProfilePhotoURL); err != nil {
			return nil, nil, err
		}
		friends = append(friends, f)
	}
	return &list, friends, rows.Err()
}

func (r *ListRepository) ListAll() ([]model.FriendList, error) {
	rows, err := r.DB.Query(`
        SELECT l.id, l.name, COUNT(lf.friend_id), l.created_at, l.updated_at
        FROM lists l
        LEFT JOIN list_friends lf ON l.id = lf.list_id
        GROUP BY l.id
        ORDER BY l.created_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := []model.FriendList{}
	for rows.Next() {
		var l model.FriendList
		if err := rows.Scan(&l.ID, &l.Name, &l.FriendCount, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// FriendIDs returns list membership in insertion order. Campaign start uses
// this order to fix the FIFO attempt sequence.
func (r *ListRepository) FriendIDs(listID string) ([]string, error) {
	rows, err := r.DB.Query(`
        SELECT friend_id FROM list_friends WHERE list_id=$1 ORDER BY position ASC
    `, listID)
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

func insertListFriends(tx *sql.Tx, listID string, friendIDs []string) error {
	stmt, err := tx.Prepare(`INSERT INTO list_friends (list_id, friend_id, position) VALUES ($1, $2, $3)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, friendID := range friendIDs {
		if _, err := stmt.Exec(listID, friendID, i); err != nil {
			return err
		}
	}
	return nil
}

var _ ListRepositoryInterface = (*ListRepository)(nil)
