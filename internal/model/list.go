// internal/model/list.go
package model

import "time"

// FriendList is a named subset of friends used as a campaign target list.
type FriendList struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	FriendCount int       `db:"friend_count" json:"friend_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
