// internal/model/friend.go
package model

// Friend is one harvested message target. Rows are replaced wholesale on
// every refresh from the scraping collaborator, never edited in place.
type Friend struct {
	ID              string `db:"id" json:"id"`
	Name            string `db:"name" json:"name"`
	FirstName       string `db:"first_name" json:"first_name"`
	ProfilePhotoURL string `db:"profile_photo_url" json:"profile_photo_url"`
}
