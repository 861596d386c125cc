package model

import "time"

// Game is the local record for an external catalog title.
//
// APIID is the catalog's identifier and is unique across the table. Name,
// BackgroundImage and Released are a snapshot taken when the row is created
// and are never refreshed.
type Game struct {
	ID              int64     `json:"id"              db:"id"`
	APIID           int64     `json:"apiId"           db:"api_id"`
	Name            string    `json:"name"            db:"name"`
	BackgroundImage *string   `json:"backgroundImage" db:"background_image"`
	Released        *string   `json:"released"        db:"released"`
	CreatedAt       time.Time `json:"createdAt"       db:"created_at"`
}
