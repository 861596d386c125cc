package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating of one game. (UserID, GameID) is unique.
type Review struct {
	ID         int64     `json:"id"         db:"id"`
	UserID     int64     `json:"userId"     db:"user_id"`
	GameID     int64     `json:"gameId"     db:"game_id"`
	Rating     int       `json:"rating"     db:"rating"`
	ReviewText string    `json:"reviewText" db:"review_text"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}

// ReviewDetail is a review joined with the display fields of its game.
// It backs the edit form.
type ReviewDetail struct {
	ID              int64   `json:"id"              db:"id"`
	UserID          int64   `json:"userId"          db:"user_id"`
	GameID          int64   `json:"gameId"          db:"game_id"`
	Rating          int     `json:"rating"          db:"rating"`
	ReviewText      string  `json:"reviewText"      db:"review_text"`
	Name            string  `json:"name"            db:"name"`
	BackgroundImage *string `json:"backgroundImage" db:"background_image"`
}

// LibraryEntry is one row of a user's library.
//
// CommunityRating is the mean rating across every user's review of the game,
// computed at read time. It is nil only when the game has no reviews.
type LibraryEntry struct {
	ReviewID        int64    `json:"reviewId"        db:"review_id"`
	UserID          int64    `json:"userId"          db:"user_id"`
	GameID          int64    `json:"gameId"          db:"game_id"`
	Rating          int      `json:"rating"          db:"rating"`
	ReviewText      string   `json:"reviewText"      db:"review_text"`
	Name            string   `json:"name"            db:"name"`
	BackgroundImage *string  `json:"backgroundImage" db:"background_image"`
	CommunityRating *float64 `json:"communityRating" db:"community_rating"`
}
