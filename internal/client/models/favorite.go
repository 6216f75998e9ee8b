package models

import "time"

// FavoriteProfile is the denormalized display snapshot of a favourite's target.
type FavoriteProfile struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	City      string `json:"city,omitempty"`
	Age       int    `json:"age,omitempty"`
	PhotoURL  string `json:"photoUrl,omitempty"`
}

// Favorite is one entry of the favourites collection, keyed by TargetID.
type Favorite struct {
	TargetID  string          `json:"targetId"`
	Profile   FavoriteProfile `json:"profile"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
}
