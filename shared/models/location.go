package models

import "time"

// Location is a contestable point on the map. The descriptive fields (name,
// image, coordinates) are static; the ownership triple (OwnerTeam, OwnerCount,
// StrongestOwnerID) plus OwnedSince is the only state the contest engine
// mutates, and the triple is always reset together when OwnerTeam changes.
type Location struct {
	ID        int64   `bson:"_id" json:"id"`
	Name      string  `bson:"name" json:"name"`
	ImageURL  string  `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`

	OwnerTeam        *int64     `bson:"owner_team,omitempty" json:"owner_team"` // nil = unclaimed
	OwnerCount       int64      `bson:"owner_count" json:"owner_count"`
	OwnedSince       *time.Time `bson:"owned_since,omitempty" json:"owned_since"`
	StrongestOwnerID *string    `bson:"strongest_owner_id,omitempty" json:"strongest_owner_id"`
}
