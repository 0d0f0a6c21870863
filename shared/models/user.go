package models

import "time"

// User represents a player account stored persistently in MongoDB.
// The contest engine only reads Team and Strength; every other field is owned
// by the account subsystem. LastBattle is the one field the engine writes back.
type User struct {
	ID         string     `bson:"_id" json:"id"` // UUID issued at registration
	Username   string     `bson:"username" json:"username"`
	Team       *int64     `bson:"team,omitempty" json:"team"` // nil = unaffiliated
	Strength   int64      `bson:"strength" json:"strength"`
	LastBattle *time.Time `bson:"last_battle,omitempty" json:"last_battle"`
	CreatedAt  *time.Time `bson:"created_at,omitempty" json:"created_at"`
}
